package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildWhereEmpty(t *testing.T) {
	wc := BuildWhere(nil)
	assert.Empty(t, wc.Clause)
	assert.NotNil(t, wc.Params)
	assert.Empty(t, wc.Params)
}

func TestBuildWhereComparison(t *testing.T) {
	wc := BuildWhere([]Condition{
		{Column: "email", Operator: "=", Value: "a@example.com"},
		{Column: "created_at", Operator: ">=", Value: "2026-01-01"},
	})
	assert.Equal(t, "WHERE email = ? AND created_at >= ?", wc.Clause)
	assert.Equal(t, []any{"a@example.com", "2026-01-01"}, wc.Params)
}

func TestBuildWhereIn(t *testing.T) {
	wc := BuildWhere([]Condition{
		{Column: "status", Operator: "IN", Value: []string{"active", "pending"}},
	})
	assert.Equal(t, "WHERE status IN (?, ?)", wc.Clause)
	assert.Equal(t, []any{"active", "pending"}, wc.Params)
}

func TestBuildWhereNotIn(t *testing.T) {
	wc := BuildWhere([]Condition{
		{Column: "id", Operator: "NOT IN", Value: []int{1, 2, 3}},
	})
	assert.Equal(t, "WHERE id NOT IN (?, ?, ?)", wc.Clause)
	assert.Equal(t, []any{1, 2, 3}, wc.Params)
}

func TestBuildWhereNullChecks(t *testing.T) {
	wc := BuildWhere([]Condition{
		{Column: "deleted_at", Operator: "IS NULL"},
		{Column: "email", Operator: "is not null"},
	})
	assert.Equal(t, "WHERE deleted_at IS NULL AND email IS NOT NULL", wc.Clause)
	assert.Empty(t, wc.Params)
}

func TestBuildWhereMixed(t *testing.T) {
	wc := BuildWhere([]Condition{
		{Column: "actor", Operator: "IN", Value: []string{"alice", "bob"}},
		{Column: "action", Operator: "=", Value: "login"},
		{Column: "detail", Operator: "IS NOT NULL"},
	})
	assert.Equal(t, "WHERE actor IN (?, ?) AND action = ? AND detail IS NOT NULL", wc.Clause)
	assert.Equal(t, []any{"alice", "bob", "login"}, wc.Params)
}

func TestBuildWhereScalarInDegradesToSingleElement(t *testing.T) {
	wc := BuildWhere([]Condition{
		{Column: "id", Operator: "IN", Value: "only"},
	})
	assert.Equal(t, "WHERE id IN (?)", wc.Clause)
	assert.Equal(t, []any{"only"}, wc.Params)
}

func TestBuildOrderBy(t *testing.T) {
	assert.Empty(t, BuildOrderBy(nil))

	got := BuildOrderBy([]OrderSpec{
		{Column: "created_at", Direction: "desc"},
		{Column: "email"},
	})
	assert.Equal(t, "ORDER BY created_at DESC, email ASC", got)
}

func TestBuildOrderByNormalizesUnknownDirection(t *testing.T) {
	got := BuildOrderBy([]OrderSpec{{Column: "id", Direction: "sideways"}})
	assert.Equal(t, "ORDER BY id ASC", got)
}

func TestBuildLimit(t *testing.T) {
	limit, offset := 10, 20

	assert.Empty(t, BuildLimit(nil, nil))
	assert.Equal(t, "LIMIT 10", BuildLimit(&limit, nil))
	assert.Equal(t, "OFFSET 20", BuildLimit(nil, &offset))
	assert.Equal(t, "LIMIT 10 OFFSET 20", BuildLimit(&limit, &offset))
}
