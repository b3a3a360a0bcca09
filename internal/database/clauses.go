package database

import (
	"fmt"
	"strconv"
	"strings"
)

// Clause building is pure string/param assembly; nothing here touches the
// connection. Column and operator names are trusted inputs from the
// repository layer — only values are parameterized. Conditions are joined
// with AND; OR and nesting are out of scope.

// Condition is one WHERE predicate.
type Condition struct {
	Column   string
	Operator string
	Value    any
}

// OrderSpec is one ORDER BY entry.
type OrderSpec struct {
	Column    string
	Direction string // "ASC" or "DESC"
}

// WhereClause is the result of BuildWhere: the SQL fragment (including the
// leading WHERE, empty when no conditions) and the ordered parameter list.
type WhereClause struct {
	Clause string
	Params []any
}

// BuildWhere assembles a WHERE fragment from structured conditions.
//
// Supported operators: the comparison set (=, !=, <>, <, <=, >, >=, LIKE),
// IS NULL / IS NOT NULL (no parameter), and IN / NOT IN (value must be a
// slice; expands to one placeholder per element).
func BuildWhere(conditions []Condition) WhereClause {
	if len(conditions) == 0 {
		return WhereClause{Params: []any{}}
	}

	parts := make([]string, 0, len(conditions))
	params := make([]any, 0, len(conditions))

	for _, c := range conditions {
		op := strings.ToUpper(strings.TrimSpace(c.Operator))
		switch op {
		case "IS NULL", "IS NOT NULL":
			parts = append(parts, fmt.Sprintf("%s %s", c.Column, op))
		case "IN", "NOT IN":
			values := toSlice(c.Value)
			placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
			parts = append(parts, fmt.Sprintf("%s %s (%s)", c.Column, op, placeholders))
			params = append(params, values...)
		default:
			parts = append(parts, fmt.Sprintf("%s %s ?", c.Column, op))
			params = append(params, c.Value)
		}
	}

	return WhereClause{
		Clause: "WHERE " + strings.Join(parts, " AND "),
		Params: params,
	}
}

// BuildOrderBy joins "column direction" pairs with commas. Empty input
// yields an empty string.
func BuildOrderBy(specs []OrderSpec) string {
	if len(specs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(specs))
	for _, s := range specs {
		dir := strings.ToUpper(strings.TrimSpace(s.Direction))
		if dir != "DESC" {
			dir = "ASC"
		}
		parts = append(parts, s.Column+" "+dir)
	}
	return "ORDER BY " + strings.Join(parts, ", ")
}

// BuildLimit emits LIMIT and/or OFFSET when provided (nil means omitted).
// Both omitted yields an empty string.
func BuildLimit(limit, offset *int) string {
	var parts []string
	if limit != nil {
		parts = append(parts, "LIMIT "+strconv.Itoa(*limit))
	}
	if offset != nil {
		parts = append(parts, "OFFSET "+strconv.Itoa(*offset))
	}
	return strings.Join(parts, " ")
}

// toSlice widens the common slice shapes an IN value arrives as. A non-slice
// value degrades to a single-element list rather than failing; malformed
// input is the caller's responsibility.
func toSlice(v any) []any {
	switch vs := v.(type) {
	case []any:
		return vs
	case []string:
		out := make([]any, len(vs))
		for i, s := range vs {
			out[i] = s
		}
		return out
	case []int:
		out := make([]any, len(vs))
		for i, n := range vs {
			out[i] = n
		}
		return out
	case []int64:
		out := make([]any, len(vs))
		for i, n := range vs {
			out[i] = n
		}
		return out
	default:
		return []any{v}
	}
}
