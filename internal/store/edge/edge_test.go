package edge

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statelayer/edgebase/internal/store"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{
		Endpoint:   srv.URL,
		AccountID:  "acc-1",
		DatabaseID: "db-1",
		Token:      "secret-token",
	}, zerolog.Nop())
}

func okEnvelope(results ...wireResult) wireResponse {
	return wireResponse{Success: true, Results: results}
}

func TestQueryRoundTrip(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody wireQuery

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(okEnvelope(wireResult{
			Rows: []store.Row{{"id": "u1", "email": "a@example.com"}},
			Meta: wireMeta{DurationMs: 12.5, RowsRead: 1},
		}))
	})

	res, err := client.Prepare("SELECT * FROM users WHERE id = ?").Bind("u1").All(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/v1/accounts/acc-1/databases/db-1/query", gotPath)
	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, "SELECT * FROM users WHERE id = ?", gotBody.SQL)
	assert.Equal(t, []any{"u1"}, gotBody.Params)

	require.Len(t, res.Rows, 1)
	assert.Equal(t, "a@example.com", res.Rows[0]["email"])
	assert.Equal(t, 12500*time.Microsecond, res.Meta.Duration)
	assert.Equal(t, int64(1), res.Meta.RowsRead)
}

func TestUnboundParamsEncodeAsEmptyList(t *testing.T) {
	var raw map[string]json.RawMessage
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		json.NewEncoder(w).Encode(okEnvelope(wireResult{}))
	})

	_, err := client.Prepare("SELECT 1").All(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(raw["params"]))
}

func TestFirstWithNoRows(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(okEnvelope(wireResult{Rows: []store.Row{}}))
	})

	row, meta, err := client.Prepare("SELECT * FROM users WHERE id = ?").Bind("none").First(context.Background())
	require.NoError(t, err)
	assert.Nil(t, row)
	require.NotNil(t, meta)
}

func TestRunReturnsWriteMeta(t *testing.T) {
	id := int64(42)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(okEnvelope(wireResult{
			Meta: wireMeta{Changes: 1, RowsWritten: 1, LastInsertID: &id},
		}))
	})

	res, err := client.Prepare("INSERT INTO users (email) VALUES (?)").Bind("a@example.com").Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Meta.Changes)
	require.NotNil(t, res.Meta.LastInsertID)
	assert.Equal(t, int64(42), *res.Meta.LastInsertID)
}

func TestBatchRoundTrip(t *testing.T) {
	var gotPath string
	var gotBody wireBatch

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(okEnvelope(
			wireResult{Meta: wireMeta{Changes: 1}},
			wireResult{Meta: wireMeta{Changes: 1}},
		))
	})

	results, err := client.Batch(context.Background(), []store.Query{
		{SQL: "INSERT INTO config (key, value) VALUES (?, ?)", Params: []any{"k", "v"}},
		{SQL: "DELETE FROM sessions WHERE expires_at < ?", Params: []any{"2026-01-01"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "/v1/accounts/acc-1/databases/db-1/batch", gotPath)
	require.Len(t, gotBody.Statements, 2)
	assert.Equal(t, []any{"k", "v"}, gotBody.Statements[0].Params)
	assert.Len(t, results, 2)
}

func TestErrorEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(wireResponse{
			Success: false,
			Errors:  []string{"D1_ERROR: no such table: missing"},
		})
	})

	_, err := client.Prepare("SELECT * FROM missing").All(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such table: missing")
}

func TestHTTPErrorStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "authentication error", http.StatusUnauthorized)
	})

	_, err := client.Prepare("SELECT 1").All(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.Contains(t, err.Error(), "authentication error")
}

func TestPing(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(okEnvelope(wireResult{Rows: []store.Row{{"1": float64(1)}}}))
	})

	require.NoError(t, client.Ping(context.Background()))
	assert.Equal(t, 1, calls)
}

func TestContextCancellation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server can observe the client disconnect
		// and cancel the request context; otherwise this blocks forever.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Prepare("SELECT 1").All(ctx)
	require.Error(t, err)
}
