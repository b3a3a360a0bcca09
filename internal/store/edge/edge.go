// Package edge is the HTTP client for the remote edge-hosted store.
//
// The store exposes a small REST protocol: a statement (SQL text plus an
// ordered parameter list) is POSTed to /query, a group of statements to
// /batch. The store executes a batch as one unit. Responses carry rows and
// per-statement accounting meta. There are no transactions and no typed
// error distinctions; failures arrive as HTTP errors or a success=false
// envelope, and the executor above this package decides what to do about
// them.
package edge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/statelayer/edgebase/internal/store"
)

// Config carries the binding for one remote database.
type Config struct {
	// Endpoint is the base URL of the store gateway.
	Endpoint string
	// AccountID and DatabaseID address the database under the account.
	AccountID  string
	DatabaseID string
	// Token is the bearer token authorizing the binding.
	Token string
	// HTTPTimeout bounds a single request. Zero means 30s.
	HTTPTimeout time.Duration
}

// Client implements store.Conn over the store's REST protocol.
type Client struct {
	cfg  Config
	http *http.Client
	base string
	log  zerolog.Logger
}

// New builds a client for the configured database binding.
func New(cfg Config, log zerolog.Logger) *Client {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
		base: fmt.Sprintf("%s/v1/accounts/%s/databases/%s",
			strings.TrimRight(cfg.Endpoint, "/"), cfg.AccountID, cfg.DatabaseID),
		log: log.With().Str("component", "edge_store").Logger(),
	}
}

// wire types

type wireQuery struct {
	SQL    string `json:"sql"`
	Params []any  `json:"params"`
}

type wireBatch struct {
	Statements []wireQuery `json:"statements"`
}

type wireMeta struct {
	DurationMs   float64 `json:"duration_ms"`
	RowsRead     int64   `json:"rows_read"`
	RowsWritten  int64   `json:"rows_written"`
	Changes      int64   `json:"changes"`
	LastInsertID *int64  `json:"last_insert_id"`
}

type wireResult struct {
	Rows []store.Row `json:"rows"`
	Meta wireMeta    `json:"meta"`
}

type wireResponse struct {
	Success bool         `json:"success"`
	Errors  []string     `json:"errors"`
	Results []wireResult `json:"results"`
}

// Prepare implements store.Conn.
func (c *Client) Prepare(sql string) store.Statement {
	return &statement{client: c, sql: sql}
}

// Batch implements store.Conn.
func (c *Client) Batch(ctx context.Context, queries []store.Query) ([]store.Result, error) {
	payload := wireBatch{Statements: make([]wireQuery, 0, len(queries))}
	for _, q := range queries {
		payload.Statements = append(payload.Statements, wireQuery{SQL: q.SQL, Params: normalizeParams(q.Params)})
	}

	resp, err := c.post(ctx, "/batch", payload)
	if err != nil {
		return nil, err
	}

	results := make([]store.Result, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, store.Result{Rows: r.Rows, Meta: r.Meta.toMeta()})
	}
	return results, nil
}

// Ping implements store.Conn with a lightweight round trip.
func (c *Client) Ping(ctx context.Context) error {
	_, _, err := c.Prepare("SELECT 1").First(ctx)
	return err
}

// Close implements store.Conn.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload any) (*wireResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("edge store request: %w", err)
	}
	defer resp.Body.Close()
	c.log.Trace().Str("path", path).Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).Msg("edge store round trip")

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("reading edge store response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("edge store returned status %d: %s", resp.StatusCode, truncate(string(data), 256))
	}

	var out wireResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decoding edge store response: %w", err)
	}
	if !out.Success {
		return nil, fmt.Errorf("edge store error: %s", strings.Join(out.Errors, "; "))
	}
	return &out, nil
}

type statement struct {
	client *Client
	sql    string
	params []any
}

func (st *statement) Bind(params ...any) store.Statement {
	st.params = params
	return st
}

func (st *statement) All(ctx context.Context) (*store.Result, error) {
	return st.run(ctx)
}

func (st *statement) First(ctx context.Context) (store.Row, *store.Meta, error) {
	res, err := st.run(ctx)
	if err != nil {
		return nil, nil, err
	}
	meta := res.Meta
	if len(res.Rows) == 0 {
		return nil, &meta, nil
	}
	return res.Rows[0], &meta, nil
}

func (st *statement) Run(ctx context.Context) (*store.Result, error) {
	return st.run(ctx)
}

func (st *statement) run(ctx context.Context) (*store.Result, error) {
	resp, err := st.client.post(ctx, "/query", wireQuery{SQL: st.sql, Params: normalizeParams(st.params)})
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return &store.Result{}, nil
	}
	r := resp.Results[0]
	return &store.Result{Rows: r.Rows, Meta: r.Meta.toMeta()}, nil
}

func (m wireMeta) toMeta() store.Meta {
	return store.Meta{
		Duration:     time.Duration(m.DurationMs * float64(time.Millisecond)),
		RowsRead:     m.RowsRead,
		RowsWritten:  m.RowsWritten,
		Changes:      m.Changes,
		LastInsertID: m.LastInsertID,
	}
}

// normalizeParams keeps the JSON body stable: a nil slice encodes as [].
func normalizeParams(params []any) []any {
	if params == nil {
		return []any{}
	}
	return params
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
