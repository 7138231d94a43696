package testrail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// Query is the read-only query module: it fetches runs, tests and results and
// builds the failed/blocked report on top of them.
type Query struct {
	client   *Client
	progress func(done, total int)
}

// QueryOption customizes a Query
type QueryOption func(*Query)

// WithProgress registers a callback invoked after every per-test result fetch
// made while classifying a run
func WithProgress(fn func(done, total int)) QueryOption {
	return func(q *Query) {
		q.progress = fn
	}
}

// NewQuery builds a Query from a mapping with base_url, username and password
func NewQuery(config map[string]string, clientOpts []ClientOption, opts ...QueryOption) (*Query, error) {
	creds := CredentialsFromMap(config, "password")
	if missing := creds.Missing("password"); len(missing) > 0 {
		return nil, configError(missing)
	}
	client, err := NewClient(creds, clientOpts...)
	if err != nil {
		return nil, err
	}
	return NewQueryWithClient(client, opts...), nil
}

// NewQueryWithClient builds a Query on an existing client
func NewQueryWithClient(client *Client, opts ...QueryOption) *Query {
	q := &Query{client: client}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// GetRun returns the details of a test run
func (q *Query) GetRun(ctx context.Context, runID int) (Object, error) {
	var run Object
	if err := q.client.Get(ctx, fmt.Sprintf("get_run/%d", runID), nil, &run); err != nil {
		return nil, err
	}
	return run, nil
}

// GetTests returns every test of a run
func (q *Query) GetTests(ctx context.Context, runID int) ([]Object, error) {
	return q.list(ctx, fmt.Sprintf("get_tests/%d", runID), "tests")
}

// GetResults returns the results of a test, most recent first
func (q *Query) GetResults(ctx context.Context, testID int) ([]Object, error) {
	return q.list(ctx, fmt.Sprintf("get_results/%d", testID), "results")
}

// list fetches endpoint and unwraps the collection under key. Responses from
// TestRail releases before bulk pagination are bare arrays and are accepted too.
func (q *Query) list(ctx context.Context, endpoint, key string) ([]Object, error) {
	var raw json.RawMessage
	if err := q.client.Get(ctx, endpoint, nil, &raw); err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []Object
		if err := decodeJSON(trimmed, &items); err != nil {
			return nil, &TransportError{Err: fmt.Errorf("failed to parse %s: %w", key, err)}
		}
		return orEmpty(items), nil
	}

	var page map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, &TransportError{Err: fmt.Errorf("failed to parse %s: %w", key, err)}
	}
	items := []Object{}
	if body, ok := page[key]; ok {
		if err := decodeJSON(body, &items); err != nil {
			return nil, &TransportError{Err: fmt.Errorf("failed to parse %s: %w", key, err)}
		}
	}
	return orEmpty(items), nil
}

func orEmpty(items []Object) []Object {
	if items == nil {
		return []Object{}
	}
	return items
}
