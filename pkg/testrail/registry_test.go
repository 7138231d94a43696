package testrail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T, fake *fakeTestRail) *Registry {
	t.Helper()

	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	ext := NewExtension(WithHTTPClient(server.Client()))
	require.NoError(t, ext.Initialize(map[string]string{
		"base_url": server.URL,
		"username": "qa@example.com",
		"api_key":  "secret",
	}))
	q, err := NewQuery(map[string]string{
		"base_url": server.URL,
		"username": "qa@example.com",
		"password": "secret",
	}, []ClientOption{WithHTTPClient(server.Client())})
	require.NoError(t, err)

	reg := NewExtensionRegistry(ext)
	RegisterQueryTools(reg, q)
	return reg
}

func TestRegistry_Register(t *testing.T) {
	reg := NewRegistry()
	noop := func(context.Context, json.RawMessage) (interface{}, error) { return nil, nil }

	require.NoError(t, reg.Register(Tool{Name: "ping", Handler: noop}))
	assert.Error(t, reg.Register(Tool{Name: "ping", Handler: noop}))
	assert.Error(t, reg.Register(Tool{Name: "", Handler: noop}))
	assert.Error(t, reg.Register(Tool{Name: "nohandler"}))
	assert.Panics(t, func() { reg.MustRegister(Tool{Name: "ping", Handler: noop}) })

	tool, ok := reg.Get("ping")
	assert.True(t, ok)
	assert.Equal(t, "ping", tool.Name)
}

func TestRegistry_Names(t *testing.T) {
	reg := newTestRegistry(t, newFakeTestRail())

	assert.Equal(t, []string{
		"add_test_result",
		"close_test_run",
		"create_test_run",
		"export_to_spreadsheet",
		"get_failed_and_blocked",
		"get_projects",
		"get_test_cases",
		"get_test_results",
		"get_test_run",
		"get_test_runs",
		"get_tests",
	}, reg.Names())
	assert.Len(t, reg.Tools(), 11)
}

func TestRegistry_CallUnknownTool(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Call(context.Background(), "delete_everything", nil)
	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestRegistry_CallValidatesArguments(t *testing.T) {
	fake := newFakeTestRail()
	reg := newTestRegistry(t, fake)
	ctx := context.Background()

	tests := []struct {
		name string
		tool string
		args string
	}{
		{"missing required", "get_test_run", `{}`},
		{"null required", "get_test_run", `{"run_id":null}`},
		{"no arguments", "add_test_result", ``},
		{"unknown argument", "get_test_run", `{"run_id":1,"verbose":true}`},
		{"wrong type", "get_test_run", `{"run_id":"one"}`},
		{"not an object", "get_test_run", `[1]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.Call(ctx, tt.tool, json.RawMessage(tt.args))
			assert.ErrorIs(t, err, ErrInvalidArgs)
		})
	}
	assert.Empty(t, fake.endpoints())
}

func TestRegistry_CallDispatches(t *testing.T) {
	fake := newFakeTestRail()
	fake.handle("get_projects", http.StatusOK, `{"projects":[]}`)
	fake.handle("add_run/1", http.StatusOK, `{"id":42}`)
	fake.handle("get_runs/1", http.StatusOK, `{"runs":[]}`)
	fake.handle("get_tests/42", http.StatusOK, `{"tests":[]}`)
	fake.handle("add_result/7", http.StatusOK, `{"id":1}`)
	reg := newTestRegistry(t, fake)
	ctx := context.Background()

	out, err := reg.Call(ctx, "get_projects", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"projects":[]}`, string(out.(json.RawMessage)))

	_, err = reg.Call(ctx, "create_test_run", json.RawMessage(`{"project_id":1,"name":"Smoke","case_ids":[5,6]}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Smoke","include_all":false,"case_ids":[5,6]}`, fake.last().Body)

	_, err = reg.Call(ctx, "get_test_runs", json.RawMessage(`{"project_id":1,"is_completed":false,"limit":0}`))
	require.NoError(t, err)
	assert.Equal(t, "0", fake.last().Params.Get("is_completed"))
	assert.Equal(t, "0", fake.last().Params.Get("limit"))

	_, err = reg.Call(ctx, "get_tests", json.RawMessage(`{"run_id":42,"status_id":[5,2]}`))
	require.NoError(t, err)
	assert.Equal(t, "5,2", fake.last().Params.Get("status_id"))

	_, err = reg.Call(ctx, "add_test_result", json.RawMessage(`{"test_id":7,"status_id":1,"elapsed":"30s"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status_id":1,"elapsed":"30s"}`, fake.last().Body)
}

func TestRegistry_CallQueryTools(t *testing.T) {
	fake := newFakeTestRail()
	fake.handle("get_run/3", http.StatusOK, `{"id":3}`)
	fake.handle("get_tests/3", http.StatusOK, `{"tests":[{"id":9,"status_id":2}]}`)
	fake.handle("get_results/9", http.StatusOK, `{"results":[]}`)
	reg := newTestRegistry(t, fake)

	out, err := reg.Call(context.Background(), "export_to_spreadsheet",
		json.RawMessage(`{"run_id":3,"spreadsheet_id":"abc"}`))
	require.NoError(t, err)

	record, ok := out.(*ExportRecord)
	require.True(t, ok)
	assert.Equal(t, "abc", record.SpreadsheetID)
	assert.Len(t, record.Results.Blocked, 1)

	_, err = reg.Call(context.Background(), "export_to_spreadsheet", json.RawMessage(`{"run_id":3}`))
	assert.ErrorIs(t, err, ErrInvalidArgs)
}

func TestTool_JSONOmitsHandler(t *testing.T) {
	reg := newTestRegistry(t, newFakeTestRail())
	tool, ok := reg.Get("get_test_run")
	require.True(t, ok)

	b, err := json.Marshal(tool)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"name": "get_test_run",
		"description": "Get a test run by ID",
		"params": [{"name":"run_id","type":"integer","required":true,"description":"ID of the test run"}]
	}`, string(b))
}
