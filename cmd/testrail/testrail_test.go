package testrail

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Purneema-rathod/goose-testrail/pkg/common"
)

type recorded struct {
	endpoint string
	body     string
}

// newServer answers TestRail endpoints from routes and records each call
func newServer(t *testing.T, routes map[string]string) (*httptest.Server, *[]recorded) {
	t.Helper()
	calls := &[]recorded{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		endpoint, _, _ := strings.Cut(strings.TrimPrefix(r.URL.RawQuery, "/api/v2/"), "&")
		body, _ := io.ReadAll(r.Body)
		*calls = append(*calls, recorded{endpoint: endpoint, body: string(body)})

		response, ok := routes[endpoint]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"error":"unknown endpoint"}`)
			return
		}
		io.WriteString(w, response)
	}))
	t.Cleanup(server.Close)

	t.Setenv("TESTRAIL_BASE_URL", server.URL)
	t.Setenv("TESTRAIL_USERNAME", "qa@example.com")
	t.Setenv("TESTRAIL_API_KEY", "secret")
	return server, calls
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true

	var out bytes.Buffer
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func testOptions(t *testing.T, output string) *common.GlobalOptions {
	return &common.GlobalOptions{
		ConfigFile: filepath.Join(t.TempDir(), "config.yaml"),
		Output:     output,
	}
}

func TestProjectsCommand(t *testing.T) {
	_, calls := newServer(t, map[string]string{
		"get_projects": `{"projects":[{"id":1,"name":"Mobile"}]}`,
	})

	out, err := execute(t, NewProjectsCommand(testOptions(t, OutputJSON)))
	require.NoError(t, err)
	assert.JSONEq(t, `{"projects":[{"id":1,"name":"Mobile"}]}`, out)
	assert.Len(t, *calls, 1)
}

func TestProjectsCommand_YAML(t *testing.T) {
	newServer(t, map[string]string{
		"get_projects": `{"projects":[{"id":1,"name":"Mobile","announcement":"42"}]}`,
	})

	out, err := execute(t, NewProjectsCommand(testOptions(t, OutputYAML)))
	require.NoError(t, err)

	var got map[string][]map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, 1, got["projects"][0]["id"])
	assert.Equal(t, "Mobile", got["projects"][0]["name"])
	assert.Equal(t, "42", got["projects"][0]["announcement"])
}

func TestMissingConfiguration(t *testing.T) {
	t.Setenv("TESTRAIL_BASE_URL", "")
	t.Setenv("TESTRAIL_USERNAME", "")
	t.Setenv("TESTRAIL_API_KEY", "")
	t.Setenv("TESTRAIL_PASSWORD", "")

	_, err := execute(t, NewProjectsCommand(testOptions(t, OutputJSON)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "testrail.base_url must be specified")
}

func TestCreateRunCommand(t *testing.T) {
	_, calls := newServer(t, map[string]string{"add_run/1": `{"id":77}`})

	_, err := execute(t, NewRunsCommand(testOptions(t, OutputJSON)),
		"create", "--project-id", "1", "--name", "Smoke", "--case-ids", "5,6")
	require.NoError(t, err)
	require.Len(t, *calls, 1)
	assert.JSONEq(t, `{"name":"Smoke","include_all":false,"case_ids":[5,6]}`, (*calls)[0].body)
}

func TestAddResultCommand(t *testing.T) {
	_, calls := newServer(t, map[string]string{"add_result/42": `{"id":1}`})

	_, err := execute(t, NewResultsCommand(testOptions(t, OutputJSON)),
		"add", "--test-id", "42", "--status", "failed", "--comment", "boom")
	require.NoError(t, err)
	require.Len(t, *calls, 1)
	assert.JSONEq(t, `{"status_id":5,"comment":"boom"}`, (*calls)[0].body)
}

func TestAddResultCommand_BadStatus(t *testing.T) {
	_, calls := newServer(t, nil)

	_, err := execute(t, NewResultsCommand(testOptions(t, OutputJSON)),
		"add", "--test-id", "42", "--status", "flaky")
	require.Error(t, err)
	assert.Empty(t, *calls)
}

func TestGetRunCommand_InvalidID(t *testing.T) {
	_, err := execute(t, NewRunsCommand(testOptions(t, OutputJSON)), "get", "twelve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid run id "twelve"`)
}

func TestReportCommand(t *testing.T) {
	newServer(t, map[string]string{
		"get_tests/12":  `{"tests":[{"id":1,"status_id":5,"title":"Login"},{"id":2,"status_id":1},{"id":3,"status_id":2,"title":"Checkout"}]}`,
		"get_results/1": `{"results":[{"id":10,"comment":"Timeout after 30s\nstack trace","defects":"BUG-1"}]}`,
		"get_results/3": `{"results":[]}`,
	})

	out, err := execute(t, NewReportCommand(testOptions(t, OutputJSON)), "--run-id", "12")
	require.NoError(t, err)
	assert.Contains(t, out, "Run 12: 1 failed, 1 blocked")
	assert.Contains(t, out, "T1  Login")
	assert.Contains(t, out, "Latest: Timeout after 30s")
	assert.NotContains(t, out, "stack trace")
	assert.Contains(t, out, "Defects: BUG-1")
	assert.Contains(t, out, "T3  Checkout")
	assert.Contains(t, out, "no results recorded")
}

func TestReportCommand_Clean(t *testing.T) {
	newServer(t, map[string]string{"get_tests/12": `{"tests":[{"id":2,"status_id":1}]}`})

	out, err := execute(t, NewReportCommand(testOptions(t, OutputJSON)), "--run-id", "12", "--no-progress")
	require.NoError(t, err)
	assert.Contains(t, out, "No failed or blocked tests in run 12")
}

func TestExportCommand(t *testing.T) {
	newServer(t, map[string]string{
		"get_run/12":   `{"id":12,"name":"Nightly"}`,
		"get_tests/12": `{"tests":[]}`,
	})

	out, err := execute(t, NewExportCommand(testOptions(t, OutputJSON)),
		"--run-id", "12", "--spreadsheet-id", "sheet")
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"run": {"id":12,"name":"Nightly"},
		"results": {"failed":[],"blocked":[]},
		"spreadsheet_id": "sheet",
		"status": "Would export these results to the specified Google Sheet"
	}`, out)
}

func TestToolsListCommand(t *testing.T) {
	out, err := execute(t, NewToolsCommand(testOptions(t, OutputJSON)), "list")
	require.NoError(t, err)

	var tools []struct {
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &tools))
	require.Len(t, tools, 11)
	assert.Equal(t, "add_test_result", tools[0].Name)
}

func TestToolsCallCommand(t *testing.T) {
	_, calls := newServer(t, map[string]string{"get_tests/12": `{"tests":[]}`})

	out, err := execute(t, NewToolsCommand(testOptions(t, OutputJSON)),
		"call", "get_tests", "--args", `{"run_id":12}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"tests":[]}`, out)
	assert.Len(t, *calls, 1)

	_, err = execute(t, NewToolsCommand(testOptions(t, OutputJSON)), "call", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown tool")
}

func TestPrintResult_UnknownFormat(t *testing.T) {
	err := printResult(io.Discard, "xml", map[string]int{"a": 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestWaitRunCommand(t *testing.T) {
	newServer(t, map[string]string{
		"get_run/12": `{"id":12,"untested_count":0,"is_completed":false}`,
		"get_run/13": `{"id":13,"untested_count":4,"is_completed":false}`,
	})

	out, err := execute(t, NewRunsCommand(testOptions(t, OutputJSON)), "wait", "12", "--interval", "1ms")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":12,"untested_count":0,"is_completed":false}`, out)

	_, err = execute(t, NewRunsCommand(testOptions(t, OutputJSON)),
		"wait", "13", "--interval", "1ms", "--timeout", "20ms")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "test run 13 did not settle")
}
