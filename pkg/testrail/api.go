package testrail

import (
	"context"
	"encoding/json"
	"fmt"
)

// API is the set of TestRail endpoints exposed by the Extension.
// Every method returns the remote JSON response unmodified.
type API interface {
	GetProjects(ctx context.Context) (json.RawMessage, error)
	GetCases(ctx context.Context, projectID int, opts CasesOptions) (json.RawMessage, error)
	AddRun(ctx context.Context, projectID int, in RunInput) (json.RawMessage, error)
	GetRuns(ctx context.Context, projectID int, filter RunsFilter) (json.RawMessage, error)
	GetRun(ctx context.Context, runID int) (json.RawMessage, error)
	GetTests(ctx context.Context, runID int, filter TestsFilter) (json.RawMessage, error)
	CloseRun(ctx context.Context, runID int) (json.RawMessage, error)
	AddResult(ctx context.Context, testID int, in ResultInput) (json.RawMessage, error)
	GetResults(ctx context.Context, testID int, filter ResultsFilter) (json.RawMessage, error)
}

var _ API = (*Client)(nil)

func (c *Client) getRaw(ctx context.Context, endpoint string, params Params) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.Get(ctx, endpoint, params, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) postRaw(ctx context.Context, endpoint string, body interface{}) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.Post(ctx, endpoint, body, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// GetProjects lists all projects
func (c *Client) GetProjects(ctx context.Context) (json.RawMessage, error) {
	return c.getRaw(ctx, "get_projects", nil)
}

// GetCases lists the test cases of a project, optionally restricted to a suite
func (c *Client) GetCases(ctx context.Context, projectID int, opts CasesOptions) (json.RawMessage, error) {
	params := Params{}
	params.setInt("suite_id", opts.SuiteID)
	return c.getRaw(ctx, fmt.Sprintf("get_cases/%d", projectID), params)
}

// AddRun creates a test run in a project
func (c *Client) AddRun(ctx context.Context, projectID int, in RunInput) (json.RawMessage, error) {
	return c.postRaw(ctx, fmt.Sprintf("add_run/%d", projectID), in.payload())
}

// GetRuns lists the test runs of a project
func (c *Client) GetRuns(ctx context.Context, projectID int, filter RunsFilter) (json.RawMessage, error) {
	return c.getRaw(ctx, fmt.Sprintf("get_runs/%d", projectID), filter.query())
}

// GetRun returns a single test run
func (c *Client) GetRun(ctx context.Context, runID int) (json.RawMessage, error) {
	return c.getRaw(ctx, fmt.Sprintf("get_run/%d", runID), nil)
}

// GetTests lists the tests of a run, optionally filtered by status
func (c *Client) GetTests(ctx context.Context, runID int, filter TestsFilter) (json.RawMessage, error) {
	return c.getRaw(ctx, fmt.Sprintf("get_tests/%d", runID), filter.query())
}

// CloseRun closes a test run; closed runs are archived and become read-only
func (c *Client) CloseRun(ctx context.Context, runID int) (json.RawMessage, error) {
	return c.postRaw(ctx, fmt.Sprintf("close_run/%d", runID), struct{}{})
}

// AddResult appends a result to a test
func (c *Client) AddResult(ctx context.Context, testID int, in ResultInput) (json.RawMessage, error) {
	return c.postRaw(ctx, fmt.Sprintf("add_result/%d", testID), in)
}

// GetResults lists the results of a test, most recent first
func (c *Client) GetResults(ctx context.Context, testID int, filter ResultsFilter) (json.RawMessage, error) {
	return c.getRaw(ctx, fmt.Sprintf("get_results/%d", testID), filter.query())
}
