package testrail

import (
	"context"
	"time"
)

type casesArgs struct {
	ProjectID int  `json:"project_id"`
	SuiteID   *int `json:"suite_id"`
}

type createRunArgs struct {
	ProjectID   int     `json:"project_id"`
	Name        string  `json:"name"`
	SuiteID     *int    `json:"suite_id"`
	Description *string `json:"description"`
	IncludeAll  *bool   `json:"include_all"`
	CaseIDs     []int   `json:"case_ids"`
}

type runsArgs struct {
	ProjectID     int    `json:"project_id"`
	CreatedAfter  *int64 `json:"created_after"`
	CreatedBefore *int64 `json:"created_before"`
	CreatedBy     []int  `json:"created_by"`
	IsCompleted   *bool  `json:"is_completed"`
	Limit         *int   `json:"limit"`
	Offset        *int   `json:"offset"`
}

type runArgs struct {
	RunID int `json:"run_id"`
}

type testsArgs struct {
	RunID    int   `json:"run_id"`
	StatusID []int `json:"status_id"`
}

type addResultArgs struct {
	TestID       int     `json:"test_id"`
	StatusID     int     `json:"status_id"`
	Comment      *string `json:"comment"`
	Version      *string `json:"version"`
	Elapsed      *string `json:"elapsed"`
	Defects      *string `json:"defects"`
	AssignedToID *int    `json:"assignedto_id"`
}

type resultsArgs struct {
	TestID int  `json:"test_id"`
	Limit  *int `json:"limit"`
	Offset *int `json:"offset"`
}

type exportArgs struct {
	RunID         int    `json:"run_id"`
	SpreadsheetID string `json:"spreadsheet_id"`
}

func unixTime(v *int64) *time.Time {
	if v == nil {
		return nil
	}
	t := time.Unix(*v, 0)
	return &t
}

// NewExtensionRegistry registers every Extension operation as a tool
func NewExtensionRegistry(ext *Extension) *Registry {
	reg := NewRegistry()
	reg.MustRegister(
		Tool{
			Name:        "get_projects",
			Description: "Get all TestRail projects",
			Handler: typed(func(ctx context.Context, _ struct{}) (interface{}, error) {
				return ext.GetProjects(ctx)
			}),
		},
		Tool{
			Name:        "get_test_cases",
			Description: "Get test cases for a project and optional suite",
			Params: []Param{
				{Name: "project_id", Type: "integer", Required: true, Description: "ID of the project"},
				{Name: "suite_id", Type: "integer", Description: "ID of the test suite"},
			},
			Handler: typed(func(ctx context.Context, a casesArgs) (interface{}, error) {
				return ext.GetTestCases(ctx, a.ProjectID, CasesOptions{SuiteID: a.SuiteID})
			}),
		},
		Tool{
			Name:        "create_test_run",
			Description: "Create a new test run; case_ids restricts the run to those cases",
			Params: []Param{
				{Name: "project_id", Type: "integer", Required: true, Description: "ID of the project"},
				{Name: "name", Type: "string", Required: true, Description: "Name of the test run"},
				{Name: "suite_id", Type: "integer", Description: "ID of the test suite"},
				{Name: "description", Type: "string", Description: "Description of the test run"},
				{Name: "include_all", Type: "boolean", Description: "Include all cases of the suite (default true)"},
				{Name: "case_ids", Type: "array<integer>", Description: "Case IDs to include; forces include_all=false"},
			},
			Handler: typed(func(ctx context.Context, a createRunArgs) (interface{}, error) {
				return ext.CreateTestRun(ctx, a.ProjectID, RunInput{
					Name:        a.Name,
					SuiteID:     a.SuiteID,
					Description: a.Description,
					IncludeAll:  a.IncludeAll,
					CaseIDs:     a.CaseIDs,
				})
			}),
		},
		Tool{
			Name:        "get_test_runs",
			Description: "List the test runs of a project",
			Params: []Param{
				{Name: "project_id", Type: "integer", Required: true, Description: "ID of the project"},
				{Name: "created_after", Type: "integer", Description: "Only runs created after this UNIX timestamp"},
				{Name: "created_before", Type: "integer", Description: "Only runs created before this UNIX timestamp"},
				{Name: "created_by", Type: "array<integer>", Description: "Only runs created by these user IDs"},
				{Name: "is_completed", Type: "boolean", Description: "Only completed (true) or active (false) runs"},
				{Name: "limit", Type: "integer", Description: "Maximum number of runs to return"},
				{Name: "offset", Type: "integer", Description: "Number of runs to skip"},
			},
			Handler: typed(func(ctx context.Context, a runsArgs) (interface{}, error) {
				return ext.GetTestRuns(ctx, a.ProjectID, RunsFilter{
					CreatedAfter:  unixTime(a.CreatedAfter),
					CreatedBefore: unixTime(a.CreatedBefore),
					CreatedBy:     a.CreatedBy,
					IsCompleted:   a.IsCompleted,
					Limit:         a.Limit,
					Offset:        a.Offset,
				})
			}),
		},
		Tool{
			Name:        "get_test_run",
			Description: "Get a test run by ID",
			Params: []Param{
				{Name: "run_id", Type: "integer", Required: true, Description: "ID of the test run"},
			},
			Handler: typed(func(ctx context.Context, a runArgs) (interface{}, error) {
				return ext.GetTestRun(ctx, a.RunID)
			}),
		},
		Tool{
			Name:        "get_tests",
			Description: "List the tests of a run, optionally filtered by status",
			Params: []Param{
				{Name: "run_id", Type: "integer", Required: true, Description: "ID of the test run"},
				{Name: "status_id", Type: "array<integer>", Description: "Status IDs (1=Passed, 2=Blocked, 3=Untested, 4=Retest, 5=Failed)"},
			},
			Handler: typed(func(ctx context.Context, a testsArgs) (interface{}, error) {
				filter := TestsFilter{}
				for _, s := range a.StatusID {
					filter.StatusIDs = append(filter.StatusIDs, Status(s))
				}
				return ext.GetTests(ctx, a.RunID, filter)
			}),
		},
		Tool{
			Name:        "close_test_run",
			Description: "Close a test run",
			Params: []Param{
				{Name: "run_id", Type: "integer", Required: true, Description: "ID of the test run"},
			},
			Handler: typed(func(ctx context.Context, a runArgs) (interface{}, error) {
				return ext.CloseTestRun(ctx, a.RunID)
			}),
		},
		Tool{
			Name:        "add_test_result",
			Description: "Add a result for a test",
			Params: []Param{
				{Name: "test_id", Type: "integer", Required: true, Description: "ID of the test"},
				{Name: "status_id", Type: "integer", Required: true, Description: "1=Passed, 2=Blocked, 3=Untested, 4=Retest, 5=Failed"},
				{Name: "comment", Type: "string", Description: "Comment about the result"},
				{Name: "version", Type: "string", Description: "Version or build tested against"},
				{Name: "elapsed", Type: "string", Description: "Time spent, e.g. 30s or 1m 45s"},
				{Name: "defects", Type: "string", Description: "Comma-separated defect IDs"},
				{Name: "assignedto_id", Type: "integer", Description: "User the test is assigned to"},
			},
			Handler: typed(func(ctx context.Context, a addResultArgs) (interface{}, error) {
				return ext.AddTestResult(ctx, a.TestID, ResultInput{
					StatusID:     Status(a.StatusID),
					Comment:      a.Comment,
					Version:      a.Version,
					Elapsed:      a.Elapsed,
					Defects:      a.Defects,
					AssignedToID: a.AssignedToID,
				})
			}),
		},
		Tool{
			Name:        "get_test_results",
			Description: "List the results of a test, most recent first",
			Params: []Param{
				{Name: "test_id", Type: "integer", Required: true, Description: "ID of the test"},
				{Name: "limit", Type: "integer", Description: "Maximum number of results to return"},
				{Name: "offset", Type: "integer", Description: "Number of results to skip"},
			},
			Handler: typed(func(ctx context.Context, a resultsArgs) (interface{}, error) {
				return ext.GetTestResults(ctx, a.TestID, ResultsFilter{Limit: a.Limit, Offset: a.Offset})
			}),
		},
	)
	return reg
}

// RegisterQueryTools adds the failed/blocked report and the spreadsheet export
func RegisterQueryTools(reg *Registry, q *Query) {
	reg.MustRegister(
		Tool{
			Name:        "get_failed_and_blocked",
			Description: "Get the failed and blocked tests of a run with their latest result",
			Params: []Param{
				{Name: "run_id", Type: "integer", Required: true, Description: "ID of the test run"},
			},
			Handler: typed(func(ctx context.Context, a runArgs) (interface{}, error) {
				return q.FailedAndBlocked(ctx, a.RunID)
			}),
		},
		Tool{
			Name:        "export_to_spreadsheet",
			Description: "Describe the export of a run's failed and blocked tests to a Google Sheet (no data is written)",
			Params: []Param{
				{Name: "run_id", Type: "integer", Required: true, Description: "ID of the test run"},
				{Name: "spreadsheet_id", Type: "string", Required: true, Description: "ID of the Google Sheet"},
			},
			Handler: typed(func(ctx context.Context, a exportArgs) (interface{}, error) {
				return q.ExportToSpreadsheet(ctx, a.RunID, a.SpreadsheetID)
			}),
		},
	)
}
