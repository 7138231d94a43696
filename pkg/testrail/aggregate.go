package testrail

import (
	"context"
	"fmt"
)

// ExportStatus is the status reported by ExportToSpreadsheet
const ExportStatus = "Would export these results to the specified Google Sheet"

// FailedAndBlocked fetches the tests of a run and returns the failed and
// blocked ones in their original order. Each of them is given its most recent
// result under latest_result when it has any. Results are fetched one test at
// a time; any error aborts the whole classification.
func (q *Query) FailedAndBlocked(ctx context.Context, runID int) (*FailedAndBlocked, error) {
	tests, err := q.GetTests(ctx, runID)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, test := range tests {
		if needsLatestResult(test) {
			total++
		}
	}

	out := &FailedAndBlocked{
		Failed:  []Object{},
		Blocked: []Object{},
	}
	done := 0
	for _, test := range tests {
		status, _ := test.Int("status_id")
		if !needsLatestResult(test) {
			continue
		}

		testID, ok := test.Int("id")
		if !ok {
			return nil, fmt.Errorf("test in run %d has no id", runID)
		}
		results, err := q.GetResults(ctx, int(testID))
		if err != nil {
			return nil, err
		}
		if len(results) > 0 {
			test["latest_result"] = results[0]
		}

		done++
		if q.progress != nil {
			q.progress(done, total)
		}

		switch Status(status) {
		case StatusFailed:
			out.Failed = append(out.Failed, test)
		case StatusBlocked:
			out.Blocked = append(out.Blocked, test)
		}
	}

	return out, nil
}

func needsLatestResult(test Object) bool {
	status, ok := test.Int("status_id")
	if !ok {
		return false
	}
	return Status(status) == StatusFailed || Status(status) == StatusBlocked
}

// ExportToSpreadsheet gathers the run details and its failed/blocked tests and
// describes the export. Nothing is written to the spreadsheet.
func (q *Query) ExportToSpreadsheet(ctx context.Context, runID int, spreadsheetID string) (*ExportRecord, error) {
	run, err := q.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	results, err := q.FailedAndBlocked(ctx, runID)
	if err != nil {
		return nil, err
	}

	return &ExportRecord{
		Run:           run,
		Results:       results,
		SpreadsheetID: spreadsheetID,
		Status:        ExportStatus,
	}, nil
}
