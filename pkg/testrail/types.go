package testrail

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Status is a TestRail test/result status identifier
type Status int

const (
	StatusPassed   Status = 1
	StatusBlocked  Status = 2
	StatusUntested Status = 3
	StatusRetest   Status = 4
	StatusFailed   Status = 5
)

var statusNames = map[Status]string{
	StatusPassed:   "passed",
	StatusBlocked:  "blocked",
	StatusUntested: "untested",
	StatusRetest:   "retest",
	StatusFailed:   "failed",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// ParseStatus accepts either a status name (case-insensitive) or its numeric id
func ParseStatus(v string) (Status, error) {
	v = strings.TrimSpace(v)
	if n, err := strconv.Atoi(v); err == nil {
		return Status(n), nil
	}
	for s, name := range statusNames {
		if strings.EqualFold(name, v) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown test status %q", v)
}

// Ptr returns a pointer to v. Optional request fields are pointers so that
// zero values such as limit=0 or is_completed=false are still sent.
func Ptr[T any](v T) *T {
	return &v
}

// Credentials identifies a TestRail instance and the account used to reach it.
// Secret is either the account password or an API key.
type Credentials struct {
	BaseURL  string
	Username string
	Secret   string
}

// CredentialsFromMap reads base_url, username and the secret stored under secretKey
func CredentialsFromMap(config map[string]string, secretKey string) Credentials {
	return Credentials{
		BaseURL:  config["base_url"],
		Username: config["username"],
		Secret:   config[secretKey],
	}
}

// Missing returns the names of the credential fields that are empty
func (c Credentials) Missing(secretKey string) []string {
	var missing []string
	if c.BaseURL == "" {
		missing = append(missing, "base_url")
	}
	if c.Username == "" {
		missing = append(missing, "username")
	}
	if c.Secret == "" {
		missing = append(missing, secretKey)
	}
	return missing
}

// Object is a TestRail JSON document passed through without a local schema.
type Object map[string]any

// Int returns the integer stored under key, if any
func (o Object) Int(key string) (int64, bool) {
	switch v := o[key].(type) {
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case float64:
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	}
	return 0, false
}

// CasesOptions filters get_cases
type CasesOptions struct {
	SuiteID *int
}

// RunInput is the add_run payload
type RunInput struct {
	Name        string
	SuiteID     *int
	Description *string
	// IncludeAll defaults to true; it is forced to false when CaseIDs is set
	IncludeAll *bool
	CaseIDs    []int
}

type runPayload struct {
	Name        string  `json:"name"`
	SuiteID     *int    `json:"suite_id,omitempty"`
	Description *string `json:"description,omitempty"`
	IncludeAll  bool    `json:"include_all"`
	CaseIDs     []int   `json:"case_ids,omitempty"`
}

func (in RunInput) payload() runPayload {
	p := runPayload{
		Name:        in.Name,
		SuiteID:     in.SuiteID,
		Description: in.Description,
		IncludeAll:  true,
	}
	if in.IncludeAll != nil {
		p.IncludeAll = *in.IncludeAll
	}
	if len(in.CaseIDs) > 0 {
		p.IncludeAll = false
		p.CaseIDs = in.CaseIDs
	}
	return p
}

// RunsFilter filters get_runs
type RunsFilter struct {
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	CreatedBy     []int
	IsCompleted   *bool
	Limit         *int
	Offset        *int
}

func (f RunsFilter) query() Params {
	q := Params{}
	if f.CreatedAfter != nil {
		q.Set("created_after", strconv.FormatInt(f.CreatedAfter.Unix(), 10))
	}
	if f.CreatedBefore != nil {
		q.Set("created_before", strconv.FormatInt(f.CreatedBefore.Unix(), 10))
	}
	if len(f.CreatedBy) > 0 {
		q.Set("created_by", joinInts(f.CreatedBy))
	}
	if f.IsCompleted != nil {
		if *f.IsCompleted {
			q.Set("is_completed", "1")
		} else {
			q.Set("is_completed", "0")
		}
	}
	q.setInt("limit", f.Limit)
	q.setInt("offset", f.Offset)
	return q
}

// TestsFilter filters get_tests
type TestsFilter struct {
	StatusIDs []Status
}

func (f TestsFilter) query() Params {
	q := Params{}
	if len(f.StatusIDs) > 0 {
		ids := make([]int, len(f.StatusIDs))
		for i, s := range f.StatusIDs {
			ids[i] = int(s)
		}
		q.Set("status_id", joinInts(ids))
	}
	return q
}

// ResultInput is the add_result payload. Only the fields that are set are sent.
type ResultInput struct {
	StatusID     Status  `json:"status_id"`
	Comment      *string `json:"comment,omitempty"`
	Version      *string `json:"version,omitempty"`
	Elapsed      *string `json:"elapsed,omitempty"`
	Defects      *string `json:"defects,omitempty"`
	AssignedToID *int    `json:"assignedto_id,omitempty"`
}

// ResultsFilter paginates get_results
type ResultsFilter struct {
	Limit  *int
	Offset *int
}

func (f ResultsFilter) query() Params {
	q := Params{}
	q.setInt("limit", f.Limit)
	q.setInt("offset", f.Offset)
	return q
}

// FailedAndBlocked partitions the tests of a run by status, each test carrying
// its most recent result under latest_result when one exists.
type FailedAndBlocked struct {
	Failed  []Object `json:"failed" yaml:"failed"`
	Blocked []Object `json:"blocked" yaml:"blocked"`
}

// ExportRecord describes what a spreadsheet export would write
type ExportRecord struct {
	Run           Object            `json:"run" yaml:"run"`
	Results       *FailedAndBlocked `json:"results" yaml:"results"`
	SpreadsheetID string            `json:"spreadsheet_id" yaml:"spreadsheet_id"`
	Status        string            `json:"status" yaml:"status"`
}

func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
