package testrail

import (
	"context"
	"encoding/json"
	"sync"
)

// Extension exposes TestRail operations to a tool host. It must be initialized
// with base_url, username and api_key before any operation is called.
type Extension struct {
	mu        sync.RWMutex
	baseURL   string
	username  string
	apiKey    string
	client    API
	newClient func(Credentials) (API, error)
}

// NewExtension creates an uninitialized Extension whose client is built with opts
func NewExtension(opts ...ClientOption) *Extension {
	return NewExtensionWithFactory(func(creds Credentials) (API, error) {
		return NewClient(creds, opts...)
	})
}

// NewExtensionWithFactory creates an uninitialized Extension that builds its
// client through factory
func NewExtensionWithFactory(factory func(Credentials) (API, error)) *Extension {
	return &Extension{newClient: factory}
}

// Initialize validates the configuration and constructs the underlying client.
// On failure the Extension is left untouched.
func (e *Extension) Initialize(config map[string]string) error {
	creds := CredentialsFromMap(config, "api_key")
	if missing := creds.Missing("api_key"); len(missing) > 0 {
		return configError(missing)
	}

	client, err := e.newClient(creds)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.baseURL = creds.BaseURL
	e.username = creds.Username
	e.apiKey = creds.Secret
	e.client = client
	return nil
}

// Initialized reports whether Initialize has succeeded
func (e *Extension) Initialized() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.client != nil
}

// Settings returns the stored base URL, username and API key
func (e *Extension) Settings() (baseURL, username, apiKey string) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.baseURL, e.username, e.apiKey
}

func (e *Extension) api() (API, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.client == nil {
		return nil, ErrNotInitialized
	}
	return e.client, nil
}

// GetProjects returns all TestRail projects
func (e *Extension) GetProjects(ctx context.Context) (json.RawMessage, error) {
	api, err := e.api()
	if err != nil {
		return nil, err
	}
	return api.GetProjects(ctx)
}

// GetTestCases returns the test cases of a project and optional suite
func (e *Extension) GetTestCases(ctx context.Context, projectID int, opts CasesOptions) (json.RawMessage, error) {
	api, err := e.api()
	if err != nil {
		return nil, err
	}
	return api.GetCases(ctx, projectID, opts)
}

// CreateTestRun creates a new test run. Supplying case ids restricts the run
// to those cases regardless of IncludeAll.
func (e *Extension) CreateTestRun(ctx context.Context, projectID int, in RunInput) (json.RawMessage, error) {
	api, err := e.api()
	if err != nil {
		return nil, err
	}
	return api.AddRun(ctx, projectID, in)
}

// GetTestRuns lists the test runs of a project
func (e *Extension) GetTestRuns(ctx context.Context, projectID int, filter RunsFilter) (json.RawMessage, error) {
	api, err := e.api()
	if err != nil {
		return nil, err
	}
	return api.GetRuns(ctx, projectID, filter)
}

// GetTestRun returns a single test run
func (e *Extension) GetTestRun(ctx context.Context, runID int) (json.RawMessage, error) {
	api, err := e.api()
	if err != nil {
		return nil, err
	}
	return api.GetRun(ctx, runID)
}

// GetTests lists the tests of a run
func (e *Extension) GetTests(ctx context.Context, runID int, filter TestsFilter) (json.RawMessage, error) {
	api, err := e.api()
	if err != nil {
		return nil, err
	}
	return api.GetTests(ctx, runID, filter)
}

// CloseTestRun closes a test run
func (e *Extension) CloseTestRun(ctx context.Context, runID int) (json.RawMessage, error) {
	api, err := e.api()
	if err != nil {
		return nil, err
	}
	return api.CloseRun(ctx, runID)
}

// AddTestResult adds a result for a test
func (e *Extension) AddTestResult(ctx context.Context, testID int, in ResultInput) (json.RawMessage, error) {
	api, err := e.api()
	if err != nil {
		return nil, err
	}
	return api.AddResult(ctx, testID, in)
}

// GetTestResults lists the results of a test
func (e *Extension) GetTestResults(ctx context.Context, testID int, filter ResultsFilter) (json.RawMessage, error) {
	api, err := e.api()
	if err != nil {
		return nil, err
	}
	return api.GetResults(ctx, testID, filter)
}
