package testrail

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAPI records the last call made through the API interface
type stubAPI struct {
	calls []string
	run   RunInput
	err   error
}

func (s *stubAPI) record(call string) (json.RawMessage, error) {
	s.calls = append(s.calls, call)
	if s.err != nil {
		return nil, s.err
	}
	return json.RawMessage(`{"call":"` + call + `"}`), nil
}

func (s *stubAPI) GetProjects(context.Context) (json.RawMessage, error) {
	return s.record("get_projects")
}

func (s *stubAPI) GetCases(context.Context, int, CasesOptions) (json.RawMessage, error) {
	return s.record("get_cases")
}

func (s *stubAPI) AddRun(_ context.Context, _ int, in RunInput) (json.RawMessage, error) {
	s.run = in
	return s.record("add_run")
}

func (s *stubAPI) GetRuns(context.Context, int, RunsFilter) (json.RawMessage, error) {
	return s.record("get_runs")
}

func (s *stubAPI) GetRun(context.Context, int) (json.RawMessage, error) {
	return s.record("get_run")
}

func (s *stubAPI) GetTests(context.Context, int, TestsFilter) (json.RawMessage, error) {
	return s.record("get_tests")
}

func (s *stubAPI) CloseRun(context.Context, int) (json.RawMessage, error) {
	return s.record("close_run")
}

func (s *stubAPI) AddResult(context.Context, int, ResultInput) (json.RawMessage, error) {
	return s.record("add_result")
}

func (s *stubAPI) GetResults(context.Context, int, ResultsFilter) (json.RawMessage, error) {
	return s.record("get_results")
}

var validSettings = map[string]string{
	"base_url": "https://example.testrail.io",
	"username": "qa@example.com",
	"api_key":  "secret",
}

func TestExtension_InitializeMissingValues(t *testing.T) {
	tests := []struct {
		name    string
		missing string
	}{
		{"base url", "base_url"},
		{"username", "username"},
		{"api key", "api_key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := map[string]string{}
			for k, v := range validSettings {
				if k != tt.missing {
					config[k] = v
				}
			}

			called := false
			ext := NewExtensionWithFactory(func(Credentials) (API, error) {
				called = true
				return &stubAPI{}, nil
			})

			err := ext.Initialize(config)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfig)
			assert.Contains(t, err.Error(), tt.missing)
			assert.False(t, called)
			assert.False(t, ext.Initialized())
		})
	}
}

func TestExtension_InitializePassesCredentials(t *testing.T) {
	var got Credentials
	ext := NewExtensionWithFactory(func(creds Credentials) (API, error) {
		got = creds
		return &stubAPI{}, nil
	})

	require.NoError(t, ext.Initialize(validSettings))
	assert.True(t, ext.Initialized())
	assert.Equal(t, Credentials{
		BaseURL:  "https://example.testrail.io",
		Username: "qa@example.com",
		Secret:   "secret",
	}, got)

	baseURL, username, apiKey := ext.Settings()
	assert.Equal(t, "https://example.testrail.io", baseURL)
	assert.Equal(t, "qa@example.com", username)
	assert.Equal(t, "secret", apiKey)
}

func TestExtension_FailedInitializeKeepsPreviousClient(t *testing.T) {
	stub := &stubAPI{}
	ext := NewExtensionWithFactory(func(Credentials) (API, error) { return stub, nil })
	require.NoError(t, ext.Initialize(validSettings))

	require.Error(t, ext.Initialize(map[string]string{"base_url": "https://other"}))
	baseURL, _, _ := ext.Settings()
	assert.Equal(t, "https://example.testrail.io", baseURL)

	_, err := ext.GetProjects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"get_projects"}, stub.calls)
}

func TestExtension_NotInitialized(t *testing.T) {
	ext := NewExtension()
	ctx := context.Background()

	calls := map[string]func() (json.RawMessage, error){
		"GetProjects":    func() (json.RawMessage, error) { return ext.GetProjects(ctx) },
		"GetTestCases":   func() (json.RawMessage, error) { return ext.GetTestCases(ctx, 1, CasesOptions{}) },
		"CreateTestRun":  func() (json.RawMessage, error) { return ext.CreateTestRun(ctx, 1, RunInput{Name: "r"}) },
		"GetTestRuns":    func() (json.RawMessage, error) { return ext.GetTestRuns(ctx, 1, RunsFilter{}) },
		"GetTestRun":     func() (json.RawMessage, error) { return ext.GetTestRun(ctx, 1) },
		"GetTests":       func() (json.RawMessage, error) { return ext.GetTests(ctx, 1, TestsFilter{}) },
		"CloseTestRun":   func() (json.RawMessage, error) { return ext.CloseTestRun(ctx, 1) },
		"AddTestResult":  func() (json.RawMessage, error) { return ext.AddTestResult(ctx, 1, ResultInput{StatusID: StatusPassed}) },
		"GetTestResults": func() (json.RawMessage, error) { return ext.GetTestResults(ctx, 1, ResultsFilter{}) },
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			out, err := call()
			assert.Nil(t, out)
			assert.ErrorIs(t, err, ErrNotInitialized)
		})
	}
}

func TestExtension_Delegates(t *testing.T) {
	stub := &stubAPI{}
	ext := NewExtensionWithFactory(func(Credentials) (API, error) { return stub, nil })
	require.NoError(t, ext.Initialize(validSettings))
	ctx := context.Background()

	out, err := ext.CreateTestRun(ctx, 1, RunInput{Name: "Smoke", CaseIDs: []int{5, 6}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"call":"add_run"}`, string(out))
	assert.Equal(t, []int{5, 6}, stub.run.CaseIDs)

	_, err = ext.GetTestCases(ctx, 1, CasesOptions{})
	require.NoError(t, err)
	_, err = ext.CloseTestRun(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"add_run", "get_cases", "close_run"}, stub.calls)
}

func TestExtension_PropagatesErrors(t *testing.T) {
	remote := &APIError{StatusCode: http.StatusBadRequest, Message: "Field :project_id is not a valid project"}
	ext := NewExtensionWithFactory(func(Credentials) (API, error) { return &stubAPI{err: remote}, nil })
	require.NoError(t, ext.Initialize(validSettings))

	_, err := ext.GetTestCases(context.Background(), 999, CasesOptions{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Contains(t, err.Error(), "not a valid project")
}

func TestExtension_AgainstServer(t *testing.T) {
	fake := newFakeTestRail()
	fake.handle("get_projects", http.StatusOK, `{"projects":[{"id":1,"name":"Mobile"}]}`)
	server := httptest.NewServer(fake)
	defer server.Close()

	ext := NewExtension(WithHTTPClient(server.Client()))
	require.NoError(t, ext.Initialize(map[string]string{
		"base_url": server.URL,
		"username": "qa@example.com",
		"api_key":  "secret",
	}))

	out, err := ext.GetProjects(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"projects":[{"id":1,"name":"Mobile"}]}`, string(out))
	assert.Equal(t, []string{"get_projects"}, fake.endpoints())
}
