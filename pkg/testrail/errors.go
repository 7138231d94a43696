package testrail

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig is returned when a required credential is missing
	ErrConfig = errors.New("testrail configuration missing required values")
	// ErrNotInitialized is returned by Extension operations called before Initialize
	ErrNotInitialized = errors.New("testrail client not initialized")
	// ErrUnknownTool is returned by Registry.Call for unregistered names
	ErrUnknownTool = errors.New("unknown tool")
	// ErrInvalidArgs is returned when tool arguments cannot be decoded or miss a required parameter
	ErrInvalidArgs = errors.New("invalid tool arguments")
)

// APIError is a non-2xx response from TestRail. Message is the remote "error"
// field when the body is JSON, the raw body text otherwise.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("TestRail API error (status %d): %s", e.StatusCode, e.Message)
}

// TransportError wraps network failures and undecodable responses
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("error accessing TestRail API: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func configError(missing []string) error {
	return fmt.Errorf("%w: %v", ErrConfig, missing)
}
