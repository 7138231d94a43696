package testrail

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Purneema-rathod/goose-testrail/pkg/common"
)

const apiPath = "/index.php?/api/v2/"

// Params are query parameters appended to an endpoint. TestRail routes requests
// through the query string, so parameters are joined with '&' onto the endpoint.
type Params map[string]string

// Set sets the parameter key to value
func (p Params) Set(key, value string) {
	p[key] = value
}

func (p Params) setInt(key string, v *int) {
	if v != nil {
		p[key] = strconv.Itoa(*v)
	}
}

func (p Params) encode() string {
	if len(p) == 0 {
		return ""
	}
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteByte('&')
		sb.WriteString(url.QueryEscape(k))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p[k]))
	}
	return sb.String()
}

// Client is a TestRail API v2 client. It owns the single authentication and
// error-wrapping path used by both the Extension and the Query module.
type Client struct {
	creds      Credentials
	baseURL    string
	authHeader string
	httpClient *http.Client
	logger     *common.Logger
}

// ClientOption customizes a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used to trace requests
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTLSConfig sets the TLS configuration of the default transport
func WithTLSConfig(cfg *tls.Config) ClientOption {
	return func(c *Client) {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = cfg
		c.httpClient.Transport = transport
	}
}

// WithTimeout bounds every request made by the client. Zero means no timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// NewClient creates a new TestRail API client
func NewClient(creds Credentials, opts ...ClientOption) (*Client, error) {
	if missing := creds.Missing("secret"); len(missing) > 0 {
		return nil, configError(missing)
	}

	client := &Client{
		creds:      creds,
		baseURL:    buildBaseURL(creds.BaseURL),
		authHeader: basicAuth(creds.Username, creds.Secret),
		httpClient: &http.Client{},
		logger:     common.Discard(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Credentials returns the credentials the client was built with
func (c *Client) Credentials() Credentials {
	return c.creds
}

// buildBaseURL constructs the TestRail REST API base URL
func buildBaseURL(serverURL string) string {
	return strings.TrimRight(serverURL, "/") + apiPath
}

func basicAuth(username, secret string) string {
	token := base64.StdEncoding.EncodeToString([]byte(username + ":" + secret))
	return "Basic " + token
}

// URL returns the full request URL for an endpoint such as "get_run/1"
func (c *Client) URL(endpoint string, params Params) string {
	return c.baseURL + strings.TrimLeft(endpoint, "/") + params.encode()
}

// Get issues a GET request and decodes the JSON response into out
func (c *Client) Get(ctx context.Context, endpoint string, params Params, out interface{}) error {
	return c.do(ctx, http.MethodGet, c.URL(endpoint, params), nil, out)
}

// Post issues a POST request with a JSON body and decodes the JSON response into out
func (c *Client) Post(ctx context.Context, endpoint string, body interface{}, out interface{}) error {
	return c.do(ctx, http.MethodPost, c.URL(endpoint, nil), body, out)
}

// do performs an HTTP request with authentication
func (c *Client) do(ctx context.Context, method, url string, body interface{}, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)

		c.logger.Debug("Request Payload: %s", string(jsonData))
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("%s %s", method, url)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	c.logger.Debug("Response %d: %s", resp.StatusCode, string(bodyBytes))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, bodyBytes)
	}

	if out == nil || len(bytes.TrimSpace(bodyBytes)) == 0 {
		return nil
	}

	if err := decodeJSON(bodyBytes, out); err != nil {
		return &TransportError{Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	return nil
}

func newAPIError(status int, body []byte) *APIError {
	message := string(body)

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg, ok := payload["error"].(string); ok {
			message = msg
		}
	}
	return &APIError{StatusCode: status, Message: message}
}

// decodeJSON keeps numbers as json.Number so identifiers survive untouched
func decodeJSON(data []byte, out interface{}) error {
	if raw, ok := out.(*json.RawMessage); ok {
		if !json.Valid(data) {
			return fmt.Errorf("invalid JSON document")
		}
		*raw = append((*raw)[:0], data...)
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(out)
}
