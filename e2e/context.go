package e2e

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TestContext holds the state of one scenario: the target server and the last
// response received.
type TestContext struct {
	BaseURL string
	client  *http.Client

	status int
	body   []byte
}

// NewTestContext targets baseURL.
func NewTestContext(baseURL string) *TestContext {
	return &TestContext{
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Reset clears the last response between scenarios.
func (tc *TestContext) Reset() {
	tc.status = 0
	tc.body = nil
}

// GET issues a request against the server. Each segment is path-escaped.
func (tc *TestContext) GET(segments ...string) error {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	resp, err := tc.client.Get(tc.BaseURL + "/" + strings.Join(escaped, "/"))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	tc.status = resp.StatusCode
	tc.body = body
	return nil
}

// StatusCode returns the last response status.
func (tc *TestContext) StatusCode() int {
	return tc.status
}

// GetResponseField returns a top-level field of a JSON object response.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	var obj map[string]any
	if err := json.Unmarshal(tc.body, &obj); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}
	v, ok := obj[field]
	if !ok {
		return nil, fmt.Errorf("field %q not in response", field)
	}
	return v, nil
}

// ResponseArray decodes a JSON array response.
func (tc *TestContext) ResponseArray() ([]map[string]any, error) {
	var arr []map[string]any
	if err := json.Unmarshal(tc.body, &arr); err != nil {
		return nil, fmt.Errorf("response is not a JSON array: %w", err)
	}
	return arr, nil
}
