// Package testutil holds request and assertion helpers shared by middleware
// and handler tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewRequest builds a request with optional headers given as name/value pairs.
func NewRequest(t *testing.T, method, path string, headers ...string) *http.Request {
	t.Helper()
	require.Zero(t, len(headers)%2, "headers must be name/value pairs")
	req := httptest.NewRequest(method, path, nil)
	for i := 0; i < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return req
}

// DoRequest serves req and returns the recorder.
func DoRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// ErrorBody decodes an {"error","error_description"} response.
func ErrorBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), "failed to decode error body: %s", rr.Body.String())
	return body
}

// AssertStatusAndError checks the status code and the error code of the body.
func AssertStatusAndError(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	assert.Equal(t, status, rr.Code, "unexpected status code")
	assert.Equal(t, code, ErrorBody(t, rr)["error"], "unexpected error code")
}
