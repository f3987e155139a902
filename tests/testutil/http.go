package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SessionHeader is the header carrying the signed cart session token
const SessionHeader = "X-Cart-Session"

// Envelope is the standard API response shape with a typed payload
type Envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ShopperClient drives a storefront handler as one shopper: the cart
// session issued by the first response is sent on every later request.
type ShopperClient struct {
	t       *testing.T
	handler http.Handler
	Session string
}

// NewShopperClient creates a client without a session
func NewShopperClient(t *testing.T, handler http.Handler) *ShopperClient {
	return &ShopperClient{t: t, handler: handler}
}

// Do sends a request; a non-nil body is encoded as JSON
func (c *ShopperClient) Do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		reader = ToJSONReader(c.t, body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.Session != "" {
		req.Header.Set(SessionHeader, c.Session)
	}

	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)

	if issued := w.Header().Get(SessionHeader); issued != "" {
		c.Session = issued
	}
	return w
}

// DecodeData unmarshals a successful response envelope and returns its data
func DecodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var env Envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "Failed to parse response: %s", w.Body.String())
	require.True(t, env.Success, "Expected success response, got: %s", w.Body.String())
	return env.Data
}

// AssertErrorCode checks the status and error code of a failed response
func AssertErrorCode(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()

	assert.Equal(t, status, w.Code, w.Body.String())
	var env Envelope[json.RawMessage]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, code, env.Error.Code)
}

// ToJSONReader converts a value to a JSON reader
func ToJSONReader(t *testing.T, v any) io.Reader {
	t.Helper()

	data, err := json.Marshal(v)
	require.NoError(t, err, "Failed to marshal to JSON")
	return bytes.NewReader(data)
}
