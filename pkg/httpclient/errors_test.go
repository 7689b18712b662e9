package httpclient

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeResponse creates an *http.Response with the given status code and body string.
func makeResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// structuredError builds a standard JSON error body.
func structuredError(code, message string) string {
	return `{"error":{"code":"` + code + `","message":"` + message + `"}}`
}

func TestCheckResponse_Success(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusCreated, http.StatusNoContent} {
		resp := makeResponse(status, `{"ok":true}`)
		assert.NoError(t, CheckResponse(resp, "backend"))

		// The body is left for the caller to decode.
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, `{"ok":true}`, string(body))
	}
}

func TestCheckResponse_StructuredError(t *testing.T) {
	resp := makeResponse(http.StatusConflict, structuredError("ALREADY_EXISTS", "username taken"))
	err := CheckResponse(resp, "backend")
	require.Error(t, err)

	var respErr *ResponseError
	require.True(t, errors.As(err, &respErr), "expected ResponseError, got %T", err)
	assert.Equal(t, http.StatusConflict, respErr.StatusCode)
	assert.Equal(t, "ALREADY_EXISTS", respErr.Code)
	assert.Equal(t, "username taken", respErr.Detail)
	assert.Equal(t, "backend returned status 409 (ALREADY_EXISTS)", err.Error())
}

func TestCheckResponse_UnstructuredBody(t *testing.T) {
	resp := makeResponse(http.StatusUnauthorized, "wrong password")
	err := CheckResponse(resp, "backend")

	var respErr *ResponseError
	require.True(t, errors.As(err, &respErr))
	assert.Equal(t, http.StatusUnauthorized, respErr.StatusCode)
	assert.Empty(t, respErr.Code)
	assert.Equal(t, "wrong password", respErr.Detail)
	// The body never leaks into the error string.
	assert.NotContains(t, err.Error(), "wrong password")
}

func TestCheckResponse_EmptyBody(t *testing.T) {
	err := CheckResponse(makeResponse(http.StatusInternalServerError, ""), "backend")

	var respErr *ResponseError
	require.True(t, errors.As(err, &respErr))
	assert.Equal(t, http.StatusInternalServerError, respErr.StatusCode)
	assert.Equal(t, "backend returned status 500", err.Error())
}

func TestCheckResponse_LargeBodyIsTruncated(t *testing.T) {
	resp := makeResponse(http.StatusBadRequest, strings.Repeat("x", maxErrorBody*2))
	err := CheckResponse(resp, "backend")

	var respErr *ResponseError
	require.True(t, errors.As(err, &respErr))
	assert.Len(t, respErr.Detail, maxErrorBody)
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(400))
	assert.True(t, IsClientError(404))
	assert.True(t, IsClientError(499))
	assert.False(t, IsClientError(200))
	assert.False(t, IsClientError(500))
	assert.False(t, IsClientError(399))
}
