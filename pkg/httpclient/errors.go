package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxErrorBody caps how much of a failed response is read.
const maxErrorBody = 64 << 10

// downstreamErrorResponse mirrors the httputil.ErrorResponse envelope. Backends
// that answer with it get their code and message parsed out for diagnostics.
type downstreamErrorResponse struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ResponseError describes a non-2xx response from a downstream service.
// Code and Detail come from the response body and are meant for logs only.
type ResponseError struct {
	Service    string
	StatusCode int
	Code       string
	Detail     string
}

func (e *ResponseError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s returned status %d (%s)", e.Service, e.StatusCode, e.Code)
	}
	return fmt.Sprintf("%s returned status %d", e.Service, e.StatusCode)
}

// CheckResponse returns nil for a 2xx response and leaves the body open.
// Otherwise it drains and closes the body and returns a *ResponseError.
func CheckResponse(resp *http.Response, service string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	respErr := &ResponseError{Service: service, StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(body) == 0 {
		return respErr
	}

	var downstream downstreamErrorResponse
	if json.Unmarshal(body, &downstream) == nil && downstream.Error != nil {
		respErr.Code = downstream.Error.Code
		respErr.Detail = downstream.Error.Message
		return respErr
	}
	respErr.Detail = string(body)
	return respErr
}

// IsClientError returns true if the HTTP status code is a 4xx client error.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
