package llmclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/aiport/internal/config"
)

// ErrorKind classifies a provider failure so the agent loop can decide
// between stopping and trying again on the next iteration.
type ErrorKind string

const (
	KindAuth        ErrorKind = "auth"
	KindNotFound    ErrorKind = "not_found"
	KindRateLimited ErrorKind = "rate_limited"
	KindServer      ErrorKind = "server"
	KindTransport   ErrorKind = "transport"
	KindTimeout     ErrorKind = "timeout"
	KindDecode      ErrorKind = "decode"
	KindBlocked     ErrorKind = "blocked"
	KindBadRequest  ErrorKind = "bad_request"
)

// APIError is the single error type every adapter returns.
type APIError struct {
	Provider   config.LLMProvider
	StatusCode int
	Kind       ErrorKind
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s error", e.Provider, e.Kind)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *APIError) Unwrap() error { return e.Err }

// IsFatal reports whether err means the session cannot succeed by retrying:
// the credential was refused or the model does not exist.
func IsFatal(err error) bool {
	switch KindOf(err) {
	case KindAuth, KindNotFound:
		return true
	}
	return false
}

// KindOf returns the classification of err, or "" for errors that did not
// come from an adapter.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// Hint returns an operator-facing suggestion for fatal errors.
func Hint(err error) string {
	switch KindOf(err) {
	case KindAuth:
		return "check the API key for this provider"
	case KindNotFound:
		return "endpoint not found; the model may not accept screenshots, try a vision model such as gpt-4o"
	}
	return ""
}

func classifyStatus(code int) ErrorKind {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return KindAuth
	case code == http.StatusNotFound:
		return KindNotFound
	case code == http.StatusTooManyRequests:
		return KindRateLimited
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return KindTimeout
	case code >= 500:
		return KindServer
	default:
		return KindBadRequest
	}
}

// invalidKeyMarkers identify credential failures that some vendors report
// with a 400 status instead of 401.
var invalidKeyMarkers = []string{"API_KEY_INVALID", "API key not valid", "invalid_api_key", "Incorrect API key"}

func looksLikeInvalidKey(msg string) bool {
	for _, m := range invalidKeyMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

func newStatusError(provider config.LLMProvider, code int, msg string) *APIError {
	kind := classifyStatus(code)
	if kind == KindBadRequest && looksLikeInvalidKey(msg) {
		kind = KindAuth
	}
	return &APIError{Provider: provider, StatusCode: code, Kind: kind, Message: msg}
}

// statusError builds an APIError from a non-2xx response, pulling the
// vendor's message out of the common error envelopes.
func statusError(provider config.LLMProvider, resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return newStatusError(provider, resp.StatusCode, errorMessage(body))
}

func errorMessage(body []byte) string {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Error) > 0 {
		var nested struct {
			Message string `json:"message"`
			Status  string `json:"status"`
			Type    string `json:"type"`
			Code    any    `json:"code"`
		}
		if err := json.Unmarshal(envelope.Error, &nested); err == nil && nested.Message != "" {
			if nested.Status != "" {
				return nested.Status + ": " + nested.Message
			}
			return nested.Message
		}
		var flat string
		if err := json.Unmarshal(envelope.Error, &flat); err == nil && flat != "" {
			return flat
		}
	}
	return strings.TrimSpace(string(body))
}

// transportError classifies failures that never produced an HTTP status.
func transportError(provider config.LLMProvider, err error) *APIError {
	kind := KindTransport
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = KindTimeout
	}
	return &APIError{Provider: provider, Kind: kind, Err: err}
}

func decodeError(provider config.LLMProvider, format string, args ...any) *APIError {
	return &APIError{Provider: provider, Kind: KindDecode, Message: fmt.Sprintf(format, args...)}
}
