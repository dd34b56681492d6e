package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
)

// ErrorKind classifies a vendor error for user facing messages.
type ErrorKind string

const (
	KindAuthExpired      ErrorKind = "auth_expired"
	KindPermissionDenied ErrorKind = "permission_denied"
	KindRateLimited      ErrorKind = "rate_limited"
	KindVendor           ErrorKind = "vendor"
	KindGeneric          ErrorKind = "generic"
)

// APIError is a non-success answer from a platform API.
type APIError struct {
	Platform   string
	StatusCode int
	Kind       ErrorKind
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	switch e.Kind {
	case KindAuthExpired:
		return "Token expired or invalid. Please refresh your access token."
	case KindPermissionDenied:
		return "Permission denied. Check your API permissions."
	case KindRateLimited:
		return "Rate limit exceeded. Please wait and try again."
	case KindVendor:
		return fmt.Sprintf("%s API error: %s", e.Platform, e.Message)
	default:
		return fmt.Sprintf("%s API error (%d): %s", e.Platform, e.StatusCode, e.Message)
	}
}

// NewAPIError classifies an HTTP error response. The vendor's message is
// extracted from the common JSON error envelopes when present.
func NewAPIError(platform string, status int, body []byte) *APIError {
	e := &APIError{
		Platform:   platform,
		StatusCode: status,
		Body:       string(body),
		Message:    vendorMessage(body),
	}
	switch status {
	case http.StatusUnauthorized:
		e.Kind = KindAuthExpired
	case http.StatusForbidden:
		e.Kind = KindPermissionDenied
	case http.StatusTooManyRequests:
		e.Kind = KindRateLimited
	default:
		e.Kind = KindGeneric
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

// NewVendorError reports an application level failure inside a 2xx response,
// such as TikTok's non-zero envelope code.
func NewVendorError(platform string, code int, message string) *APIError {
	if message == "" {
		message = fmt.Sprintf("code %d", code)
	}
	return &APIError{Platform: platform, StatusCode: http.StatusOK, Kind: KindVendor, Message: message}
}

// IsAuthError reports whether err is a 401 from a platform.
func IsAuthError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindAuthExpired
}

func vendorMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}
	var envelope struct {
		Error json.RawMessage `json:"error"`
		// Some vendors put the message at the top level.
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return truncate(trimmed, 300)
	}
	if len(envelope.Error) > 0 {
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(envelope.Error, &nested); err == nil && nested.Message != "" {
			return nested.Message
		}
		var plain string
		if err := json.Unmarshal(envelope.Error, &plain); err == nil && plain != "" {
			if envelope.ErrorDescription != "" {
				return plain + ": " + envelope.ErrorDescription
			}
			return plain
		}
	}
	if envelope.Message != "" {
		return envelope.Message
	}
	return truncate(trimmed, 300)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// TransportError is a failure to reach a platform at all.
type TransportError struct {
	Platform string
	Err      error
}

func (e *TransportError) Error() string {
	switch {
	case errors.Is(e.Err, syscall.ECONNREFUSED):
		return "Connection refused. Check your internet connection."
	case errors.Is(e.Err, circuitbreaker.ErrOpen):
		return fmt.Sprintf("%s API temporarily unavailable after repeated failures", e.Platform)
	case errors.Is(e.Err, context.DeadlineExceeded) || isTimeout(e.Err):
		return fmt.Sprintf("%s request timed out", e.Platform)
	default:
		return fmt.Sprintf("%s request failed: %v", e.Platform, e.Err)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// WrapTransportError wraps err unless it is already a classified platform error.
func WrapTransportError(platform string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	var tErr *TransportError
	if errors.As(err, &apiErr) || errors.As(err, &tErr) || errors.Is(err, context.Canceled) {
		return err
	}
	return &TransportError{Platform: platform, Err: err}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
