package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrorReason categorizes a provider failure for retry decisions.
type ErrorReason string

const (
	// ReasonRateLimit indicates provider rate limiting (HTTP 429 or quota).
	ReasonRateLimit ErrorReason = "rate_limit"

	// ReasonAuth indicates authentication failure (HTTP 401, 403).
	ReasonAuth ErrorReason = "auth"

	// ReasonServerError indicates server-side issues (HTTP 5xx).
	ReasonServerError ErrorReason = "server_error"

	// ReasonInvalidRequest indicates client-side issues (HTTP 400).
	ReasonInvalidRequest ErrorReason = "invalid_request"

	// ReasonUnknown indicates an unclassified error.
	ReasonUnknown ErrorReason = "unknown"
)

// ProviderError is a structured error from a model provider. It carries the
// classification used by the dispatcher's retry helper and, when the
// provider supplied one, the suggested wait before retrying.
type ProviderError struct {
	Reason   ErrorReason
	Provider string
	Model    string
	Status   int
	Message  string

	// RetryHint is the provider-suggested wait, zero when absent.
	RetryHint time.Duration

	Cause error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s]", e.Reason))
	if e.Provider != "" {
		parts = append(parts, e.Provider)
	}
	if e.Model != "" {
		parts = append(parts, "model="+e.Model)
	}
	if e.Status != 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.Status))
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// RetryAfter implements retry.Hinter.
func (e *ProviderError) RetryAfter() (time.Duration, bool) {
	return e.RetryHint, e.RetryHint > 0
}

// NewProviderError wraps cause with provider context, classifying it from
// its text when no explicit status is attached.
func NewProviderError(provider, model string, cause error) *ProviderError {
	err := &ProviderError{
		Provider: provider,
		Model:    model,
		Cause:    cause,
		Reason:   ReasonUnknown,
	}
	if cause != nil {
		err.Message = cause.Error()
		err.Reason = classifyText(cause.Error())
	}
	return err
}

// WithStatus attaches an HTTP status and reclassifies from it.
func (e *ProviderError) WithStatus(status int) *ProviderError {
	e.Status = status
	if reason := classifyStatus(status); reason != ReasonUnknown {
		e.Reason = reason
	}
	return e
}

// WithRetryHint records the provider-suggested retry delay.
func (e *ProviderError) WithRetryHint(d time.Duration) *ProviderError {
	if d > 0 {
		e.RetryHint = d
	}
	return e
}

// IsRateLimited reports whether err is a provider rate-limit condition. Raw
// errors are classified from their text so transport-level 429s without a
// ProviderError wrapper are still recognized.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Reason == ReasonRateLimit
	}
	return classifyText(err.Error()) == ReasonRateLimit
}

func classifyStatus(status int) ErrorReason {
	switch {
	case status == http.StatusTooManyRequests:
		return ReasonRateLimit
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ReasonAuth
	case status == http.StatusBadRequest:
		return ReasonInvalidRequest
	case status >= 500:
		return ReasonServerError
	default:
		return ReasonUnknown
	}
}

func classifyText(text string) ErrorReason {
	lower := strings.ToLower(text)

	switch {
	case strings.Contains(lower, "rate limit"),
		strings.Contains(lower, "rate_limit"),
		strings.Contains(lower, "too many requests"),
		strings.Contains(lower, "resource_exhausted"),
		strings.Contains(lower, "resource exhausted"),
		strings.Contains(lower, "quota exceeded"),
		strings.Contains(lower, "429"):
		return ReasonRateLimit
	case strings.Contains(lower, "unauthorized"),
		strings.Contains(lower, "invalid api key"),
		strings.Contains(lower, "invalid_api_key"),
		strings.Contains(lower, "authentication"),
		strings.Contains(lower, "permission denied"):
		return ReasonAuth
	case strings.Contains(lower, "internal server"),
		strings.Contains(lower, "server error"),
		strings.Contains(lower, "503"),
		strings.Contains(lower, "502"),
		strings.Contains(lower, "overloaded"):
		return ReasonServerError
	case strings.Contains(lower, "invalid request"),
		strings.Contains(lower, "invalid_request"):
		return ReasonInvalidRequest
	default:
		return ReasonUnknown
	}
}
