package llm

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/openai/openai-go/v3"
)

// ErrorKind classifies completion failures for logging.
type ErrorKind int

const (
	ErrorRetryable  ErrorKind = iota // transient 5xx
	ErrorRateLimit                   // 429 or quota-per-minute
	ErrorTimeout                     // deadline exceeded
	ErrorAuth                        // 401, 403
	ErrorBilling                     // 402 or exhausted quota
	ErrorBadRequest                  // 400
	ErrorEmpty                       // no text in the response
	ErrorFatal                       // everything else
)

// String returns the label used in logs.
func (k ErrorKind) String() string {
	switch k {
	case ErrorRetryable:
		return "retryable"
	case ErrorRateLimit:
		return "rate_limit"
	case ErrorTimeout:
		return "timeout"
	case ErrorAuth:
		return "auth"
	case ErrorBilling:
		return "billing"
	case ErrorBadRequest:
		return "bad_request"
	case ErrorEmpty:
		return "empty"
	case ErrorFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Gemini errors render as "Error 429, Message: ...".
var statusPattern = regexp.MustCompile(`(?i)\berror (\d{3})\b`)

// Classify maps a completion error to its kind.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return ErrorFatal
	case errors.Is(err, ErrEmptyResponse):
		return ErrorEmpty
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorTimeout
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		body := apiErr.Message
		if apiErr.Code != "" {
			body = apiErr.Code + " " + body
		}
		return classifyStatus(apiErr.StatusCode, body)
	}

	msg := err.Error()
	status := 0
	if m := statusPattern.FindStringSubmatch(msg); m != nil {
		status, _ = strconv.Atoi(m[1])
	}
	return classifyStatus(status, msg)
}

// classifyStatus determines the kind from an HTTP status and error body.
// Body hints take precedence over the status code.
func classifyStatus(status int, body string) ErrorKind {
	lower := strings.ToLower(body)

	if status == 402 ||
		strings.Contains(lower, "billing") ||
		strings.Contains(lower, "insufficient_quota") ||
		strings.Contains(lower, "payment required") {
		return ErrorBilling
	}

	if status == 429 ||
		strings.Contains(lower, "rate_limit") ||
		strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "resource_exhausted") ||
		strings.Contains(lower, "too many requests") {
		return ErrorRateLimit
	}

	if strings.Contains(lower, "timeout") ||
		strings.Contains(lower, "deadline") ||
		strings.Contains(lower, "timed out") {
		return ErrorTimeout
	}

	switch status {
	case 400:
		return ErrorBadRequest
	case 401, 403:
		return ErrorAuth
	case 0:
		return ErrorFatal
	default:
		if status >= 500 {
			return ErrorRetryable
		}
		return ErrorFatal
	}
}
