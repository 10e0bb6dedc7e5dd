package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	githubhttp "github.com/bkyoung/lintbot/internal/adapter/github/http"
)

// MapHTTPError converts a GitHub error response into a typed githubhttp.Error.
// GitHub signals rate limiting both with 429 and with 403 plus exhausted
// rate-limit headers, so the response headers participate in classification.
func MapHTTPError(statusCode int, body []byte, headers http.Header) *githubhttp.Error {
	message := parseErrorMessage(statusCode, body)

	if isRateLimited(statusCode, message, headers) {
		return &githubhttp.Error{
			Type:       githubhttp.ErrTypeRateLimit,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  true,
		}
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &githubhttp.Error{
			Type:       githubhttp.ErrTypeAuthentication,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
		}

	case http.StatusNotFound:
		return &githubhttp.Error{
			Type:       githubhttp.ErrTypeNotFound,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
		}

	case http.StatusUnprocessableEntity:
		return &githubhttp.Error{
			Type:       githubhttp.ErrTypeValidation,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
		}

	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable:
		return &githubhttp.Error{
			Type:       githubhttp.ErrTypeServer,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  true,
		}

	default:
		return &githubhttp.Error{
			Type:       githubhttp.ErrTypeUnknown,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  statusCode >= 500,
		}
	}
}

// isRateLimited reports whether the response is a rate-limit rejection.
// 429 is explicit; 403 counts when the rate-limit headers say the budget
// is spent or the message mentions the limit.
func isRateLimited(statusCode int, message string, headers http.Header) bool {
	if statusCode == http.StatusTooManyRequests {
		return true
	}
	if statusCode != http.StatusForbidden {
		return false
	}
	if headers.Get("X-RateLimit-Remaining") == "0" {
		return true
	}
	return strings.Contains(message, "rate limit")
}

// parseErrorMessage extracts a readable error message from GitHub's
// response body, falling back to a body preview for non-JSON responses.
func parseErrorMessage(statusCode int, body []byte) string {
	var errResp apiErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 100 {
			bodyPreview = bodyPreview[:100] + "..."
		}
		if bodyPreview == "" {
			return fmt.Sprintf("HTTP %d", statusCode)
		}
		return fmt.Sprintf("HTTP %d: %s", statusCode, bodyPreview)
	}

	if errResp.Message == "" {
		return fmt.Sprintf("HTTP %d", statusCode)
	}

	if len(errResp.Errors) > 0 {
		var details []string
		for _, e := range errResp.Errors {
			if e.Message != "" {
				details = append(details, e.Message)
			} else if e.Field != "" {
				details = append(details, fmt.Sprintf("%s: %s", e.Field, e.Code))
			}
		}
		if len(details) > 0 {
			return fmt.Sprintf("%s: %s", errResp.Message, strings.Join(details, "; "))
		}
	}

	return errResp.Message
}

// classifyTransportError maps a transport-level failure from http.Client.Do
// to an error type and retry decision.
func classifyTransportError(err error) (errType githubhttp.ErrorType, retryable bool) {
	if errors.Is(err, context.DeadlineExceeded) {
		return githubhttp.ErrTypeTimeout, true
	}
	if errors.Is(err, context.Canceled) {
		return githubhttp.ErrTypeUnknown, false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return githubhttp.ErrTypeTimeout, true
		}
		// DNS failures, refused connections and the like are worth retrying.
		return githubhttp.ErrTypeNetwork, true
	}

	return githubhttp.ErrTypeUnknown, false
}
