package llm

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"net/url"

	"github.com/sashabaranov/go-openai"
)

// IsTransient reports whether err is worth retrying: timeouts, rate limits,
// server errors, connection failures and empty replies. Authentication and
// malformed-request errors are permanent, as is cancellation.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.Canceled) {
		return false
	}
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, ErrEmptyResponse) {
		return true
	}

	var apiErr *openai.APIError
	if stderrors.As(err, &apiErr) {
		return transientStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if stderrors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == 0 {
			return true
		}
		return transientStatus(reqErr.HTTPStatusCode)
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return stderrors.As(err, &urlErr)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *openai.APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if stderrors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

func transientStatus(code int) bool {
	switch {
	case code == http.StatusTooManyRequests, code == http.StatusRequestTimeout:
		return true
	case code >= 500:
		return true
	}
	return false
}
