package errors

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// UserFriendlyError provides user-friendly error messages with context and hints
type UserFriendlyError struct {
	Message string
	Reason  string
	Hint    string
	Try     string
	Err     error
}

func (e UserFriendlyError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Message)
	if e.Reason != "" {
		buf.WriteString("\n  Reason: " + e.Reason)
	}
	if e.Hint != "" {
		buf.WriteString("\n  Hint: " + e.Hint)
	}
	if e.Try != "" {
		buf.WriteString("\n  Try: " + e.Try)
	}
	if e.Err != nil {
		buf.WriteString("\n  Details: " + e.Err.Error())
	}
	return buf.String()
}

func (e UserFriendlyError) Unwrap() error {
	return e.Err
}

// Friendly wraps a taxonomy error with a stage-specific message and hints.
// The original error stays in the chain. Errors outside the taxonomy are
// returned unchanged.
func Friendly(err error) error {
	if err == nil {
		return nil
	}
	var (
		cfgErr     *ConfigError
		extractErr *ExtractionError
		sumErr     *SummaryError
		persistErr *PersistenceError
	)
	switch {
	case Is(err, ErrCancelled):
		return UserFriendlyError{
			Message: "Analysis cancelled",
			Reason:  "The run was interrupted before a summary was produced",
			Err:     err,
		}
	case As(err, &cfgErr):
		return WrapConfigError(cfgErr)
	case As(err, &extractErr):
		return WrapExtractionError(extractErr)
	case As(err, &sumErr):
		return WrapSummaryError(sumErr)
	case As(err, &persistErr):
		return UserFriendlyError{
			Message: fmt.Sprintf("Failed to save %s", persistErr.Path),
			Reason:  "The summary was produced but could not be written to disk",
			Hint:    "Check that the output directory exists and is writable",
			Try:     "pcapexplain analyze <capture> --output-dir /tmp",
			Err:     persistErr,
		}
	}
	return err
}

// WrapConfigError wraps configuration errors with user-friendly context
func WrapConfigError(err *ConfigError) error {
	if err == nil {
		return nil
	}

	reason := err.Reason
	if len(err.Fields) > 0 {
		reason = fmt.Sprintf("Missing or invalid: %s", strings.Join(err.Fields, ", "))
	}
	return UserFriendlyError{
		Message: "Configuration error",
		Reason:  reason,
		Hint:    "Set OPENAI_ENDPOINT, OPENAI_API_KEY and MODEL in .env, the environment, or the config file",
		Try:     "pcapexplain config-check",
		Err:     err,
	}
}

// WrapExtractionError wraps capture extraction errors with user-friendly context
func WrapExtractionError(err *ExtractionError) error {
	if err == nil {
		return nil
	}

	fe := UserFriendlyError{
		Message: fmt.Sprintf("Failed to read packets from %s", err.Path),
		Reason:  extractionReason(err),
		Err:     err,
	}
	switch err.Reason {
	case ReasonUnreadable:
		fe.Hint = "Check that the capture file exists and is readable"
	case ReasonToolMissing:
		fe.Hint = "tshark is required to decode captures; install wireshark/tshark"
		fe.Try = "pcapexplain analyze <capture> --tshark /path/to/tshark"
	case ReasonToolFailed:
		fe.Hint = "The file may not be a capture tshark understands, or the display filter is invalid"
		fe.Try = fmt.Sprintf("tshark -r %s -c 1", err.Path)
	case ReasonMalformedOut:
		fe.Hint = "tshark produced output that is not a JSON packet array"
	}
	return fe
}

// WrapSummaryError wraps aggregation errors with user-friendly context
func WrapSummaryError(err *SummaryError) error {
	if err == nil {
		return nil
	}

	return UserFriendlyError{
		Message: "Failed to produce the final summary",
		Reason:  extractModelReason(err.StatusCode, err.Err),
		Hint:    "Batch analyses finished but the consolidation request did not succeed",
		Try:     "Re-run with --max-retries 5 or check the model endpoint",
		Err:     err,
	}
}

func extractionReason(err *ExtractionError) string {
	if err.Reason == ReasonToolFailed {
		return fmt.Sprintf("tshark exited with code %d", err.ExitCode)
	}
	return string(err.Reason)
}

func extractModelReason(status int, err error) string {
	switch {
	case status == http.StatusTooManyRequests:
		return "Rate limited by the model service"
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return "Authentication failed - check OPENAI_API_KEY"
	case status == http.StatusNotFound:
		return "Model or endpoint not found - check MODEL and OPENAI_ENDPOINT"
	case status >= 500:
		return fmt.Sprintf("Model service error (HTTP %d)", status)
	case status != 0:
		return fmt.Sprintf("Model request rejected (HTTP %d)", status)
	}

	if Is(err, context.DeadlineExceeded) {
		return "Model request timeout - the service may be overloaded"
	}
	var opErr *net.OpError
	var dnsErr *net.DNSError
	if As(err, &opErr) || As(err, &dnsErr) {
		return "Model endpoint unreachable - check OPENAI_ENDPOINT"
	}
	return "Model request failed"
}
