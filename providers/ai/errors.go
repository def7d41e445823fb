package ai

import (
	"errors"
	"fmt"

	"github.com/willpenman/llm-philosophy/internal/utils"
)

// ConfigurationError reports an invalid or missing request parameter detected
// before any network call: a bad thinking budget, a missing token ceiling, or
// mutually exclusive options. It is never retried.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Message
}

// NewConfigurationError builds a ConfigurationError from a format string.
func NewConfigurationError(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Message: fmt.Sprintf(format, args...)}
}

// ProviderError reports a non-2xx HTTP response or a vendor-reported API
// failure. The raw body is kept verbatim for debugging; callers must not
// expect it to be JSON.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s API error %d: %s", e.Provider, e.StatusCode, utils.TruncateStringDefault(e.Body))
}

// TransportError reports a connection-level failure (DNS, timeout, reset)
// with the underlying cause preserved for errors.Is/As.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s connection error: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StreamParseError reports a malformed incremental event payload. It carries
// the offending raw text verbatim and aborts reconstruction; bad events are
// never silently skipped.
type StreamParseError struct {
	Provider string
	Raw      string
	Err      error
}

func (e *StreamParseError) Error() string {
	return fmt.Sprintf("failed to parse %s stream event: %s", e.Provider, utils.TruncateStringDefault(e.Raw))
}

func (e *StreamParseError) Unwrap() error {
	return e.Err
}

// WrapHTTPError classifies a transport-layer failure from the HTTP helpers:
// non-2xx statuses become ProviderError with the body preserved, everything
// else becomes TransportError. A nil err passes through.
func WrapHTTPError(provider string, err error) error {
	if err == nil {
		return nil
	}
	var statusErr *utils.HTTPStatusError
	if errors.As(err, &statusErr) {
		return &ProviderError{
			Provider:   provider,
			StatusCode: statusErr.StatusCode,
			Body:       statusErr.Body,
		}
	}
	return &TransportError{Provider: provider, Err: err}
}
