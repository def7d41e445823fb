package utils

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/andybalholm/brotli"
)

// HeaderOption is a single HTTP header to apply to an outgoing request.
// Options are applied after the defaults, so they can override the standard
// Authorization header when a provider uses a different auth scheme.
type HeaderOption struct {
	Key   string
	Value string
}

// HTTPStatusError is returned when a provider responds with a non-2xx status.
// The body is preserved verbatim so callers can surface the provider's own
// error message.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("non-2xx status %d: %s", e.StatusCode, e.Body)
}

// CloseWithLog closes c and logs any close error instead of returning it, so
// deferred closes never override the function's primary error.
func CloseWithLog(c io.Closer) {
	if err := c.Close(); err != nil {
		slog.Warn("failed to close response body", "error", err.Error())
	}
}

// maxResponseBodySize is the maximum response body size (10 MB). Enforced via
// io.LimitReader to prevent unbounded memory allocation from rogue responses.
const maxResponseBodySize int64 = 10 * 1024 * 1024

// decodeBody wraps the response body with the decompressor matching its
// Content-Encoding header. Providers occasionally serve gzip or brotli even
// when the client never asked for it.
func decodeBody(response *http.Response) (io.Reader, error) {
	switch response.Header.Get("Content-Encoding") {
	case "gzip":
		reader, err := gzip.NewReader(response.Body)
		if err != nil {
			return nil, fmt.Errorf("error creating gzip reader: %w", err)
		}
		return reader, nil
	case "br":
		return brotli.NewReader(response.Body), nil
	default:
		return response.Body, nil
	}
}

// DoPostSync performs a synchronous HTTP POST request with a JSON body and
// parses the JSON response into OutputStruct. The raw response bytes are
// returned alongside the parsed struct so callers can preserve fields the
// typed struct does not model.
//
// Error Handling Strategy:
//   - Context errors (timeout, cancellation) are propagated immediately
//   - Connection failures return the transport error
//   - Non-2xx statuses return an *HTTPStatusError carrying the body verbatim
//   - JSON parsing errors include a response preview for debugging
//
// The response body is always closed via defer; close errors are logged
// without overriding the primary error.
func DoPostSync[OutputStruct any](ctx context.Context, client *http.Client, url string, apiKey string, body any, headers ...HeaderOption) (*http.Response, []byte, *OutputStruct, error) {
	httpClient := client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("error marshaling body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	for _, header := range headers {
		req.Header.Set(header.Key, header.Value)
	}

	res, err := httpClient.Do(req)
	if err != nil {
		return res, nil, nil, fmt.Errorf("error sending request: %w", err)
	}
	defer CloseWithLog(res.Body)

	bodyReader, err := decodeBody(res)
	if err != nil {
		return res, nil, nil, err
	}

	respBody, err := io.ReadAll(io.LimitReader(bodyReader, maxResponseBodySize))
	if err != nil {
		return res, nil, nil, fmt.Errorf("error reading response body: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return res, respBody, nil, &HTTPStatusError{StatusCode: res.StatusCode, Body: string(respBody)}
	}

	var resStruct OutputStruct
	if err = json.Unmarshal(respBody, &resStruct); err != nil {
		return res, respBody, nil, fmt.Errorf("error unmarshaling response body (status %d): %w\nResponse preview: %s", res.StatusCode, err, TruncateString(string(respBody), 500))
	}

	return res, respBody, &resStruct, nil
}
