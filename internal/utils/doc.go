// Package utils provides shared low-level helpers used throughout the
// internals. It covers HTTP request helpers for both synchronous and
// streaming (SSE) communication with AI provider APIs, generic pointer,
// string, and parsing utilities, and a simple elapsed-time timer.
//
// Key entry points: [DoPostSync] for synchronous JSON round-trips,
// [DoPostStream] together with [SSEScanner] for Server-Sent Events streaming,
// [Ptr] for converting values to pointers, [Slugify] for filesystem-safe
// names, and [Timer] for measuring latency.
package utils
