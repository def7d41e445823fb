// Package oaichat implements the OpenAI-compatible Chat Completions wire
// format shared by providers that speak it (xAI, Fireworks). It covers the
// request and response payload types, SSE chunk folding into a terminal
// chat.completion payload, and usage extraction across the field-name
// variants different vendors emit.
package oaichat
