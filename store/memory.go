package store

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore retains records in arrival order. It backs tests and dry
// integrations where nothing should touch disk.
type MemoryStore struct {
	mu        sync.Mutex
	requests  []StoredRequest
	responses []StoredResponse
}

// StoredRequest is one recorded request with its metadata.
type StoredRequest struct {
	Meta    RunMeta
	Request json.RawMessage
}

// StoredResponse is one recorded response with its metadata and transcript.
type StoredResponse struct {
	Meta       RunMeta
	Record     ResponseRecord
	Transcript string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// RecordRequest implements [Store].
func (s *MemoryStore) RecordRequest(_ context.Context, meta RunMeta, requestPayload json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, StoredRequest{Meta: meta, Request: requestPayload})
	return nil
}

// RecordResponse implements [Store].
func (s *MemoryStore) RecordResponse(_ context.Context, meta RunMeta, rec ResponseRecord) (*StoredText, error) {
	body := RenderTranscript(meta, rec)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses = append(s.responses, StoredResponse{Meta: meta, Record: rec, Transcript: body})
	return &StoredText{Path: "memory://" + meta.RunID, Text: body}, nil
}

// Requests returns the recorded requests in arrival order.
func (s *MemoryStore) Requests() []StoredRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]StoredRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// Responses returns the recorded responses in arrival order.
func (s *MemoryStore) Responses() []StoredResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]StoredResponse, len(s.responses))
	copy(out, s.responses)
	return out
}
