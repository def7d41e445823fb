package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore is the default backend: append-only JSONL files per
// provider/model directory plus a markdown transcript per response.
//
//	{base}/{provider}/{model}/requests.jsonl
//	{base}/{provider}/{model}/responses.jsonl
//	{base}/{provider}/{model}/texts/{settings}-{puzzle}-v{version}-{ts}.md
type FileStore struct {
	baseDir string

	// mu serializes appends so concurrent batch workers never interleave
	// partial lines.
	mu sync.Mutex
}

// NewFileStore returns a FileStore rooted at baseDir. Directories are
// created lazily on first write.
func NewFileStore(baseDir string) *FileStore {
	return &FileStore{baseDir: baseDir}
}

func (s *FileStore) modelDir(meta RunMeta) string {
	return filepath.Join(s.baseDir, meta.Provider, meta.Model)
}

// RecordRequest implements [Store].
func (s *FileStore) RecordRequest(_ context.Context, meta RunMeta, requestPayload json.RawMessage) error {
	line, err := marshalRequestLine(meta, requestPayload)
	if err != nil {
		return fmt.Errorf("encoding request record: %w", err)
	}
	return s.appendLine(filepath.Join(s.modelDir(meta), "requests.jsonl"), line)
}

// RecordResponse implements [Store].
func (s *FileStore) RecordResponse(_ context.Context, meta RunMeta, rec ResponseRecord) (*StoredText, error) {
	line, err := marshalResponseLine(meta, rec)
	if err != nil {
		return nil, fmt.Errorf("encoding response record: %w", err)
	}
	if err := s.appendLine(filepath.Join(s.modelDir(meta), "responses.jsonl"), line); err != nil {
		return nil, err
	}

	textDir := filepath.Join(s.modelDir(meta), "texts")
	if err := os.MkdirAll(textDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating transcript dir: %w", err)
	}
	textPath := filepath.Join(textDir, TranscriptFilename(meta))
	body := RenderTranscript(meta, rec)
	if err := os.WriteFile(textPath, []byte(body), 0o644); err != nil {
		return nil, fmt.Errorf("writing transcript: %w", err)
	}

	return &StoredText{Path: textPath, Text: body}, nil
}

// appendLine writes one complete JSONL line under the store lock.
func (s *FileStore) appendLine(path string, line []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating record dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("appending to %s: %w", path, err)
	}
	return nil
}
