// Package store S3-compatible backend via the BlobStore interface.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// BlobStore is the minimal key-value surface an S3-compatible backend needs
// to provide (AWS S3, MinIO). See store/s3blob for the AWS implementation.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, body []byte) error
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, key string) error
}

// S3Store records runs through a BlobStore. Keys, under an optional prefix:
//
//	{provider}/{model}/requests/{run_id}.json
//	{provider}/{model}/responses/{run_id}.json
//	{provider}/{model}/texts/{settings}-{puzzle}-v{version}-{ts}.md
type S3Store struct {
	blobs  BlobStore
	prefix string
}

// NewS3Store wraps blobs with an optional key prefix.
func NewS3Store(blobs BlobStore, prefix string) *S3Store {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &S3Store{blobs: blobs, prefix: prefix}
}

func (s *S3Store) requestKey(meta RunMeta) string {
	return s.prefix + meta.Provider + "/" + meta.Model + "/requests/" + meta.RunID + ".json"
}

func (s *S3Store) responseKey(meta RunMeta) string {
	return s.prefix + meta.Provider + "/" + meta.Model + "/responses/" + meta.RunID + ".json"
}

func (s *S3Store) transcriptKey(meta RunMeta) string {
	return s.prefix + meta.Provider + "/" + meta.Model + "/texts/" + TranscriptFilename(meta)
}

// RecordRequest implements [Store].
func (s *S3Store) RecordRequest(ctx context.Context, meta RunMeta, requestPayload json.RawMessage) error {
	line, err := marshalRequestLine(meta, requestPayload)
	if err != nil {
		return fmt.Errorf("s3 store: encoding request: %w", err)
	}
	if err := s.blobs.Put(ctx, s.requestKey(meta), line); err != nil {
		return fmt.Errorf("s3 store: recording request: %w", err)
	}
	return nil
}

// RecordResponse implements [Store].
func (s *S3Store) RecordResponse(ctx context.Context, meta RunMeta, rec ResponseRecord) (*StoredText, error) {
	line, err := marshalResponseLine(meta, rec)
	if err != nil {
		return nil, fmt.Errorf("s3 store: encoding response: %w", err)
	}
	if err := s.blobs.Put(ctx, s.responseKey(meta), line); err != nil {
		return nil, fmt.Errorf("s3 store: recording response: %w", err)
	}

	body := RenderTranscript(meta, rec)
	key := s.transcriptKey(meta)
	if err := s.blobs.Put(ctx, key, []byte(body)); err != nil {
		return nil, fmt.Errorf("s3 store: recording transcript: %w", err)
	}
	return &StoredText{Path: key, Text: body}, nil
}

// Transcripts lists the transcript keys stored for one provider/model pair.
func (s *S3Store) Transcripts(ctx context.Context, provider, model string) ([]string, error) {
	keys, err := s.blobs.List(ctx, s.prefix+provider+"/"+model+"/texts/")
	if err != nil {
		return nil, fmt.Errorf("s3 store: listing transcripts: %w", err)
	}
	return keys, nil
}
