// Package store Redis backend. Use: go get github.com/redis/go-redis/v9.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Key layout, under an optional prefix:
//
//	run:{id}:request    JSON request line
//	run:{id}:response   JSON response line
//	run:{id}:transcript transcript body
//	index:runs:{provider}:{model}  SET of run ids
const (
	redisKeyRequest    = "run:%s:request"
	redisKeyResponse   = "run:%s:response"
	redisKeyTranscript = "run:%s:transcript"
	redisKeyRunIndex   = "index:runs:%s:%s"
)

// RedisStore records runs in Redis, one key per record plus a per-model
// index set.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore wraps client with an optional key prefix (e.g. "puzzles:").
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix != "" && !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(format string, args ...any) string {
	return s.prefix + fmt.Sprintf(format, args...)
}

// RecordRequest implements [Store].
func (s *RedisStore) RecordRequest(ctx context.Context, meta RunMeta, requestPayload json.RawMessage) error {
	line, err := marshalRequestLine(meta, requestPayload)
	if err != nil {
		return fmt.Errorf("redis store: encoding request: %w", err)
	}
	if err := s.client.Set(ctx, s.key(redisKeyRequest, meta.RunID), line, 0).Err(); err != nil {
		return fmt.Errorf("redis store: recording request: %w", err)
	}
	return s.client.SAdd(ctx, s.key(redisKeyRunIndex, meta.Provider, meta.Model), meta.RunID).Err()
}

// RecordResponse implements [Store].
func (s *RedisStore) RecordResponse(ctx context.Context, meta RunMeta, rec ResponseRecord) (*StoredText, error) {
	line, err := marshalResponseLine(meta, rec)
	if err != nil {
		return nil, fmt.Errorf("redis store: encoding response: %w", err)
	}
	body := RenderTranscript(meta, rec)

	if err := s.client.Set(ctx, s.key(redisKeyResponse, meta.RunID), line, 0).Err(); err != nil {
		return nil, fmt.Errorf("redis store: recording response: %w", err)
	}
	if err := s.client.Set(ctx, s.key(redisKeyTranscript, meta.RunID), body, 0).Err(); err != nil {
		return nil, fmt.Errorf("redis store: recording transcript: %w", err)
	}
	s.client.SAdd(ctx, s.key(redisKeyRunIndex, meta.Provider, meta.Model), meta.RunID)

	return &StoredText{Path: s.key(redisKeyTranscript, meta.RunID), Text: body}, nil
}

// RunIDs returns the recorded run ids for one provider/model pair.
func (s *RedisStore) RunIDs(ctx context.Context, provider, model string) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.key(redisKeyRunIndex, provider, model)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis store: listing runs: %w", err)
	}
	return ids, nil
}
