package store

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.NoError(t, scanner.Err())
	return lines
}

func TestFileStore_RecordRequestAppends(t *testing.T) {
	dir := t.TempDir()
	fileStore := NewFileStore(dir)
	meta := testMeta()

	require.NoError(t, fileStore.RecordRequest(context.Background(), meta, json.RawMessage(`{"model":"m"}`)))
	require.NoError(t, fileStore.RecordRequest(context.Background(), meta, json.RawMessage(`{"model":"m2"}`)))

	path := filepath.Join(dir, "anthropic", "claude-opus-4-5-20251101", "requests.jsonl")
	lines := readLines(t, path)
	require.Len(t, lines, 2)

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &record))
	assert.Equal(t, "run-1", record["run_id"])
	assert.Equal(t, "trolley", record["puzzle_name"])
	request := record["request"].(map[string]any)
	assert.Equal(t, "m", request["model"])
}

func TestFileStore_RecordResponseWritesTranscript(t *testing.T) {
	dir := t.TempDir()
	fileStore := NewFileStore(dir)
	meta := testMeta()

	stored, err := fileStore.RecordResponse(context.Background(), meta, ResponseRecord{
		Request:    json.RawMessage(`{"model":"m"}`),
		Response:   json.RawMessage(`{"id":"msg_01"}`),
		Derived:    map[string]any{"model_alias": "Opus 4.5"},
		InputText:  "System:\nsys\n\nUser:\npuzzle",
		OutputText: "The answer.",
		ModelAlias: "Opus 4.5",
	})
	require.NoError(t, err)

	wantPath := filepath.Join(dir, "anthropic", "claude-opus-4-5-20251101", "texts",
		"default-trolley-v2-2026-03-05T143009Z.md")
	assert.Equal(t, wantPath, stored.Path)

	onDisk, err := os.ReadFile(wantPath)
	require.NoError(t, err)
	assert.Equal(t, stored.Text, string(onDisk))
	assert.Contains(t, stored.Text, "The answer.")

	lines := readLines(t, filepath.Join(dir, "anthropic", "claude-opus-4-5-20251101", "responses.jsonl"))
	require.Len(t, lines, 1)

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &record))
	assert.NotNil(t, record["request"])
	assert.NotNil(t, record["response"])
	derived := record["derived"].(map[string]any)
	assert.Equal(t, "Opus 4.5", derived["model_alias"])
}

func TestMemoryStore_RetainsOrder(t *testing.T) {
	memory := NewMemoryStore()
	meta := testMeta()

	require.NoError(t, memory.RecordRequest(context.Background(), meta, json.RawMessage(`{"a":1}`)))
	stored, err := memory.RecordResponse(context.Background(), meta, ResponseRecord{OutputText: "out"})
	require.NoError(t, err)
	assert.Equal(t, "memory://run-1", stored.Path)

	requests := memory.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "run-1", requests[0].Meta.RunID)

	responses := memory.Responses()
	require.Len(t, responses, 1)
	assert.Equal(t, "out", responses[0].Record.OutputText)
	assert.Contains(t, responses[0].Transcript, "out")
}
