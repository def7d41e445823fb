package puzzle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoad_WithFrontMatter(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "trolley.md", "```json\n"+
		`{"name":"trolley","title":"The Trolley Problem","version":"2","metadata":{"topic":"ethics"}}`+
		"\n```\n\nA runaway trolley approaches a fork in the track.\n")

	loaded, err := Load(dir, "trolley")
	require.NoError(t, err)

	assert.Equal(t, "trolley", loaded.Name)
	assert.Equal(t, "The Trolley Problem", loaded.Title)
	assert.Equal(t, "2", loaded.Version)
	assert.Equal(t, "A runaway trolley approaches a fork in the track.", loaded.Text)
	assert.Equal(t, "ethics", loaded.Metadata["topic"])
}

func TestLoad_RepairsHandAuthoredMetadata(t *testing.T) {
	dir := t.TempDir()
	// Unquoted keys and a trailing comma, as hand-edited blocks tend to have.
	writeFixture(t, dir, "ship.md", "```json\n"+
		`{name: "ship", title: 'Ship of Theseus',}`+
		"\n```\nIf every plank is replaced, is it the same ship?\n")

	loaded, err := Load(dir, "ship")
	require.NoError(t, err)
	assert.Equal(t, "Ship of Theseus", loaded.Title)
}

func TestLoad_NoFrontMatterDefaultsNameFromFile(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "sorites.md", "How many grains make a heap?\n")

	loaded, err := Load(dir, "sorites")
	require.NoError(t, err)
	assert.Equal(t, "sorites", loaded.Name)
	assert.Empty(t, loaded.Title)
	assert.NotNil(t, loaded.Metadata)
}

func TestLoad_NameMismatch(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "a.md", "```json\n{\"name\":\"b\"}\n```\ntext\n")

	_, err := Load(dir, "a")
	require.ErrorContains(t, err, "name mismatch")
}

func TestLoad_EmptyTextRejected(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "empty.md", "```json\n{\"name\":\"empty\"}\n```\n   \n")

	_, err := Load(dir, "empty")
	require.ErrorContains(t, err, "no text")
}

func TestLoad_UnclosedMetadataBlock(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "broken.md", "```json\n{\"name\":\"broken\"}\n\ntext without closing fence\n")

	_, err := Load(dir, "broken")
	require.ErrorContains(t, err, "never closed")
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(t.TempDir(), "ghost")
	require.ErrorContains(t, err, "not found")
}

func TestList_SortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "zeno.md", "text")
	writeFixture(t, dir, "cave.md", "text")
	writeFixture(t, dir, "notes.txt", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.md"), 0o755))

	names, err := List(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"cave", "zeno"}, names)
}

func TestList_MissingDirIsEmpty(t *testing.T) {
	names, err := List(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "one.md", "first text")
	writeFixture(t, dir, "two.md", "second text")

	puzzles, err := LoadAll(dir)
	require.NoError(t, err)
	require.Len(t, puzzles, 2)
	assert.Equal(t, "one", puzzles[0].Name)
	assert.Equal(t, "two", puzzles[1].Name)
}

func TestLoadSystemPrompt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "system.md")
	require.NoError(t, os.WriteFile(path, []byte("You are a careful philosopher.\n"), 0o644))

	prompt, err := LoadSystemPrompt(path)
	require.NoError(t, err)
	assert.Equal(t, "You are a careful philosopher.", prompt.Text)
	assert.Equal(t, path, prompt.Path)
}

func TestLoadSystemPrompt_StripsFrontMatter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "system.md")
	require.NoError(t, os.WriteFile(path, []byte("```json\n{\"title\":\"System\"}\n```\nBe rigorous.\n"), 0o644))

	prompt, err := LoadSystemPrompt(path)
	require.NoError(t, err)
	assert.Equal(t, "Be rigorous.", prompt.Text)
}
