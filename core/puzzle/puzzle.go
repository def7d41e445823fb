// Package puzzle loads prompt fixtures: the puzzle files a run evaluates and
// the shared system prompt. Fixtures are markdown files with an optional
// leading fenced JSON metadata block; the block is hand-authored, so parsing
// tolerates the usual JSON typos (unquoted keys, trailing commas).
package puzzle

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/willpenman/llm-philosophy/internal/utils"
)

// Puzzle is one loaded prompt fixture.
type Puzzle struct {
	Name     string
	Title    string
	Version  string
	Text     string
	Metadata map[string]any
	Path     string
}

// SystemPrompt is the shared system prompt fixture.
type SystemPrompt struct {
	Text string
	Path string
}

// frontMatter is the fenced JSON block at the top of a fixture file.
type frontMatter struct {
	Name     string         `json:"name"`
	Title    string         `json:"title"`
	Version  string         `json:"version"`
	Metadata map[string]any `json:"metadata"`
}

const fixtureExtension = ".md"

// Load reads and validates the puzzle named name from dir. The fixture's
// front-matter name, when present, must match the requested name.
func Load(dir, name string) (*Puzzle, error) {
	path := filepath.Join(dir, name+fixtureExtension)
	loaded, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	if loaded.Name != name {
		return nil, fmt.Errorf("puzzle name mismatch for %s: fixture declares %q", name, loaded.Name)
	}
	return loaded, nil
}

// LoadAll loads every puzzle fixture in dir, sorted by name.
func LoadAll(dir string) ([]*Puzzle, error) {
	names, err := List(dir)
	if err != nil {
		return nil, err
	}
	puzzles := make([]*Puzzle, 0, len(names))
	for _, name := range names {
		loaded, err := loadFile(filepath.Join(dir, name+fixtureExtension))
		if err != nil {
			return nil, err
		}
		puzzles = append(puzzles, loaded)
	}
	return puzzles, nil
}

// List returns the puzzle names available in dir, sorted. A missing
// directory lists as empty rather than failing.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing puzzle dir %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fixtureExtension) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), fixtureExtension))
	}
	sort.Strings(names)
	return names, nil
}

// LoadSystemPrompt reads the system prompt fixture at path. Front matter is
// allowed but only the text is used.
func LoadSystemPrompt(path string) (*SystemPrompt, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading system prompt %s: %w", path, err)
	}
	_, text, err := splitFrontMatter(string(raw))
	if err != nil {
		return nil, fmt.Errorf("system prompt %s: %w", path, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("system prompt %s is empty", path)
	}
	return &SystemPrompt{Text: text, Path: path}, nil
}

func loadFile(path string) (*Puzzle, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("puzzle not found: %s", path)
		}
		return nil, fmt.Errorf("reading puzzle %s: %w", path, err)
	}

	meta, text, err := splitFrontMatter(string(raw))
	if err != nil {
		return nil, fmt.Errorf("puzzle %s: %w", path, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("puzzle %s has no text", path)
	}

	name := meta.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), fixtureExtension)
	}

	metadata := meta.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	return &Puzzle{
		Name:     name,
		Title:    meta.Title,
		Version:  meta.Version,
		Text:     text,
		Metadata: metadata,
		Path:     path,
	}, nil
}

// splitFrontMatter separates an optional leading fenced JSON block from the
// fixture body. Files without a fence are all body.
func splitFrontMatter(content string) (frontMatter, string, error) {
	trimmed := strings.TrimLeft(content, "\n\r \t")
	if !strings.HasPrefix(trimmed, "```") {
		return frontMatter{}, content, nil
	}

	firstLineEnd := strings.Index(trimmed, "\n")
	if firstLineEnd < 0 {
		return frontMatter{}, content, nil
	}
	fence := strings.TrimSpace(trimmed[3:firstLineEnd])
	if fence != "" && fence != "json" {
		// Some other fenced block opens the file; treat it as body.
		return frontMatter{}, content, nil
	}

	rest := trimmed[firstLineEnd+1:]
	closing := strings.Index(rest, "```")
	if closing < 0 {
		return frontMatter{}, "", fmt.Errorf("metadata block is never closed")
	}

	block := rest[:closing]
	body := rest[closing+3:]

	meta, err := utils.ParseLenientJSON[frontMatter](block)
	if err != nil {
		return frontMatter{}, "", fmt.Errorf("parsing metadata block: %w", err)
	}
	return meta, body, nil
}
