package annotation

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LoadDocument reads and decodes an annotation file. Every record is
// normalized so the human_annotation key exists (null when unset).
func LoadDocument(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	NormalizeDocument(doc)
	return doc, nil
}

// NormalizeDocument clears empty-string annotations back to null. The
// human_annotation key itself is structural in Go and always serialized.
// Idempotent.
func NormalizeDocument(doc Document) {
	for _, records := range doc {
		for _, rec := range records {
			if rec.Annotation != nil && strings.TrimSpace(string(*rec.Annotation)) == "" {
				rec.Annotation = nil
			}
		}
	}
}

// SaveDocument serializes the full document as two-space-indented JSON and
// replaces the target file via a temp file and rename, so a failed write
// never leaves a truncated annotation file behind.
func SaveDocument(path string, doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &SaveError{Path: path, Err: err}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return &SaveError{Path: path, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return &SaveError{Path: path, Err: err}
	}
	return nil
}

// ListFiles enumerates regular files with the given extension directly under
// dir, sorted by name. A missing directory yields an empty list and no error;
// callers surface that as a warning.
func ListFiles(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			continue
		}
		out = append(out, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(out)
	return out, nil
}
