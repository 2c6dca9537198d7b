// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source reads worldbuilding documents from disk and normalizes
// them for ingestion. See docs/ARCHITECTURE § Ingestion.
package source

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/worldbuild/pkg/types"
)

// maxDocumentBytes caps a single document read. Worldbuilding notes are
// prose; anything larger is almost certainly not.
const maxDocumentBytes = 16 << 20

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// textExtensions are the file types picked up when expanding a directory.
var textExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
}

// Load reads one document from path and returns it with Title, SourcePath,
// and RawText filled. Line endings are normalized to LF and a leading BOM
// is dropped, so chunk offsets index into a stable form of the text.
func Load(path string) (*types.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading document %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("reading document %s: is a directory (pass a file or use expand)", path)
	}
	if info.Size() > maxDocumentBytes {
		return nil, fmt.Errorf("reading document %s: %d bytes exceeds the %d byte limit", path, info.Size(), maxDocumentBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document %s: %w", path, err)
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	if bytes.IndexByte(data, 0) >= 0 {
		return nil, fmt.Errorf("reading document %s: binary content", path)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("reading document %s: not valid UTF-8", path)
	}

	text := string(data)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	return &types.Document{
		Title:      title(text, path),
		SourcePath: filepath.Clean(path),
		RawText:    text,
	}, nil
}

// Expand resolves a mix of file and directory paths into a flat list of
// document files. Directories are walked recursively for Markdown and
// plain-text files in lexical order; explicit file arguments keep their
// given order. Paths that do not exist are reported, not skipped.
func Expand(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("expanding %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, filepath.Clean(p))
			continue
		}

		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if strings.HasPrefix(d.Name(), ".") && path != p {
					return filepath.SkipDir
				}
				return nil
			}
			if textExtensions[strings.ToLower(filepath.Ext(path))] {
				files = append(files, filepath.Clean(path))
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("expanding %s: %w", p, err)
		}
	}
	return files, nil
}

// title derives the document title from the first Markdown heading, or the
// filename stem when there is none.
func title(text, path string) string {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			if h := strings.TrimSpace(strings.TrimLeft(trimmed, "#")); h != "" {
				return h
			}
		}
		break
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
