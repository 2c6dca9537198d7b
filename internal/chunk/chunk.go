// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package chunk splits raw document text into ordered, bounded-size chunks
// with stable byte offsets. See docs/ARCHITECTURE § Chunking.
package chunk

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/worldbuild/pkg/types"
)

// OverlapPolicy selects how consecutive chunks relate.
type OverlapPolicy string

const (
	// OverlapNone produces chunks that tile the input exactly:
	// concatenating them in sequence order reproduces the text.
	OverlapNone OverlapPolicy = "none"

	// OverlapFixed starts each chunk a fixed number of bytes before the
	// previous chunk's end.
	OverlapFixed OverlapPolicy = "fixed"
)

// EmptyDocumentError indicates input with no content after trimming
// whitespace. Such documents are rejected, not chunked.
type EmptyDocumentError struct{}

func (e *EmptyDocumentError) Error() string {
	return "document is empty or whitespace-only"
}

// Options configures a Splitter.
type Options struct {
	// MaxChars caps the byte length of a chunk.
	MaxChars int

	// Policy selects the overlap behavior.
	Policy OverlapPolicy

	// OverlapChars is the overlap width for OverlapFixed. Must be
	// smaller than MaxChars.
	OverlapChars int
}

// DefaultOptions returns the splitter settings used when the config does
// not override them.
func DefaultOptions() Options {
	return Options{MaxChars: 800, Policy: OverlapNone}
}

// Splitter deterministically splits text into chunks. It is a pure
// function of its options: identical input always yields identical chunks.
type Splitter struct {
	opts Options
}

// NewSplitter validates opts and returns a Splitter.
func NewSplitter(opts Options) (*Splitter, error) {
	if opts.MaxChars <= 0 {
		return nil, fmt.Errorf("chunk max size must be positive, got %d", opts.MaxChars)
	}
	switch opts.Policy {
	case OverlapNone:
	case OverlapFixed:
		if opts.OverlapChars <= 0 || opts.OverlapChars >= opts.MaxChars {
			return nil, fmt.Errorf("fixed overlap must be in (0, %d), got %d", opts.MaxChars, opts.OverlapChars)
		}
	case "":
		opts.Policy = OverlapNone
	default:
		return nil, fmt.Errorf("unknown overlap policy %q: use none or fixed", opts.Policy)
	}
	return &Splitter{opts: opts}, nil
}

// Split produces the chunk sequence for text. Sequence indexes are
// 0-based and monotonically increasing; Start/End are byte offsets into
// text with text[Start:End] == Text. Under OverlapNone the chunks
// partition the input losslessly. Returns EmptyDocumentError when text
// is empty or whitespace-only.
func (s *Splitter) Split(text string) ([]types.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &EmptyDocumentError{}
	}

	var chunks []types.Chunk
	seq := 0
	start := 0

	for start < len(text) {
		end := start + s.opts.MaxChars
		if end >= len(text) {
			end = len(text)
		} else {
			end = cutPoint(text, start, end)
		}

		chunks = append(chunks, types.Chunk{
			Seq:   seq,
			Start: start,
			End:   end,
			Text:  text[start:end],
		})
		seq++

		if end == len(text) {
			break
		}
		start = s.nextStart(text, start, end)
	}

	return chunks, nil
}

// nextStart computes where the following chunk begins. Under OverlapFixed
// it backs up by the overlap width, shifted forward to the nearest rune
// boundary; when the overlap would prevent progress it is skipped.
func (s *Splitter) nextStart(text string, start, end int) int {
	if s.opts.Policy != OverlapFixed {
		return end
	}
	next := end - s.opts.OverlapChars
	for next < end && !utf8.RuneStart(text[next]) {
		next++
	}
	if next <= start {
		return end
	}
	return next
}

// cutPoint finds the best boundary in text[start:limit], preferring a
// paragraph break, then a line break, then a space. The separator stays
// with the left chunk so concatenation remains lossless. Without any
// boundary the cut lands on the last rune start at or before limit.
func cutPoint(text string, start, limit int) int {
	window := text[start:limit]

	if i := strings.LastIndex(window, "\n\n"); i > 0 {
		return start + i + 2
	}
	if i := strings.LastIndex(window, "\n"); i > 0 {
		return start + i + 1
	}
	if i := strings.LastIndex(window, " "); i > 0 {
		return start + i + 1
	}

	cut := limit
	for cut > start && !utf8.RuneStart(text[cut]) {
		cut--
	}
	if cut == start {
		return limit
	}
	return cut
}
