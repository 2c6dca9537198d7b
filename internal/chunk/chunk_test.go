package chunk

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func mustSplitter(t *testing.T, opts Options) *Splitter {
	t.Helper()
	s, err := NewSplitter(opts)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// --- option validation ---

func TestNewSplitterValidation(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"defaults", DefaultOptions(), false},
		{"zero max", Options{MaxChars: 0, Policy: OverlapNone}, true},
		{"negative max", Options{MaxChars: -5, Policy: OverlapNone}, true},
		{"empty policy treated as none", Options{MaxChars: 100}, false},
		{"unknown policy", Options{MaxChars: 100, Policy: "sliding"}, true},
		{"fixed without width", Options{MaxChars: 100, Policy: OverlapFixed}, true},
		{"fixed width too large", Options{MaxChars: 100, Policy: OverlapFixed, OverlapChars: 100}, true},
		{"fixed valid", Options{MaxChars: 100, Policy: OverlapFixed, OverlapChars: 20}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSplitter(tt.opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewSplitter(%+v) error = %v, wantErr %v", tt.opts, err, tt.wantErr)
			}
		})
	}
}

// --- empty input ---

func TestSplitEmptyDocument(t *testing.T) {
	s := mustSplitter(t, DefaultOptions())

	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"spaces", "    "},
		{"newlines", "\n\n\n"},
		{"mixed whitespace", " \t\n \r\n "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := s.Split(tt.text)
			if chunks != nil {
				t.Errorf("got %d chunks, want none", len(chunks))
			}
			var emptyErr *EmptyDocumentError
			if !errors.As(err, &emptyErr) {
				t.Errorf("error = %v, want EmptyDocumentError", err)
			}
		})
	}
}

// --- basic splitting ---

func TestSplitSingleChunk(t *testing.T) {
	s := mustSplitter(t, DefaultOptions())

	text := "Ravenwood is ruled by Queen Elara."
	chunks, err := s.Split(text)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	c := chunks[0]
	if c.Seq != 0 || c.Start != 0 || c.End != len(text) {
		t.Errorf("chunk = {seq:%d start:%d end:%d}, want {0 0 %d}", c.Seq, c.Start, c.End, len(text))
	}
	if c.Text != text {
		t.Errorf("chunk text = %q, want %q", c.Text, text)
	}
}

func TestSplitPrefersParagraphBreaks(t *testing.T) {
	first := strings.Repeat("a", 30) + "."
	second := strings.Repeat("b", 30) + "."
	text := first + "\n\n" + second

	s := mustSplitter(t, Options{MaxChars: 50, Policy: OverlapNone})
	chunks, err := s.Split(text)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if !strings.HasSuffix(chunks[0].Text, ".\n\n") {
		t.Errorf("first chunk should end at the paragraph break, got %q", chunks[0].Text)
	}
	if chunks[1].Text != second {
		t.Errorf("second chunk = %q, want %q", chunks[1].Text, second)
	}
}

func TestSplitFallsBackToSpaces(t *testing.T) {
	// One long line with no paragraph or line breaks.
	text := strings.Repeat("word ", 100) // 500 bytes
	s := mustSplitter(t, Options{MaxChars: 120, Policy: OverlapNone})

	chunks, err := s.Split(text)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) < 4 {
		t.Fatalf("got %d chunks, want >= 4", len(chunks))
	}
	for i, c := range chunks[:len(chunks)-1] {
		if !strings.HasSuffix(c.Text, " ") {
			t.Errorf("chunk %d should end on a space boundary, got %q", i, c.Text[len(c.Text)-5:])
		}
	}
}

func TestSplitHardCutWithoutBoundaries(t *testing.T) {
	text := strings.Repeat("x", 100)
	s := mustSplitter(t, Options{MaxChars: 30, Policy: OverlapNone})

	chunks, err := s.Split(text)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 4 {
		t.Fatalf("got %d chunks, want 4", len(chunks))
	}
	for _, c := range chunks[:3] {
		if len(c.Text) != 30 {
			t.Errorf("chunk %d length = %d, want 30", c.Seq, len(c.Text))
		}
	}
}

// --- invariants ---

func TestSplitInvariants(t *testing.T) {
	tests := []struct {
		name string
		text string
		opts Options
	}{
		{"plain prose", strings.Repeat("The fleet sailed at dawn. ", 40), Options{MaxChars: 100, Policy: OverlapNone}},
		{"paragraphs", strings.Repeat("First paragraph of notes.\n\nSecond paragraph of notes.\n\n", 20), Options{MaxChars: 90, Policy: OverlapNone}},
		{"unicode", strings.Repeat("Die Königin Élara führt die Flotte über die Ägäis. ", 30), Options{MaxChars: 64, Policy: OverlapNone}},
		{"tiny chunks", "alpha beta gamma delta epsilon", Options{MaxChars: 8, Policy: OverlapNone}},
		{"single byte under max", "hi", Options{MaxChars: 800, Policy: OverlapNone}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustSplitter(t, tt.opts)
			chunks, err := s.Split(tt.text)
			if err != nil {
				t.Fatal(err)
			}

			var rebuilt strings.Builder
			for i, c := range chunks {
				if c.Seq != i {
					t.Errorf("chunk %d has seq %d", i, c.Seq)
				}
				if len(c.Text) > tt.opts.MaxChars {
					t.Errorf("chunk %d length %d exceeds max %d", i, len(c.Text), tt.opts.MaxChars)
				}
				if got := tt.text[c.Start:c.End]; got != c.Text {
					t.Errorf("chunk %d offsets [%d:%d] yield %q, want %q", i, c.Start, c.End, got, c.Text)
				}
				if !utf8.ValidString(c.Text) {
					t.Errorf("chunk %d splits a UTF-8 sequence", i)
				}
				rebuilt.WriteString(c.Text)
			}

			// Lossless reconstruction under OverlapNone.
			if rebuilt.String() != tt.text {
				t.Errorf("concatenated chunks do not reproduce the input (got %d bytes, want %d)",
					rebuilt.Len(), len(tt.text))
			}
		})
	}
}

func TestSplitDeterministic(t *testing.T) {
	text := strings.Repeat("Elara commands the Highwind fleet from the citadel. ", 25)
	s := mustSplitter(t, Options{MaxChars: 120, Policy: OverlapNone})

	first, err := s.Split(text)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Split(text)
	if err != nil {
		t.Fatal(err)
	}

	if len(first) != len(second) {
		t.Fatalf("runs disagree on chunk count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("chunk %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

// --- overlap ---

func TestSplitFixedOverlap(t *testing.T) {
	text := strings.Repeat("x", 100)
	s := mustSplitter(t, Options{MaxChars: 40, Policy: OverlapFixed, OverlapChars: 10})

	chunks, err := s.Split(text)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) < 3 {
		t.Fatalf("got %d chunks, want >= 3", len(chunks))
	}

	for i := 1; i < len(chunks); i++ {
		prev, cur := chunks[i-1], chunks[i]
		if cur.Start != prev.End-10 {
			t.Errorf("chunk %d starts at %d, want %d (10 before previous end)", i, cur.Start, prev.End-10)
		}
		// Offsets stay true into the original text despite the overlap.
		if text[cur.Start:cur.End] != cur.Text {
			t.Errorf("chunk %d offsets do not match text", i)
		}
	}
	last := chunks[len(chunks)-1]
	if last.End != len(text) {
		t.Errorf("last chunk ends at %d, want %d", last.End, len(text))
	}
}

func TestSplitFixedOverlapAlwaysProgresses(t *testing.T) {
	// Overlap nearly as large as the chunk still terminates.
	text := strings.Repeat("y", 64)
	s := mustSplitter(t, Options{MaxChars: 8, Policy: OverlapFixed, OverlapChars: 7})

	chunks, err := s.Split(text)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(chunks); i++ {
		if chunks[i].Start <= chunks[i-1].Start {
			t.Fatalf("chunk %d does not advance: start %d after %d", i, chunks[i].Start, chunks[i-1].Start)
		}
	}
}
