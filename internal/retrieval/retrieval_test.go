// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieval

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pdiddy/worldbuild/internal/ledger"
	"github.com/pdiddy/worldbuild/pkg/types"
)

// testLedger opens a real store in a temp dir; retrieval is exercised
// against actual SQLite state, not mocks.
func testLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	l, err := ledger.Open(ledger.Config{Path: filepath.Join(t.TempDir(), "world.db")})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

// ingestDoc stores one single-chunk document with the given mentions and
// returns the chunk id.
func ingestDoc(t *testing.T, l *ledger.Ledger, title, text string, mentions []types.Mention) int64 {
	t.Helper()
	doc := &types.Document{Title: title, RawText: text}
	chunks := []types.Chunk{{Seq: 0, Start: 0, End: len(text), Text: text}}
	if _, err := l.IngestDocument(context.Background(), doc, chunks, map[int][]types.Mention{0: mentions}); err != nil {
		t.Fatal(err)
	}
	return chunks[0].ID
}

func char(name string) types.Mention {
	return types.Mention{Surface: name, Type: types.EntityCharacter, Confidence: 0.9}
}

func TestQueryRanksMatchingChunks(t *testing.T) {
	l := testLedger(t)
	ix := NewIndex(l)

	elaraChunk := ingestDoc(t, l, "ravenwood",
		"Ravenwood is ruled by Queen Elara. Elara commands the Highwind fleet.",
		[]types.Mention{char("Queen Elara"), char("Elara")})
	ingestDoc(t, l, "trade",
		"Grain barges move through the harbor every spring.", nil)

	results, err := ix.Query(context.Background(), "Who is Elara?", Options{TopK: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	r := results[0]
	if r.Chunk.ID != elaraChunk {
		t.Errorf("top chunk = %d, want %d", r.Chunk.ID, elaraChunk)
	}
	if r.DocumentTitle != "ravenwood" {
		t.Errorf("provenance title = %q, want ravenwood", r.DocumentTitle)
	}
	if r.Score <= 0 {
		t.Errorf("score = %v, want > 0", r.Score)
	}
	if len(r.Entities) != 1 || r.Entities[0].Name != "Elara" {
		t.Errorf("entities = %v, want the resolved Elara", r.Entities)
	}
}

func TestQueryEntityNameBonusOutranksTextOnlyMatch(t *testing.T) {
	l := testLedger(t)
	ix := NewIndex(l)

	// Both chunks contain "fleet"; only the first carries the Highwind
	// organization as a resolved entity, so it must rank first.
	withEntity := ingestDoc(t, l, "navy",
		"The Highwind fleet patrols the strait.",
		[]types.Mention{{Surface: "Highwind", Type: types.EntityOrganization, Confidence: 0.85}})
	ingestDoc(t, l, "logbook",
		"A fleet of fishing boats crowded the highwind quay at dawn.", nil)

	results, err := ix.Query(context.Background(), "Highwind fleet", Options{TopK: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Chunk.ID != withEntity {
		t.Errorf("top chunk = %d, want %d (entity bonus)", results[0].Chunk.ID, withEntity)
	}
	if results[0].Score <= results[1].Score {
		t.Errorf("scores not ordered: %v then %v", results[0].Score, results[1].Score)
	}
}

func TestQueryTiesBreakByRecency(t *testing.T) {
	l := testLedger(t)
	ix := NewIndex(l)

	ingestDoc(t, l, "older", "The harbor was quiet.", nil)
	time.Sleep(5 * time.Millisecond)
	ingestDoc(t, l, "newer", "The harbor was busy.", nil)

	results, err := ix.Query(context.Background(), "harbor", Options{TopK: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].DocumentTitle != "newer" {
		t.Errorf("top result from %q, want the most recent document", results[0].DocumentTitle)
	}
}

func TestQueryHonorsTopKAndMinScore(t *testing.T) {
	l := testLedger(t)
	ix := NewIndex(l)

	ingestDoc(t, l, "a", "The harbor holds ten ships.", nil)
	ingestDoc(t, l, "b", "The harbor holds two ships.", nil)
	ingestDoc(t, l, "c", "The harbor is closed.", nil)

	ctx := context.Background()
	results, err := ix.Query(ctx, "harbor ships", Options{TopK: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("TopK=2 returned %d results", len(results))
	}

	results, err = ix.Query(ctx, "harbor ships", Options{TopK: 5, MinScore: 1000})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("MinScore floor returned %d results, want 0", len(results))
	}
}

func TestQueryNoMatchReturnsEmpty(t *testing.T) {
	l := testLedger(t)
	ix := NewIndex(l)

	ingestDoc(t, l, "ravenwood", "Ravenwood is ruled by Queen Elara.",
		[]types.Mention{char("Queen Elara")})

	results, err := ix.Query(context.Background(), "Nonexistent Place", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results for a no-match query, want 0", len(results))
	}
}

func TestQueryEmptyStoreAndEmptyQuery(t *testing.T) {
	l := testLedger(t)
	ix := NewIndex(l)
	ctx := context.Background()

	for _, q := range []string{"", "   ", "the of and"} {
		results, err := ix.Query(ctx, q, Options{})
		if err != nil {
			t.Fatal(err)
		}
		if len(results) != 0 {
			t.Errorf("query %q returned %d results, want 0", q, len(results))
		}
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"lowercases and dedups", "Elara ELARA elara", []string{"elara"}},
		{"drops stopwords", "the Queen of Ravenwood", []string{"queen", "ravenwood"}},
		{"keeps apostrophes", "Elara's fleet", []string{"elara's", "fleet"}},
		{"empty", "  ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
