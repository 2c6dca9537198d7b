// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retrieval ranks stored chunks against a query with deterministic
// lexical scoring. It only reads ledger state. See docs/ARCHITECTURE
// § Retrieval.
package retrieval

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/worldbuild/internal/ledger"
	"github.com/pdiddy/worldbuild/pkg/types"
)

// Store is the read-only slice of the ledger the index needs.
type Store interface {
	ChunkCount(ctx context.Context) (int, error)
	DocumentFrequency(ctx context.Context, token string) (int, error)
	CandidateChunks(ctx context.Context, tokens []string) ([]ledger.Candidate, error)
}

// Options bounds a query. Zero TopK means the default of 3.
type Options struct {
	TopK     int
	MinScore float64
}

// Result is one ranked chunk with its provenance and the live entities
// mentioned in it.
type Result struct {
	Chunk         types.Chunk    `json:"chunk"`
	DocumentID    int64          `json:"document_id"`
	DocumentTitle string         `json:"document_title"`
	Score         float64        `json:"score"`
	Entities      []types.Entity `json:"entities,omitempty"`
}

// Index scores chunks by token overlap weighted with inverse document
// frequency. Identical store state and query always rank identically.
type Index struct {
	store Store
}

// NewIndex returns an Index reading from store.
func NewIndex(store Store) *Index {
	return &Index{store: store}
}

var tokenRe = regexp.MustCompile(`\p{L}[\p{L}\p{N}]*(?:['’]\p{L}+)*`)

// Query ranks every chunk matching at least one query token and returns at
// most opts.TopK results ordered by score, then most recent document, then
// lowest chunk id. A query with no match yields an empty slice, not an
// error.
func (ix *Index) Query(ctx context.Context, query string, opts Options) ([]Result, error) {
	topK := opts.TopK
	if topK <= 0 {
		topK = 3
	}

	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	total, err := ix.store.ChunkCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("sizing corpus: %w", err)
	}
	if total == 0 {
		return nil, nil
	}

	idf := make(map[string]float64, len(tokens))
	for _, t := range tokens {
		df, err := ix.store.DocumentFrequency(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("weighting token %q: %w", t, err)
		}
		idf[t] = math.Log((1+float64(total))/(1+float64(df))) + 1
	}

	candidates, err := ix.store.CandidateChunks(ctx, tokens)
	if err != nil {
		return nil, fmt.Errorf("collecting candidates: %w", err)
	}

	type ranked struct {
		res        Result
		ingestedAt time.Time
	}
	var results []ranked
	for _, c := range candidates {
		score := scoreCandidate(c, tokens, idf)
		if score <= 0 || score < opts.MinScore {
			continue
		}
		results = append(results, ranked{
			res: Result{
				Chunk:         c.Chunk,
				DocumentID:    c.Chunk.DocumentID,
				DocumentTitle: c.DocumentTitle,
				Score:         score,
				Entities:      c.Entities,
			},
			ingestedAt: c.IngestedAt,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].res.Score != results[j].res.Score {
			return results[i].res.Score > results[j].res.Score
		}
		if !results[i].ingestedAt.Equal(results[j].ingestedAt) {
			return results[i].ingestedAt.After(results[j].ingestedAt)
		}
		return results[i].res.Chunk.ID < results[j].res.Chunk.ID
	})

	if len(results) > topK {
		results = results[:topK]
	}
	out := make([]Result, len(results))
	for i, r := range results {
		out[i] = r.res
	}
	return out, nil
}

// scoreCandidate sums idf over query tokens present in the chunk text,
// plus a bonus for query tokens naming one of the chunk's live entities.
func scoreCandidate(c ledger.Candidate, tokens []string, idf map[string]float64) float64 {
	text := tokenSet(c.Chunk.Text)

	names := make(map[string]bool)
	for _, e := range c.Entities {
		for _, t := range strings.Fields(e.NormalizedName) {
			names[t] = true
		}
	}

	var score float64
	for _, t := range tokens {
		if text[t] {
			score += idf[t]
		}
		if names[t] {
			score += idf[t]
		}
	}
	return score
}

// Tokenize lowercases text and splits it into unique word tokens with
// stopwords removed, preserving first-seen order.
func Tokenize(text string) []string {
	words := tokenRe.FindAllString(strings.ToLower(text), -1)
	seen := make(map[string]bool, len(words))
	var tokens []string
	for _, w := range words {
		if stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		tokens = append(tokens, w)
	}
	return tokens
}

func tokenSet(text string) map[string]bool {
	words := tokenRe.FindAllString(strings.ToLower(text), -1)
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// stopwords are common function words carrying no retrieval signal.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true,
	"and": true, "or": true, "but": true, "nor": true,
	"of": true, "in": true, "on": true, "at": true, "to": true,
	"by": true, "for": true, "with": true, "from": true, "into": true,
	"is": true, "are": true, "was": true, "were": true, "be": true,
	"been": true, "being": true, "has": true, "have": true, "had": true,
	"do": true, "does": true, "did": true, "will": true, "would": true,
	"it": true, "its": true, "this": true, "that": true, "these": true,
	"those": true, "there": true, "here": true,
	"he": true, "she": true, "they": true, "we": true, "you": true,
	"his": true, "her": true, "their": true, "our": true, "your": true,
	"who": true, "whom": true, "whose": true, "which": true, "what": true,
	"as": true, "so": true, "if": true, "then": true, "than": true,
	"not": true, "no": true, "about": true, "tell": true, "me": true,
}
