// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/worldbuild/pkg/types"
)

// Candidate is a chunk that matched at least one query token, with the
// provenance and live entities the scorer needs.
type Candidate struct {
	Chunk         types.Chunk
	DocumentTitle string
	IngestedAt    time.Time
	Entities      []types.Entity
}

// ChunkCount returns the number of chunks in the store.
func (l *Ledger) ChunkCount(ctx context.Context) (int, error) {
	var n int
	if err := l.db.QueryRowContext(ctx, `SELECT count(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// DocumentFrequency returns how many chunks contain the token. Tokens are
// matched through the full-text index.
func (l *Ledger) DocumentFrequency(ctx context.Context, token string) (int, error) {
	var n int
	err := l.db.QueryRowContext(ctx,
		`SELECT count(*) FROM chunks_fts WHERE chunks_fts MATCH ?`, quoteToken(token),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting chunks for %q: %w", token, err)
	}
	return n, nil
}

// CandidateChunks returns every chunk whose text matches any of the tokens
// through the full-text index, or that mentions a live entity whose
// normalized name contains a token. Results are ordered by chunk id; the
// caller scores and ranks them.
func (l *Ledger) CandidateChunks(ctx context.Context, tokens []string) ([]Candidate, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = quoteToken(t)
	}

	var sb strings.Builder
	args := []any{strings.Join(quoted, " OR ")}
	sb.WriteString(`SELECT c.id, c.document_id, c.seq, c.start_offset, c.end_offset, c.text,
		d.title, d.ingested_at
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE c.id IN (
			SELECT rowid FROM chunks_fts WHERE chunks_fts MATCH ?
			UNION
			SELECT m.chunk_id FROM mentions m
			JOIN entities e ON e.id = m.entity_id
			WHERE e.superseded_by IS NULL AND (`)
	for i, t := range tokens {
		if i > 0 {
			sb.WriteString(" OR ")
		}
		sb.WriteString(`(' ' || e.normalized_name || ' ') LIKE ?`)
		args = append(args, "% "+t+" %")
	}
	sb.WriteString(`)) ORDER BY c.id`)

	rows, err := l.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying candidate chunks: %w", err)
	}
	defer rows.Close()

	var candidates []Candidate
	for rows.Next() {
		var (
			c  Candidate
			at int64
		)
		if err := rows.Scan(
			&c.Chunk.ID, &c.Chunk.DocumentID, &c.Chunk.Seq,
			&c.Chunk.Start, &c.Chunk.End, &c.Chunk.Text,
			&c.DocumentTitle, &at,
		); err != nil {
			return nil, fmt.Errorf("scanning candidate chunk: %w", err)
		}
		c.IngestedAt = time.UnixMilli(at).UTC()
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating candidate chunks: %w", err)
	}

	for i := range candidates {
		entities, err := l.chunkEntities(ctx, candidates[i].Chunk.ID)
		if err != nil {
			return nil, err
		}
		candidates[i].Entities = entities
	}
	return candidates, nil
}

// chunkEntities lists the live entities mentioned in one chunk.
func (l *Ledger) chunkEntities(ctx context.Context, chunkID int64) ([]types.Entity, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT DISTINCT e.id, e.name, e.normalized_name, e.type, e.metadata, e.superseded_by, e.created_at
		 FROM mentions m
		 JOIN entities e ON e.id = m.entity_id
		 WHERE m.chunk_id = ? AND e.superseded_by IS NULL
		 ORDER BY e.id`, chunkID)
	if err != nil {
		return nil, fmt.Errorf("listing entities for chunk %d: %w", chunkID, err)
	}
	defer rows.Close()

	var entities []types.Entity
	for rows.Next() {
		e, err := scanEntity(rows, false)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

// quoteToken wraps a token for FTS5 MATCH so it is read as a plain string,
// never as query syntax.
func quoteToken(t string) string {
	return `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
}
