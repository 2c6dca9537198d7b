// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/worldbuild/pkg/types"
)

// EntityListOptions filters Entities. The zero value lists every live
// entity of every type.
type EntityListOptions struct {
	Type           types.EntityType
	IncludeRetired bool
}

// Entities lists entities with their mention counts, ordered by normalized
// name then type.
func (l *Ledger) Entities(ctx context.Context, opts EntityListOptions) ([]types.Entity, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT e.id, e.name, e.normalized_name, e.type, e.metadata, e.superseded_by, e.created_at,
		(SELECT count(*) FROM mentions m WHERE m.entity_id = e.id)
		FROM entities e`)

	var conds []string
	var args []any
	if !opts.IncludeRetired {
		conds = append(conds, `e.superseded_by IS NULL`)
	}
	if opts.Type != "" {
		if !opts.Type.Valid() {
			return nil, fmt.Errorf("listing entities: unknown type %q", opts.Type)
		}
		conds = append(conds, `e.type = ?`)
		args = append(args, string(opts.Type))
	}
	if len(conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	sb.WriteString(` ORDER BY e.normalized_name, e.type`)

	rows, err := l.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("listing entities: %w", err)
	}
	defer rows.Close()

	var entities []types.Entity
	for rows.Next() {
		e, err := scanEntity(rows, true)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

// EntityByID fetches one entity row.
func (l *Ledger) EntityByID(ctx context.Context, id int64) (*types.Entity, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT e.id, e.name, e.normalized_name, e.type, e.metadata, e.superseded_by, e.created_at,
		 (SELECT count(*) FROM mentions m WHERE m.entity_id = e.id)
		 FROM entities e WHERE e.id = ?`, id)
	e, err := scanEntity(row, true)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("entity %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// EntitiesByName returns every entity whose normalized name matches the
// given surface after normalization, across all types, retired included.
func (l *Ledger) EntitiesByName(ctx context.Context, surface string) ([]types.Entity, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT e.id, e.name, e.normalized_name, e.type, e.metadata, e.superseded_by, e.created_at,
		 (SELECT count(*) FROM mentions m WHERE m.entity_id = e.id)
		 FROM entities e WHERE e.normalized_name = ? ORDER BY e.type`,
		l.normalizeSurface(surface))
	if err != nil {
		return nil, fmt.Errorf("looking up %q: %w", surface, err)
	}
	defer rows.Close()

	var entities []types.Entity
	for rows.Next() {
		e, err := scanEntity(rows, true)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

// Supersessions lists the retired records absorbed into the given entity,
// the audit trail of its merges.
func (l *Ledger) Supersessions(ctx context.Context, entityID int64) ([]types.Entity, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT e.id, e.name, e.normalized_name, e.type, e.metadata, e.superseded_by, e.created_at, 0
		 FROM entities e WHERE e.superseded_by = ? ORDER BY e.id`, entityID)
	if err != nil {
		return nil, fmt.Errorf("listing supersessions: %w", err)
	}
	defer rows.Close()

	var entities []types.Entity
	for rows.Next() {
		e, err := scanEntity(rows, true)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

// MentionSite is a mention with its document provenance, for display.
type MentionSite struct {
	Mention       types.Mention
	DocumentID    int64
	DocumentTitle string
	ChunkSeq      int
}

// MentionSites lists every recorded mention of an entity in reading order.
func (l *Ledger) MentionSites(ctx context.Context, entityID int64) ([]MentionSite, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT m.id, m.chunk_id, m.entity_id, m.surface, m.type, m.confidence,
		        c.document_id, c.seq, d.title
		 FROM mentions m
		 JOIN chunks c ON c.id = m.chunk_id
		 JOIN documents d ON d.id = c.document_id
		 WHERE m.entity_id = ?
		 ORDER BY m.id`, entityID)
	if err != nil {
		return nil, fmt.Errorf("listing mentions for entity %d: %w", entityID, err)
	}
	defer rows.Close()

	var sites []MentionSite
	for rows.Next() {
		var s MentionSite
		if err := rows.Scan(
			&s.Mention.ID, &s.Mention.ChunkID, &s.Mention.EntityID,
			&s.Mention.Surface, &s.Mention.Type, &s.Mention.Confidence,
			&s.DocumentID, &s.ChunkSeq, &s.DocumentTitle,
		); err != nil {
			return nil, fmt.Errorf("scanning mention: %w", err)
		}
		sites = append(sites, s)
	}
	return sites, rows.Err()
}

// Documents lists ingested documents without their raw text.
func (l *Ledger) Documents(ctx context.Context) ([]types.Document, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, content_hash, title, source_path, ingest_run, ingested_at
		 FROM documents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []types.Document
	for rows.Next() {
		var (
			d  types.Document
			at int64
		)
		if err := rows.Scan(&d.ID, &d.ContentHash, &d.Title, &d.SourcePath, &d.IngestRun, &at); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		d.IngestedAt = time.UnixMilli(at).UTC()
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Stats summarizes the store for the status command.
type Stats struct {
	Documents int
	Chunks    int
	Entities  int
	Retired   int
	Mentions  int
}

// Stats counts the store's rows.
func (l *Ledger) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	queries := []struct {
		dst   *int
		query string
	}{
		{&s.Documents, `SELECT count(*) FROM documents`},
		{&s.Chunks, `SELECT count(*) FROM chunks`},
		{&s.Entities, `SELECT count(*) FROM entities WHERE superseded_by IS NULL`},
		{&s.Retired, `SELECT count(*) FROM entities WHERE superseded_by IS NOT NULL`},
		{&s.Mentions, `SELECT count(*) FROM mentions`},
	}
	for _, q := range queries {
		if err := l.db.QueryRowContext(ctx, q.query).Scan(q.dst); err != nil {
			return Stats{}, fmt.Errorf("counting rows: %w", err)
		}
	}
	return s, nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanEntity reads one entity row in the canonical column order. withCount
// expects a trailing mention-count column.
func scanEntity(r rowScanner, withCount bool) (types.Entity, error) {
	var (
		e          types.Entity
		superseded sql.NullInt64
		createdAt  int64
	)
	dest := []any{&e.ID, &e.Name, &e.NormalizedName, &e.Type, &e.Metadata, &superseded, &createdAt}
	if withCount {
		dest = append(dest, &e.MentionCount)
	}
	if err := r.Scan(dest...); err != nil {
		if err == sql.ErrNoRows {
			return types.Entity{}, err
		}
		return types.Entity{}, fmt.Errorf("scanning entity: %w", err)
	}
	if superseded.Valid {
		e.SupersededBy = superseded.Int64
	}
	e.CreatedAt = time.UnixMilli(createdAt).UTC()
	return e, nil
}
