// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"

	"github.com/pdiddy/worldbuild/pkg/types"
)

// ResolveOutcome says how a mention found its entity.
type ResolveOutcome string

const (
	// ResolveCreated means no entity matched and a new live one was made.
	ResolveCreated ResolveOutcome = "created"
	// ResolveMatched means an exact normalized-name match existed.
	ResolveMatched ResolveOutcome = "matched"
	// ResolveMerged means a fuzzy match absorbed the mention's name; a
	// retired audit record points at the surviving entity.
	ResolveMerged ResolveOutcome = "merged"
)

// Resolution records what resolving one mention did. Mention carries the
// persisted form with ID, ChunkID, and EntityID set.
type Resolution struct {
	Mention   types.Mention
	Outcome   ResolveOutcome
	RetiredID int64
}

// AmbiguousMergeError describes a fuzzy match that tied between several
// entities. It is logged with the deterministic tie-break, never returned:
// resolution proceeds with the winner.
type AmbiguousMergeError struct {
	Surface    string
	Score      float64
	Candidates []int64
}

func (e *AmbiguousMergeError) Error() string {
	return fmt.Sprintf("surface %q matches %d entities at score %.3f", e.Surface, len(e.Candidates), e.Score)
}

// mentionUnit is one mention queued for resolution, keyed by its position
// in the batch so re-ordered input resolves identically.
type mentionUnit struct {
	idx     int
	mention types.Mention
}

// RecordMentions resolves a batch of mentions against one chunk in a
// single transaction. Returned resolutions are in input order.
func (l *Ledger) RecordMentions(ctx context.Context, chunkID int64, mentions []types.Mention) ([]Resolution, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx,
		`SELECT count(*) FROM chunks WHERE id = ?`, chunkID,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("checking chunk %d: %w", chunkID, err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("recording mentions: chunk %d does not exist", chunkID)
	}

	units := make([]mentionUnit, len(mentions))
	for i, m := range mentions {
		m.ChunkID = chunkID
		units[i] = mentionUnit{idx: i, mention: m}
	}

	resolutions, err := l.resolveTx(ctx, tx, units)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing mentions: %w", err)
	}
	return resolutions, nil
}

// resolveTx resolves every unit and writes the mention rows. Units are
// processed sorted by (normalized surface, type, batch position), which
// makes the resulting entity set independent of input order. Mention rows
// are still inserted in batch order so ids follow reading order.
func (l *Ledger) resolveTx(ctx context.Context, tx *sql.Tx, units []mentionUnit) ([]Resolution, error) {
	if len(units) == 0 {
		return nil, nil
	}

	type resolved struct {
		unit      mentionUnit
		norm      string
		entityID  int64
		outcome   ResolveOutcome
		retiredID int64
	}

	order := make([]*resolved, len(units))
	for i, u := range units {
		if !u.mention.Type.Valid() {
			return nil, fmt.Errorf("mention %q has unknown type %q", u.mention.Surface, u.mention.Type)
		}
		norm := l.normalizeSurface(u.mention.Surface)
		if norm == "" {
			return nil, fmt.Errorf("mention at position %d has an empty surface", u.idx)
		}
		order[i] = &resolved{unit: u, norm: norm}
	}
	sort.SliceStable(order, func(i, j int) bool {
		if order[i].norm != order[j].norm {
			return order[i].norm < order[j].norm
		}
		if order[i].unit.mention.Type != order[j].unit.mention.Type {
			return order[i].unit.mention.Type < order[j].unit.mention.Type
		}
		return order[i].unit.idx < order[j].unit.idx
	})

	// Mentions resolved earlier in this batch count toward tie-breaks
	// before their rows are inserted.
	pending := make(map[int64]int)

	for _, r := range order {
		entityID, outcome, retiredID, err := l.resolveOne(ctx, tx, r.unit.mention, r.norm, pending)
		if err != nil {
			return nil, err
		}
		r.entityID = entityID
		r.outcome = outcome
		r.retiredID = retiredID
		pending[entityID]++
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO mentions (chunk_id, entity_id, surface, type, confidence)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("preparing mention insert: %w", err)
	}
	defer stmt.Close()

	resolutions := make([]Resolution, len(units))
	byIdx := make([]*resolved, len(units))
	for _, r := range order {
		byIdx[r.unit.idx] = r
	}
	for i, r := range byIdx {
		m := r.unit.mention
		m.EntityID = r.entityID
		res, err := stmt.ExecContext(ctx, m.ChunkID, m.EntityID, m.Surface, string(m.Type), m.Confidence)
		if err != nil {
			return nil, fmt.Errorf("inserting mention %q: %w", m.Surface, err)
		}
		if m.ID, err = res.LastInsertId(); err != nil {
			return nil, fmt.Errorf("reading mention id: %w", err)
		}
		resolutions[i] = Resolution{Mention: m, Outcome: r.outcome, RetiredID: r.retiredID}
	}
	return resolutions, nil
}

// resolveOne finds or creates the entity for one mention: exact normalized
// match first (following supersession to the live root), then fuzzy match
// against live entities of the same type, then a fresh entity.
func (l *Ledger) resolveOne(ctx context.Context, tx *sql.Tx, m types.Mention, norm string, pending map[int64]int) (int64, ResolveOutcome, int64, error) {
	var (
		exactID    int64
		superseded sql.NullInt64
	)
	err := tx.QueryRowContext(ctx,
		`SELECT id, superseded_by FROM entities WHERE normalized_name = ? AND type = ?`,
		norm, string(m.Type),
	).Scan(&exactID, &superseded)
	switch {
	case err == nil:
		liveID := exactID
		if superseded.Valid {
			if liveID, err = liveRoot(ctx, tx, exactID); err != nil {
				return 0, "", 0, err
			}
		}
		if err := mergeMetadata(ctx, tx, liveID, m.Metadata); err != nil {
			return 0, "", 0, err
		}
		return liveID, ResolveMatched, 0, nil
	case err != sql.ErrNoRows:
		return 0, "", 0, fmt.Errorf("looking up entity %q: %w", norm, err)
	}

	winnerID, winnerName, score, found, err := l.fuzzyMatch(ctx, tx, m, norm, pending)
	if err != nil {
		return 0, "", 0, err
	}
	if found {
		now := time.Now().UTC().UnixMilli()
		res, err := tx.ExecContext(ctx,
			`INSERT INTO entities (name, normalized_name, type, metadata, superseded_by, created_at)
			 VALUES (?, ?, ?, '{}', ?, ?)`,
			strings.TrimSpace(m.Surface), norm, string(m.Type), winnerID, now,
		)
		if err != nil {
			return 0, "", 0, fmt.Errorf("recording supersession for %q: %w", norm, err)
		}
		retiredID, err := res.LastInsertId()
		if err != nil {
			return 0, "", 0, fmt.Errorf("reading retired entity id: %w", err)
		}
		if err := mergeMetadata(ctx, tx, winnerID, m.Metadata); err != nil {
			return 0, "", 0, err
		}
		l.log.Info("merged mention into entity",
			"surface", m.Surface, "entity", winnerName, "entity_id", winnerID,
			"score", score)
		return winnerID, ResolveMerged, retiredID, nil
	}

	now := time.Now().UTC().UnixMilli()
	meta, err := m.Metadata.Value()
	if err != nil {
		return 0, "", 0, err
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO entities (name, normalized_name, type, metadata, superseded_by, created_at)
		 VALUES (?, ?, ?, ?, NULL, ?)`,
		strings.TrimSpace(m.Surface), norm, string(m.Type), meta, now,
	)
	if err != nil {
		return 0, "", 0, fmt.Errorf("creating entity %q: %w", norm, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, "", 0, fmt.Errorf("reading entity id: %w", err)
	}
	return id, ResolveCreated, 0, nil
}

// fuzzyMatch scores norm against every live entity of the mention's type.
// Equal best scores are broken by recorded mention count, then lowest id;
// the tie is logged as an AmbiguousMergeError but never fails the call.
func (l *Ledger) fuzzyMatch(ctx context.Context, tx *sql.Tx, m types.Mention, norm string, pending map[int64]int) (int64, string, float64, bool, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, name, normalized_name FROM entities
		 WHERE type = ? AND superseded_by IS NULL ORDER BY id`,
		string(m.Type),
	)
	if err != nil {
		return 0, "", 0, false, fmt.Errorf("loading live entities: %w", err)
	}
	defer rows.Close()

	type scored struct {
		id   int64
		name string
	}
	var (
		best    float64
		tied    []scored
		normTok = strings.Fields(norm)
	)
	for rows.Next() {
		var (
			id         int64
			name, cand string
		)
		if err := rows.Scan(&id, &name, &cand); err != nil {
			return 0, "", 0, false, fmt.Errorf("scanning entity: %w", err)
		}
		s := similarity(norm, normTok, cand)
		if s < l.fuzzyThreshold || s < best {
			continue
		}
		if s > best {
			best = s
			tied = tied[:0]
		}
		tied = append(tied, scored{id: id, name: name})
	}
	if err := rows.Err(); err != nil {
		return 0, "", 0, false, fmt.Errorf("iterating entities: %w", err)
	}
	if len(tied) == 0 {
		return 0, "", 0, false, nil
	}

	winner := tied[0]
	if len(tied) > 1 {
		ids := make([]int64, len(tied))
		counts := make(map[int64]int, len(tied))
		for i, c := range tied {
			ids[i] = c.id
			var n int
			if err := tx.QueryRowContext(ctx,
				`SELECT count(*) FROM mentions WHERE entity_id = ?`, c.id,
			).Scan(&n); err != nil {
				return 0, "", 0, false, fmt.Errorf("counting mentions for entity %d: %w", c.id, err)
			}
			counts[c.id] = n + pending[c.id]
		}
		sort.Slice(tied, func(i, j int) bool {
			if counts[tied[i].id] != counts[tied[j].id] {
				return counts[tied[i].id] > counts[tied[j].id]
			}
			return tied[i].id < tied[j].id
		})
		winner = tied[0]

		ambErr := &AmbiguousMergeError{Surface: m.Surface, Score: best, Candidates: ids}
		l.log.Warn("ambiguous merge resolved deterministically",
			"err", ambErr, "winner", winner.id,
			"rationale", "most mentions, then lowest id")
	}
	return winner.id, winner.name, best, true, nil
}

// similarity is the max of the token-overlap coefficient and normalized
// Levenshtein similarity between two already-normalized names.
func similarity(a string, aTok []string, b string) float64 {
	overlap := overlapCoefficient(aTok, strings.Fields(b))

	dist := levenshtein.ComputeDistance(a, b)
	longest := len([]rune(a))
	if lb := len([]rune(b)); lb > longest {
		longest = lb
	}
	edit := 0.0
	if longest > 0 {
		edit = 1 - float64(dist)/float64(longest)
	}

	if overlap > edit {
		return overlap
	}
	return edit
}

// overlapCoefficient is |A∩B| / min(|A|,|B|) over token sets, so a name
// wholly contained in another ("elara" in "queen elara") scores 1.
func overlapCoefficient(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	seen := make(map[string]bool, len(a))
	for _, t := range a {
		seen[t] = true
	}
	matched := make(map[string]bool)
	for _, t := range b {
		if seen[t] {
			matched[t] = true
		}
	}
	small := len(uniq(a))
	if n := len(uniq(b)); n < small {
		small = n
	}
	if small == 0 {
		return 0
	}
	return float64(len(matched)) / float64(small)
}

func uniq(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	var out []string
	for _, t := range tokens {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// liveRoot follows superseded_by links to the surviving entity.
func liveRoot(ctx context.Context, tx *sql.Tx, id int64) (int64, error) {
	seen := make(map[int64]bool)
	for {
		if seen[id] {
			return 0, fmt.Errorf("supersession cycle at entity %d", id)
		}
		seen[id] = true

		var next sql.NullInt64
		err := tx.QueryRowContext(ctx,
			`SELECT superseded_by FROM entities WHERE id = ?`, id,
		).Scan(&next)
		if err != nil {
			return 0, fmt.Errorf("following supersession from entity %d: %w", id, err)
		}
		if !next.Valid {
			return id, nil
		}
		id = next.Int64
	}
}

// mergeMetadata folds mention metadata into the entity, last writer wins.
func mergeMetadata(ctx context.Context, tx *sql.Tx, entityID int64, meta types.Metadata) error {
	if len(meta) == 0 {
		return nil
	}
	var current types.Metadata
	if err := tx.QueryRowContext(ctx,
		`SELECT metadata FROM entities WHERE id = ?`, entityID,
	).Scan(&current); err != nil {
		return fmt.Errorf("reading metadata for entity %d: %w", entityID, err)
	}
	current.Merge(meta)
	value, err := current.Value()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE entities SET metadata = ? WHERE id = ?`, value, entityID,
	); err != nil {
		return fmt.Errorf("updating metadata for entity %d: %w", entityID, err)
	}
	return nil
}
