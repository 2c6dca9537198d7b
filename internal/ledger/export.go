// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/worldbuild/pkg/types"
)

// ExportEntry is one live entity in exportable form.
type ExportEntry struct {
	Name         string            `json:"name" yaml:"name"`
	Type         string            `json:"type" yaml:"type"`
	MentionCount int               `json:"mention_count" yaml:"mention_count"`
	AlsoKnownAs  []string          `json:"also_known_as,omitempty" yaml:"also_known_as,omitempty"`
	Documents    []string          `json:"documents,omitempty" yaml:"documents,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// ExportYAML writes every live entity to w as YAML.
func (l *Ledger) ExportYAML(ctx context.Context, w io.Writer) error {
	entries, err := l.exportEntries(ctx)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// ExportJSON writes every live entity to w as indented JSON.
func (l *Ledger) ExportJSON(ctx context.Context, w io.Writer) error {
	entries, err := l.exportEntries(ctx)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}

func (l *Ledger) exportEntries(ctx context.Context) ([]ExportEntry, error) {
	entities, err := l.Entities(ctx, EntityListOptions{})
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	entries := make([]ExportEntry, len(entities))
	for i, e := range entities {
		entry := ExportEntry{
			Name:         e.Name,
			Type:         string(e.Type),
			MentionCount: e.MentionCount,
		}
		if len(e.Metadata) > 0 {
			entry.Metadata = e.Metadata
		}

		aka, err := l.alsoKnownAs(ctx, e)
		if err != nil {
			return nil, err
		}
		entry.AlsoKnownAs = aka

		docs, err := l.entityDocuments(ctx, e.ID)
		if err != nil {
			return nil, err
		}
		entry.Documents = docs

		entries[i] = entry
	}
	return entries, nil
}

// alsoKnownAs collects the entity's other names: retired records merged
// into it and distinct mention surfaces that differ from the canonical
// name.
func (l *Ledger) alsoKnownAs(ctx context.Context, e types.Entity) ([]string, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT name FROM entities WHERE superseded_by = ?
		 UNION
		 SELECT DISTINCT surface FROM mentions WHERE entity_id = ?
		 ORDER BY 1`, e.ID, e.ID)
	if err != nil {
		return nil, fmt.Errorf("listing names for entity %d: %w", e.ID, err)
	}
	defer rows.Close()

	canonical := foldName(e.Name)
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning name: %w", err)
		}
		if foldName(name) != canonical {
			names = append(names, name)
		}
	}
	return names, rows.Err()
}

// entityDocuments lists the titles of documents mentioning the entity.
func (l *Ledger) entityDocuments(ctx context.Context, entityID int64) ([]string, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT DISTINCT d.title FROM mentions m
		 JOIN chunks c ON c.id = m.chunk_id
		 JOIN documents d ON d.id = c.document_id
		 WHERE m.entity_id = ? ORDER BY d.title`, entityID)
	if err != nil {
		return nil, fmt.Errorf("listing documents for entity %d: %w", entityID, err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scanning title: %w", err)
		}
		titles = append(titles, t)
	}
	return titles, rows.Err()
}
