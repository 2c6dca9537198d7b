// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"fmt"
	"time"

	"github.com/pdiddy/worldbuild/pkg/types"
)

// ContentHash returns the hex SHA-256 of a document's raw text. Document
// identity in the ledger is this hash, not the source path.
func ContentHash(text string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(text)))
}

// DuplicateDocumentError reports that identical content is already in the
// ledger. It is informational, not a failure: the caller decides whether
// to count the document as skipped.
type DuplicateDocumentError struct {
	DocumentID  int64
	ContentHash string
}

func (e *DuplicateDocumentError) Error() string {
	return fmt.Sprintf("document already ingested as id %d", e.DocumentID)
}

// IngestResult reports what one committed ingestion wrote.
type IngestResult struct {
	Document    types.Document
	Chunks      []types.Chunk
	Resolutions []Resolution
}

// Ingest persists a document and its chunks atomically. When the content
// hash already exists, nothing is written and the returned error is a
// *DuplicateDocumentError carrying the existing document id.
func (l *Ledger) Ingest(ctx context.Context, doc *types.Document, chunks []types.Chunk) (*IngestResult, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := l.ingestTx(ctx, tx, doc, chunks); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing ingest: %w", err)
	}
	return &IngestResult{Document: *doc, Chunks: chunks}, nil
}

// IngestDocument runs the full write path for one document inside a single
// transaction: dedup check, document and chunk persistence, and resolution
// of every extracted mention. A failure at any point leaves the store at
// the prior committed state. mentionsBySeq keys mentions by chunk Seq.
func (l *Ledger) IngestDocument(ctx context.Context, doc *types.Document, chunks []types.Chunk, mentionsBySeq map[int][]types.Mention) (*IngestResult, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := l.ingestTx(ctx, tx, doc, chunks); err != nil {
		return nil, err
	}

	var units []mentionUnit
	for _, c := range chunks {
		for _, m := range mentionsBySeq[c.Seq] {
			m.ChunkID = c.ID
			units = append(units, mentionUnit{idx: len(units), mention: m})
		}
	}
	total := 0
	for _, ms := range mentionsBySeq {
		total += len(ms)
	}
	if total != len(units) {
		return nil, fmt.Errorf("mentions reference chunk seqs outside the document")
	}

	resolutions, err := l.resolveTx(ctx, tx, units)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing ingest: %w", err)
	}
	return &IngestResult{Document: *doc, Chunks: chunks, Resolutions: resolutions}, nil
}

// ingestTx writes the document and chunk rows. The caller owns the
// transaction.
func (l *Ledger) ingestTx(ctx context.Context, tx *sql.Tx, doc *types.Document, chunks []types.Chunk) error {
	if doc.ContentHash == "" {
		doc.ContentHash = ContentHash(doc.RawText)
	}

	var existing int64
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM documents WHERE content_hash = ?`, doc.ContentHash,
	).Scan(&existing)
	if err == nil {
		return &DuplicateDocumentError{DocumentID: existing, ContentHash: doc.ContentHash}
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("checking content hash: %w", err)
	}

	doc.IngestedAt = time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO documents (content_hash, title, source_path, raw_text, ingest_run, ingested_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		doc.ContentHash, doc.Title, doc.SourcePath, doc.RawText, doc.IngestRun,
		doc.IngestedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("inserting document: %w", err)
	}
	doc.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading document id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (document_id, seq, start_offset, end_offset, text)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing chunk insert: %w", err)
	}
	defer stmt.Close()

	for i := range chunks {
		chunks[i].DocumentID = doc.ID
		res, err := stmt.ExecContext(ctx,
			doc.ID, chunks[i].Seq, chunks[i].Start, chunks[i].End, chunks[i].Text)
		if err != nil {
			return fmt.Errorf("inserting chunk %d: %w", chunks[i].Seq, err)
		}
		chunks[i].ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading chunk id: %w", err)
		}
	}
	return nil
}
