// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pdiddy/worldbuild/internal/chunk"
	"github.com/pdiddy/worldbuild/internal/extract"
	"github.com/pdiddy/worldbuild/internal/ledger"
	"github.com/pdiddy/worldbuild/internal/source"
	"github.com/pdiddy/worldbuild/pkg/types"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <path>...",
	Short: "Ingest documents into the world ledger",
	Long: `Ingest reads text or Markdown files (directories are walked for .md and
.txt files), splits each into chunks, extracts entity mentions, and
resolves them into canonical entities. Each document commits in a single
transaction; re-ingesting identical content is a no-op reported as a
duplicate, not a failure.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	splitter, err := chunk.NewSplitter(chunk.Options{
		MaxChars:     cfg.Chunk.MaxChars,
		Policy:       chunk.OverlapPolicy(cfg.Chunk.Overlap),
		OverlapChars: cfg.Chunk.OverlapChars,
	})
	if err != nil {
		return err
	}
	extractor, err := extract.New(cfg.Extract)
	if err != nil {
		return err
	}

	led, err := openLedger()
	if err != nil {
		return err
	}
	defer led.Close()

	files, err := source.Expand(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no text or Markdown files under %v", args)
	}

	runID := uuid.NewString()
	ctx := context.Background()
	var ingested, duplicates, failed int

	for _, path := range files {
		switch err := ingestFile(ctx, led, splitter, extractor, runID, path); {
		case err == nil:
			ingested++
		case errors.As(err, new(*ledger.DuplicateDocumentError)):
			duplicates++
			fmt.Printf("%s %s: %v\n", color.YellowString("duplicate"), path, err)
		default:
			failed++
			fmt.Fprintf(os.Stderr, "%s %s: %v\n", color.RedString("failed   "), path, err)
		}
	}

	fmt.Printf("\n%d ingested, %d duplicate(s), %d failed\n", ingested, duplicates, failed)
	if failed > 0 {
		return fmt.Errorf("%d document(s) failed ingestion", failed)
	}
	return nil
}

// ingestFile runs the full pipeline for one file: load, chunk, extract,
// and commit everything in one ledger transaction.
func ingestFile(ctx context.Context, led *ledger.Ledger, splitter *chunk.Splitter, extractor *extract.Extractor, runID, path string) error {
	doc, err := source.Load(path)
	if err != nil {
		return err
	}
	doc.IngestRun = runID

	chunks, err := splitter.Split(doc.RawText)
	if err != nil {
		return err
	}

	mentionsBySeq := make(map[int][]types.Mention, len(chunks))
	total := 0
	for _, c := range chunks {
		mentions := extractor.Extract(c.Text)
		mentionsBySeq[c.Seq] = mentions
		total += len(mentions)
	}

	res, err := led.IngestDocument(ctx, doc, chunks, mentionsBySeq)
	if err != nil {
		return err
	}

	entities := make(map[int64]bool, total)
	for _, r := range res.Resolutions {
		entities[r.Mention.EntityID] = true
	}
	fmt.Printf("%s %s: %q -> %d chunk(s), %d mention(s), %d entity(ies)\n",
		color.GreenString("ingested "), path, doc.Title, len(chunks), total, len(entities))
	return nil
}
