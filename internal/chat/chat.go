// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package chat formats retrieval results into answers and runs the
// line-oriented REPL. Pure formatting over ledger reads; nothing here
// writes state.
package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pdiddy/worldbuild/internal/retrieval"
	"github.com/pdiddy/worldbuild/pkg/types"
)

// Fallback is the answer when retrieval finds nothing relevant.
const Fallback = "No relevant information found. Try ingesting more documents."

// Retriever is the query side of the retrieval index.
type Retriever interface {
	Query(ctx context.Context, query string, opts retrieval.Options) ([]retrieval.Result, error)
}

// Responder answers queries through a Retriever.
type Responder struct {
	retriever Retriever
	opts      retrieval.Options
	log       *slog.Logger
}

// NewResponder builds a Responder. A nil logger means slog.Default().
func NewResponder(r Retriever, opts retrieval.Options, log *slog.Logger) *Responder {
	if log == nil {
		log = slog.Default()
	}
	return &Responder{retriever: r, opts: opts, log: log}
}

// Respond answers one query. A retrieval failure degrades to the fallback
// answer rather than propagating: a broken query must not kill the REPL.
func (r *Responder) Respond(ctx context.Context, query string) string {
	results, err := r.retriever.Query(ctx, query, r.opts)
	if err != nil {
		r.log.Warn("retrieval failed, answering with fallback", "query", query, "err", err)
		return Fallback
	}
	return Answer(query, results)
}

// Answer composes results into a text answer citing entities by canonical
// name and quoting the best chunk. Empty results yield the fallback text.
func Answer(query string, results []retrieval.Result) string {
	if len(results) == 0 {
		return Fallback
	}

	var sb strings.Builder
	top := results[0]
	fmt.Fprintf(&sb, "From %q:\n", top.DocumentTitle)
	for _, line := range strings.Split(strings.TrimSpace(top.Chunk.Text), "\n") {
		fmt.Fprintf(&sb, "  %s\n", line)
	}

	entities := citedEntities(results)
	if len(entities) > 0 {
		sb.WriteString("\nRelated entities:\n")
		for _, e := range entities {
			fmt.Fprintf(&sb, "- [%s] %s", e.Type, e.Name)
			if desc := e.Metadata["description"]; desc != "" {
				fmt.Fprintf(&sb, ": %s", desc)
			}
			sb.WriteString("\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// citedEntities collects entities across results in rank order, each once.
func citedEntities(results []retrieval.Result) []types.Entity {
	seen := make(map[int64]bool)
	var entities []types.Entity
	for _, r := range results {
		for _, e := range r.Entities {
			if seen[e.ID] {
				continue
			}
			seen[e.ID] = true
			entities = append(entities, e)
		}
	}
	return entities
}

// Loop runs the REPL: one query per line, answer per query. It returns
// nil on "exit", "quit", or end of input. Per-query errors are already
// degraded inside Respond; only I/O errors on in surface.
func (r *Responder) Loop(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprintln(out, `Ask about your world. Type "exit" to leave.`)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if query == "exit" || query == "quit" {
			break
		}
		fmt.Fprintln(out, r.Respond(ctx, query))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading chat input: %w", err)
	}
	fmt.Fprintln(out, "Goodbye.")
	return nil
}
