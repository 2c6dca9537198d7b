// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/worldbuild/internal/retrieval"
)

var queryCmd = &cobra.Command{
	Use:   "query <text>...",
	Short: "One-shot retrieval against the ledger",
	Long: `Query runs a single retrieval and prints the ranked chunks with scores,
provenance, and linked entities. The same pipeline backs the chat loop;
this form suits scripting, especially with --json.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().Int("top", 0, "maximum results (default from config)")
	queryCmd.Flags().Float64("min-score", 0, "drop results scoring below this")
	queryCmd.Flags().Bool("json", false, "emit results as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	led, err := openLedger()
	if err != nil {
		return err
	}
	defer led.Close()

	opts := retrieval.Options{
		TopK:     cfg.Retrieval.TopK,
		MinScore: cfg.Retrieval.MinScore,
	}
	if top, _ := cmd.Flags().GetInt("top"); top > 0 {
		opts.TopK = top
	}
	if floor, _ := cmd.Flags().GetFloat64("min-score"); floor > 0 {
		opts.MinScore = floor
	}

	query := strings.Join(args, " ")
	results, err := retrieval.NewIndex(led).Query(context.Background(), query, opts)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	for i, r := range results {
		fmt.Printf("%-4d %.3f  %s (document %d, chunk %d)\n",
			i+1, r.Score, r.DocumentTitle, r.DocumentID, r.Chunk.ID)
		fmt.Printf("     %s\n", excerpt(r.Chunk.Text, 120))
		if len(r.Entities) > 0 {
			names := make([]string, len(r.Entities))
			for j, e := range r.Entities {
				names[j] = fmt.Sprintf("[%s] %s", e.Type, e.Name)
			}
			fmt.Printf("     entities: %s\n", strings.Join(names, ", "))
		}
	}
	fmt.Printf("\n%d result(s)\n", len(results))
	return nil
}

// excerpt flattens text to one line and truncates it for display.
func excerpt(text string, max int) string {
	flat := strings.Join(strings.Fields(text), " ")
	if len(flat) > max {
		return flat[:max-3] + "..."
	}
	return flat
}
