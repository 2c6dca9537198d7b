// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pdiddy/worldbuild/internal/chat"
	"github.com/pdiddy/worldbuild/internal/retrieval"
	"github.com/pdiddy/worldbuild/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions about the ingested world",
	Long: `Chat runs an interactive loop: one question per line, answered from the
ledger with provenance. "exit", "quit", or end of input leaves the loop.

With --tui the loop runs as a full-screen terminal interface instead of
the plain prompt.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().Bool("tui", false, "full-screen terminal interface")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	led, err := openLedger()
	if err != nil {
		return err
	}
	defer led.Close()

	index := retrieval.NewIndex(led)
	opts := retrieval.Options{
		TopK:     cfg.Retrieval.TopK,
		MinScore: cfg.Retrieval.MinScore,
	}
	ctx := context.Background()

	if useTUI, _ := cmd.Flags().GetBool("tui"); useTUI {
		stats, err := led.Stats(ctx)
		if err != nil {
			return err
		}
		summary := fmt.Sprintf("%s — %d document(s), %d chunk(s), %d entity(ies)",
			led.Path(), stats.Documents, stats.Chunks, stats.Entities)
		program := tea.NewProgram(tui.New(index, opts, summary), tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("running chat interface: %w", err)
		}
		return nil
	}

	responder := chat.NewResponder(index, opts, logger)
	return responder.Loop(ctx, os.Stdin, os.Stdout)
}
