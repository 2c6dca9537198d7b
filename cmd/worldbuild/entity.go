// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/worldbuild/internal/ledger"
	"github.com/pdiddy/worldbuild/pkg/types"
)

var entityCmd = &cobra.Command{
	Use:   "entity",
	Short: "Inspect resolved entities (list, show)",
}

// --- list subcommand ---

var entityListCmd = &cobra.Command{
	Use:   "list",
	Short: "List resolved entities with mention counts",
	RunE:  runEntityList,
}

func runEntityList(cmd *cobra.Command, args []string) error {
	led, err := openLedger()
	if err != nil {
		return err
	}
	defer led.Close()

	opts := ledger.EntityListOptions{}
	if label, _ := cmd.Flags().GetString("type"); label != "" {
		t, err := types.ParseEntityType(strings.ToLower(label))
		if err != nil {
			return err
		}
		opts.Type = t
	}
	opts.IncludeRetired, _ = cmd.Flags().GetBool("retired")

	entities, err := led.Entities(context.Background(), opts)
	if err != nil {
		return err
	}
	if len(entities) == 0 {
		fmt.Println("No entities found.")
		return nil
	}

	fmt.Printf("%-6s  %-14s  %-30s  %-8s  %s\n", "ID", "Type", "Name", "Mentions", "Status")
	fmt.Println(strings.Repeat("-", 72))
	for _, e := range entities {
		status := "live"
		if !e.Live() {
			status = fmt.Sprintf("merged into %d", e.SupersededBy)
		}
		name := e.Name
		if len(name) > 30 {
			name = name[:27] + "..."
		}
		fmt.Printf("%-6d  %-14s  %-30s  %-8d  %s\n", e.ID, e.Type, name, e.MentionCount, status)
	}
	fmt.Printf("\n%d entity(ies)\n", len(entities))
	return nil
}

// --- show subcommand ---

var entityShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show one entity with its aliases, merges, and mention sites",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntityShow,
}

func runEntityShow(cmd *cobra.Command, args []string) error {
	led, err := openLedger()
	if err != nil {
		return err
	}
	defer led.Close()

	ctx := context.Background()
	entities, err := led.EntitiesByName(ctx, args[0])
	if err != nil {
		return err
	}
	if len(entities) == 0 {
		return fmt.Errorf("no entity named %q", args[0])
	}

	for i, e := range entities {
		if i > 0 {
			fmt.Println()
		}
		if err := showEntity(ctx, led, e); err != nil {
			return err
		}
	}
	return nil
}

func showEntity(ctx context.Context, led *ledger.Ledger, e types.Entity) error {
	fmt.Printf("%s [%s] (id %d)\n", e.Name, e.Type, e.ID)
	if !e.Live() {
		live, err := led.EntityByID(ctx, e.SupersededBy)
		if err != nil {
			return err
		}
		fmt.Printf("  merged into: %s (id %d)\n", live.Name, live.ID)
		return nil
	}

	for _, k := range sortedKeys(e.Metadata) {
		fmt.Printf("  %s: %s\n", k, e.Metadata[k])
	}

	retired, err := led.Supersessions(ctx, e.ID)
	if err != nil {
		return err
	}
	for _, r := range retired {
		fmt.Printf("  absorbed: %s (id %d)\n", r.Name, r.ID)
	}

	sites, err := led.MentionSites(ctx, e.ID)
	if err != nil {
		return err
	}
	fmt.Printf("  mentions: %d\n", len(sites))
	for _, s := range sites {
		fmt.Printf("    %q in %s (chunk %d)\n", s.Mention.Surface, s.DocumentTitle, s.ChunkSeq)
	}
	return nil
}

func sortedKeys(m types.Metadata) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	entityListCmd.Flags().String("type", "", "filter by entity type (character, location, organization, item)")
	entityListCmd.Flags().Bool("retired", false, "include records retired by merges")

	entityCmd.AddCommand(entityListCmd)
	entityCmd.AddCommand(entityShowCmd)
	rootCmd.AddCommand(entityCmd)
}
