// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the store location and corpus counts",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	led, err := openLedger()
	if err != nil {
		return err
	}
	defer led.Close()

	ctx := context.Background()
	stats, err := led.Stats(ctx)
	if err != nil {
		return err
	}
	schema, err := led.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Store:     %s\n", led.Path())
	fmt.Printf("Schema:    %s\n", schema)
	fmt.Printf("Documents: %d\n", stats.Documents)
	fmt.Printf("Chunks:    %d\n", stats.Chunks)
	fmt.Printf("Entities:  %d live, %d retired by merges\n", stats.Entities, stats.Retired)
	fmt.Printf("Mentions:  %d\n", stats.Mentions)
	return nil
}
