//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

const demoDocument = `# The Ravenwood Primer

Ravenwood is ruled by Queen Elara. Elara commands the Highwind fleet.
The fleet patrols the Shattered Coast, guarding the grain barges that
feed the city through winter.

Character: Kael - a smuggler with a debt to the Iron Council.
`

// Demo builds the CLI, ingests a sample document into a throwaway store,
// and runs a query against it.
func Demo() error {
	mg.Deps(Build)

	dir, err := os.MkdirTemp("", "worldbuild-demo-")
	if err != nil {
		return fmt.Errorf("creating demo dir: %w", err)
	}
	defer os.RemoveAll(dir)

	docPath := filepath.Join(dir, "ravenwood.md")
	if err := os.WriteFile(docPath, []byte(demoDocument), 0o644); err != nil {
		return fmt.Errorf("writing demo document: %w", err)
	}

	bin := filepath.Join(binDir, binName)
	store := filepath.Join(dir, "world.db")

	for _, args := range [][]string{
		{"--store", store, "ingest", docPath},
		{"--store", store, "entity", "list"},
		{"--store", store, "query", "who", "rules", "Ravenwood"},
	} {
		fmt.Printf("\n$ %s %v\n", bin, args)
		cmd := exec.Command(bin, args...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("running demo step %v: %w", args, err)
		}
	}
	return nil
}
