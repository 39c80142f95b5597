// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperdb/internal/csl"
	"github.com/pdiddy/paperdb/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import [file.json]",
	Short: "Import a CSL-JSON file (Zotero export) into the database",
	Long: `Import reads bibliographic entries from a CSL-JSON file, such as a
Zotero "export library" file, and stores them with their author lists.
Duplicates (by DOI, then title and year) are reported and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening import file: %w", err)
	}
	defer f.Close()

	cfg := pipelineConfig()
	entries, err := csl.Import(f, cfg)
	if err != nil {
		return err
	}

	if mustBool(cmd, "dry-run") {
		return csl.Export(entries, os.Stdout)
	}

	s, err := store.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	var added, duplicates int
	for _, e := range entries {
		res, err := s.SaveEntry(ctx, e.Entry, e.Authors)
		if err != nil {
			return err
		}
		if res.IsNew {
			added++
		} else {
			duplicates++
			fmt.Fprintf(os.Stderr, "duplicate of entry %d: %s\n", res.EntryID, e.Entry.Title)
		}
	}

	fmt.Printf("imported %d entries (%d duplicates skipped)\n", added, duplicates)
	return nil
}

func init() {
	importCmd.Flags().Bool("dry-run", false, "print entries as CSL-YAML instead of storing them")

	rootCmd.AddCommand(importCmd)
}
