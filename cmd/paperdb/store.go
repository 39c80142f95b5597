// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperdb/internal/csl"
	"github.com/pdiddy/paperdb/internal/store"
	"github.com/pdiddy/paperdb/pkg/types"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the entries database",
}

var storeInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the database and schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := pipelineConfig()
		s, err := store.New(cfg.DBPath)
		if err != nil {
			return err
		}
		defer s.Close()
		fmt.Printf("database ready at %s\n", cfg.DBPath)
		return nil
	},
}

var storeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored entries, optionally filtered by type",
	RunE:  runStoreList,
}

func runStoreList(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig()
	s, err := store.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	entries, err := s.ListEntries(ctx, types.EntryType(mustString(cmd, "type")))
	if err != nil {
		return err
	}

	switch {
	case mustBool(cmd, "json"):
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case mustBool(cmd, "csl"):
		out := make([]csl.Imported, len(entries))
		for i, e := range entries {
			authorList, err := s.EntryAuthors(ctx, e.ID)
			if err != nil {
				return err
			}
			out[i] = csl.Imported{Entry: e, Authors: authorList}
		}
		return csl.Export(out, os.Stdout)
	}

	if len(entries) == 0 {
		fmt.Println("No entries stored.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-5s  %-18s  %-6s  %-50s  %s\n", "ID", "Type", "Year", "Title", "DOI")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))
	for _, e := range entries {
		title := e.Title
		if len(title) > 50 {
			title = title[:47] + "..."
		}
		year := ""
		if e.Year != 0 {
			year = strconv.Itoa(e.Year)
		}
		fmt.Fprintf(os.Stdout, "%-5d  %-18s  %-6s  %-50s  %s\n", e.ID, e.Type, year, title, e.DOI)
	}
	fmt.Fprintf(os.Stdout, "\n%d entries\n", len(entries))
	return nil
}

var storeDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete an entry and its author links",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid entry id %q", args[0])
		}

		cfg := pipelineConfig()
		s, err := store.New(cfg.DBPath)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.DeleteEntry(context.Background(), id); err != nil {
			return err
		}
		fmt.Printf("deleted entry %d\n", id)
		return nil
	},
}

func init() {
	storeListCmd.Flags().String("type", "", "filter by entry type")
	storeListCmd.Flags().Bool("json", false, "output entries as JSON")
	storeListCmd.Flags().Bool("csl", false, "output entries as CSL-YAML")

	storeCmd.AddCommand(storeInitCmd)
	storeCmd.AddCommand(storeListCmd)
	storeCmd.AddCommand(storeDeleteCmd)

	rootCmd.AddCommand(storeCmd)
}
