// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperdb/internal/csl"
	"github.com/pdiddy/paperdb/internal/httputil"
	"github.com/pdiddy/paperdb/internal/pipeline"
	"github.com/pdiddy/paperdb/internal/store"
	"github.com/pdiddy/paperdb/pkg/types"
)

var parseCmd = &cobra.Command{
	Use:   "parse [citation]",
	Short: "Parse free-text citations into structured entries",
	Long: `Parse resolves a citation through the extraction strategies (GROBID,
Crossref, OpenAlex, regex fallback) and prints the merged result.

A single citation is given as the argument; --file reads one citation per
line and parses them concurrently. Use --store to persist results in the
entries database.`,
	RunE: runParse,
}

func runParse(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")

	var citations []string
	switch {
	case file != "":
		lines, err := readCitationLines(file)
		if err != nil {
			return err
		}
		citations = lines
	case len(args) == 1:
		citations = []string{args[0]}
	default:
		return fmt.Errorf("provide a citation argument or --file")
	}

	cfg := pipelineConfig()
	chain := pipeline.New(cfg, nil, httputil.NewGates(cfg.RemoteRate))

	// Ctrl-C stops scheduling new citations; in-flight parses finish.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var progress io.Writer
	if len(citations) > 1 {
		progress = os.Stderr
	}
	results := chain.ParseBatch(ctx, citations, progress)

	defaultType := types.EntryType(mustString(cmd, "type"))
	entries := make([]csl.Imported, len(results))
	for i, r := range results {
		entry, authorList := pipeline.BuildEntry(r, defaultType)
		entries[i] = csl.Imported{Entry: entry, Authors: authorList}
	}

	if mustBool(cmd, "store") {
		if err := persistEntries(ctx, cfg, entries); err != nil {
			return err
		}
	}

	switch {
	case mustBool(cmd, "json"):
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case mustBool(cmd, "csl"):
		return csl.Export(entries, os.Stdout)
	default:
		for _, r := range results {
			printParsed(r)
		}
		return nil
	}
}

func readCitationLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening citation file: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading citation file: %w", err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("no citations found in %s", path)
	}
	return lines, nil
}

func persistEntries(ctx context.Context, cfg types.Config, entries []csl.Imported) error {
	s, err := store.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer s.Close()

	for _, e := range entries {
		if e.Entry.Title == "" && e.Entry.DOI == "" {
			fmt.Fprintf(os.Stderr, "warning: skipping unparseable entry\n")
			continue
		}
		res, err := s.SaveEntry(ctx, e.Entry, e.Authors)
		if err != nil {
			return err
		}
		if res.IsNew {
			fmt.Fprintf(os.Stderr, "stored entry %d: %s\n", res.EntryID, e.Entry.Title)
		} else {
			fmt.Fprintf(os.Stderr, "duplicate of entry %d: %s\n", res.EntryID, e.Entry.Title)
		}
	}
	return nil
}

func printParsed(r types.ParsedCitation) {
	strategy := r.Strategy
	if strategy == "" {
		strategy = "unparsed"
	}
	fmt.Printf("strategy: %s (confidence %.2f)\n", strategy, r.OverallConfidence)
	for _, name := range []string{
		types.FieldTitle, types.FieldYear, types.FieldVenue, types.FieldVolume,
		types.FieldIssue, types.FieldPages, types.FieldDOI, types.FieldDate,
		types.FieldLocation, types.FieldCitationCount,
	} {
		if v := r.Field(name); v != "" {
			fmt.Printf("  %-15s %s\n", name+":", v)
		}
	}
	for _, a := range r.Authors {
		markers := ""
		if a.IsFirstAuthor {
			markers += " [first]"
		}
		if a.IsAnum {
			markers += " [anum]"
		}
		fmt.Printf("  author %d: %s%s\n", a.Position, a.Name, markers)
	}
	fmt.Println()
}

func mustString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

func mustBool(cmd *cobra.Command, name string) bool {
	v, _ := cmd.Flags().GetBool(name)
	return v
}

func init() {
	parseCmd.Flags().String("file", "", "file with one citation per line")
	parseCmd.Flags().String("type", string(types.TypePublication), "default entry type: publication, book_chapter, patent, oral_presentation, poster_abstract")
	parseCmd.Flags().Bool("json", false, "output parsed citations as JSON")
	parseCmd.Flags().Bool("csl", false, "output entries as CSL-YAML")
	parseCmd.Flags().Bool("store", false, "persist parsed entries in the database")

	rootCmd.AddCommand(parseCmd)
}
