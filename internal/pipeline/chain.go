// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline orchestrates the extraction strategies for one citation
// and merges their partial results into a single scored ParsedCitation.
package pipeline

import (
	"context"
	"net/http"

	"github.com/pdiddy/paperdb/internal/extractor"
	"github.com/pdiddy/paperdb/internal/httputil"
	"github.com/pdiddy/paperdb/pkg/types"
)

// state tracks the chain's progress through the strategy order.
type state int

const (
	stateNotStarted state = iota
	stateTryingGrobid
	stateTryingCrossref
	stateTryingOpenAlex
	stateTryingRegex
	stateMerged
)

// Chain runs the extraction strategies in priority order with early exit.
// It is safe for concurrent use: per-parse state lives on the stack, and
// the rate gates are shared across callers on purpose.
type Chain struct {
	cfg        types.Config
	extractors []extractor.Extractor
}

// New builds a chain over the standard strategy order. The gates bound the
// request rate each remote service sees across all concurrent parses.
func New(cfg types.Config, client *http.Client, gates *httputil.Gates) *Chain {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Chain{
		cfg: cfg,
		extractors: []extractor.Extractor{
			&extractor.Grobid{Client: client, Gate: gates.Grobid},
			&extractor.Crossref{Client: client, Gate: gates.Crossref},
			&extractor.OpenAlex{Client: client, Gate: gates.OpenAlex},
			extractor.Regex{},
		},
	}
}

// Parse runs the chain on one raw citation. It never returns an error: a
// failed strategy contributes an empty result, and the regex fallback
// guarantees the chain reaches the merged state for any input.
func (c *Chain) Parse(ctx context.Context, rawText string) types.ParsedCitation {
	var collected []types.ExtractorResult

	for st := stateNotStarted + 1; st < stateMerged; st++ {
		ext := c.extractors[st-stateTryingGrobid]

		// GROBID is skipped outright when no endpoint is configured.
		if st == stateTryingGrobid && c.cfg.GrobidURL == "" {
			continue
		}

		result, err := ext.Attempt(ctx, rawText, c.cfg)
		if err != nil || result.IsEmpty() {
			// Strategy-local failure: empty contribution, move on.
			continue
		}

		// A high-confidence answer on the core fields ends the chain with
		// this strategy's result alone.
		if coreConfidence(result) > c.cfg.EarlyExitThreshold {
			return Merge([]types.ExtractorResult{result}, rawText, c.cfg)
		}

		collected = append(collected, result)
	}

	return Merge(collected, rawText, c.cfg)
}

// coreConfidence is the mean confidence of the title, authors, and year
// fields, the measure the early-exit rule is defined over. Absent fields
// count as zero.
func coreConfidence(r types.ExtractorResult) float64 {
	sum := r.Confidence(types.FieldTitle) + r.Confidence(types.FieldYear) + r.AuthorsConfidence
	return sum / 3
}
