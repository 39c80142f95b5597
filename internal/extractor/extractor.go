// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extractor implements the citation extraction strategies. Each
// strategy (GROBID, Crossref, OpenAlex, regex fallback) implements the
// Extractor interface; the pipeline iterates them in priority order.
package extractor

import (
	"context"

	"github.com/pdiddy/paperdb/pkg/types"
)

// Strategy names, in chain priority order.
const (
	NameGrobid   = "grobid"
	NameCrossref = "crossref"
	NameOpenAlex = "openalex"
	NameRegex    = "regex"
)

// Per-strategy field confidences. GROBID is the most trusted free-form
// parser; Crossref and OpenAlex lookups are authoritative when keyed by
// DOI; similarity-selected search hits score slightly lower.
const (
	ConfidenceGrobid    = 0.85
	ConfidenceLookup    = 0.9
	ConfidenceSearchHit = 0.85

	ConfidenceRegexDOI     = 0.9
	ConfidenceRegexYear    = 0.6
	ConfidenceRegexTitle   = 0.5
	ConfidenceRegexAuthors = 0.5
	ConfidenceRegexVenue   = 0.4
	ConfidenceRegexPages   = 0.5
)

// Extractor attempts to recover structured fields from one raw citation.
// A failed attempt returns an empty result and a classifying error; the
// chain downgrades failures to empty contributions and moves on.
type Extractor interface {
	Name() string
	Attempt(ctx context.Context, rawText string, cfg types.Config) (types.ExtractorResult, error)
}

// setField records value under name when it is non-empty.
func setField(fields map[string]types.FieldValue, name, value string, confidence float64) {
	if value == "" {
		return
	}
	fields[name] = types.FieldValue{Value: value, Confidence: confidence}
}
