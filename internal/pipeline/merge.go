// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"github.com/pdiddy/paperdb/internal/authors"
	"github.com/pdiddy/paperdb/pkg/types"
)

// StrategyMerged names a ParsedCitation assembled from more than one
// strategy's contribution.
const StrategyMerged = "merged"

// mergeFields is the full set of mergeable scalar fields.
var mergeFields = []string{
	types.FieldTitle, types.FieldYear, types.FieldVenue, types.FieldVolume,
	types.FieldIssue, types.FieldPages, types.FieldDOI, types.FieldAbstract,
	types.FieldURL, types.FieldKeywords, types.FieldSubjectArea,
	types.FieldCitationCount, types.FieldDate, types.FieldLocation,
	types.FieldStatus,
}

// coreWeight is the merge weight for title, authors, and year; every other
// field weighs 1.
const coreWeight = 2.0

// Merge combines per-strategy partial results into one ParsedCitation.
// results must be ordered by strategy priority: for each field the highest
// confidence wins and ties go to the earlier (higher-priority) result.
// The overall confidence is the weighted mean of the selected per-field
// confidences, title/authors/year counting double. Zero populated fields
// yield a zero-confidence citation with the raw text preserved.
func Merge(results []types.ExtractorResult, rawText string, cfg types.Config) types.ParsedCitation {
	parsed := types.ParsedCitation{
		Fields:  make(map[string]string),
		RawText: rawText,
	}

	var weightedSum, weightSum float64
	contributed := make(map[string]bool)

	for _, name := range mergeFields {
		value, confidence, source := bestField(results, name)
		if value == "" {
			continue
		}
		parsed.Fields[name] = value
		contributed[source] = true

		w := 1.0
		if name == types.FieldTitle || name == types.FieldYear {
			w = coreWeight
		}
		weightedSum += confidence * w
		weightSum += w
	}

	if names, confidence, source := bestAuthors(results); len(names) > 0 {
		parsed.Authors = authors.Candidates(names, cfg)
		contributed[source] = true
		weightedSum += confidence * coreWeight
		weightSum += coreWeight
	}

	if weightSum > 0 {
		parsed.OverallConfidence = weightedSum / weightSum
	}

	switch len(contributed) {
	case 0:
		// Wholly unparseable: confidence stays 0, raw text preserved.
	case 1:
		for source := range contributed {
			parsed.Strategy = source
		}
	default:
		parsed.Strategy = StrategyMerged
	}

	return parsed
}

// bestField selects the highest-confidence value for one field. Earlier
// results win ties, which encodes the strategy priority order.
func bestField(results []types.ExtractorResult, name string) (value string, confidence float64, source string) {
	for _, r := range results {
		fv, ok := r.Fields[name]
		if !ok || fv.Value == "" {
			continue
		}
		if fv.Confidence > confidence {
			value, confidence, source = fv.Value, fv.Confidence, r.Source
		}
	}
	return value, confidence, source
}

// bestAuthors selects the highest-confidence author list, earlier results
// winning ties.
func bestAuthors(results []types.ExtractorResult) (names []string, confidence float64, source string) {
	for _, r := range results {
		if len(r.Authors) == 0 {
			continue
		}
		if r.AuthorsConfidence > confidence {
			names, confidence, source = r.Authors, r.AuthorsConfidence, r.Source
		}
	}
	return names, confidence, source
}
