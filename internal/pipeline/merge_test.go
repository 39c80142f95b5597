// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"math"
	"testing"

	"github.com/pdiddy/paperdb/internal/extractor"
	"github.com/pdiddy/paperdb/pkg/types"
)

func fieldsResult(source string, fields map[string]types.FieldValue) types.ExtractorResult {
	return types.ExtractorResult{Source: source, Fields: fields}
}

func TestMergeHighestConfidenceWins(t *testing.T) {
	results := []types.ExtractorResult{
		fieldsResult(extractor.NameCrossref, map[string]types.FieldValue{
			types.FieldTitle: {Value: "crossref title", Confidence: 0.9},
			types.FieldYear:  {Value: "2024", Confidence: 0.6},
		}),
		fieldsResult(extractor.NameRegex, map[string]types.FieldValue{
			types.FieldTitle: {Value: "regex title", Confidence: 0.5},
			types.FieldYear:  {Value: "2025", Confidence: 0.8},
		}),
	}

	parsed := Merge(results, "raw", types.DefaultConfig())

	if got := parsed.Field(types.FieldTitle); got != "crossref title" {
		t.Errorf("title = %q", got)
	}
	if got := parsed.Field(types.FieldYear); got != "2025" {
		t.Errorf("year = %q (higher-confidence regex year must win)", got)
	}
	if parsed.Strategy != StrategyMerged {
		t.Errorf("strategy = %q, want merged", parsed.Strategy)
	}
}

func TestMergeTieGoesToPriority(t *testing.T) {
	// Equal confidence: the earlier (higher-priority) result wins.
	results := []types.ExtractorResult{
		fieldsResult(extractor.NameCrossref, map[string]types.FieldValue{
			types.FieldDOI: {Value: "10.1/crossref", Confidence: 0.9},
		}),
		fieldsResult(extractor.NameRegex, map[string]types.FieldValue{
			types.FieldDOI: {Value: "10.1/regex", Confidence: 0.9},
		}),
	}

	parsed := Merge(results, "raw", types.DefaultConfig())
	if got := parsed.Field(types.FieldDOI); got != "10.1/crossref" {
		t.Errorf("doi = %q, want the higher-priority strategy's value", got)
	}
}

func TestMergeWeightedOverallConfidence(t *testing.T) {
	// title 0.8 (weight 2), year 0.6 (weight 2), venue 0.4 (weight 1):
	// (1.6 + 1.2 + 0.4) / 5 = 0.64.
	results := []types.ExtractorResult{
		fieldsResult(extractor.NameRegex, map[string]types.FieldValue{
			types.FieldTitle: {Value: "t", Confidence: 0.8},
			types.FieldYear:  {Value: "2025", Confidence: 0.6},
			types.FieldVenue: {Value: "v", Confidence: 0.4},
		}),
	}

	parsed := Merge(results, "raw", types.DefaultConfig())
	if math.Abs(parsed.OverallConfidence-0.64) > 1e-9 {
		t.Errorf("overall = %v, want 0.64", parsed.OverallConfidence)
	}
	if parsed.Strategy != extractor.NameRegex {
		t.Errorf("strategy = %q, want the single contributing strategy", parsed.Strategy)
	}
}

func TestMergeAuthorsWeightedDouble(t *testing.T) {
	// authors 0.5 (weight 2), venue 0.4 (weight 1): (1.0 + 0.4) / 3 = 0.4667.
	results := []types.ExtractorResult{
		{
			Source: extractor.NameRegex,
			Fields: map[string]types.FieldValue{
				types.FieldVenue: {Value: "v", Confidence: 0.4},
			},
			Authors:           []string{"Smith, J.", "Jones, B."},
			AuthorsConfidence: 0.5,
		},
	}

	parsed := Merge(results, "raw", types.DefaultConfig())
	want := (0.5*2 + 0.4) / 3
	if math.Abs(parsed.OverallConfidence-want) > 1e-9 {
		t.Errorf("overall = %v, want %v", parsed.OverallConfidence, want)
	}
	if len(parsed.Authors) != 2 {
		t.Fatalf("authors = %+v", parsed.Authors)
	}
	if parsed.Authors[0].Position != 1 || parsed.Authors[1].Position != 2 {
		t.Errorf("positions = %d,%d", parsed.Authors[0].Position, parsed.Authors[1].Position)
	}
}

func TestMergeBestAuthorListWins(t *testing.T) {
	results := []types.ExtractorResult{
		{
			Source:            extractor.NameGrobid,
			Fields:            map[string]types.FieldValue{},
			Authors:           []string{"Kazerouni, A S", "Chen, Y A"},
			AuthorsConfidence: 0.85,
		},
		{
			Source:            extractor.NameRegex,
			Fields:            map[string]types.FieldValue{},
			Authors:           []string{"Kazerouni, A. S.*"},
			AuthorsConfidence: 0.5,
		},
	}

	parsed := Merge(results, "raw", types.DefaultConfig())
	if len(parsed.Authors) != 2 || parsed.Authors[0].Name != "Kazerouni, A S" {
		t.Errorf("authors = %+v, want the GROBID list", parsed.Authors)
	}
}

func TestMergeEmpty(t *testing.T) {
	parsed := Merge(nil, "unparseable garbage", types.DefaultConfig())
	if parsed.OverallConfidence != 0 {
		t.Errorf("overall = %v, want 0", parsed.OverallConfidence)
	}
	if parsed.Strategy != "" {
		t.Errorf("strategy = %q, want empty", parsed.Strategy)
	}
	if parsed.RawText != "unparseable garbage" {
		t.Error("raw text not preserved")
	}
	if len(parsed.Fields) != 0 || len(parsed.Authors) != 0 {
		t.Error("expected no fields or authors")
	}
}
