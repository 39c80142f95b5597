// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/pdiddy/paperdb/internal/extractor"
	"github.com/pdiddy/paperdb/internal/httputil"
	"github.com/pdiddy/paperdb/pkg/types"
)

// errTransport fails every request, simulating unreachable remote services.
type errTransport struct{}

func (errTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("connection refused")
}

func offlineChain(cfg types.Config) *Chain {
	return New(cfg, &http.Client{Transport: errTransport{}}, httputil.NewGates(0))
}

// stubExtractor is a scripted strategy for chain-order tests.
type stubExtractor struct {
	name   string
	result types.ExtractorResult
	err    error
	calls  *[]string
}

func (s stubExtractor) Name() string { return s.name }

func (s stubExtractor) Attempt(_ context.Context, _ string, _ types.Config) (types.ExtractorResult, error) {
	*s.calls = append(*s.calls, s.name)
	return s.result, s.err
}

func stubResult(source string, confidence float64) types.ExtractorResult {
	return types.ExtractorResult{
		Source: source,
		Fields: map[string]types.FieldValue{
			types.FieldTitle: {Value: "A Title From " + source, Confidence: confidence},
			types.FieldYear:  {Value: "2025", Confidence: confidence},
		},
		Authors:           []string{"Smith, J."},
		AuthorsConfidence: confidence,
	}
}

func scriptedChain(cfg types.Config, calls *[]string, results map[string]types.ExtractorResult) *Chain {
	mk := func(name string) stubExtractor {
		r, ok := results[name]
		if !ok {
			return stubExtractor{name: name, err: errors.New(name + " failed"), calls: calls}
		}
		return stubExtractor{name: name, result: r, calls: calls}
	}
	return &Chain{
		cfg: cfg,
		extractors: []extractor.Extractor{
			mk(extractor.NameGrobid),
			mk(extractor.NameCrossref),
			mk(extractor.NameOpenAlex),
			mk(extractor.NameRegex),
		},
	}
}

func TestParseEndToEndRemotesDown(t *testing.T) {
	const raw = "Kazerouni, A. S.*, Chen, Y. A. Time to Enhancement Measured From Ultrafast Dynamic Contrast-Enhanced MRI. Journal of Breast Imaging. 2025. doi:10.1093/jbi/wbae089"

	cfg := types.DefaultConfig() // no GROBID URL: that strategy is skipped
	parsed := offlineChain(cfg).Parse(context.Background(), raw)

	if parsed.Strategy != extractor.NameRegex {
		t.Errorf("strategy = %q, want %q", parsed.Strategy, extractor.NameRegex)
	}
	if got := parsed.Field(types.FieldDOI); got != "10.1093/jbi/wbae089" {
		t.Errorf("doi = %q", got)
	}
	if got := parsed.Field(types.FieldYear); got != "2025" {
		t.Errorf("year = %q", got)
	}

	if len(parsed.Authors) != 2 {
		t.Fatalf("authors = %+v, want 2", parsed.Authors)
	}
	want := []types.AuthorCandidate{
		{Name: "Kazerouni, A. S.", Position: 1, IsFirstAuthor: true},
		{Name: "Chen, Y. A.", Position: 2, IsFirstAuthor: false},
	}
	for i, w := range want {
		got := parsed.Authors[i]
		if got.Name != w.Name || got.Position != w.Position || got.IsFirstAuthor != w.IsFirstAuthor {
			t.Errorf("authors[%d] = %+v, want %+v", i, got, w)
		}
	}
	if parsed.OverallConfidence <= 0 {
		t.Error("overall confidence should be positive")
	}
	if parsed.RawText != raw {
		t.Error("raw text not preserved")
	}
}

func TestParseEmptyInput(t *testing.T) {
	parsed := offlineChain(types.DefaultConfig()).Parse(context.Background(), "")
	if parsed.OverallConfidence != 0 {
		t.Errorf("confidence = %v, want 0 for empty input", parsed.OverallConfidence)
	}
	if len(parsed.Fields) != 0 {
		t.Errorf("fields = %v, want empty", parsed.Fields)
	}
}

func TestChainEarlyExit(t *testing.T) {
	var calls []string
	cfg := types.DefaultConfig()
	cfg.GrobidURL = "http://grobid.local" // enable the GROBID state

	// GROBID fails; Crossref answers with 0.9 on the core fields, which
	// clears the 0.85 early-exit threshold.
	chain := scriptedChain(cfg, &calls, map[string]types.ExtractorResult{
		extractor.NameCrossref: stubResult(extractor.NameCrossref, 0.9),
	})

	parsed := chain.Parse(context.Background(), "whatever")

	if parsed.Strategy != extractor.NameCrossref {
		t.Errorf("strategy = %q, want crossref", parsed.Strategy)
	}
	wantCalls := []string{extractor.NameGrobid, extractor.NameCrossref}
	if len(calls) != len(wantCalls) {
		t.Fatalf("calls = %v, want %v (later strategies skipped)", calls, wantCalls)
	}
	for i := range wantCalls {
		if calls[i] != wantCalls[i] {
			t.Errorf("calls[%d] = %q, want %q", i, calls[i], wantCalls[i])
		}
	}
}

func TestChainNoEarlyExitAccumulates(t *testing.T) {
	var calls []string
	cfg := types.DefaultConfig()
	cfg.GrobidURL = "http://grobid.local"

	// Every strategy answers below the threshold with a different field:
	// all four must run and the outcome is a merged citation.
	chain := scriptedChain(cfg, &calls, map[string]types.ExtractorResult{
		extractor.NameGrobid: {
			Source: extractor.NameGrobid,
			Fields: map[string]types.FieldValue{
				types.FieldTitle: {Value: "A Title From grobid", Confidence: 0.7},
			},
		},
		extractor.NameCrossref: {
			Source: extractor.NameCrossref,
			Fields: map[string]types.FieldValue{
				types.FieldTitle: {Value: "A Title From crossref", Confidence: 0.5},
				types.FieldYear:  {Value: "2025", Confidence: 0.6},
			},
		},
		extractor.NameRegex: {
			Source: extractor.NameRegex,
			Fields: map[string]types.FieldValue{
				types.FieldDOI: {Value: "10.1093/jbi/wbae089", Confidence: 0.9},
			},
		},
	})

	parsed := chain.Parse(context.Background(), "whatever")

	if len(calls) != 4 {
		t.Errorf("calls = %v, want all four strategies", calls)
	}
	if parsed.Strategy != StrategyMerged {
		t.Errorf("strategy = %q, want merged", parsed.Strategy)
	}
	// Highest confidence wins: the grobid title over the crossref one.
	if got := parsed.Field(types.FieldTitle); got != "A Title From grobid" {
		t.Errorf("title = %q", got)
	}
	if got := parsed.Field(types.FieldDOI); got != "10.1093/jbi/wbae089" {
		t.Errorf("doi = %q", got)
	}
}

func TestChainSkipsGrobidWhenUnconfigured(t *testing.T) {
	var calls []string
	cfg := types.DefaultConfig() // GrobidURL empty

	chain := scriptedChain(cfg, &calls, nil)
	chain.Parse(context.Background(), "whatever")

	for _, c := range calls {
		if c == extractor.NameGrobid {
			t.Fatal("GROBID attempted despite missing endpoint")
		}
	}
}

func TestChainCrossrefBeforeOpenAlex(t *testing.T) {
	var calls []string
	chain := scriptedChain(types.DefaultConfig(), &calls, nil)
	chain.Parse(context.Background(), "Citation with doi:10.1093/jbi/wbae089 inside")

	crossrefIdx, openAlexIdx := -1, -1
	for i, c := range calls {
		switch c {
		case extractor.NameCrossref:
			crossrefIdx = i
		case extractor.NameOpenAlex:
			openAlexIdx = i
		}
	}
	if crossrefIdx < 0 || openAlexIdx < 0 || crossrefIdx > openAlexIdx {
		t.Errorf("calls = %v, want crossref before openalex", calls)
	}
}
