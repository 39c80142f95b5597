// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/pdiddy/paperdb/pkg/types"
)

// ParseBatch parses citations concurrently with a bounded worker pool and
// returns one ParsedCitation per input, in input order. Citations are
// independent: one input's failures never affect the others. Cancelling ctx
// stops scheduling new citations but lets in-flight parses finish; inputs
// never scheduled come back as zero-confidence citations with their raw
// text preserved.
//
// progress, when non-nil, receives one line per completed citation.
func (c *Chain) ParseBatch(ctx context.Context, rawTexts []string, progress io.Writer) []types.ParsedCitation {
	results := make([]types.ParsedCitation, len(rawTexts))
	for i, raw := range rawTexts {
		results[i] = types.ParsedCitation{Fields: map[string]string{}, RawText: raw}
	}

	workers := c.cfg.Concurrency
	if workers <= 0 {
		workers = types.DefaultConcurrency
	}

	// In-flight parses run to completion even after cancellation; only
	// scheduling observes ctx.
	parseCtx := context.WithoutCancel(ctx)

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	var progressMu sync.Mutex

scheduling:
	for i, raw := range rawTexts {
		select {
		case <-ctx.Done():
			break scheduling
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, raw string) {
			defer wg.Done()
			defer func() { <-sem }()

			results[i] = c.Parse(parseCtx, raw)
			if progress != nil {
				progressMu.Lock()
				fmt.Fprintf(progress, "parsed %d/%d (%s, confidence %.2f)\n",
					i+1, len(rawTexts), strategyLabel(results[i]), results[i].OverallConfidence)
				progressMu.Unlock()
			}
		}(i, raw)
	}

	wg.Wait()
	return results
}

func strategyLabel(p types.ParsedCitation) string {
	if p.Strategy == "" {
		return "unparsed"
	}
	return p.Strategy
}
