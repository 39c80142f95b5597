// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/pdiddy/paperdb/pkg/types"
)

func TestParseBatchInputOrderAndIsolation(t *testing.T) {
	inputs := []string{
		"Kazerouni, A. S.*, Chen, Y. A. Time to Enhancement Measured From Ultrafast Dynamic Contrast-Enhanced MRI. Journal of Breast Imaging. 2025. doi:10.1093/jbi/wbae089",
		"", // degenerate
		"Smith, J., Jones, B. (2019). Deep Learning Approaches For Medical Image Analysis Tasks. Medical Image Analysis, vol. 52, no. 4, pp. 109-127.",
		"   ", // degenerate
		"Oviedo, F., Kazerouni, A. S. Advancing Equitable Breast Cancer Screening With Artificial Intelligence. Radiology 316, e241629 (2025).",
		"###", // degenerate
		"Jones, B. A Study With A Sufficiently Long Title For Detection Purposes. Annals of Surgical Oncology. 2024. doi:10.1245/s10434-024-16837-x",
		"Partridge, S. C. & Rahbar, H. Diffusion Weighted Imaging Of The Breast In Clinical Practice. Journal of Magnetic Resonance Imaging. 2020.",
		"Kazerouni, A. S. Quantitative Imaging Biomarkers Of Treatment Response In Breast Cancer. Annual Meeting of the Radiological Society. Chicago, IL. November 2024.",
		"Chen Wenchun, Liang Xin. Statistical Approaches To Longitudinal Imaging Data Analysis Methods. Statistics in Medicine. 2023.",
	}

	var progress bytes.Buffer
	results := offlineChain(types.DefaultConfig()).ParseBatch(context.Background(), inputs, &progress)

	if len(results) != len(inputs) {
		t.Fatalf("got %d results for %d inputs", len(results), len(inputs))
	}
	for i, r := range results {
		if r.RawText != inputs[i] {
			t.Errorf("results[%d] out of order: raw %q", i, r.RawText)
		}
	}

	// Degenerate inputs yield zero-confidence results without disturbing
	// their neighbors.
	for _, i := range []int{1, 3} {
		if results[i].OverallConfidence != 0 {
			t.Errorf("results[%d] confidence = %v, want 0", i, results[i].OverallConfidence)
		}
	}
	if got := results[0].Field(types.FieldDOI); got != "10.1093/jbi/wbae089" {
		t.Errorf("results[0] doi = %q", got)
	}
	if got := results[6].Field(types.FieldDOI); got != "10.1245/s10434-024-16837-x" {
		t.Errorf("results[6] doi = %q", got)
	}
	if results[8].Field(types.FieldDate) != "November 2024" {
		t.Errorf("results[8] date = %q", results[8].Field(types.FieldDate))
	}

	if got := strings.Count(progress.String(), "\n"); got != len(inputs) {
		t.Errorf("progress lines = %d, want %d", got, len(inputs))
	}
}

func TestParseBatchCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inputs := []string{"first citation text here", "second citation text here"}
	results := offlineChain(types.DefaultConfig()).ParseBatch(ctx, inputs, nil)

	if len(results) != len(inputs) {
		t.Fatalf("got %d results for %d inputs", len(results), len(inputs))
	}
	// Nothing was scheduled: every slot holds a zero-confidence placeholder
	// with its raw text preserved.
	for i, r := range results {
		if r.RawText != inputs[i] {
			t.Errorf("results[%d] raw = %q", i, r.RawText)
		}
		if r.OverallConfidence != 0 {
			t.Errorf("results[%d] confidence = %v, want 0", i, r.OverallConfidence)
		}
	}
}

func TestParseBatchSingleWorker(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.Concurrency = 1

	inputs := []string{
		"Smith, J. A Perfectly Ordinary Title For A Journal Article Here. Journal of Things. 2021.",
		"Jones, B. Another Perfectly Ordinary Title For A Journal Article. Journal of Stuff. 2022.",
	}
	results := offlineChain(cfg).ParseBatch(context.Background(), inputs, nil)
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}
	for i, want := range []string{"2021", "2022"} {
		if got := results[i].Field(types.FieldYear); got != want {
			t.Errorf("results[%d] year = %q, want %q", i, got, want)
		}
	}
}
