// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/paperdb/internal/httputil"
	"github.com/pdiddy/paperdb/internal/normalize"
	"github.com/pdiddy/paperdb/pkg/types"
)

// crossrefBase is the Crossref works endpoint. Declared as a var so tests
// can substitute an httptest server.
var crossrefBase = "https://api.crossref.org/works"

// Crossref resolves a citation against the Crossref REST API. When the raw
// text carries a DOI it does a direct lookup; otherwise it runs a
// bibliographic search and accepts the best hit only if its title clears
// the similarity threshold.
type Crossref struct {
	Client *http.Client
	Gate   *httputil.Gate
}

// Name returns the strategy identifier.
func (*Crossref) Name() string { return NameCrossref }

// Attempt resolves rawText through Crossref.
func (c *Crossref) Attempt(ctx context.Context, rawText string, cfg types.Config) (types.ExtractorResult, error) {
	result := types.ExtractorResult{Source: NameCrossref, Fields: map[string]types.FieldValue{}}

	if doi := normalize.ExtractDOI(rawText); doi != "" {
		work, err := c.lookup(ctx, doi, cfg)
		if err != nil {
			return result, err
		}
		mapCrossref(&result, work, ConfidenceLookup)
		return result, nil
	}

	work, err := c.search(ctx, rawText, cfg)
	if err != nil {
		return result, err
	}
	mapCrossref(&result, work, ConfidenceSearchHit)
	return result, nil
}

// lookup fetches a single work by DOI.
func (c *Crossref) lookup(ctx context.Context, doi string, cfg types.Config) (crossrefWork, error) {
	reqURL := crossrefBase + "/" + url.PathEscape(doi)
	if cfg.CrossrefMailto != "" {
		reqURL += "?mailto=" + url.QueryEscape(cfg.CrossrefMailto)
	}

	var payload struct {
		Message crossrefWork `json:"message"`
	}
	if err := c.getJSON(ctx, reqURL, cfg, &payload); err != nil {
		return crossrefWork{}, err
	}
	return payload.Message, nil
}

// search runs a bibliographic query and returns the first hit whose title
// clears the configured similarity threshold.
func (c *Crossref) search(ctx context.Context, rawText string, cfg types.Config) (crossrefWork, error) {
	params := url.Values{
		"query.bibliographic": {rawText},
		"rows":                {"5"},
	}
	if cfg.CrossrefMailto != "" {
		params.Set("mailto", cfg.CrossrefMailto)
	}

	var payload struct {
		Message struct {
			Items []crossrefWork `json:"items"`
		} `json:"message"`
	}
	if err := c.getJSON(ctx, crossrefBase+"?"+params.Encode(), cfg, &payload); err != nil {
		return crossrefWork{}, err
	}

	wanted := probableTitle(rawText)
	for _, item := range payload.Message.Items {
		if len(item.Title) == 0 {
			continue
		}
		if normalize.TitleSimilarity(item.Title[0], wanted) >= cfg.TitleSimilarityThreshold {
			return item, nil
		}
	}
	return crossrefWork{}, fmt.Errorf("crossref: %w", ErrAmbiguous)
}

// getJSON performs a gated GET and decodes the JSON body into out.
func (c *Crossref) getJSON(ctx context.Context, reqURL string, cfg types.Config, out any) error {
	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("crossref: building request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := c.Gate.Do(ctx, c.Client, req)
	if err != nil {
		return fmt.Errorf("crossref: request: %w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("crossref: HTTP %d: %w", resp.StatusCode, ErrService)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("crossref: parsing response: %w: %v", ErrService, err)
	}
	return nil
}

// probableTitle extracts the most title-like segment of the raw citation,
// for comparing against candidate titles. When no segment qualifies the
// whole text is used.
func probableTitle(rawText string) string {
	text := normalize.Whitespace(rawText)
	if title, _ := titleAndTail(text); title != "" {
		return title
	}
	if title, _ := findTitle(splitOnPeriods(text)); title != "" {
		return title
	}
	return text
}

// mapCrossref fills result from a Crossref work record, scoring every field
// with the given confidence.
func mapCrossref(result *types.ExtractorResult, work crossrefWork, confidence float64) {
	if len(work.Title) > 0 {
		setField(result.Fields, types.FieldTitle, normalize.Whitespace(work.Title[0]), confidence)
	}
	if len(work.ContainerTitle) > 0 {
		setField(result.Fields, types.FieldVenue, normalize.Whitespace(work.ContainerTitle[0]), confidence)
	}
	setField(result.Fields, types.FieldDOI, normalize.DOI(work.DOI), confidence)
	setField(result.Fields, types.FieldVolume, work.Volume, confidence)
	setField(result.Fields, types.FieldIssue, work.Issue, confidence)
	setField(result.Fields, types.FieldPages, work.Page, confidence)
	setField(result.Fields, types.FieldURL, work.URL, confidence)
	setField(result.Fields, types.FieldAbstract, stripJATS(work.Abstract), confidence)
	if len(work.Subject) > 0 {
		setField(result.Fields, types.FieldSubjectArea, strings.Join(work.Subject, ", "), confidence)
	}
	if work.CitedBy > 0 {
		setField(result.Fields, types.FieldCitationCount, strconv.Itoa(work.CitedBy), confidence)
	}
	if len(work.Issued.DateParts) > 0 && len(work.Issued.DateParts[0]) > 0 {
		if y := work.Issued.DateParts[0][0]; normalize.YearInRange(y) {
			setField(result.Fields, types.FieldYear, strconv.Itoa(y), confidence)
		}
	}

	for _, a := range work.Author {
		name := crossrefName(a)
		if name == "" {
			continue
		}
		result.Authors = append(result.Authors, name)
	}
	if len(result.Authors) > 0 {
		result.AuthorsConfidence = confidence
	}
}

// crossrefName renders an author record as "Family, Given".
func crossrefName(a crossrefAuthor) string {
	family := normalize.Whitespace(a.Family)
	given := normalize.Whitespace(a.Given)
	switch {
	case family != "" && given != "":
		return family + ", " + given
	case family != "":
		return family
	case a.Name != "":
		return normalize.Whitespace(a.Name)
	default:
		return given
	}
}

// stripJATS removes the JATS markup Crossref wraps abstracts in.
func stripJATS(abstract string) string {
	if abstract == "" {
		return ""
	}
	var b strings.Builder
	inTag := false
	for _, r := range abstract {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return normalize.Whitespace(b.String())
}

// Crossref API JSON structures.
type crossrefWork struct {
	Title          []string        `json:"title"`
	ContainerTitle []string        `json:"container-title"`
	Author         []crossrefAuthor `json:"author"`
	Issued         crossrefDate    `json:"issued"`
	Volume         string          `json:"volume"`
	Issue          string          `json:"issue"`
	Page           string          `json:"page"`
	DOI            string          `json:"DOI"`
	URL            string          `json:"URL"`
	Abstract       string          `json:"abstract"`
	Subject        []string        `json:"subject"`
	CitedBy        int             `json:"is-referenced-by-count"`
}

type crossrefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
	Name   string `json:"name"`
}

type crossrefDate struct {
	DateParts [][]int `json:"date-parts"`
}
