// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/paperdb/internal/httputil"
	"github.com/pdiddy/paperdb/internal/normalize"
	"github.com/pdiddy/paperdb/pkg/types"
)

// openAlexBase is the OpenAlex Works endpoint. Declared as a var so tests
// can substitute an httptest server.
var openAlexBase = "https://api.openalex.org/works"

// OpenAlex resolves a citation against the OpenAlex API. DOI-bearing
// citations go through a direct lookup; the rest run a search with the same
// title-similarity acceptance rule as Crossref.
type OpenAlex struct {
	Client *http.Client
	Gate   *httputil.Gate
}

// Name returns the strategy identifier.
func (*OpenAlex) Name() string { return NameOpenAlex }

// Attempt resolves rawText through OpenAlex.
func (o *OpenAlex) Attempt(ctx context.Context, rawText string, cfg types.Config) (types.ExtractorResult, error) {
	result := types.ExtractorResult{Source: NameOpenAlex, Fields: map[string]types.FieldValue{}}

	if doi := normalize.ExtractDOI(rawText); doi != "" {
		work, err := o.lookup(ctx, doi, cfg)
		if err != nil {
			return result, err
		}
		mapOpenAlex(&result, work, ConfidenceLookup)
		return result, nil
	}

	work, err := o.search(ctx, rawText, cfg)
	if err != nil {
		return result, err
	}
	mapOpenAlex(&result, work, ConfidenceSearchHit)
	return result, nil
}

// lookup fetches one work keyed by its DOI URL form.
func (o *OpenAlex) lookup(ctx context.Context, doi string, cfg types.Config) (openAlexWork, error) {
	reqURL := openAlexBase + "/" + url.PathEscape("https://doi.org/"+doi)
	if cfg.OpenAlexEmail != "" {
		reqURL += "?mailto=" + url.QueryEscape(cfg.OpenAlexEmail)
	}
	var work openAlexWork
	if err := o.getJSON(ctx, reqURL, cfg, &work); err != nil {
		return openAlexWork{}, err
	}
	return work, nil
}

// search queries the works index and returns the first hit whose title
// clears the configured similarity threshold.
func (o *OpenAlex) search(ctx context.Context, rawText string, cfg types.Config) (openAlexWork, error) {
	params := url.Values{
		"search":   {rawText},
		"per_page": {"5"},
	}
	if cfg.OpenAlexEmail != "" {
		params.Set("mailto", cfg.OpenAlexEmail)
	}

	var payload struct {
		Results []openAlexWork `json:"results"`
	}
	if err := o.getJSON(ctx, openAlexBase+"?"+params.Encode(), cfg, &payload); err != nil {
		return openAlexWork{}, err
	}

	wanted := probableTitle(rawText)
	for _, work := range payload.Results {
		if work.Title == "" {
			continue
		}
		if normalize.TitleSimilarity(work.Title, wanted) >= cfg.TitleSimilarityThreshold {
			return work, nil
		}
	}
	return openAlexWork{}, fmt.Errorf("openalex: %w", ErrAmbiguous)
}

// getJSON performs a gated GET and decodes the JSON body into out.
func (o *OpenAlex) getJSON(ctx context.Context, reqURL string, cfg types.Config, out any) error {
	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("openalex: building request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := o.Gate.Do(ctx, o.Client, req)
	if err != nil {
		return fmt.Errorf("openalex: request: %w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("openalex: HTTP %d: %w", resp.StatusCode, ErrService)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("openalex: parsing response: %w: %v", ErrService, err)
	}
	return nil
}

// mapOpenAlex fills result from an OpenAlex work record, scoring every
// field with the given confidence.
func mapOpenAlex(result *types.ExtractorResult, work openAlexWork, confidence float64) {
	setField(result.Fields, types.FieldTitle, normalize.Whitespace(work.Title), confidence)
	setField(result.Fields, types.FieldVenue, normalize.Whitespace(work.PrimaryLocation.Source.DisplayName), confidence)
	setField(result.Fields, types.FieldDOI, normalize.DOI(work.DOI), confidence)
	setField(result.Fields, types.FieldVolume, work.Biblio.Volume, confidence)
	setField(result.Fields, types.FieldIssue, work.Biblio.Issue, confidence)
	if work.Biblio.FirstPage != "" {
		pages := work.Biblio.FirstPage
		if work.Biblio.LastPage != "" && work.Biblio.LastPage != work.Biblio.FirstPage {
			pages += "-" + work.Biblio.LastPage
		}
		setField(result.Fields, types.FieldPages, pages, confidence)
	}
	if normalize.YearInRange(work.PublicationYear) {
		setField(result.Fields, types.FieldYear, strconv.Itoa(work.PublicationYear), confidence)
	}
	if work.CitedByCount > 0 {
		setField(result.Fields, types.FieldCitationCount, strconv.Itoa(work.CitedByCount), confidence)
	}
	setField(result.Fields, types.FieldURL, work.OpenAccess.OAURL, confidence)
	setField(result.Fields, types.FieldAbstract, reconstructAbstract(work.AbstractInvertedIndex), confidence)

	// The top concepts double as keywords.
	var keywords []string
	for i, c := range work.Concepts {
		if i >= 5 {
			break
		}
		if c.DisplayName != "" {
			keywords = append(keywords, c.DisplayName)
		}
	}
	if len(keywords) > 0 {
		setField(result.Fields, types.FieldKeywords, strings.Join(keywords, ", "), confidence)
	}

	for _, authorship := range work.Authorships {
		if authorship.Author.DisplayName != "" {
			result.Authors = append(result.Authors, authorship.Author.DisplayName)
		}
	}
	if len(result.Authors) > 0 {
		result.AuthorsConfidence = confidence
	}
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The inverted index maps each word to the positions where it
// appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type openAlexWork struct {
	ID                    string             `json:"id"`
	Title                 string             `json:"title"`
	DOI                   string             `json:"doi"`
	PublicationYear       int                `json:"publication_year"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	PrimaryLocation       openAlexLocation   `json:"primary_location"`
	Biblio                openAlexBiblio     `json:"biblio"`
	AbstractInvertedIndex map[string][]int   `json:"abstract_inverted_index"`
	CitedByCount          int                `json:"cited_by_count"`
	Concepts              []openAlexConcept  `json:"concepts"`
	OpenAccess            openAlexOpenAccess `json:"open_access"`
}

type openAlexAuthorship struct {
	Author openAlexAuthor `json:"author"`
}

type openAlexAuthor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type openAlexLocation struct {
	Source openAlexSource `json:"source"`
}

type openAlexSource struct {
	DisplayName string `json:"display_name"`
}

type openAlexBiblio struct {
	Volume    string `json:"volume"`
	Issue     string `json:"issue"`
	FirstPage string `json:"first_page"`
	LastPage  string `json:"last_page"`
}

type openAlexConcept struct {
	DisplayName string `json:"display_name"`
}

type openAlexOpenAccess struct {
	IsOA  bool   `json:"is_oa"`
	OAURL string `json:"oa_url"`
}
