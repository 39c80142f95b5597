// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extractor

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/paperdb/internal/httputil"
	"github.com/pdiddy/paperdb/internal/normalize"
	"github.com/pdiddy/paperdb/pkg/types"
)

// Grobid parses a raw citation through a GROBID server's processCitation
// endpoint. The server base URL comes from Config.GrobidURL; the chain skips
// this strategy entirely when no URL is configured.
type Grobid struct {
	Client *http.Client
	Gate   *httputil.Gate
}

// Name returns the strategy identifier.
func (*Grobid) Name() string { return NameGrobid }

// Attempt posts the citation to GROBID and maps the TEI response to fields.
// Every recovered field carries the GROBID confidence.
func (g *Grobid) Attempt(ctx context.Context, rawText string, cfg types.Config) (types.ExtractorResult, error) {
	result := types.ExtractorResult{Source: NameGrobid, Fields: map[string]types.FieldValue{}}
	if cfg.GrobidURL == "" {
		return result, fmt.Errorf("grobid: no server configured: %w", ErrUnavailable)
	}

	form := url.Values{"citations": {rawText}}
	endpoint := strings.TrimRight(cfg.GrobidURL, "/") + "/api/processCitation?consolidateCitations=1"
	req, err := http.NewRequest(http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return result, fmt.Errorf("grobid: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/xml")
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := g.Gate.Do(ctx, g.Client, req)
	if err != nil {
		return result, fmt.Errorf("grobid: request: %w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return result, fmt.Errorf("grobid: HTTP %d: %w", resp.StatusCode, ErrService)
	}

	var bibl teiBiblStruct
	if err := xml.NewDecoder(resp.Body).Decode(&bibl); err != nil {
		return result, fmt.Errorf("grobid: parsing TEI: %w: %v", ErrService, err)
	}

	mapTEI(&result, bibl)
	return result, nil
}

// mapTEI fills result from a decoded TEI biblStruct.
func mapTEI(result *types.ExtractorResult, bibl teiBiblStruct) {
	for _, t := range bibl.Analytic.Titles {
		if t.Level == "a" {
			setField(result.Fields, types.FieldTitle, normalize.Whitespace(t.Value), ConfidenceGrobid)
		}
	}
	for _, t := range bibl.Monogr.Titles {
		// level "j" is a journal, "m" a monograph; either names the venue.
		if t.Level == "j" || t.Level == "m" {
			setField(result.Fields, types.FieldVenue, normalize.Whitespace(t.Value), ConfidenceGrobid)
		}
	}

	for _, p := range bibl.Analytic.Authors {
		if name := teiName(p.PersName); name != "" {
			result.Authors = append(result.Authors, name)
		}
	}
	if len(result.Authors) == 0 {
		for _, p := range bibl.Monogr.Authors {
			if name := teiName(p.PersName); name != "" {
				result.Authors = append(result.Authors, name)
			}
		}
	}
	if len(result.Authors) > 0 {
		result.AuthorsConfidence = ConfidenceGrobid
	}

	for _, scope := range bibl.Monogr.Imprint.BiblScopes {
		value := normalize.Whitespace(scope.Value)
		if value == "" && scope.From != "" {
			value = scope.From
			if scope.To != "" {
				value += "-" + scope.To
			}
		}
		switch scope.Unit {
		case "volume":
			setField(result.Fields, types.FieldVolume, value, ConfidenceGrobid)
		case "issue":
			setField(result.Fields, types.FieldIssue, value, ConfidenceGrobid)
		case "page":
			setField(result.Fields, types.FieldPages, value, ConfidenceGrobid)
		}
	}

	for _, idno := range append(bibl.Analytic.IDNos, bibl.Monogr.IDNos...) {
		if strings.EqualFold(idno.Type, "DOI") {
			setField(result.Fields, types.FieldDOI, normalize.DOI(idno.Value), ConfidenceGrobid)
		}
	}

	if when := bibl.Monogr.Imprint.Date.When; when != "" {
		if len(when) >= 4 {
			if y, ok := normalize.Year(when[:4]); ok {
				setField(result.Fields, types.FieldYear, fmt.Sprintf("%d", y), ConfidenceGrobid)
			}
		}
	}
}

// teiName renders a persName as "Family, Given" with forenames in document
// order.
func teiName(p teiPersName) string {
	surname := normalize.Whitespace(p.Surname)
	var given []string
	for _, f := range p.Forenames {
		if v := normalize.Whitespace(f.Value); v != "" {
			given = append(given, v)
		}
	}
	switch {
	case surname != "" && len(given) > 0:
		return surname + ", " + strings.Join(given, " ")
	case surname != "":
		return surname
	default:
		return strings.Join(given, " ")
	}
}

// TEI XML structures for GROBID's processCitation response.
type teiBiblStruct struct {
	XMLName  xml.Name    `xml:"biblStruct"`
	Analytic teiAnalytic `xml:"analytic"`
	Monogr   teiMonogr   `xml:"monogr"`
}

type teiAnalytic struct {
	Titles  []teiTitle  `xml:"title"`
	Authors []teiAuthor `xml:"author"`
	IDNos   []teiIDNo   `xml:"idno"`
}

type teiMonogr struct {
	Titles  []teiTitle  `xml:"title"`
	Authors []teiAuthor `xml:"author"`
	IDNos   []teiIDNo   `xml:"idno"`
	Imprint teiImprint  `xml:"imprint"`
}

type teiTitle struct {
	Level string `xml:"level,attr"`
	Value string `xml:",chardata"`
}

type teiAuthor struct {
	PersName teiPersName `xml:"persName"`
}

type teiPersName struct {
	Forenames []teiForename `xml:"forename"`
	Surname   string        `xml:"surname"`
}

type teiForename struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type teiIDNo struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type teiImprint struct {
	BiblScopes []teiBiblScope `xml:"biblScope"`
	Date       teiDate        `xml:"date"`
}

type teiBiblScope struct {
	Unit  string `xml:"unit,attr"`
	From  string `xml:"from,attr"`
	To    string `xml:"to,attr"`
	Value string `xml:",chardata"`
}

type teiDate struct {
	Type string `xml:"type,attr"`
	When string `xml:"when,attr"`
}
