// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package csl reads and writes bibliographic entries in CSL (Citation Style
// Language) form: JSON for importing reference-manager exports (Zotero) and
// YAML for Pandoc-consumable output. Field names follow the CSL schema.
package csl

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paperdb/internal/authors"
	"github.com/pdiddy/paperdb/internal/normalize"
	"github.com/pdiddy/paperdb/pkg/types"
)

// Item is one CSL bibliographic entry. Only the fields the importer and
// exporter consume are modeled.
type Item struct {
	ID             string      `json:"id,omitempty" yaml:"id,omitempty"`
	Type           string      `json:"type" yaml:"type"`
	Title          string      `json:"title" yaml:"title"`
	Author         []Name      `json:"author,omitempty" yaml:"author,omitempty"`
	ContainerTitle FlexString  `json:"container-title,omitempty" yaml:"container-title,omitempty"`
	Event          string      `json:"event,omitempty" yaml:"event,omitempty"`
	Issued         *Date       `json:"issued,omitempty" yaml:"issued,omitempty"`
	EventDate      *Date       `json:"event-date,omitempty" yaml:"event-date,omitempty"`
	EventPlace     string      `json:"event-place,omitempty" yaml:"event-place,omitempty"`
	PublisherPlace string      `json:"publisher-place,omitempty" yaml:"publisher-place,omitempty"`
	Volume         FlexString  `json:"volume,omitempty" yaml:"volume,omitempty"`
	Issue          FlexString  `json:"issue,omitempty" yaml:"issue,omitempty"`
	Page           string      `json:"page,omitempty" yaml:"page,omitempty"`
	DOI            string      `json:"DOI,omitempty" yaml:"DOI,omitempty"`
	Abstract       string      `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	URL            string      `json:"URL,omitempty" yaml:"URL,omitempty"`
	Keyword        FlexStrings `json:"keyword,omitempty" yaml:"keyword,omitempty"`
	Subject        FlexStrings `json:"subject,omitempty" yaml:"subject,omitempty"`
	CitationCount  int         `json:"citation-count,omitempty" yaml:"citation-count,omitempty"`
	Status         string      `json:"status,omitempty" yaml:"status,omitempty"`
	Number         FlexString  `json:"number,omitempty" yaml:"number,omitempty"`
	Note           string      `json:"note,omitempty" yaml:"note,omitempty"`
}

// Name is a person's name in CSL form.
type Name struct {
	Family  string `json:"family,omitempty" yaml:"family,omitempty"`
	Given   string `json:"given,omitempty" yaml:"given,omitempty"`
	Literal string `json:"literal,omitempty" yaml:"literal,omitempty"`
}

// Date is a CSL date using date-parts.
type Date struct {
	DateParts [][]int `json:"date-parts" yaml:"date-parts"`
}

// FlexString decodes a JSON string, number, or array-of-strings (taking the
// first element). Reference managers disagree on which shape these fields
// take.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexString(n.String())
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		if len(list) > 0 {
			*f = FlexString(list[0])
		}
		return nil
	}
	return fmt.Errorf("csl: unsupported value %s", data)
}

// FlexStrings decodes a JSON string or array of strings.
type FlexStrings []string

func (f *FlexStrings) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "" {
			*f = FlexStrings{s}
		}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*f = FlexStrings(list)
		return nil
	}
	return fmt.Errorf("csl: unsupported value %s", data)
}

// entryTypes maps CSL item types onto database entry types.
var entryTypes = map[string]types.EntryType{
	"article":         types.TypePublication,
	"article-journal": types.TypePublication,
	"paper-conference": types.TypeOralPresentation,
	"poster":          types.TypePosterAbstract,
	"presentation":    types.TypeOralPresentation,
	"chapter":         types.TypeBookChapter,
	"patent":          types.TypePatent,
	"book":            types.TypePublication,
}

// cslTypes is the reverse mapping used on export.
var cslTypes = map[types.EntryType]string{
	types.TypePublication:      "article-journal",
	types.TypeOralPresentation: "paper-conference",
	types.TypePosterAbstract:   "poster",
	types.TypeBookChapter:      "chapter",
	types.TypePatent:           "patent",
}

var monthNames = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

var abstractNumberRe = regexp.MustCompile(`(?i)(?:abstract|poster)[\s#:]*(\d+)`)

// Imported is one entry read from a CSL-JSON file, with its ordered author
// list.
type Imported struct {
	Entry   types.Entry
	Authors []types.AuthorCandidate
}

// Import reads CSL-JSON (a single item or an array) and maps each item onto
// an Entry candidate. Project-author matching uses cfg.AnumNames, the same
// rule the citation pipeline applies.
func Import(r io.Reader, cfg types.Config) ([]Imported, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading CSL input: %w", err)
	}

	var items []Item
	if err := json.Unmarshal(raw, &items); err != nil {
		var single Item
		if err2 := json.Unmarshal(raw, &single); err2 != nil {
			return nil, fmt.Errorf("parsing CSL JSON: %w", err)
		}
		items = []Item{single}
	}

	out := make([]Imported, 0, len(items))
	for _, item := range items {
		out = append(out, importItem(item, cfg))
	}
	return out, nil
}

func importItem(item Item, cfg types.Config) Imported {
	entryType, ok := entryTypes[strings.ToLower(item.Type)]
	if !ok {
		entryType = types.TypePublication
	}

	entry := types.Entry{
		Type:          entryType,
		Title:         normalize.Whitespace(item.Title),
		Venue:         venueOf(item),
		Volume:        string(item.Volume),
		Issue:         string(item.Issue),
		Pages:         item.Page,
		DOI:           normalize.DOI(item.DOI),
		Abstract:      item.Abstract,
		URL:           item.URL,
		Keywords:      strings.Join(item.Keyword, ", "),
		CitationCount: item.CitationCount,
		Location:      locationOf(item),
	}
	if len(item.Subject) > 0 {
		entry.SubjectArea = item.Subject[0]
	}
	if y := yearOf(item.Issued); y != 0 {
		entry.Year = y
	}
	entry.Date = eventDateOf(item.EventDate)

	if entryType == types.TypePatent {
		entry.Status = item.Status
	}
	if entryType == types.TypePosterAbstract || entryType == types.TypeOralPresentation {
		entry.AbstractNumber = string(item.Number)
		if entry.AbstractNumber == "" && item.Note != "" {
			if m := abstractNumberRe.FindStringSubmatch(item.Note); m != nil {
				entry.AbstractNumber = m[1]
			}
		}
	}

	candidates := importAuthors(item.Author, cfg)
	for _, a := range candidates {
		if a.IsAnum {
			entry.AnumPosition = a.Position
			break
		}
	}

	return Imported{Entry: entry, Authors: candidates}
}

// importAuthors renders CSL names as "Family, Given" candidates with
// positions 1..N; position 1 is the first author by convention.
func importAuthors(names []Name, cfg types.Config) []types.AuthorCandidate {
	var out []types.AuthorCandidate
	for _, n := range names {
		name := cslName(n)
		if name == "" {
			continue
		}
		pos := len(out) + 1
		out = append(out, types.AuthorCandidate{
			Name:          name,
			Position:      pos,
			IsFirstAuthor: pos == 1,
			IsAnum:        authors.IsProjectAuthor(name, cfg.AnumNames),
		})
	}
	return out
}

func cslName(n Name) string {
	family := normalize.Whitespace(n.Family)
	given := normalize.Whitespace(n.Given)
	switch {
	case family != "" && given != "":
		return family + ", " + given
	case family != "":
		return family
	case n.Literal != "":
		return normalize.Whitespace(n.Literal)
	default:
		return given
	}
}

func venueOf(item Item) string {
	if item.ContainerTitle != "" {
		return normalize.Whitespace(string(item.ContainerTitle))
	}
	return normalize.Whitespace(item.Event)
}

func locationOf(item Item) string {
	if item.EventPlace != "" {
		return item.EventPlace
	}
	return item.PublisherPlace
}

func yearOf(d *Date) int {
	if d == nil || len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 {
		return 0
	}
	y := d.DateParts[0][0]
	if !normalize.YearInRange(y) {
		return 0
	}
	return y
}

// eventDateOf renders an event date as "Month Year", or just the year when
// no month is present.
func eventDateOf(d *Date) string {
	if d == nil || len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 {
		return ""
	}
	parts := d.DateParts[0]
	if len(parts) >= 2 && parts[1] >= 1 && parts[1] <= 12 {
		return monthNames[parts[1]-1] + " " + strconv.Itoa(parts[0])
	}
	return strconv.Itoa(parts[0])
}

// Export writes entries as a CSL-YAML list consumable by Pandoc.
func Export(entries []Imported, w io.Writer) error {
	items := make([]Item, len(entries))
	for i, e := range entries {
		items[i] = exportItem(e)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}

func exportItem(e Imported) Item {
	item := Item{
		ID:             exportID(e.Entry),
		Type:           cslTypes[e.Entry.Type],
		Title:          e.Entry.Title,
		ContainerTitle: FlexString(e.Entry.Venue),
		Volume:         FlexString(e.Entry.Volume),
		Issue:          FlexString(e.Entry.Issue),
		Page:           e.Entry.Pages,
		DOI:            e.Entry.DOI,
		Abstract:       e.Entry.Abstract,
		URL:            e.Entry.URL,
		Status:         e.Entry.Status,
		EventPlace:     e.Entry.Location,
	}
	if item.Type == "" {
		item.Type = "article-journal"
	}
	if e.Entry.Year != 0 {
		item.Issued = &Date{DateParts: [][]int{{e.Entry.Year}}}
	}
	for _, a := range e.Authors {
		item.Author = append(item.Author, exportName(a.Name))
	}
	return item
}

// exportID derives a stable citation key: the DOI when present, otherwise a
// slug of the title and year.
func exportID(entry types.Entry) string {
	if entry.DOI != "" {
		return entry.DOI
	}
	slug := strings.Join(strings.Fields(strings.ToLower(entry.Title)), "-")
	if len(slug) > 40 {
		slug = slug[:40]
	}
	if entry.Year != 0 {
		return slug + "-" + strconv.Itoa(entry.Year)
	}
	return slug
}

// exportName splits "Family, Given" at the first comma. Names without a
// comma use the literal field.
func exportName(name string) Name {
	if idx := strings.Index(name, ","); idx >= 0 {
		return Name{
			Family: strings.TrimSpace(name[:idx]),
			Given:  strings.TrimSpace(name[idx+1:]),
		}
	}
	return Name{Literal: name}
}
