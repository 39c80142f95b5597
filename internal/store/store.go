// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists parsed entries and their author lists in SQLite.
// The store owns identifier assignment; the pipeline hands it Entry
// candidates with zero IDs and ordered author lists.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paperdb/pkg/types"
)

// Store manages the entries database.
type Store struct {
	db *sql.DB
}

// New opens or creates the SQLite database at dbPath and ensures the
// schema exists.
func New(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			type TEXT NOT NULL,
			title TEXT NOT NULL,
			year INTEGER,
			venue TEXT,
			volume TEXT,
			issue TEXT,
			pages TEXT,
			doi TEXT,
			abstract_number TEXT,
			date TEXT,
			location TEXT,
			status TEXT,
			abstract TEXT,
			url TEXT,
			keywords TEXT,
			subject_area TEXT,
			citation_count INTEGER,
			anum_position INTEGER,
			project_area TEXT,
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_doi ON entries(doi)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_type ON entries(type)`,
		`CREATE TABLE IF NOT EXISTS authors (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			is_anum INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS entry_authors (
			entry_id INTEGER NOT NULL REFERENCES entries(id) ON DELETE CASCADE,
			author_id INTEGER NOT NULL REFERENCES authors(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			is_first_author INTEGER NOT NULL DEFAULT 0,
			is_corresponding INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (entry_id, author_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entry_authors_entry ON entry_authors(entry_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveResult reports the outcome of SaveEntry.
type SaveResult struct {
	EntryID int64
	// IsNew is false when the entry was detected as a duplicate of an
	// existing row; EntryID then names the existing entry.
	IsNew bool
}

// SaveEntry persists an entry candidate with its ordered author list. An
// existing duplicate (by DOI, then by title+year, then by bare title) is
// reported rather than inserted again.
func (s *Store) SaveEntry(ctx context.Context, entry types.Entry, authorList []types.AuthorCandidate) (SaveResult, error) {
	if existing, err := s.findDuplicate(ctx, entry); err != nil {
		return SaveResult{}, err
	} else if existing != 0 {
		return SaveResult{EntryID: existing, IsNew: false}, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return SaveResult{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO entries (type, title, year, venue, volume, issue, pages, doi,
			abstract_number, date, location, status, abstract, url, keywords,
			subject_area, citation_count, anum_position, project_area)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(entry.Type), entry.Title, nullInt(entry.Year), nullStr(entry.Venue),
		nullStr(entry.Volume), nullStr(entry.Issue), nullStr(entry.Pages),
		nullStr(entry.DOI), nullStr(entry.AbstractNumber), nullStr(entry.Date),
		nullStr(entry.Location), nullStr(entry.Status), nullStr(entry.Abstract),
		nullStr(entry.URL), nullStr(entry.Keywords), nullStr(entry.SubjectArea),
		nullInt(entry.CitationCount), nullInt(entry.AnumPosition),
		nullStr(entry.ProjectArea),
	)
	if err != nil {
		return SaveResult{}, fmt.Errorf("inserting entry: %w", err)
	}
	entryID, err := res.LastInsertId()
	if err != nil {
		return SaveResult{}, fmt.Errorf("reading entry id: %w", err)
	}

	for _, a := range authorList {
		authorID, err := upsertAuthor(ctx, tx, a)
		if err != nil {
			return SaveResult{}, err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO entry_authors (entry_id, author_id, position, is_first_author, is_corresponding)
			 VALUES (?, ?, ?, ?, ?)`,
			entryID, authorID, a.Position, boolInt(a.IsFirstAuthor), boolInt(a.IsCorresponding),
		)
		if err != nil {
			return SaveResult{}, fmt.Errorf("linking author %q: %w", a.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return SaveResult{}, fmt.Errorf("committing entry: %w", err)
	}
	return SaveResult{EntryID: entryID, IsNew: true}, nil
}

// findDuplicate returns the ID of an existing entry matching the candidate,
// or 0. DOI is the most reliable key; title+year next; a bare title match
// is the last resort for entries without either.
func (s *Store) findDuplicate(ctx context.Context, entry types.Entry) (int64, error) {
	var id int64

	if entry.DOI != "" {
		err := s.db.QueryRowContext(ctx,
			`SELECT id FROM entries WHERE doi = ?`, entry.DOI).Scan(&id)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("checking DOI duplicate: %w", err)
		}
	}

	if entry.Title == "" {
		return 0, nil
	}
	title := strings.ToLower(strings.TrimSpace(entry.Title))

	if entry.Year != 0 {
		err := s.db.QueryRowContext(ctx,
			`SELECT id FROM entries WHERE LOWER(TRIM(title)) = ? AND year = ?`,
			title, entry.Year).Scan(&id)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("checking title/year duplicate: %w", err)
		}
		return 0, nil
	}

	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM entries WHERE LOWER(TRIM(title)) = ?`, title).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("checking title duplicate: %w", err)
	}
	return 0, nil
}

// upsertAuthor returns the ID for a name, creating the author row when it
// does not exist. A newly observed project-author flag upgrades the stored
// one; it is never cleared.
func upsertAuthor(ctx context.Context, tx *sql.Tx, a types.AuthorCandidate) (int64, error) {
	var id int64
	var isAnum int
	err := tx.QueryRowContext(ctx,
		`SELECT id, is_anum FROM authors WHERE name = ?`, a.Name).Scan(&id, &isAnum)
	if err == nil {
		if a.IsAnum && isAnum == 0 {
			if _, err := tx.ExecContext(ctx,
				`UPDATE authors SET is_anum = 1 WHERE id = ?`, id); err != nil {
				return 0, fmt.Errorf("updating author %q: %w", a.Name, err)
			}
		}
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("looking up author %q: %w", a.Name, err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO authors (name, is_anum) VALUES (?, ?)`, a.Name, boolInt(a.IsAnum))
	if err != nil {
		return 0, fmt.Errorf("inserting author %q: %w", a.Name, err)
	}
	return res.LastInsertId()
}

// GetEntry loads one entry by ID.
func (s *Store) GetEntry(ctx context.Context, id int64) (types.Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, type, title, year, venue, volume, issue, pages, doi,
			abstract_number, date, location, status, abstract, url, keywords,
			subject_area, citation_count, anum_position, project_area
		 FROM entries WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Entry{}, fmt.Errorf("entry %d not found", id)
	}
	return entry, err
}

// ListEntries returns entries, optionally filtered by type, newest first.
func (s *Store) ListEntries(ctx context.Context, entryType types.EntryType) ([]types.Entry, error) {
	query := `SELECT id, type, title, year, venue, volume, issue, pages, doi,
			abstract_number, date, location, status, abstract, url, keywords,
			subject_area, citation_count, anum_position, project_area
		 FROM entries`
	args := []any{}
	if entryType != "" {
		query += ` WHERE type = ?`
		args = append(args, string(entryType))
	}
	query += ` ORDER BY year DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	defer rows.Close()

	var entries []types.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// EntryAuthors returns the ordered author list for an entry.
func (s *Store) EntryAuthors(ctx context.Context, entryID int64) ([]types.AuthorCandidate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.name, ea.position, ea.is_first_author, ea.is_corresponding, a.is_anum
		 FROM entry_authors ea JOIN authors a ON a.id = ea.author_id
		 WHERE ea.entry_id = ? ORDER BY ea.position`, entryID)
	if err != nil {
		return nil, fmt.Errorf("loading entry authors: %w", err)
	}
	defer rows.Close()

	var out []types.AuthorCandidate
	for rows.Next() {
		var a types.AuthorCandidate
		var first, corresponding, anum int
		if err := rows.Scan(&a.Name, &a.Position, &first, &corresponding, &anum); err != nil {
			return nil, fmt.Errorf("scanning author row: %w", err)
		}
		a.IsFirstAuthor = first != 0
		a.IsCorresponding = corresponding != 0
		a.IsAnum = anum != 0
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeleteEntry removes an entry; entry_authors rows cascade with it.
func (s *Store) DeleteEntry(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting entry %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("entry %d not found", id)
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (types.Entry, error) {
	var e types.Entry
	var entryType string
	var year, citationCount, anumPosition sql.NullInt64
	var venue, volume, issue, pages, doi, abstractNumber, date, location,
		status, abstract, url, keywords, subjectArea, projectArea sql.NullString

	err := row.Scan(&e.ID, &entryType, &e.Title, &year, &venue, &volume, &issue,
		&pages, &doi, &abstractNumber, &date, &location, &status, &abstract,
		&url, &keywords, &subjectArea, &citationCount, &anumPosition, &projectArea)
	if err != nil {
		return types.Entry{}, err
	}

	e.Type = types.EntryType(entryType)
	e.Year = int(year.Int64)
	e.CitationCount = int(citationCount.Int64)
	e.AnumPosition = int(anumPosition.Int64)
	e.Venue = venue.String
	e.Volume = volume.String
	e.Issue = issue.String
	e.Pages = pages.String
	e.DOI = doi.String
	e.AbstractNumber = abstractNumber.String
	e.Date = date.String
	e.Location = location.String
	e.Status = status.String
	e.Abstract = abstract.String
	e.URL = url.String
	e.Keywords = keywords.String
	e.SubjectArea = subjectArea.String
	e.ProjectArea = projectArea.String
	return e, nil
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
