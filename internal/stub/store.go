// Package stub implements a json-server compatible catalog backend over
// SQLite, used for local development and integration tests.
package stub

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrUnknownCategory = errors.New("unknown category")
	ErrDuplicateID     = errors.New("duplicate id")
)

// Record is one stored object exactly as clients sent it, plus its id.
type Record map[string]any

// Filter narrows List results. Empty fields are ignored.
type Filter struct {
	Title     string
	Year      string
	TitleLike string
}

// Store persists records per category.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewStore(db *sql.DB, logger zerolog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger.With().Str("component", "stub-store").Logger(),
	}
}

// EnsureCategory creates the category if it does not exist.
func (s *Store) EnsureCategory(ctx context.Context, name string, position int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (name, position) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`,
		name, position)
	if err != nil {
		return fmt.Errorf("failed to create category %q: %w", name, err)
	}
	return nil
}

// Categories returns category names in seed order.
func (s *Store) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM categories ORDER BY position, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *Store) categoryExists(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories WHERE name = ?`, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to look up category: %w", err)
	}
	return n > 0, nil
}

// Dump returns every category with its records, like json-server's /db.
func (s *Store) Dump(ctx context.Context) (map[string][]Record, error) {
	names, err := s.Categories(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]Record, len(names))
	for _, name := range names {
		records, err := s.List(ctx, name, Filter{})
		if err != nil {
			return nil, err
		}
		out[name] = records
	}
	return out, nil
}

// List returns the records of a category in insertion order.
func (s *Store) List(ctx context.Context, category string, f Filter) ([]Record, error) {
	ok, err := s.categoryExists(ctx, category)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}

	query := `SELECT body FROM movies WHERE category = ?`
	args := []any{category}
	if f.Title != "" {
		query += ` AND title = ?`
		args = append(args, f.Title)
	}
	if f.Year != "" {
		query += ` AND year = ?`
		args = append(args, f.Year)
	}
	if f.TitleLike != "" {
		query += ` AND LOWER(title) LIKE '%' || LOWER(?) || '%' ESCAPE '\'`
		args = append(args, escapeLike(f.TitleLike))
	}
	query += ` ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", category, err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		rec, err := decodeRecord(body)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Get returns one record.
func (s *Store) Get(ctx context.Context, category, id string) (Record, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM movies WHERE category = ? AND id = ?`, category, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", category, id, err)
	}
	return decodeRecord(body)
}

// Insert stores rec in category. A missing id is assigned a UUID.
func (s *Store) Insert(ctx context.Context, category string, rec Record) (Record, error) {
	ok, err := s.categoryExists(ctx, category)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}
	return s.insert(ctx, s.db, category, rec)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) insert(ctx context.Context, db execer, category string, rec Record) (Record, error) {
	out := make(Record, len(rec)+1)
	for k, v := range rec {
		out[k] = v
	}

	id := scalarString(out["id"])
	if id == "" {
		id = uuid.NewString()
		out["id"] = id
	}

	body, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO movies (category, id, title, year, body) VALUES (?, ?, ?, ?, ?)`,
		category, id, scalarString(out["title"]), scalarString(out["year"]), string(body))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, fmt.Errorf("%w: %s/%s", ErrDuplicateID, category, id)
		}
		return nil, fmt.Errorf("failed to insert into %s: %w", category, err)
	}
	return out, nil
}

// Delete removes one record.
func (s *Store) Delete(ctx context.Context, category, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM movies WHERE category = ? AND id = ?`, category, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", category, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of stored records across all categories.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM movies`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

func decodeRecord(body string) (Record, error) {
	var rec Record
	if err := json.Unmarshal([]byte(body), &rec); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return rec, nil
}

// scalarString renders ids, titles and years the way json-server compares
// them: numbers and strings alike.
func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
