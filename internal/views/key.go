package views

import (
	"fmt"
	"net/url"

	"github.com/movieontip/movieontip/internal/catalog"
)

// KeyKind selects how a detail view resolves its movie.
type KeyKind int

const (
	ByID KeyKind = iota
	ByTitleYear
)

func (k KeyKind) String() string {
	if k == ByTitleYear {
		return "title_year"
	}
	return "id"
}

// DetailKey identifies the subject of a detail view. It round-trips
// through the detail route so a reload can refetch without extra state.
type DetailKey struct {
	Kind     KeyKind
	Category string
	Title    string
	ID       string
	Year     string
}

func KeyByID(category, title, id string) DetailKey {
	return DetailKey{Kind: ByID, Category: category, Title: title, ID: id}
}

func KeyByTitleYear(category, title, year string) DetailKey {
	return DetailKey{Kind: ByTitleYear, Category: category, Title: title, Year: year}
}

// KeyForMovie prefers the movie's id and falls back to (title, year).
func KeyForMovie(category string, m catalog.Movie) DetailKey {
	if m.ID != "" {
		return KeyByID(category, m.Title, m.ID.String())
	}
	return KeyByTitleYear(category, m.Title, m.Year)
}

// Path serializes the key into the detail route.
func (k DetailKey) Path() string {
	q := url.Values{}
	q.Set("category", k.Category)
	switch k.Kind {
	case ByID:
		q.Set("id", k.ID)
	case ByTitleYear:
		q.Set("year", k.Year)
	}
	return "/movie/" + url.PathEscape(k.Title) + "?" + q.Encode()
}

// ParseDetailKey rebuilds a key from the route's title segment and query.
// An id takes precedence over a year.
func ParseDetailKey(title string, query url.Values) (DetailKey, error) {
	category := query.Get("category")
	if !catalog.ValidCategory(category) {
		return DetailKey{}, fmt.Errorf("%w: category %q", ErrInvalidDetailKey, category)
	}

	if id := query.Get("id"); id != "" {
		return KeyByID(category, title, id), nil
	}

	year := query.Get("year")
	if title == "" || year == "" {
		return DetailKey{}, fmt.Errorf("%w: need id or title and year", ErrInvalidDetailKey)
	}
	return KeyByTitleYear(category, title, year), nil
}
