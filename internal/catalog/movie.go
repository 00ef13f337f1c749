package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FavouritesCategory is the category that holds the user's favourites.
const FavouritesCategory = "favourite"

// Movie is a catalog record as served by the backend.
type Movie struct {
	ID            FlexString `json:"id,omitempty"`
	Title         string     `json:"title" validate:"required"`
	Year          string     `json:"year" validate:"required"`
	Genres        []string   `json:"genres"`
	Ratings       []float64  `json:"ratings"`
	Poster        string     `json:"poster"`
	ContentRating string     `json:"contentRating"`
	Duration      string     `json:"duration"`
	ReleaseDate   string     `json:"releaseDate"`
	AverageRating *float64   `json:"averageRating,omitempty"`
	OriginalTitle string     `json:"originalTitle"`
	Storyline     string     `json:"storyline"`
	Actors        []string   `json:"actors"`
	ImdbRating    RawValue   `json:"imdbRating,omitzero"`
	PosterURL     string     `json:"posterurl,omitempty"`
}

// WithoutID returns a copy suitable for insertion; the backend assigns ids.
func (m Movie) WithoutID() Movie {
	m.ID = ""
	return m
}

// Runtime returns the parsed duration, if the movie has a valid one.
func (m Movie) Runtime() (Runtime, bool) {
	return ParseDuration(m.Duration)
}

// Runtime is a movie length split into hours and minutes.
type Runtime struct {
	Hours   int
	Minutes int
}

func (r Runtime) String() string {
	return fmt.Sprintf("%dh %dm", r.Hours, r.Minutes)
}

// ParseDuration parses the backend's "PT<minutes>M" token.
func ParseDuration(s string) (Runtime, bool) {
	if !strings.HasPrefix(s, "PT") || !strings.HasSuffix(s, "M") || len(s) < 4 {
		return Runtime{}, false
	}
	total, err := strconv.Atoi(s[2 : len(s)-1])
	if err != nil || total < 0 {
		return Runtime{}, false
	}
	return Runtime{Hours: total / 60, Minutes: total % 60}, true
}

// FlexString decodes a JSON string or number into a string. The backend
// is inconsistent about ids and IMDb ratings.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("flexstring: %w", err)
		}
		*f = FlexString(n.String())
	}
	return nil
}

func (f FlexString) String() string { return string(f) }

// RawValue holds a JSON scalar exactly as the backend sent it, so records
// copied into the favourites keep numbers as numbers.
type RawValue struct {
	raw json.RawMessage
}

// NewRawValue wraps an already encoded JSON value.
func NewRawValue(raw string) RawValue {
	return RawValue{raw: json.RawMessage(raw)}
}

func (v *RawValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		v.raw = nil
		return nil
	}
	v.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (v RawValue) MarshalJSON() ([]byte, error) {
	if v.raw == nil {
		return []byte("null"), nil
	}
	return v.raw, nil
}

// IsZero reports whether the value was absent or null.
func (v RawValue) IsZero() bool { return len(v.raw) == 0 }

// String returns the value as display text.
func (v RawValue) String() string {
	if len(v.raw) > 0 && v.raw[0] == '"' {
		var s string
		if err := json.Unmarshal(v.raw, &s); err == nil {
			return s
		}
	}
	return string(v.raw)
}
