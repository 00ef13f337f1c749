package views

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetailKey_RoundTrip(t *testing.T) {
	keys := []DetailKey{
		KeyByID("favourite", "Love & Mercy", "42"),
		KeyByTitleYear("movies-coming", "Ocean's 8", "2018"),
	}

	for _, k := range keys {
		u, err := url.Parse(k.Path())
		require.NoError(t, err)

		got, err := ParseDetailKey(u.Path[len("/movie/"):], u.Query())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
}

func TestParseDetailKey_Invalid(t *testing.T) {
	tests := map[string]url.Values{
		"missing category": {"id": {"1"}},
		"bad category":     {"category": {"../db"}, "id": {"1"}},
		"no id or year":    {"category": {"favourite"}},
	}
	for name, q := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDetailKey("Title", q)
			assert.ErrorIs(t, err, ErrInvalidDetailKey)
		})
	}
}

func TestParseTab(t *testing.T) {
	assert.Equal(t, TabFavourites, ParseTab("favourite"))
	assert.Equal(t, TabHome, ParseTab(""))
	assert.Equal(t, TabHome, ParseTab("nope"))
	assert.Len(t, Tabs(), 6)
	assert.Equal(t, "", TabHome.Category())
	assert.Equal(t, "/?tab=top-rated-india", TabTopRatedIndian.URL())
}
