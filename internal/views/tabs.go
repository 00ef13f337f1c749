package views

import (
	"net/url"

	"github.com/movieontip/movieontip/internal/catalog"
)

// Tab selects which view the home page displays. Switching tabs has no
// network effect of its own; the selected view fetches when mounted.
type Tab struct {
	Slug  string
	Label string
}

var (
	TabHome             = Tab{Slug: "home", Label: "Home"}
	TabMoviesInTheaters = Tab{Slug: "movies-in-theaters", Label: "Movies in theaters"}
	TabComingSoon       = Tab{Slug: "movies-coming", Label: "Coming soon"}
	TabTopRatedIndian   = Tab{Slug: "top-rated-india", Label: "Top rated Indian"}
	TabTopRatedMovies   = Tab{Slug: "top-rated-movies", Label: "Top rated movies"}
	TabFavourites       = Tab{Slug: catalog.FavouritesCategory, Label: "Favourites"}
)

var allTabs = []Tab{
	TabHome,
	TabMoviesInTheaters,
	TabComingSoon,
	TabTopRatedIndian,
	TabTopRatedMovies,
	TabFavourites,
}

// Tabs returns the tabs in display order.
func Tabs() []Tab {
	out := make([]Tab, len(allTabs))
	copy(out, allTabs)
	return out
}

// ParseTab resolves a slug. Unknown or empty slugs select Home.
func ParseTab(slug string) Tab {
	for _, t := range allTabs {
		if t.Slug == slug {
			return t
		}
	}
	return TabHome
}

// LookupTab is like ParseTab but reports whether slug names a tab.
func LookupTab(slug string) (Tab, bool) {
	for _, t := range allTabs {
		if t.Slug == slug {
			return t, true
		}
	}
	return Tab{}, false
}

func (t Tab) IsHome() bool { return t.Slug == TabHome.Slug }

// Category is the backend category listed by the tab; empty for Home.
func (t Tab) Category() string {
	if t.IsHome() {
		return ""
	}
	return t.Slug
}

func (t Tab) URL() string {
	if t.IsHome() {
		return "/"
	}
	return "/?tab=" + url.QueryEscape(t.Slug)
}
