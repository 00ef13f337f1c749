package api

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"github.com/labstack/echo/v4"

	"github.com/movieontip/movieontip/internal/views"
	"github.com/movieontip/movieontip/internal/viewstate"
)

const (
	templatePage = "page"
	templateView = "view"

	// headerFragment asks for the view section only, not the whole page.
	headerFragment = "X-Fragment"

	// headerViewGone marks a 404 for a view that is no longer mounted, so the
	// page reloads instead of posting to it again.
	headerViewGone = "X-View-Gone"
)

// Renderer executes the embedded page templates for echo.
type Renderer struct {
	templates *template.Template
}

// NewRenderer parses every *.html template in fsys.
func NewRenderer(fsys fs.FS) (*Renderer, error) {
	t, err := template.New("").ParseFS(fsys, "*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Renderer{templates: t}, nil
}

func (r *Renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

// TabLink is one entry of the navigation bar.
type TabLink struct {
	Label  string
	URL    string
	Active bool
}

// ViewData is the template input of the view section.
type ViewData struct {
	ViewID string
	Kind   views.Kind
	Status viewstate.Status
	List   *views.ListModel
	Detail *views.DetailModel
	Menu   *views.MenuModel
}

// PageData wraps a view with the page chrome.
type PageData struct {
	ViewData
	Title string
	Tabs  []TabLink
}

func viewData(v views.View) ViewData {
	d := ViewData{ViewID: v.ID(), Kind: v.Kind(), Status: v.Status()}
	switch t := v.(type) {
	case *views.ListView:
		m := t.Model()
		d.Status = m.Status
		d.List = &m
	case *views.DetailView:
		m := t.Model()
		d.Status = m.Status
		d.Detail = &m
	case *views.MenuView:
		m := t.Model()
		d.Status = m.Status
		d.Menu = &m
	}
	return d
}

func pageData(d ViewData, active views.Tab, title string) PageData {
	tabs := views.Tabs()
	links := make([]TabLink, 0, len(tabs))
	for _, t := range tabs {
		links = append(links, TabLink{Label: t.Label, URL: t.URL(), Active: t == active})
	}
	return PageData{ViewData: d, Title: title, Tabs: links}
}

// activeTab is the tab highlighted for a view. Detail pages highlight none.
func activeTab(v views.View) views.Tab {
	switch t := v.(type) {
	case *views.ListView:
		return t.Tab()
	case *views.MenuView:
		return views.TabHome
	}
	return views.Tab{}
}

func pageTitle(d ViewData, active views.Tab) string {
	if d.Detail != nil && d.Detail.Movie != nil {
		return d.Detail.Movie.Title
	}
	if active.Label != "" {
		return active.Label
	}
	return "Movie"
}
