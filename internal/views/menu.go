package views

import (
	"context"
	"strings"

	"github.com/movieontip/movieontip/internal/viewstate"
)

// MenuOption is one category card on the home menu.
type MenuOption struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	URL   string `json:"url"`
}

type MenuModel struct {
	ID      string           `json:"id"`
	Kind    Kind             `json:"kind"`
	Status  viewstate.Status `json:"status"`
	Error   string           `json:"error,omitempty"`
	Options []MenuOption     `json:"options"`
}

// MenuView lists the categories the backend knows about.
type MenuView struct {
	base
	catalog Catalog
	loader  *viewstate.Loader[[]string]
}

func newMenuView(id string, cat Catalog, publish publishFunc) *MenuView {
	v := &MenuView{
		base:    base{id: id, kind: KindMenu, publish: publish},
		catalog: cat,
		loader:  viewstate.NewLoader[[]string](context.Background()),
	}
	v.loader.OnChange(func(s viewstate.Snapshot[[]string]) { v.changed(s.Status) })
	return v
}

func (v *MenuView) Settled() <-chan struct{} { return v.loader.Settled() }

func (v *MenuView) Status() viewstate.Status {
	return v.loader.Snapshot().Status
}

func (v *MenuView) Load() <-chan struct{} {
	_, done := v.loader.Run(v.catalog.Categories)
	return done
}

func (v *MenuView) Model() MenuModel {
	snap := v.loader.Snapshot()
	m := MenuModel{
		ID:     v.id,
		Kind:   KindMenu,
		Status: snap.Status,
		Error:  errorText(snap.Err),
	}
	if snap.Status != viewstate.StatusLoaded {
		return m
	}

	m.Options = make([]MenuOption, 0, len(snap.Payload))
	for _, name := range snap.Payload {
		url := "/"
		if tab, ok := LookupTab(name); ok {
			url = tab.URL()
		}
		m.Options = append(m.Options, MenuOption{
			Name:  name,
			Label: strings.ReplaceAll(name, "-", " "),
			URL:   url,
		})
	}
	return m
}

func (v *MenuView) Close() {
	v.loader.Close()
}
