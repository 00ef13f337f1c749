// Package views implements the fetch-driven views of the frontend: the
// category list, the movie detail page and the home menu. Each view owns
// its state exclusively; the Registry only maps ids to views.
package views

import (
	"context"
	"errors"

	"github.com/movieontip/movieontip/internal/catalog"
	"github.com/movieontip/movieontip/internal/viewstate"
)

var (
	ErrViewNotFound       = errors.New("view not found")
	ErrWrongViewKind      = errors.New("view does not support this action")
	ErrDuplicateFavourite = errors.New("movie already in favourites")
	ErrUnknownMovie       = errors.New("movie is not listed by this view")
	ErrInvalidDetailKey   = errors.New("invalid detail key")
)

// Catalog is the subset of the catalog client the views depend on.
type Catalog interface {
	List(ctx context.Context, category string) ([]catalog.Movie, error)
	Get(ctx context.Context, category, id string) (*catalog.Movie, error)
	FindByTitleYear(ctx context.Context, category, title, year string) ([]catalog.Movie, error)
	Search(ctx context.Context, category, text string) ([]catalog.Movie, error)
	AddFavourite(ctx context.Context, movie catalog.Movie) (*catalog.Movie, error)
	DeleteFavourite(ctx context.Context, id string) error
	Categories(ctx context.Context) ([]string, error)
}

// Kind identifies the type of a mounted view.
type Kind string

const (
	KindList   Kind = "list"
	KindDetail Kind = "detail"
	KindMenu   Kind = "menu"
)

// View is implemented by every mountable view.
type View interface {
	ID() string
	Kind() Kind
	Status() viewstate.Status
	// Settled returns a channel closed when the latest fetch settles.
	Settled() <-chan struct{}
	Close()
}

type publishFunc func(id string, status viewstate.Status)

type base struct {
	id      string
	kind    Kind
	publish publishFunc
}

func (b *base) ID() string { return b.id }
func (b *base) Kind() Kind { return b.kind }

func (b *base) changed(status viewstate.Status) {
	if b.publish != nil {
		b.publish(b.id, status)
	}
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
