// Package driver defines the narrow UI-driver capability the collector runs
// against, and a snapshot implementation that replays captured page-source
// dumps. The protocol used to control a live device stays behind this
// interface and outside this repository.
package driver

import (
	"context"
	"errors"
)

var (
	// ErrDriverUnavailable indicates the driver session is not connected or
	// its backing source is gone.
	ErrDriverUnavailable = errors.New("driver session unavailable")

	// ErrScrollTimeout indicates a scroll action did not settle in time.
	ErrScrollTimeout = errors.New("scroll timed out")
)

// Item is one visible list entry exposing its ordered text fragments.
type Item interface {
	TextFragments() []string
}

// Driver is the minimal surface the collector needs: read what is currently
// visible, and scroll. Scroll reports whether the visible content changed;
// false is the bottom-of-list sentinel.
type Driver interface {
	VisibleItems(ctx context.Context) ([]Item, error)
	Scroll(ctx context.Context) (bool, error)
}

// StaticItem is an Item backed by a fixed fragment slice.
type StaticItem struct {
	fragments []string
}

// NewStaticItem builds a StaticItem from its fragments.
func NewStaticItem(fragments ...string) StaticItem {
	return StaticItem{fragments: fragments}
}

// TextFragments implements Item.
func (i StaticItem) TextFragments() []string {
	return i.fragments
}
