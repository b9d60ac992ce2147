// Package browser describes the page-automation capability the booking
// workflow is driven through. Implementations live in subpackages.
package browser

import (
	"context"
	"errors"
)

var (
	// ErrElementNotFound is returned when a required selector matches nothing.
	ErrElementNotFound = errors.New("element not found")
	// ErrNavigationTimeout is returned when a navigation did not settle.
	ErrNavigationTimeout = errors.New("navigation timeout")
	// ErrNotInteractable is returned when an element does not support the action.
	ErrNotInteractable = errors.New("element not interactable")
	// ErrStaleElement is returned when an element belongs to a page that has
	// since navigated away.
	ErrStaleElement = errors.New("stale element")
)

// Browser owns the automation session, closing it releases every page.
type Browser interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

type Page interface {
	Navigate(ctx context.Context, url string) error
	// Find returns the first element matching the CSS selector or
	// ErrElementNotFound.
	Find(ctx context.Context, selector string) (Element, error)
	// FindAll returns every element matching the selector in document
	// order, an empty result is not an error.
	FindAll(ctx context.Context, selector string) ([]Element, error)
	// WaitForNavigation blocks until the navigation started by the last
	// action settles.
	WaitForNavigation(ctx context.Context) error
	URL() string
	Close() error
}

type Element interface {
	Type(ctx context.Context, text string) error
	Click(ctx context.Context) error
	Attr(name string) (string, bool)
	FindAll(ctx context.Context, selector string) ([]Element, error)
}
