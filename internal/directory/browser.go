// Package directory drives a persistent, logged-in browser session against
// the professional directory to find and verify employees of a company.
package directory

import "context"

// Page is a single browser tab.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Reload(ctx context.Context) error
	// HTML returns the serialized document.
	HTML(ctx context.Context) (string, error)
	// BodyText returns the rendered, visible text of the document body.
	BodyText(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
	Close() error
}

// Browser owns the browser process and its profile directory.
type Browser interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}
