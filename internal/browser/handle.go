// internal/browser/handle.go
package browser

import (
	"context"
	"time"
)

// Handle is the capability set the login engine needs from a remote,
// stateful UI surface. One login attempt drives one handle at a time; all
// calls are sequential and blocking from the caller's perspective.
//
// Selectors are CSS by default; selectors starting with "//" are treated as
// XPath by implementations that support it.
type Handle interface {
	// Navigate loads a URL in the automated surface.
	Navigate(ctx context.Context, url string) error

	// WaitVisible blocks until the element matching the selector is present
	// and visible, or the timeout expires.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error

	// Visible reports whether the element is currently present and visible.
	// A missing element is not an error.
	Visible(ctx context.Context, selector string) (bool, error)

	// InnerHTML returns the element's inner HTML.
	InnerHTML(ctx context.Context, selector string) (string, error)

	// OuterHTML returns the element's outer HTML.
	OuterHTML(ctx context.Context, selector string) (string, error)

	// Click performs a native (trusted input event) click.
	Click(ctx context.Context, selector string) error

	// Clear empties a text input.
	Clear(ctx context.Context, selector string) error

	// SendKeys types text into the element using native key events.
	SendKeys(ctx context.Context, selector, text string) error

	// Location reports the surface's current URL.
	Location(ctx context.Context) (string, error)

	// Evaluate runs an ad-hoc script in the page, optionally unmarshalling
	// the result into res.
	Evaluate(ctx context.Context, script string, res any) error

	// Cookies returns every cookie the surface currently holds.
	Cookies(ctx context.Context) ([]Cookie, error)

	// UserAgent reports the surface's effective User-Agent string.
	UserAgent(ctx context.Context) (string, error)
}

// Cookie is the browser-side cookie record carried into a materialized
// session. Expires is zero for session cookies.
type Cookie struct {
	Name    string
	Value   string
	Domain  string
	Path    string
	Secure  bool
	Expires time.Time
}

// DisplaySurface is an optional caller-owned display (e.g. an embedded
// webview) hidden during automated navigation to avoid visual flicker.
// Purely cosmetic; never correctness-relevant.
type DisplaySurface interface {
	Hide()
	Show()
}
