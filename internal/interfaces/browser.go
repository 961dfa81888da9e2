package interfaces

import (
	"context"
)

// BrowserSession is a remote browsing capability: navigate, wait for page
// conditions, extract markup and drive form controls. A session is not safe
// for concurrent use; the pipeline acquires one session per commission pass
// and releases it when the pass finishes.
type BrowserSession interface {
	// Navigate loads a URL and waits for the document to be ready.
	Navigate(ctx context.Context, url string) error

	// WaitVisible blocks until the selector matches a visible element, or the
	// configured wait timeout elapses.
	WaitVisible(ctx context.Context, selector string) error

	// OuterHTML returns the serialized markup of the first element matching
	// the selector.
	OuterHTML(ctx context.Context, selector string) (string, error)

	// Text returns the trimmed inner text of the first matching element.
	Text(ctx context.Context, selector string) (string, error)

	// Click dispatches a click on the first matching element.
	Click(ctx context.Context, selector string) error

	// SendKeys types a value into the first matching input.
	SendKeys(ctx context.Context, selector, value string) error

	// SetSelectValue selects an option of a <select> element by value and
	// fires the change event.
	SetSelectValue(ctx context.Context, selector, value string) error

	// AttributeValue reads an attribute from the first matching element. The
	// boolean reports whether the attribute exists.
	AttributeValue(ctx context.Context, selector, attribute string) (string, bool, error)

	// Exists reports whether any element matches the selector right now,
	// without waiting.
	Exists(ctx context.Context, selector string) (bool, error)

	// ExistsText reports whether any element matching the selector has text
	// content containing the given fragment, without waiting.
	ExistsText(ctx context.Context, selector, contains string) (bool, error)

	// ClickText waits for an element matching the selector whose text content
	// contains the given fragment, then clicks it. Legislative pages expose
	// their tab buttons and pagers only by label, never by a stable id.
	ClickText(ctx context.Context, selector, contains string) error

	// ClickNth clicks the element at the given index among all elements
	// matching the selector. Result lists are filtered out-of-band, so the
	// caller addresses the chosen element by position.
	ClickNth(ctx context.Context, selector string, index int) error

	// FillNearLabel sets the value of the form control in the table cell
	// following the cell whose text contains the label, firing input and
	// change events. The chambers' media portals label their form cells by
	// text only.
	FillNearLabel(ctx context.Context, label, value string) error

	// HTMLNearLabel returns the markup of the form control located the same
	// way FillNearLabel locates its target.
	HTMLNearLabel(ctx context.Context, label string) (string, error)

	// Close releases the underlying browser resources. Safe to call more
	// than once.
	Close() error
}

// BrowserFactory constructs browsing sessions. Each pipeline invocation owns
// the sessions it creates and must close them on every exit path.
type BrowserFactory interface {
	NewSession(ctx context.Context) (BrowserSession, error)
}
