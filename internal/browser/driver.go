// Package browser wraps the automation driver behind the narrow
// capability the crawl pipeline consumes: navigation, locator lookup,
// script execution, screenshots, and the ownership chain that lets any
// scope be traced back to its session.
package browser

// Scope is either a browser session or an element within one: the
// unit against which locators are resolved.
type Scope interface {
	// Find returns the first element matching the locator, without
	// waiting. A nil element with a nil error means no match.
	Find(locator string) (Element, error)

	// FindAll returns every element matching the locator.
	FindAll(locator string) ([]Element, error)

	// Owner is the next link in the ownership chain: an element's
	// parent scope. A session owns itself and returns nil.
	Owner() Scope
}

// Element is a located DOM element.
type Element interface {
	Scope

	// Attribute returns the named attribute or property, or "" when
	// the element carries neither.
	Attribute(name string) (string, error)

	Click() error
	Hover() error
	Input(text string) error

	// PressEnter confirms the element's input, as submitting a search
	// box.
	PressEnter() error

	// Size returns the element's rendered dimensions.
	Size() (width, height int, err error)
}

// Session is a top-level browser session.
type Session interface {
	Scope

	Navigate(url string) error
	CurrentURL() (string, error)

	// Eval runs a script in the page and returns its result.
	Eval(js string) (any, error)

	SetViewport(width, height int) error
	CaptureScreenshot(path string) error
	Refresh() error

	// Close tears the session down. Safe to call more than once.
	Close() error
}
