package scrape

import (
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/humlab/amazon-scraper/internal/browser"
	"github.com/humlab/amazon-scraper/internal/config"
	"github.com/humlab/amazon-scraper/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeElement is a DOM stand-in with attributes and child lookups.
type fakeElement struct {
	owner    browser.Scope
	attrs    map[string]string
	children map[string][]*fakeElement
}

func (e *fakeElement) Owner() browser.Scope { return e.owner }

func (e *fakeElement) Find(locator string) (browser.Element, error) {
	els := e.children[locator]
	if len(els) == 0 {
		return nil, nil
	}
	els[0].owner = e
	return els[0], nil
}

func (e *fakeElement) FindAll(locator string) ([]browser.Element, error) {
	var out []browser.Element
	for _, el := range e.children[locator] {
		el.owner = e
		out = append(out, el)
	}
	return out, nil
}

func (e *fakeElement) Attribute(name string) (string, error) { return e.attrs[name], nil }
func (e *fakeElement) Click() error                          { return nil }
func (e *fakeElement) Hover() error                          { return nil }
func (e *fakeElement) Input(string) error                    { return nil }
func (e *fakeElement) PressEnter() error                     { return nil }
func (e *fakeElement) Size() (int, int, error)               { return 100, 100, nil }

// fakePage is a Session whose DOM is a locator table. appearAfter
// delays a locator's visibility by a number of lookups, for wait
// window tests.
type fakePage struct {
	elements    map[string][]*fakeElement
	appearAfter map[string]int
	lookups     map[string]int
}

func newFakePage(elements map[string][]*fakeElement) *fakePage {
	return &fakePage{
		elements:    elements,
		appearAfter: map[string]int{},
		lookups:     map[string]int{},
	}
}

func (p *fakePage) Owner() browser.Scope { return nil }

func (p *fakePage) Find(locator string) (browser.Element, error) {
	els, err := p.FindAll(locator)
	if err != nil || len(els) == 0 {
		return nil, err
	}
	return els[0], nil
}

func (p *fakePage) FindAll(locator string) ([]browser.Element, error) {
	p.lookups[locator]++
	if p.lookups[locator] <= p.appearAfter[locator] {
		return nil, nil
	}
	var out []browser.Element
	for _, el := range p.elements[locator] {
		el.owner = p
		out = append(out, el)
	}
	return out, nil
}

func (p *fakePage) Navigate(string) error          { return nil }
func (p *fakePage) CurrentURL() (string, error)    { return "https://example.test", nil }
func (p *fakePage) Eval(string) (any, error)       { return "complete", nil }
func (p *fakePage) SetViewport(int, int) error     { return nil }
func (p *fakePage) CaptureScreenshot(string) error { return nil }
func (p *fakePage) Refresh() error                 { return nil }
func (p *fakePage) Close() error                   { return nil }

func newTestGate(t *testing.T, selectors map[string]any) *Gate {
	t.Helper()
	store := config.NewStore()
	_, err := store.Configure("default", map[string]any{"selectors": selectors}, config.ConfigureOptions{})
	if err != nil {
		t.Fatalf("configure: %v", err)
	}
	return NewGate(store, testLogger)
}

func TestFindFirstMatchWins(t *testing.T) {
	gate := newTestGate(t, map[string]any{
		"price": []any{"#missing", "#present"},
	})
	want := &fakeElement{attrs: map[string]string{"id": "present"}}
	page := newFakePage(map[string][]*fakeElement{"#present": {want}})

	el, err := gate.Find(page, "price")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if el == nil {
		t.Fatal("expected a match from the second candidate")
	}
	got, _ := el.Attribute("id")
	if got != "present" {
		t.Errorf("wrong element matched: %q", got)
	}
}

func TestFindAbsenceIsNotAnError(t *testing.T) {
	gate := newTestGate(t, map[string]any{"price": "#nope"})
	page := newFakePage(nil)

	el, err := gate.Find(page, "price")
	if err != nil {
		t.Fatalf("absence must not error: %v", err)
	}
	if el != nil {
		t.Error("expected no match")
	}
}

func TestFindUnknownKey(t *testing.T) {
	gate := newTestGate(t, map[string]any{})
	page := newFakePage(map[string][]*fakeElement{"#x": {{}}})

	el, err := gate.Find(page, "nope")
	if err != nil || el != nil {
		t.Errorf("unknown key must yield nil, nil; got %v, %v", el, err)
	}
}

func TestFindAllFirstYieldingLocator(t *testing.T) {
	gate := newTestGate(t, map[string]any{
		"products": []any{"#primary", "#secondary"},
	})
	page := newFakePage(map[string][]*fakeElement{
		"#secondary": {{attrs: map[string]string{"id": "s1"}}, {attrs: map[string]string{"id": "s2"}}},
	})

	els, err := gate.FindAll(page, "products")
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if len(els) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(els))
	}
}

func TestWaitNoCandidatesReturnsImmediately(t *testing.T) {
	gate := newTestGate(t, map[string]any{})
	page := newFakePage(nil)

	start := time.Now()
	if err := gate.Wait(page, "nope", 5*time.Second); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("wait blocked on a key with no candidates")
	}
}

func TestWaitMatchesWithinWindow(t *testing.T) {
	restore := pollInterval
	pollInterval = time.Millisecond
	defer func() { pollInterval = restore }()

	gate := newTestGate(t, map[string]any{"box": "#box"})
	page := newFakePage(map[string][]*fakeElement{"#box": {{}}})
	page.appearAfter["#box"] = 3

	if err := gate.Wait(page, "box", time.Second); err != nil {
		t.Fatalf("expected match once the element appeared: %v", err)
	}
}

func TestWaitTimeout(t *testing.T) {
	restore := pollInterval
	pollInterval = time.Millisecond
	defer func() { pollInterval = restore }()

	gate := newTestGate(t, map[string]any{"box": "#box"})
	page := newFakePage(nil)

	err := gate.Wait(page, "box", 5*time.Millisecond)
	if !errors.Is(err, types.ErrElementNotFound) {
		t.Fatalf("expected element-not-found timeout, got %v", err)
	}
}

func TestFindWithText(t *testing.T) {
	gate := newTestGate(t, map[string]any{"filter": "span.option"})
	page := newFakePage(map[string][]*fakeElement{
		"span.option": {
			{attrs: map[string]string{"textContent": " Top reviews "}},
			{attrs: map[string]string{"textContent": "All stars\n"}},
		},
	})

	el, err := gate.FindWithText(page, "filter", "All stars")
	if err != nil {
		t.Fatalf("find with text: %v", err)
	}
	if el == nil {
		t.Fatal("expected a match on trimmed text")
	}

	el, err = gate.FindWithText(page, "filter", "Most recent")
	if err != nil || el != nil {
		t.Errorf("expected nil, nil for unmatched text; got %v, %v", el, err)
	}
}

func TestFindAttributeDefault(t *testing.T) {
	gate := newTestGate(t, map[string]any{"description": "#desc"})
	page := newFakePage(nil)

	v, err := gate.FindAttribute(page, "description", "innerText", "IMAGE_DESCRIPTION_ONLY")
	if err != nil {
		t.Fatalf("find attribute: %v", err)
	}
	if v != "IMAGE_DESCRIPTION_ONLY" {
		t.Errorf("expected default for absent element, got %q", v)
	}
}
