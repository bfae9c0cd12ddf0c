// Package scrape locates DOM elements through ranked candidate
// locators resolved from configuration. A symbolic UI key maps to an
// ordered locator list; the first locator that matches wins, and a key
// with no match is an expected outcome, not an error.
package scrape

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/humlab/amazon-scraper/internal/browser"
	"github.com/humlab/amazon-scraper/internal/config"
	"github.com/humlab/amazon-scraper/internal/types"
)

var pollInterval = time.Second

// Gate resolves symbolic UI keys against a DOM scope.
type Gate struct {
	store  *config.Store
	logger *slog.Logger
}

// NewGate creates a selector gate reading candidate lists from the
// given store.
func NewGate(store *config.Store, logger *slog.Logger) *Gate {
	return &Gate{
		store:  store,
		logger: logger.With("component", "selector_gate"),
	}
}

// candidates returns the ranked locator list for a key. A scalar
// locator is a one-element list; an unknown key is an empty list.
func (g *Gate) candidates(key string) ([]string, error) {
	return config.Value{Key: "selectors." + key, Store: g.store}.Strings()
}

// Find tries each candidate locator in order against the scope and
// returns the first match. Waits for page readiness first. A nil
// element with nil error means every candidate missed; the caller
// decides whether absence is fatal.
func (g *Gate) Find(scope browser.Scope, key string) (browser.Element, error) {
	locators, err := g.candidates(key)
	if err != nil {
		return nil, err
	}
	if len(locators) == 0 {
		return nil, nil
	}

	if err := browser.AwaitReady(scope); err != nil {
		return nil, err
	}

	for _, locator := range locators {
		el, err := scope.Find(locator)
		if err != nil {
			return nil, err
		}
		if el != nil {
			return el, nil
		}
		g.logger.Debug("locator missed, trying next", "key", key, "locator", locator)
	}

	g.logger.Debug("element not found", "key", key)
	return nil, nil
}

// FindAll returns every element matched by the first candidate locator
// that yields any.
func (g *Gate) FindAll(scope browser.Scope, key string) ([]browser.Element, error) {
	locators, err := g.candidates(key)
	if err != nil {
		return nil, err
	}

	if err := browser.AwaitReady(scope); err != nil {
		return nil, err
	}

	for _, locator := range locators {
		els, err := scope.FindAll(locator)
		if err != nil {
			return nil, err
		}
		if len(els) > 0 {
			return els, nil
		}
	}
	return nil, nil
}

// Wait polls once per second, trying every candidate each iteration,
// until a match appears or the timeout elapses. A key with no
// configured candidates is nothing to wait for and returns
// immediately.
func (g *Gate) Wait(scope browser.Scope, key string, timeout time.Duration) error {
	locators, err := g.candidates(key)
	if err != nil {
		return err
	}
	if len(locators) == 0 {
		return nil
	}

	deadline := time.Now().Add(timeout)
	for {
		for _, locator := range locators {
			el, err := scope.Find(locator)
			if err != nil {
				return err
			}
			if el != nil {
				return nil
			}
		}
		if !time.Now().Before(deadline) {
			return fmt.Errorf("wait for %q after %s: %w", key, timeout, types.ErrElementNotFound)
		}
		time.Sleep(pollInterval)
	}
}

// FindWithText returns the first candidate match whose trimmed text
// content equals text. Locators matching several elements are walked
// one by one; no match is nil, nil.
func (g *Gate) FindWithText(scope browser.Scope, key, text string) (browser.Element, error) {
	locators, err := g.candidates(key)
	if err != nil {
		return nil, err
	}

	if err := browser.AwaitReady(scope); err != nil {
		return nil, err
	}

	for _, locator := range locators {
		els, err := scope.FindAll(locator)
		if err != nil {
			return nil, err
		}
		for _, el := range els {
			content, err := el.Attribute("textContent")
			if err != nil {
				continue
			}
			if strings.TrimSpace(content) == text {
				return el, nil
			}
		}
	}

	g.logger.Debug("no element with text", "key", key, "text", text)
	return nil, nil
}

// FindAttribute composes Find: the requested attribute of the located
// element, or the default when no element is located.
func (g *Gate) FindAttribute(scope browser.Scope, key, attribute, def string) (string, error) {
	el, err := g.Find(scope, key)
	if err != nil {
		return def, err
	}
	if el == nil {
		return def, nil
	}
	value, err := el.Attribute(attribute)
	if err != nil {
		return def, err
	}
	return value, nil
}
