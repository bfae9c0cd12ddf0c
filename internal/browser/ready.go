package browser

import (
	"fmt"
	"time"

	"github.com/humlab/amazon-scraper/internal/types"
)

const (
	// maxOwnerHops bounds the ownership chain walk; a deeper chain is
	// malformed.
	maxOwnerHops = 10

	// DefaultReadyTimeout caps how long AwaitReady blocks for the
	// page-load-completion signal.
	DefaultReadyTimeout = 30 * time.Second
)

var readyPollInterval = time.Second

// ResolveSession walks the ownership chain from a scope up to its
// owning session. Fails with types.ErrScopeResolution when no session
// appears within the hop limit.
func ResolveSession(scope Scope) (Session, error) {
	current := scope
	for hop := 0; hop <= maxOwnerHops; hop++ {
		if current == nil {
			break
		}
		if session, ok := current.(Session); ok {
			return session, nil
		}
		current = current.Owner()
	}
	return nil, fmt.Errorf("resolve scope: %w", types.ErrScopeResolution)
}

// AwaitReady blocks until the page owning the scope signals load
// completion, polling at one second intervals up to the default
// timeout. Fails with types.ErrPageLoadTimeout when the signal never
// arrives.
func AwaitReady(scope Scope) error {
	return AwaitReadyTimeout(scope, DefaultReadyTimeout)
}

// AwaitReadyTimeout is AwaitReady with an explicit deadline.
func AwaitReadyTimeout(scope Scope, timeout time.Duration) error {
	session, err := ResolveSession(scope)
	if err != nil {
		return err
	}

	deadline := time.Now().Add(timeout)
	for {
		state, err := session.Eval(`document.readyState`)
		if err == nil {
			if s, ok := state.(string); ok && s == "complete" {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("await ready after %s: %w", timeout, types.ErrPageLoadTimeout)
		}
		time.Sleep(readyPollInterval)
	}
}
