package browser

import (
	"errors"
	"testing"
	"time"

	"github.com/humlab/amazon-scraper/internal/types"
)

// fakeSession implements Session with a scripted readyState sequence.
type fakeSession struct {
	states []string
	calls  int
}

func (s *fakeSession) Find(string) (Element, error)      { return nil, nil }
func (s *fakeSession) FindAll(string) ([]Element, error) { return nil, nil }
func (s *fakeSession) Owner() Scope                      { return nil }
func (s *fakeSession) Navigate(string) error             { return nil }
func (s *fakeSession) CurrentURL() (string, error)       { return "", nil }
func (s *fakeSession) SetViewport(int, int) error        { return nil }
func (s *fakeSession) CaptureScreenshot(string) error    { return nil }
func (s *fakeSession) Refresh() error                    { return nil }
func (s *fakeSession) Close() error                      { return nil }

func (s *fakeSession) Eval(js string) (any, error) {
	if s.calls >= len(s.states) {
		return s.states[len(s.states)-1], nil
	}
	state := s.states[s.calls]
	s.calls++
	return state, nil
}

// fakeScope is an element-like scope pointing at its owner.
type fakeScope struct {
	owner Scope
}

func (f *fakeScope) Find(string) (Element, error)      { return nil, nil }
func (f *fakeScope) FindAll(string) ([]Element, error) { return nil, nil }
func (f *fakeScope) Owner() Scope                      { return f.owner }

func TestResolveSessionWalksChain(t *testing.T) {
	session := &fakeSession{states: []string{"complete"}}
	inner := &fakeScope{owner: session}
	outer := &fakeScope{owner: inner}

	got, err := ResolveSession(outer)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != Session(session) {
		t.Error("resolved wrong session")
	}
}

func TestResolveSessionIsIdentityOnSession(t *testing.T) {
	session := &fakeSession{states: []string{"complete"}}
	got, err := ResolveSession(session)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != Session(session) {
		t.Error("session must resolve to itself")
	}
}

func TestResolveSessionHopLimit(t *testing.T) {
	// A cycle never reaches a session; the hop bound must cut it off.
	a := &fakeScope{}
	b := &fakeScope{owner: a}
	a.owner = b

	_, err := ResolveSession(a)
	if !errors.Is(err, types.ErrScopeResolution) {
		t.Fatalf("expected scope resolution failure, got %v", err)
	}
}

func TestAwaitReadyPollsUntilComplete(t *testing.T) {
	restore := readyPollInterval
	readyPollInterval = time.Millisecond
	defer func() { readyPollInterval = restore }()

	session := &fakeSession{states: []string{"loading", "interactive", "complete"}}
	if err := AwaitReadyTimeout(&fakeScope{owner: session}, time.Second); err != nil {
		t.Fatalf("await ready: %v", err)
	}
	if session.calls < 3 {
		t.Errorf("expected at least 3 polls, got %d", session.calls)
	}
}

func TestAwaitReadyTimesOut(t *testing.T) {
	restore := readyPollInterval
	readyPollInterval = time.Millisecond
	defer func() { readyPollInterval = restore }()

	session := &fakeSession{states: []string{"loading"}}
	err := AwaitReadyTimeout(session, 10*time.Millisecond)
	if !errors.Is(err, types.ErrPageLoadTimeout) {
		t.Fatalf("expected page load timeout, got %v", err)
	}
}
