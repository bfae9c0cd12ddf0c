package config

import (
	"fmt"
	"sync"
)

// Error marks configuration failures: unconfigured contexts, missing
// mandatory keys, unreadable documents. Always fatal to the call site,
// never retried.
type Error struct {
	Context string
	Key     string
	Reason  string
}

func (e *Error) Error() string {
	switch {
	case e.Key != "":
		return fmt.Sprintf("config: key %q (context %q): %s", e.Key, e.Context, e.Reason)
	case e.Context != "":
		return fmt.Sprintf("config: context %q: %s", e.Context, e.Reason)
	default:
		return "config: " + e.Reason
	}
}

// Context is one named, fully merged configuration mapping. Built once
// by Configure; never mutated afterwards.
type Context struct {
	Name string
	data map[string]any
}

// NewContext wraps an in-memory mapping as a built context.
func NewContext(name string, data map[string]any) *Context {
	if data == nil {
		data = make(map[string]any)
	}
	return &Context{Name: name, data: data}
}

// Data returns the merged mapping.
func (c *Context) Data() map[string]any { return c.data }

// Resolve resolves a path expression against this context's mapping.
func (c *Context) Resolve(path string, def any) any {
	return ResolvePath(c.data, path, def)
}

// Exists reports whether a path reaches a present key in this context.
func (c *Context) Exists(path string) bool {
	return PathExists(c.data, path)
}

// Store owns named configuration contexts, one of which is current.
// Contexts are build-once then read-only; Switch changes the read
// pointer, Configure with a source is the break-glass rebuild.
type Store struct {
	mu       sync.RWMutex
	contexts map[string]*Context
	current  string
}

// NewStore creates an empty store whose current context is "default".
func NewStore() *Store {
	return &Store{
		contexts: make(map[string]*Context),
		current:  "default",
	}
}

// ConfigureOptions controls how a context document is built.
type ConfigureOptions struct {
	// EnvPrefix selects which environment variables overlay the
	// document. Empty disables the overlay.
	EnvPrefix string
}

// Configure builds or returns the named context. Source may be a
// document path (string), an in-memory mapping (map[string]any), or an
// already built *Context. With a nil source an existing context is
// returned unchanged; a missing one is an error. A non-nil source
// rebuilds and replaces the context. The configured context becomes
// current.
func (s *Store) Configure(name string, source any, opts ConfigureOptions) (*Context, error) {
	if name == "" {
		name = "default"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if source == nil {
		ctx, ok := s.contexts[name]
		if !ok {
			return nil, &Error{Context: name, Reason: "undefined, cannot initialize without a source"}
		}
		s.current = name
		return ctx, nil
	}

	var ctx *Context
	switch src := source.(type) {
	case *Context:
		ctx = NewContext(name, src.data)
	case map[string]any:
		data := cloneMap(src)
		EnvOverlay(opts.EnvPrefix, data)
		ctx = NewContext(name, data)
	case string:
		data, err := loadDocument(src)
		if err != nil {
			return nil, &Error{Context: name, Reason: err.Error()}
		}
		EnvOverlay(opts.EnvPrefix, data)
		ctx = NewContext(name, data)
	default:
		return nil, &Error{Context: name, Reason: fmt.Sprintf("unsupported source type %T", source)}
	}

	s.contexts[name] = ctx
	s.current = name
	return ctx, nil
}

// Current returns the active context, or an Error when it was never
// built.
func (s *Store) Current() (*Context, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ctx, ok := s.contexts[s.current]
	if !ok {
		return nil, &Error{Context: s.current, Reason: "not configured"}
	}
	return ctx, nil
}

// Switch changes which context subsequent resolutions read from. It
// does not affect already resolved values and does not require the
// target to exist yet.
func (s *Store) Switch(name string) {
	s.mu.Lock()
	s.current = name
	s.mu.Unlock()
}

func cloneMap(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		if m, ok := v.(map[string]any); ok {
			dst[k] = cloneMap(m)
			continue
		}
		dst[k] = v
	}
	return dst
}

// defaultStore is the process-wide store read by Deferred Values that
// do not name one explicitly.
var defaultStore = NewStore()

// Default returns the process-wide store.
func Default() *Store { return defaultStore }

// Configure configures a context on the process-wide store.
func Configure(name string, source any, opts ConfigureOptions) (*Context, error) {
	return defaultStore.Configure(name, source, opts)
}

// Current returns the process-wide store's active context.
func Current() (*Context, error) { return defaultStore.Current() }

// Switch switches the process-wide store's active context.
func Switch(name string) { defaultStore.Switch(name) }
