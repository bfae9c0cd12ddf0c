package config

import (
	"reflect"

	"github.com/spf13/cast"
)

// Value is a deferred reference to a configuration key: a recipe for
// obtaining a value, not the value itself. It resolves at the point of
// use against the current context, so live context edits between
// calls are observed.
type Value struct {
	// Key is the path expression to resolve ('.', '_' or ':'
	// separators; comma-separated alternatives).
	Key string

	// Default is returned when no alternative reaches a present key.
	Default any

	// Mandatory makes resolution fail with an Error when the key is
	// absent and no default was given.
	Mandatory bool

	// After transforms the resolved value when it is truthy.
	After func(any) any

	// New, when set, short-circuits resolution: a freshly constructed
	// instance is returned without looking anything up. Escape hatch
	// for structured sub-configuration.
	New func() any

	// Store overrides the process-wide store, for test isolation.
	Store *Store
}

func (v Value) store() *Store {
	if v.Store != nil {
		return v.Store
	}
	return defaultStore
}

// Resolve obtains the value from the active context.
func (v Value) Resolve() (any, error) {
	if v.New != nil {
		return v.New(), nil
	}

	ctx, err := v.store().Current()
	if err != nil {
		return nil, err
	}

	if v.Mandatory && v.Default == nil {
		if !ctx.Exists(v.Key) {
			return nil, &Error{Context: ctx.Name, Key: v.Key, Reason: "mandatory but missing"}
		}
	}

	resolved := ctx.Resolve(v.Key, v.Default)
	if v.After != nil && isTruthy(resolved) {
		return v.After(resolved), nil
	}
	return resolved, nil
}

// String resolves the value and coerces it to a string.
func (v Value) String() (string, error) {
	raw, err := v.Resolve()
	if err != nil {
		return "", err
	}
	return cast.ToStringE(raw)
}

// Int resolves the value and coerces it to an int.
func (v Value) Int() (int, error) {
	raw, err := v.Resolve()
	if err != nil {
		return 0, err
	}
	if raw == nil {
		return 0, nil
	}
	return cast.ToIntE(raw)
}

// Bool resolves the value and coerces it to a bool.
func (v Value) Bool() (bool, error) {
	raw, err := v.Resolve()
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}
	return cast.ToBoolE(raw)
}

// Strings resolves the value and coerces it to a string slice. A
// scalar becomes a one-element slice, matching the locator candidate
// list convention.
func (v Value) Strings() ([]string, error) {
	raw, err := v.Resolve()
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	if s, ok := raw.(string); ok {
		return []string{s}, nil
	}
	return cast.ToStringSliceE(raw)
}

// Map resolves the value as a nested mapping.
func (v Value) Map() (map[string]any, error) {
	raw, err := v.Resolve()
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	return cast.ToStringMapE(raw)
}

func isTruthy(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.Len() > 0
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	}
	return true
}
