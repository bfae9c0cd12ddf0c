package config

import (
	"os"
	"strings"
)

// missing is the sentinel distinguishing "key absent" from a present
// falsy value. Only absence causes fallthrough to the next alternative.
type missingType struct{}

var missing = missingType{}

// Dotexpand expands a path expression into the concrete candidate
// paths to try, in order. A comma separates alternative paths. A ':'
// separator is ambiguous and expands into two candidates: one with
// '.' substituted and one with '_' substituted, tried in that order.
func Dotexpand(path string) []string {
	var paths []string
	for _, p := range strings.Split(strings.ReplaceAll(path, " ", ""), ",") {
		if p == "" {
			continue
		}
		if strings.Contains(p, ":") {
			paths = append(paths,
				strings.ReplaceAll(p, ":", "."),
				strings.ReplaceAll(p, ":", "_"),
			)
		} else {
			paths = append(paths, p)
		}
	}
	return paths
}

func dotgetOne(data map[string]any, path string) any {
	var current any = data
	for _, attr := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return missing
		}
		current, ok = m[attr]
		if !ok {
			return missing
		}
	}
	return current
}

// Dotget resolves a path expression against a nested mapping. The
// first expanded candidate that reaches a present key wins, even when
// its value is falsy (0, "", false). Returns ok=false only when every
// candidate misses.
func Dotget(data map[string]any, path string) (any, bool) {
	for _, candidate := range Dotexpand(path) {
		if v := dotgetOne(data, candidate); v != missing {
			return v, true
		}
	}
	return nil, false
}

// ResolvePath is Dotget with a default for the all-candidates-missing
// case.
func ResolvePath(data map[string]any, path string, def any) any {
	if v, ok := Dotget(data, path); ok {
		return v
	}
	return def
}

// PathExists reports whether any expanded candidate reaches a present
// key. A present key holding a falsy value still exists.
func PathExists(data map[string]any, paths ...string) bool {
	for _, path := range paths {
		if _, ok := Dotget(data, path); ok {
			return true
		}
	}
	return false
}

// Dotset writes a value into a nested mapping, creating intermediate
// maps as needed. ':' separators are treated as '.'.
func Dotset(data map[string]any, path string, value any) {
	attrs := strings.Split(strings.ReplaceAll(path, ":", "."), ".")
	current := data
	for _, attr := range attrs[:len(attrs)-1] {
		if attr == "" {
			continue
		}
		next, ok := current[attr].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[attr] = next
		}
		current = next
	}
	current[attrs[len(attrs)-1]] = value
}

// EnvOverlay writes every environment variable carrying the prefix
// into the mapping via Dotset, with the prefix stripped and the name
// lowercased. The written keys keep their underscores, so they are
// reachable through the ':' separator's underscore variant.
func EnvOverlay(prefix string, data map[string]any) {
	if prefix == "" {
		return
	}
	p := strings.ToLower(prefix)
	for _, entry := range os.Environ() {
		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		key = strings.ToLower(key)
		if !strings.HasPrefix(key, p+"_") {
			continue
		}
		Dotset(data, key[len(p)+1:], value)
	}
}
