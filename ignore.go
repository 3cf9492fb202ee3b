package typebridge

import (
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// ignorePredicate decides whether a path is excluded from compilation.
// It is built once at construction and matching is purely path based; file
// contents are never inspected.
type ignorePredicate struct {
	globs []string
}

// newIgnorePredicate accepts the ignore option as a single glob or a list
// of globs, falling back to the tool's vendor convention when the option
// is absent.
func newIgnorePredicate(ignore any, vendorGlob string) ignorePredicate {
	var globs []string

	switch v := ignore.(type) {
	case string:
		if v != "" {
			globs = append(globs, v)
		}
	case []string:
		for _, g := range v {
			if g != "" {
				globs = append(globs, g)
			}
		}
	case []any:
		for _, item := range v {
			if g, ok := item.(string); ok && g != "" {
				globs = append(globs, g)
			}
		}
	}

	if len(globs) == 0 && vendorGlob != "" {
		globs = append(globs, vendorGlob)
	}

	return ignorePredicate{globs: globs}
}

func (p ignorePredicate) match(path string) bool {
	slashed := filepath.ToSlash(path)
	for _, g := range p.globs {
		if ok, err := doublestar.Match(g, slashed); err == nil && ok {
			return true
		}
	}
	return false
}
