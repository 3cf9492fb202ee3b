package typebridge

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIgnorePredicateSingleGlob(t *testing.T) {
	as := require.New(t)

	p := newIgnorePredicate("vendor/**", "")
	as.True(p.match("vendor/lib.ts"))
	as.True(p.match("vendor/deep/lib.ts"))
	as.False(p.match("src/app.ts"))
}

func TestIgnorePredicateGlobList(t *testing.T) {
	as := require.New(t)

	p := newIgnorePredicate([]any{"**/*.d.ts", "generated/**"}, "")
	as.True(p.match("types/api.d.ts"))
	as.True(p.match("generated/schema.ts"))
	as.False(p.match("src/app.ts"))

	p = newIgnorePredicate([]string{"**/*.d.ts"}, "")
	as.True(p.match("api.d.ts"))
}

func TestIgnorePredicateVendorFallback(t *testing.T) {
	as := require.New(t)

	p := newIgnorePredicate(nil, "**/vendor/**")
	as.True(p.match("js/vendor/jquery.ts"))
	as.False(p.match("js/app.ts"))
}

func TestIgnorePredicateEmpty(t *testing.T) {
	as := require.New(t)

	p := newIgnorePredicate(nil, "")
	as.False(p.match("vendor/lib.ts"))
	as.False(p.match("anything.ts"))
}
