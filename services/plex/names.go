package plex

import (
	"strings"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/cases"
)

// SameName reports whether two section or server names refer to the same
// thing. Comparison ignores case and repeated whitespace, and falls back to an
// ASCII transliteration so "Séries" matches "Series".
func SameName(a, b string) bool {
	fa, fb := foldName(a), foldName(b)
	if fa == "" || fb == "" {
		return false
	}
	if fa == fb {
		return true
	}
	return foldName(unidecode.Unidecode(a)) == foldName(unidecode.Unidecode(b))
}

func foldName(s string) string {
	return cases.Fold().String(strings.Join(strings.Fields(s), " "))
}
