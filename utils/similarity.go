package utils

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// SimilarityRatio returns a [0,1] match ratio between two reflections,
// character-level, 1.0 meaning identical after trimming. Mirrors the ratio the
// validators were originally calibrated against.
func SimilarityRatio(a, b string) float64 {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" && b == "" {
		return 1.0
	}

	m := difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, ""))
	return m.Ratio()
}
