package strings

import (
	"github.com/agext/levenshtein"
)

// Suggest returns the candidate closest to name, or "" when nothing is close
// enough to be a plausible typo.
func Suggest(name string, candidates []string) string {
	best, bestDist := "", -1
	for _, c := range candidates {
		if c == name {
			continue
		}
		d := levenshtein.Distance(name, c, nil)
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	if bestDist < 0 || bestDist > maxTypoDistance(name) {
		return ""
	}
	return best
}

// DidYouMean formats a hint suffix for diagnostics, or "" without a suggestion
func DidYouMean(name string, candidates []string) string {
	if s := Suggest(name, candidates); s != "" {
		return Sprintf(" (did you mean %q?)", s)
	}
	return ""
}

func maxTypoDistance(name string) int {
	if n := len(name) / 3; n > 2 {
		return n
	}
	return 2
}
