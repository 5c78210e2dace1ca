package sync

import (
	"math"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// accentStripper decomposes to NFD, drops combining marks and recomposes, so
// "Bayern München" and "Bayern Munchen" normalize to the same tokens.
var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var (
	nonWordRe      = regexp.MustCompile(`[\W_]+`)
	multiSpaceRe   = regexp.MustCompile(`\s+`)
	womensSuffixRe = regexp.MustCompile(`(?i),?\s+(women'?s?|w|wfc|lfc|ladies|femenino|femminile|f)$`)
	youthSuffixRe  = regexp.MustCompile(`(?i)\s+u[\s-]?\d+$`)
	clubSuffixRe   = regexp.MustCompile(`(?i)\s+(sc|fc|cf|cd|wfc|fcw|hsc|ac|af|fco|vf|ff|football)$`)
	clubPrefixRe   = regexp.MustCompile(`(?i)^(sc|fc|cf|cd|rc|ol|olympique de|olympique|wnt|skn|sk|1\.)\s+`)
)

// Normalize lowercases, strips accents, replaces punctuation with spaces and
// collapses whitespace. Returns "" for null-ish input.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if out, _, err := transform.String(accentStripper, s); err == nil {
		s = out
	}
	s = nonWordRe.ReplaceAllString(s, " ")
	s = multiSpaceRe.ReplaceAllString(s, " ")
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeTeamName applies Normalize after stripping club prefixes (FC, SC,
// CD, Olympique, ...) and women's/youth suffixes, so "FC Barcelona" and
// "Barcelona" compare equal on the exact-name stage.
func NormalizeTeamName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = womensSuffixRe.ReplaceAllString(s, "")
	s = youthSuffixRe.ReplaceAllString(s, "")
	s = clubSuffixRe.ReplaceAllString(s, "")
	s = clubPrefixRe.ReplaceAllString(s, "")
	return Normalize(s)
}

func tokens(s string) []string {
	n := Normalize(s)
	if n == "" {
		return nil
	}
	return strings.Fields(n)
}

// TokenCosine computes cosine similarity between the token-frequency vectors
// of two strings over their union vocabulary. Empty or null strings score 0.
func TokenCosine(a, b string) float64 {
	ta, tb := tokens(a), tokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	fa := make(map[string]int, len(ta))
	for _, t := range ta {
		fa[t]++
	}
	fb := make(map[string]int, len(tb))
	for _, t := range tb {
		fb[t]++
	}
	var dot, na, nb float64
	for t, c := range fa {
		na += float64(c * c)
		if cb, ok := fb[t]; ok {
			dot += float64(c * cb)
		}
	}
	for _, c := range fb {
		nb += float64(c * c)
	}
	if dot == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// minContainToken is the shortest normalized token considered for the
// last-resort containment matcher; single letters match everything.
const minContainToken = 2

// ContainsNormalized reports whether any normalized token of one string
// (length >= 2) appears as a substring of the other string's normalized form.
// Symmetric, last-resort matcher only.
func ContainsNormalized(a, b string) bool {
	return containsOneWay(a, b) || containsOneWay(b, a)
}

func containsOneWay(a, b string) bool {
	nb := Normalize(b)
	if nb == "" {
		return false
	}
	for _, t := range tokens(a) {
		if len(t) >= minContainToken && strings.Contains(nb, t) {
			return true
		}
	}
	return false
}

// DateWithin reports whether two dates are at most `days` days apart.
func DateWithin(a, b time.Time, days int) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}
	diff := dayDiff(a, b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= days
}

// dayDiff returns b-a in whole days, comparing calendar days in UTC.
func dayDiff(a, b time.Time) int {
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au).Hours() / 24)
}

// DateSwappedEqual reports whether swapping a's day and month yields b. Guards
// against locale date-order confusion; only defined when a's day fits in the
// month position.
func DateSwappedEqual(a, b time.Time) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}
	if a.Day() > 12 {
		return false
	}
	swapped := time.Date(a.Year(), time.Month(a.Day()), int(a.Month()), 0, 0, 0, 0, time.UTC)
	return swapped.Year() == b.Year() && swapped.Month() == b.Month() && swapped.Day() == b.Day()
}
