package textutil

import (
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9#]+`)

// NormalizeLabel lowercases a label and strips everything that is not a
// letter, digit or '#', so "Seller  Name:" and "seller name" compare equal.
func NormalizeLabel(label string) string {
	label = strings.ToLower(label)
	return nonAlphanumeric.ReplaceAllString(label, "")
}

// MatchLabel returns true if the normalized text contains any of the
// matchers, matchers are expected to already be normalized.
func MatchLabel(text string, matchers []string) bool {
	text = NormalizeLabel(text)
	if text == "" {
		return false
	}
	for _, m := range matchers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// fuzzyThreshold is the minimum Jaro-Winkler similarity for two labels
// to be considered the same, it tolerates single letter typos like
// "consigner" for "consignor".
const fuzzyThreshold = 0.92

// SimilarLabel returns true if the whole text is one of the labels or a
// near match to one, unlike MatchLabel it never matches on containment.
func SimilarLabel(text string, labels []string) bool {
	normalized := NormalizeLabel(text)
	if normalized == "" || len(normalized) > 32 {
		return false
	}
	for _, l := range labels {
		if normalized == l || matchr.JaroWinkler(normalized, l, false) >= fuzzyThreshold {
			return true
		}
	}
	return false
}

// FuzzyMatchLabel is MatchLabel that also accepts labels that are a near
// match to one of the matchers. Only short texts are compared fuzzily, a
// table cell holding a whole paragraph is never a label.
func FuzzyMatchLabel(text string, matchers []string) bool {
	return MatchLabel(text, matchers) || SimilarLabel(text, matchers)
}
