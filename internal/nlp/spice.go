package nlp

import (
	"strings"
)

// Keyword families carried over from the production spicy detector. A
// non-spicy phrase wins over the "spicy" substring it contains.
var nonSpicyKeywords = []string{
	"non spicy", "nonspicy", "no spicy", "without spicy", "without spice",
	"not spicy", "mild", "regular", "normal", "classic", "original",
	"بدون حار", "بدون حر", "عادي", "بدون",
}

var spicyKeywords = []string{"spicy", "hot", "حار"}

var halfKeywords = []string{"half", "نص", "نصف"}

// DetectSpice reports whether the text mentions a spicy and/or a non-spicy
// preference. A non-spicy phrase suppresses the spicy flag, so "not spicy"
// never reads as spicy.
func DetectSpice(text string) (spicy, nonspicy bool) {
	t := Normalize(text)
	nonspicy = firstIndex(t, nonSpicyKeywords) >= 0
	spicy = spicyIndex(t) >= 0 && !nonspicy
	return spicy, nonspicy
}

// SplitSpice splits a known total quantity into spicy and non-spicy counts
// from the answer text. Counts never exceed total. Heuristics, in order:
//   - "half" with both preferences mentioned → floor division, remainder
//     to spicy
//   - two quantities with both keyword families → assignment follows the
//     text order of the keywords (swap-idempotent), spicy clamped first
//   - one keyword with one quantity → remainder inferred for the other
//   - keyword alone → whole quantity to that preference
//   - anything else → whole quantity non-spicy
func SplitSpice(text string, total int) (spicy, nonspicy int) {
	if total <= 0 {
		return 0, 0
	}
	t := Normalize(text)

	nonPos := firstIndex(t, nonSpicyKeywords)
	spicyPos := spicyIndex(t)
	qtys := allQtys(t)

	if firstIndex(t, halfKeywords) >= 0 && spicyPos >= 0 && nonPos >= 0 {
		nonspicy = total / 2
		return total - nonspicy, nonspicy
	}

	switch {
	case spicyPos >= 0 && nonPos >= 0 && len(qtys) >= 2:
		if spicyPos < nonPos {
			spicy, nonspicy = qtys[0], qtys[1]
		} else {
			nonspicy, spicy = qtys[0], qtys[1]
		}
		spicy = min(spicy, total)
		nonspicy = min(nonspicy, total-spicy)
	case spicyPos >= 0 && len(qtys) >= 1:
		spicy = min(qtys[0], total)
		nonspicy = total - spicy
	case nonPos >= 0 && spicyPos < 0 && len(qtys) >= 1:
		nonspicy = min(qtys[0], total)
		spicy = total - nonspicy
	case spicyPos >= 0 && nonPos < 0:
		spicy = total
	case nonPos >= 0:
		nonspicy = total
	default:
		nonspicy = total
	}
	return spicy, nonspicy
}

func allQtys(t string) []int {
	var out []int
	for _, f := range strings.Fields(t) {
		if n, ok := parseNumberToken(f); ok {
			out = append(out, n)
		}
	}
	return out
}

func firstIndex(t string, keywords []string) int {
	best := -1
	for _, kw := range keywords {
		if i := strings.Index(t, kw); i >= 0 && (best < 0 || i < best) {
			best = i
		}
	}
	return best
}

// spicyIndex finds a spicy keyword occurrence that is not part of a
// non-spicy phrase ("spicy" inside "non spicy" does not count). Non-spicy
// phrases are blanked out before searching.
func spicyIndex(t string) int {
	for _, phrase := range nonSpicyKeywords {
		for {
			i := strings.Index(t, phrase)
			if i < 0 {
				break
			}
			t = t[:i] + strings.Repeat(" ", len(phrase)) + t[i+len(phrase):]
		}
	}
	return firstIndex(t, spicyKeywords)
}
