package nlp

import (
	"regexp"
	"strings"

	"joana-bot/internal/catalog"
)

// SpiceUnknown marks an extraction whose flavor is still to be asked.
const (
	SpiceUnknown = -1
	SpiceNo      = 0
	SpiceYes     = 1
)

// Extraction is one item pulled out of free text: either a specific catalog
// item (Key set) or a generic category word (Kind set) that still needs
// disambiguation.
type Extraction struct {
	Specific bool
	Key      string
	Kind     Kind
	Qty      int
	Spicy    int // SpiceUnknown / SpiceNo / SpiceYes
}

var leadingAnd = regexp.MustCompile(`^(and|w|wa|و)\s+`)

var separators = regexp.MustCompile(`\s+and\s+|\s+و\s+|[,\n;]+|\s+مع\s+`)

var anyLetter = regexp.MustCompile(`[a-z\x{0600}-\x{06FF}]`)

var qtyItemShape = regexp.MustCompile(`(\b(one|two|three|four|five|six|seven|eight|nine|ten)\b|\d+)\s+[a-z\x{0600}-\x{06FF}]+`)

// LooksLikeMultiItem reports whether free text reads like an order
// ("2 burgers and 3 coffee", "five juices"). Cancel text never qualifies,
// nor does digit-only text.
func LooksLikeMultiItem(text string) bool {
	if text == "" {
		return false
	}
	if IsCancelText(text) {
		return false
	}

	// voice continuation notes often start with a dangling "and"
	t := leadingAnd.ReplaceAllString(Normalize(text), "")

	// require at least one letter so "12 2025 30" is not an order
	if !anyLetter.MatchString(t) {
		return false
	}

	if strings.Contains(t, " and ") || strings.Contains(t, " و ") {
		return true
	}
	// typical "qty item" shape
	if HasExplicitQty(t) && qtyItemShape.MatchString(t) {
		return true
	}
	return false
}

// Extract is the rule-based extractor: it splits the text on conjunctions
// and resolves each segment to a specific item or a generic kind with its
// quantity and, where present, its flavor. Segments resolving to neither
// are dropped; the caller decides whether to fall back to the LLM.
func Extract(text string, c *catalog.Catalog) []Extraction {
	t := leadingAnd.ReplaceAllString(Normalize(text), "")
	if t == "" {
		return nil
	}

	var out []Extraction
	for _, seg := range separators.Split(t, -1) {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		if ex, ok := extractSegment(seg, c); ok {
			out = append(out, ex)
		}
	}
	return out
}

func extractSegment(seg string, c *catalog.Catalog) (Extraction, bool) {
	if it, ok := FindItem(seg, c); ok {
		ex := Extraction{
			Specific: true,
			Key:      it.Key,
			Qty:      ExtractQty(seg, it.NameEN),
			Spicy:    SpiceUnknown,
		}
		if !catalog.NeedsSpice(it.Category) {
			ex.Spicy = SpiceNo
		} else if spicy, nonspicy := DetectSpice(seg); spicy {
			ex.Spicy = SpiceYes
		} else if nonspicy {
			ex.Spicy = SpiceNo
		}
		return ex, true
	}

	// a generic category word in the same segment as a specific item of
	// that category was already consumed above; here the segment is generic
	if kind, ok := DetectKind(seg); ok {
		qty := 1
		for _, kw := range KeywordsOf(kind) {
			if n, ok := QtyNearKeyword(seg, kw); ok && n > 0 {
				qty = n
				break
			}
		}
		if qty == 1 {
			qty = ExtractQty(seg, "")
		}
		return Extraction{Kind: kind, Qty: qty, Spicy: SpiceUnknown}, true
	}
	return Extraction{}, false
}
