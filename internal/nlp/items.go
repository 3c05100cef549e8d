package nlp

import (
	"strings"

	"joana-bot/internal/catalog"
)

// FindItem returns the catalog item whose English or Arabic display name
// appears in the text, preferring the longest match so that
// "tortilla zinger meal" wins over "zinger". Text that is purely a generic
// category word ("burger", "2 sandwiches") never resolves to an item.
func FindItem(text string, c *catalog.Catalog) (catalog.Item, bool) {
	t := Normalize(text)
	if t == "" || isPureGeneric(t) {
		return catalog.Item{}, false
	}

	var best catalog.Item
	bestLen := 0
	for _, it := range c.Items() {
		for _, name := range []string{Normalize(it.NameEN), Normalize(it.NameAR)} {
			if name == "" {
				continue
			}
			if strings.Contains(t, name) && len(name) > bestLen {
				best = it
				bestLen = len(name)
			}
		}
	}
	return best, bestLen > 0
}

// isPureGeneric reports whether the text is just a category word, possibly
// with a quantity in front or behind ("burger", "2 sandwiches", "drinks 3").
func isPureGeneric(t string) bool {
	fields := strings.Fields(t)
	var rest []string
	for _, f := range fields {
		if _, ok := parseNumberToken(f); ok {
			continue
		}
		rest = append(rest, f)
	}
	if len(rest) == 0 {
		return false
	}
	return isGenericWord(strings.Join(rest, " "))
}

// Similarity is a character-level similarity ratio in [0,1], the same role
// difflib close matching played in the original intent detector. 1 means
// identical; 0.65 is the accept cutoff used by callers.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := len(a), len(b)
	if la == 0 || lb == 0 {
		return 0
	}
	d := levenshtein(a, b)
	max := la
	if lb > max {
		max = lb
	}
	return 1 - float64(d)/float64(max)
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min3(cur[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
