package nlp

import (
	"regexp"
	"strconv"
	"strings"
)

var digitToken = regexp.MustCompile(`\d+`)

var wordNumbers = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"واحد": 1, "اثنين": 2, "اثنان": 2, "ثلاثه": 3, "اربعه": 4, "خمسه": 5,
	"سته": 6, "سبعه": 7, "ثمانيه": 8, "تسعه": 9, "عشره": 10,
}

// parseNumberToken reads one field as a quantity: ASCII digits (Arabic-Indic
// already normalized) or a spelled-out number word.
func parseNumberToken(f string) (int, bool) {
	if n, err := strconv.Atoi(f); err == nil {
		return n, true
	}
	if n, ok := wordNumbers[f]; ok {
		return n, true
	}
	return 0, false
}

// QtyNearKeyword finds a quantity token directly adjacent to the keyword,
// either side ("6 sandwich" or "sandwich 6"). Position-based so that
// "4 meals 3 drinks" resolves independently per keyword.
func QtyNearKeyword(text, keyword string) (int, bool) {
	t := Normalize(text)
	kw := Normalize(keyword)
	fields := strings.Fields(t)
	for i, f := range fields {
		if !strings.Contains(f, kw) && f != kw {
			continue
		}
		if i > 0 {
			if n, ok := parseNumberToken(fields[i-1]); ok {
				return n, true
			}
		}
		if i+1 < len(fields) {
			if n, ok := parseNumberToken(fields[i+1]); ok {
				return n, true
			}
		}
	}
	return 0, false
}

// FirstQty returns the first digit token anywhere in the text.
func FirstQty(text string) (int, bool) {
	t := NormalizeDigits(text)
	if m := digitToken.FindString(t); m != "" {
		n, err := strconv.Atoi(m)
		if err == nil {
			return n, true
		}
	}
	return 0, false
}

// WordQty returns the first spelled-out number word in the text.
func WordQty(text string) (int, bool) {
	for _, f := range strings.Fields(Normalize(text)) {
		if n, ok := wordNumbers[f]; ok {
			return n, true
		}
	}
	return 0, false
}

// ExtractQty runs the quantity cascade: keyword-adjacent digit, first digit
// token, spelled-out number word, then default 1. keyword may be empty.
func ExtractQty(text, keyword string) int {
	if keyword != "" {
		if n, ok := QtyNearKeyword(text, keyword); ok && n > 0 {
			return n
		}
	}
	if n, ok := FirstQty(text); ok && n > 0 {
		return n
	}
	if n, ok := WordQty(text); ok && n > 0 {
		return n
	}
	return 1
}

// HasExplicitQty reports whether the text carries any quantity token at all.
func HasExplicitQty(text string) bool {
	if _, ok := FirstQty(text); ok {
		return true
	}
	_, ok := WordQty(text)
	return ok
}
