package nlp

import (
	"regexp"
	"strings"
)

var arabicScript = regexp.MustCompile(`[\x{0600}-\x{06FF}]`)

var whitespace = regexp.MustCompile(`\s+`)

// Normalize lowercases, trims, converts Arabic-Indic digits to ASCII,
// folds Arabic letter variants and collapses whitespace. All matching in
// this package runs on normalized text.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = NormalizeDigits(s)
	s = NormalizeArabic(s)
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	s = whitespace.ReplaceAllString(s, " ")
	return s
}

// NormalizeDigits maps Arabic-Indic digits (٠-٩) to ASCII.
func NormalizeDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '٠' && r <= '٩' {
			return '0' + (r - '٠')
		}
		return r
	}, s)
}

// NormalizeArabic folds common letter variants so that أ/إ/آ all match ا,
// and ى matches ي. Keeps fuzzy Arabic item names matching the catalog.
func NormalizeArabic(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case 'أ', 'إ', 'آ':
			return 'ا'
		case 'ى':
			return 'ي'
		case 'ة':
			return 'ه'
		}
		return r
	}, s)
}

// DetectLanguage returns "ar" when any Arabic script letter is present,
// otherwise "en".
func DetectLanguage(s string) string {
	if arabicScript.MatchString(s) {
		return "ar"
	}
	return "en"
}
