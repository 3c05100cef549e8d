package nlp

import (
	"strings"

	"joana-bot/internal/catalog"
)

// Kind is a generic category word detected in free text, pending
// disambiguation to a specific catalog item.
type Kind string

const (
	KindBurger   Kind = "burger"
	KindSandwich Kind = "sandwich"
	KindMeal     Kind = "meals"
	KindJuice    Kind = "juices"
	KindDrink    Kind = "drinks"
	KindSide     Kind = "snacks_sides"
)

// CategoryOf maps a kind to its catalog category.
func CategoryOf(k Kind) string {
	switch k {
	case KindBurger:
		return catalog.CategoryBurgers
	case KindSandwich:
		return catalog.CategorySandwiches
	case KindMeal:
		return catalog.CategoryMeals
	case KindJuice:
		return catalog.CategoryJuices
	case KindDrink:
		return catalog.CategoryDrinks
	case KindSide:
		return catalog.CategorySides
	}
	return string(k)
}

// Keyword lists carried over from the production category dictionary,
// including the common misspellings it had accumulated.
var categoryKeywords = []struct {
	kind     Kind
	keywords []string
}{
	{KindBurger, []string{
		"burger", "burgers", "buger", "bugger", "burgr", "burgar", "burguer",
		"برجر", "البرجر", "برجرات", "برقر", "برغر",
	}},
	{KindSandwich, []string{
		"sandwich", "sandwiches", "sandwish", "wrap", "wraps", "tortilla", "tortillas",
		"ساندوتش", "ساندويتش", "سندوتش", "راب", "تورتيلا",
	}},
	{KindMeal, []string{
		"meal", "meals", "meel", "meeal", "combo", "combos", "meal deal", "full meal", "complete meal",
		"وجبه", "وجبات", "الوجبات", "كومبو",
	}},
	{KindJuice, []string{
		"juice", "juices", "جوس", "عصير", "عصيرات", "العصير",
	}},
	{KindDrink, []string{
		"drink", "drinks", "beverage", "beverages", "soda", "مشروب", "مشروبات", "المشروبات",
	}},
	{KindSide, []string{
		"side", "sides", "snack", "snacks", "appetizer", "مقبلات", "سناك", "جانبي",
	}},
}

// DetectKind finds the first generic category word in the text.
func DetectKind(text string) (Kind, bool) {
	t := Normalize(text)
	if t == "" {
		return "", false
	}
	for _, entry := range categoryKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(t, kw) {
				return entry.kind, true
			}
		}
	}
	return "", false
}

func isGenericWord(t string) bool {
	for _, entry := range categoryKeywords {
		for _, kw := range entry.keywords {
			if t == kw {
				return true
			}
		}
	}
	return false
}

// KeywordsOf returns the keywords of one kind, used for keyword-adjacent
// quantity extraction.
func KeywordsOf(k Kind) []string {
	for _, entry := range categoryKeywords {
		if entry.kind == k {
			return entry.keywords
		}
	}
	return nil
}
