package nlp

import "strings"

type Intent string

const (
	IntentGreeting   Intent = "greeting"
	IntentMenu       Intent = "menu"
	IntentOrderStart Intent = "order_start"
	IntentAddItem    Intent = "add_item"
	IntentConfirm    Intent = "confirm"
	IntentPayment    Intent = "payment"
	IntentBranch     Intent = "branch"
	IntentTiming     Intent = "timing"
	IntentDelivery   Intent = "delivery"
	IntentAbuse      Intent = "abuse"
	IntentUnknown    Intent = "unknown"
)

// Keyword lists carried over from the production intent dictionary.
// Order matters: earlier entries win.
var intentKeywords = []struct {
	intent   Intent
	keywords []string
}{
	{IntentGreeting, []string{"hello", "hi", "hey", "good morning", "good evening", "مرحبا", "اهلا", "هلا", "السلام"}},
	{IntentMenu, []string{"menu", "show menu", "list", "قائمه", "القائمه", "المنيو"}},
	{IntentOrderStart, []string{"order", "buy", "اريد الطلب", "اطلب", "طلب", "ابغي", "ابغى"}},
	{IntentAddItem, []string{"add", "zinger", "burger", "fries", "drink", "زنجر", "برغر", "بطاطس", "مشروب"}},
	{IntentConfirm, []string{"confirm", "ok", "تمام", "خلاص", "اعتمد", "اكيد", "نعم"}},
	{IntentPayment, []string{"pay", "payment", "cash", "online", "card", "دفع", "بطاقه", "كاش", "نقد", "مدى"}},
	{IntentBranch, []string{"branch", "call", "address", "location", "فرع", "موقع", "مكان", "رقم", "اتصل"}},
	{IntentTiming, []string{"time", "open", "timing", "closing", "متى", "وقت", "ساعات العمل"}},
	{IntentDelivery, []string{"delivery", "do you deliver", "is there delivery", "have delivery", "shipping", "deliver", "home delivery", "توصيل"}},
	{IntentAbuse, []string{"stupid", "idiot", "fuck", "shit", "shut up", "bastard", "غبي", "تافه", "لعنه", "اخرس", "قذر"}},
}

var greetings = []string{"hi", "hello", "hey", "مرحبا", "اهلا", "هلا", "السلام عليكم"}

// DetectIntent classifies a message. A close match against a catalog item
// name is checked first so that "beef burgr" lands on add_item rather than
// on a keyword intent.
func DetectIntent(text string, menuKeys []string) Intent {
	t := Normalize(text)
	if t == "" {
		return IntentUnknown
	}

	for _, key := range menuKeys {
		if Similarity(t, Normalize(key)) >= 0.65 {
			return IntentAddItem
		}
	}

	for _, entry := range intentKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(t, kw) {
				return entry.intent
			}
		}
	}
	return IntentUnknown
}

// IsGreeting matches whole-word greetings only, so "hi, 2 burgers please"
// still reaches the extractor via DetectIntent.
func IsGreeting(text string) bool {
	t := Normalize(text)
	for _, g := range greetings {
		if t == g || strings.HasPrefix(t, g+" ") {
			return true
		}
	}
	return false
}

func IsAbusive(text string) bool {
	t := Normalize(text)
	for _, kw := range intentKeywords[len(intentKeywords)-1].keywords {
		if strings.Contains(t, kw) {
			return true
		}
	}
	return false
}

var priceQueryKeywords = []string{
	"price", "total", "how much", "cost", "my bill",
	"السعر", "الحساب", "المجموع", "كم الحساب", "بكم",
}

// IsPriceQuery reports whether the message only asks about price/total.
// Price queries are read-only and never mutate the order.
func IsPriceQuery(text string) bool {
	t := Normalize(text)
	for _, kw := range priceQueryKeywords {
		if strings.Contains(t, kw) {
			return true
		}
	}
	return false
}

var finishKeywords = []string{
	"finish", "done", "checkout", "that's all", "thats all", "complete order", "خلص", "خلاص", "انتهيت", "بس كذا",
}

// IsFinishText reports a checkout trigger ("that's all", "خلاص", ...).
func IsFinishText(text string) bool {
	t := Normalize(text)
	for _, kw := range finishKeywords {
		if strings.Contains(t, kw) {
			return true
		}
	}
	return false
}
