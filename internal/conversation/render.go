package conversation

import (
	"fmt"
	"strings"

	"joana-bot/internal/catalog"
	"joana-bot/internal/models"
)

// User-facing strings, English and Arabic. Lookup falls back to English
// for any key missing an Arabic variant.
var replies = map[string]map[string]string{
	"en": {
		"welcome":          "Welcome to Joana Fast Food! 🍔 Type what you would like to order, or say \"menu\" to see the menu.",
		"menu_caption":     "Here is our menu. Type what you would like to order.",
		"anything_else":    "Anything else? Say \"finish\" when you are done.",
		"didnt_catch":      "Sorry, I didn't catch that. You can type an item name, or say \"menu\" to see the menu.",
		"spice_question":   "Would you like %d x %s spicy or non-spicy?",
		"which_of":         "Which %s would you like? (%d x)",
		"pick_number":      "Reply with the number or the name:",
		"cart_empty":       "Your cart is empty. Type what you would like to order.",
		"summary_header":   "Your order so far:",
		"total_line":       "Total (incl. %.0f%% VAT): %.2f %s",
		"choose_payment":   "How would you like to pay?",
		"btn_cash":         "Cash",
		"btn_online":       "Online",
		"btn_spicy":        "Spicy 🌶",
		"btn_nonspicy":     "Non-spicy",
		"cash_recorded":    "Your order #%d is confirmed, to be paid in cash on pickup. 🧾",
		"online_link":      "Pay for your order #%d here: %s\nReply \"paid\" once done.",
		"payment_done":     "Payment received for order #%d. Thank you! 🎉",
		"checkout_guard":   "Checkout has started. You can pay, ask for the total, or say \"cancel\" to change the order.",
		"ask_feedback":     "How was your meal? 😊",
		"btn_excellent":    "Excellent",
		"btn_good":         "Good",
		"btn_bad":          "Bad",
		"ask_comment":      "Thanks! Anything you'd like to tell us? (or say \"skip\")",
		"thanks_feedback":  "Thank you for your feedback! See you next time. 👋",
		"not_in_order":     "I couldn't find \"%s\" in your order.",
		"nothing_cancel":   "There is nothing to cancel, your cart is empty.",
		"order_cancelled":  "Your order has been cancelled.",
		"removed_line":     "Removed %d x %s.",
		"cancel_what":      "What would you like to cancel?",
		"btn_entire_order": "Entire order",
		"btn_one_item":     "An item",
		"btn_keep_order":   "Keep my order",
		"which_cancel":     "Which item should I remove? Reply with the number or the name:",
		"kept_order":       "No problem, your order is unchanged.",
		"something_wrong":  "Something went wrong on our side, please try again.",
		"type_instead":     "Sorry, I couldn't hear that voice note. Could you type it instead?",
		"unknown_items":    "I couldn't find these on our menu: %s",
		"abuse_warning":    "Let's keep it friendly, please. 🙏 How can I help with your order?",
		"branch_info":      "📍 %s\n%s\n📞 %s",
		"open_now":         "We are open now! Today's hours: %s.",
		"closed_now":       "We are closed right now. Today's hours: %s.",
		"delivery_info":    "We currently serve pickup orders through this chat. Delivery is available via the usual delivery apps.",
		"spice_invalid":    "Please reply \"spicy\" or \"non-spicy\" (you can split, e.g. \"2 spicy 1 non-spicy\").",
		"pick_invalid":     "Please pick one of the listed items, by number or name.",
		"pay_invalid":      "Please choose cash or online payment.",
	},
	"ar": {
		"welcome":          "اهلا بك في جوانا للوجبات السريعة! 🍔 اكتب طلبك او قل \"القائمة\" لعرض المنيو.",
		"menu_caption":     "هذه قائمتنا. اكتب ما تود طلبه.",
		"anything_else":    "هل تريد اضافة شيء اخر؟ قل \"خلاص\" عند الانتهاء.",
		"didnt_catch":      "عذرا لم افهم. اكتب اسم الصنف او قل \"القائمة\".",
		"spice_question":   "هل تريد %d من %s حار ام بدون حار؟",
		"which_of":         "اي %s تريد؟ (%d)",
		"pick_number":      "ارسل الرقم او الاسم:",
		"cart_empty":       "سلتك فارغة. اكتب ما تود طلبه.",
		"summary_header":   "طلبك حتى الان:",
		"total_line":       "الاجمالي (شامل %.0f%% ضريبة): %.2f %s",
		"choose_payment":   "كيف تود الدفع؟",
		"btn_cash":         "كاش",
		"btn_online":       "اونلاين",
		"btn_spicy":        "حار 🌶",
		"btn_nonspicy":     "بدون حار",
		"cash_recorded":    "تم تاكيد طلبك رقم %d، الدفع كاش عند الاستلام. 🧾",
		"online_link":      "ادفع طلبك رقم %d من هنا: %s\nارسل \"تم الدفع\" بعد الانتهاء.",
		"payment_done":     "تم استلام الدفع للطلب رقم %d. شكرا لك! 🎉",
		"checkout_guard":   "بدأ الدفع. يمكنك الدفع او السؤال عن الاجمالي او الالغاء.",
		"ask_feedback":     "كيف كانت وجبتك؟ 😊",
		"btn_excellent":    "ممتاز",
		"btn_good":         "جيد",
		"btn_bad":          "سيء",
		"ask_comment":      "شكرا! هل لديك اي ملاحظات؟ (او قل \"تخطي\")",
		"thanks_feedback":  "شكرا لملاحظاتك! نراك قريبا. 👋",
		"not_in_order":     "لم اجد \"%s\" في طلبك.",
		"nothing_cancel":   "لا يوجد شيء للالغاء، سلتك فارغة.",
		"order_cancelled":  "تم الغاء طلبك.",
		"removed_line":     "تم حذف %d من %s.",
		"cancel_what":      "ماذا تريد ان تلغي؟",
		"btn_entire_order": "كل الطلب",
		"btn_one_item":     "صنف واحد",
		"btn_keep_order":   "ابقاء الطلب",
		"which_cancel":     "اي صنف احذف؟ ارسل الرقم او الاسم:",
		"kept_order":       "تمام، طلبك كما هو.",
		"something_wrong":  "حدث خطأ من جهتنا، حاول مرة اخرى.",
		"type_instead":     "عذرا لم اسمع الرسالة الصوتية. ممكن تكتبها؟",
		"unknown_items":    "لم اجد هذه الاصناف في قائمتنا: %s",
		"abuse_warning":    "لنحافظ على الاحترام من فضلك. 🙏 كيف اساعدك في طلبك؟",
		"spice_invalid":    "من فضلك ارسل \"حار\" او \"بدون حار\" (يمكن التقسيم مثل \"2 حار 1 بدون\").",
		"pick_invalid":     "من فضلك اختر صنفا من القائمة، بالرقم او الاسم.",
		"pay_invalid":      "من فضلك اختر كاش او اونلاين.",
	},
}

// VoiceFallback is the reply for a voice note that could not be
// transcribed. Exposed for the webhook layer, which handles audio before
// the machine sees the message.
func VoiceFallback(lang string) string {
	return tr(lang, "type_instead")
}

func tr(lang, key string) string {
	if m, ok := replies[lang]; ok {
		if s, ok := m[key]; ok {
			return s
		}
	}
	return replies["en"][key]
}

// kindLabels for clarifying questions ("which burger ...").
var kindLabels = map[string]map[string]string{
	"en": {
		"burger": "burger", "sandwich": "sandwich", "meals": "meal",
		"juices": "juice", "drinks": "drink", "snacks_sides": "side",
	},
	"ar": {
		"burger": "برجر", "sandwich": "ساندوتش", "meals": "وجبة",
		"juices": "عصير", "drinks": "مشروب", "snacks_sides": "صنف جانبي",
	},
}

func kindLabel(lang, kind string) string {
	if m, ok := kindLabels[lang]; ok {
		if s, ok := m[kind]; ok {
			return s
		}
	}
	return kindLabels["en"][kind]
}

func itemDisplay(it catalog.Item, lang string) string {
	if lang == "ar" && it.NameAR != "" {
		return it.NameAR
	}
	return it.NameEN
}

// summary renders the cart with per-line subtotals and the VAT-inclusive
// total.
func (m *Machine) summary(st *State) string {
	if len(st.Order) == 0 {
		return tr(st.Lang, "cart_empty")
	}
	var b strings.Builder
	b.WriteString(tr(st.Lang, "summary_header"))
	for i, line := range st.Order {
		flavor := ""
		if line.Spicy > 0 {
			flavor = " (spicy)"
			if st.Lang == "ar" {
				flavor = " (حار)"
			}
		} else if line.NonSpicy > 0 && catalog.NeedsSpice(line.Category) {
			flavor = " (non-spicy)"
			if st.Lang == "ar" {
				flavor = " (بدون حار)"
			}
		}
		name := line.Item
		if it, ok := m.catalog().Get(line.Item); ok {
			name = itemDisplay(it, st.Lang)
		}
		fmt.Fprintf(&b, "\n%d. %d x %s%s - %.2f %s", i+1, line.Qty, name, flavor, line.Subtotal, m.currency)
	}
	fmt.Fprintf(&b, "\n"+tr(st.Lang, "total_line"), m.vatPercent, st.Total, m.currency)
	return b.String()
}

// numberedList renders a category's items as a pick list.
func (m *Machine) numberedList(items []catalog.Item, lang string) string {
	var b strings.Builder
	for i, it := range items {
		fmt.Fprintf(&b, "%d. %s - %.2f %s\n", i+1, itemDisplay(it, lang), it.Price, m.currency)
	}
	b.WriteString(tr(lang, "pick_number"))
	return b.String()
}

// menuText renders the whole menu grouped by category.
func (m *Machine) menuText(lang string) string {
	var b strings.Builder
	cat := m.catalog()
	for _, c := range cat.Categories() {
		fmt.Fprintf(&b, "*%s*\n", categoryHeading(c))
		for _, it := range cat.ByCategory(c) {
			fmt.Fprintf(&b, "  %s - %.2f %s\n", itemDisplay(it, lang), it.Price, m.currency)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func categoryHeading(c string) string {
	words := strings.Split(strings.ReplaceAll(c, "_", " "), " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// categoryButtons lists up to three tappable choices for burger/sandwich
// disambiguation; longer categories get the numbered list instead.
func categoryButtons(items []catalog.Item, lang string) []models.Button {
	if len(items) == 0 || len(items) > 3 {
		return nil
	}
	btns := make([]models.Button, 0, len(items))
	for _, it := range items {
		btns = append(btns, models.Button{ID: "item:" + it.Key, Title: itemDisplay(it, lang)})
	}
	return btns
}
