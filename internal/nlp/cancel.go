package nlp

import (
	"strings"
)

var cancelKeywords = []string{
	"cancel", "remove", "delete", "take off", "take out",
	"الغاء", "الغي", "احذف", "حذف", "شيل", "امسح",
}

var entireOrderKeywords = []string{
	"entire order", "whole order", "my order", "all of it", "everything", "full order",
	"كل الطلب", "الطلب كله", "كامل الطلب", "الطلب كامل",
}

// IsCancelText reports a cancellation/removal request. Checked before any
// add-item interpretation: cancel always wins.
func IsCancelText(text string) bool {
	t := Normalize(text)
	for _, kw := range cancelKeywords {
		if strings.Contains(t, kw) {
			return true
		}
	}
	return false
}

// CancelRequest is a parsed cancellation. When All is set the whole order
// is cancelled; otherwise ItemText is resolved against the catalog by the
// caller. Spicy, when non-nil, restricts matching to lines of that flavor.
type CancelRequest struct {
	All      bool
	Qty      int
	HasQty   bool
	ItemText string
	Spicy    *bool
}

// ParseCancel extracts target, quantity and flavor filter from a cancel
// message. "cancel 2 spicy tortilla zinger" → qty 2, spicy, "tortilla zinger".
func ParseCancel(text string) CancelRequest {
	t := Normalize(text)
	req := CancelRequest{Qty: 1}

	for _, kw := range entireOrderKeywords {
		if strings.Contains(t, kw) {
			req.All = true
			return req
		}
	}

	if n, ok := FirstQty(t); ok && n > 0 {
		req.Qty = n
		req.HasQty = true
	} else if n, ok := WordQty(t); ok && n > 0 {
		req.Qty = n
		req.HasQty = true
	}

	spicy, nonspicy := DetectSpice(t)
	if spicy {
		v := true
		req.Spicy = &v
	} else if nonspicy {
		v := false
		req.Spicy = &v
	}

	req.ItemText = stripCancelWords(t)
	return req
}

// stripCancelWords removes cancel verbs, quantity tokens and flavor words,
// leaving the item description for catalog resolution.
func stripCancelWords(t string) string {
	// only the explicit flavor phrases are stripped: words like "classic"
	// or "original" can be part of an item name
	flavorPhrases := []string{"non spicy", "nonspicy", "no spicy", "not spicy", "without spicy", "without spice", "بدون حار", "بدون حر"}
	for _, kw := range append(append([]string{}, cancelKeywords...), flavorPhrases...) {
		t = strings.ReplaceAll(t, kw, " ")
	}
	for _, kw := range spicyKeywords {
		t = strings.ReplaceAll(t, kw, " ")
	}
	var rest []string
	for _, f := range strings.Fields(t) {
		if _, ok := parseNumberToken(f); ok {
			continue
		}
		switch f {
		case "the", "a", "an", "my", "please", "of", "from", "order", "من", "فضلك", "لو", "سمحت":
			continue
		}
		rest = append(rest, f)
	}
	return strings.Join(rest, " ")
}
