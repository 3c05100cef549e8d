package conversation

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"joana-bot/internal/catalog"
	"joana-bot/internal/models"
	"joana-bot/internal/nlp"
)

// handleCancel is the entry point for any message containing a cancel
// keyword, whatever the current stage.
func (m *Machine) handleCancel(ctx context.Context, st *State, text string) []models.Reply {
	if len(st.Order) == 0 {
		return []models.Reply{models.TextReply(tr(st.Lang, "nothing_cancel"))}
	}

	req := nlp.ParseCancel(text)
	if req.All {
		return m.cancelAll(ctx, st)
	}

	if req.ItemText != "" {
		if it, ok := nlp.FindItem(req.ItemText, m.catalog()); ok {
			return m.applyCancel(ctx, st, it, req)
		}
		// "cancel the burger" with exactly one burger line in the cart
		if it, ok := m.singleLineOfKind(st, req.ItemText); ok {
			return m.applyCancel(ctx, st, it, req)
		}
		return []models.Reply{models.TextReply(fmt.Sprintf(tr(st.Lang, "not_in_order"), req.ItemText))}
	}

	// bare "cancel": ask what to cancel
	st.Stage = StageCancelChoice
	return []models.Reply{models.ButtonsReply(tr(st.Lang, "cancel_what"),
		models.Button{ID: "cancel:all", Title: tr(st.Lang, "btn_entire_order")},
		models.Button{ID: "cancel:item", Title: tr(st.Lang, "btn_one_item")},
		models.Button{ID: "cancel:keep", Title: tr(st.Lang, "btn_keep_order")},
	)}
}

// singleLineOfKind resolves a generic cancel target ("cancel the burger")
// when the cart holds exactly one line of that category.
func (m *Machine) singleLineOfKind(st *State, itemText string) (catalog.Item, bool) {
	kind, ok := nlp.DetectKind(itemText)
	if !ok {
		return catalog.Item{}, false
	}
	category := nlp.CategoryOf(kind)
	var found catalog.Item
	count := 0
	for _, line := range st.Order {
		if line.Category == category {
			if it, ok := m.catalog().Get(line.Item); ok {
				found = it
				count++
			}
		}
	}
	return found, count == 1
}

// applyCancel removes up to req.Qty units of the item, decrementing the
// earliest-inserted matching lines first. A partial removal splits the line
// and recomputes its subtotal; emptying the cart terminates the order.
func (m *Machine) applyCancel(ctx context.Context, st *State, item catalog.Item, req nlp.CancelRequest) []models.Reply {
	remaining := req.Qty
	if remaining <= 0 {
		remaining = 1
	}

	matched := false
	removed := 0
	kept := st.Order[:0:0]
	for _, line := range st.Order {
		if line.Item != item.Key || remaining <= 0 {
			kept = append(kept, line)
			continue
		}
		if req.Spicy != nil {
			if (*req.Spicy && line.Spicy == 0) || (!*req.Spicy && line.Spicy > 0) {
				kept = append(kept, line)
				continue
			}
		}
		matched = true
		if remaining >= line.Qty {
			remaining -= line.Qty
			removed += line.Qty
			continue // whole line dropped
		}
		line.Qty -= remaining
		line.Subtotal = line.Price * float64(line.Qty)
		removed += remaining
		remaining = 0
		kept = append(kept, line)
	}

	if !matched {
		return []models.Reply{models.TextReply(fmt.Sprintf(tr(st.Lang, "not_in_order"), itemDisplay(item, st.Lang)))}
	}

	st.Order = kept
	st.Recompute()
	removedMsg := fmt.Sprintf(tr(st.Lang, "removed_line"), removed, itemDisplay(item, st.Lang))

	if len(st.Order) == 0 {
		replies := m.cancelAll(ctx, st)
		return append([]models.Reply{models.TextReply(removedMsg)}, replies...)
	}

	st.Stage = StageAddMore
	return []models.Reply{models.TextReply(removedMsg + "\n\n" + m.summary(st))}
}

// cancelAll terminates the order: backend first (best effort), then state.
func (m *Machine) cancelAll(ctx context.Context, st *State) []models.Reply {
	if st.OrderID != 0 {
		if err := m.orders.MarkCancelled(ctx, st.OrderID); err != nil {
			m.logger.Errorw("failed to mark order cancelled", "order_id", st.OrderID, "error", err)
		}
	}
	st.Reset()
	return []models.Reply{models.TextReply(tr(st.Lang, "order_cancelled"))}
}

// handleCancelChoice handles the entire-order / one-item / keep decision.
func (m *Machine) handleCancelChoice(ctx context.Context, st *State, msg models.Message, text string) []models.Reply {
	t := nlp.Normalize(text)
	switch {
	case msg.ButtonID == "cancel:all" || strings.Contains(t, "entire") || strings.Contains(t, "whole") || strings.Contains(t, "كل الطلب"):
		return m.cancelAll(ctx, st)
	case msg.ButtonID == "cancel:item" || strings.Contains(t, "item") || strings.Contains(t, "صنف"):
		st.Stage = StageCancelItemSelect
		return []models.Reply{models.TextReply(tr(st.Lang, "which_cancel") + "\n" + m.cartList(st))}
	case msg.ButtonID == "cancel:keep" || strings.Contains(t, "keep") || hasWord(t, "no") || strings.Contains(t, "ابقاء"):
		if len(st.Order) > 0 {
			st.Stage = StageAddMore
		} else {
			st.Stage = StageIdle
		}
		return []models.Reply{models.TextReply(tr(st.Lang, "kept_order"))}
	}
	if it, ok := nlp.FindItem(text, m.catalog()); ok {
		return m.applyCancel(ctx, st, it, nlp.ParseCancel(text))
	}
	return []models.Reply{models.TextReply(tr(st.Lang, "cancel_what"))}
}

// hasWord matches a whole token, so "no" does not fire inside "non spicy".
func hasWord(t, w string) bool {
	for _, f := range strings.Fields(t) {
		if f == w {
			return true
		}
	}
	return false
}

// handleCancelItemSelect expects a cart index or an item name.
func (m *Machine) handleCancelItemSelect(ctx context.Context, st *State, text string) []models.Reply {
	t := strings.TrimSpace(nlp.Normalize(text))

	if idx, err := strconv.Atoi(t); err == nil {
		if idx < 1 || idx > len(st.Order) {
			return []models.Reply{models.TextReply(tr(st.Lang, "pick_invalid"))}
		}
		line := st.Order[idx-1]
		it, ok := m.catalog().Get(line.Item)
		if !ok {
			it = catalog.Item{Key: line.Item, NameEN: line.Item, Category: line.Category}
		}
		spicy := line.Spicy > 0
		var filter *bool
		if catalog.NeedsSpice(line.Category) {
			filter = &spicy
		}
		return m.applyCancel(ctx, st, it, nlp.CancelRequest{Qty: line.Qty, HasQty: true, Spicy: filter})
	}

	if it, ok := nlp.FindItem(text, m.catalog()); ok {
		return m.applyCancel(ctx, st, it, nlp.ParseCancel(text))
	}
	return []models.Reply{models.TextReply(tr(st.Lang, "pick_invalid"))}
}

// cartList renders the cart as a numbered pick list for cancellation.
func (m *Machine) cartList(st *State) string {
	var b strings.Builder
	for i, line := range st.Order {
		name := line.Item
		if it, ok := m.catalog().Get(line.Item); ok {
			name = itemDisplay(it, st.Lang)
		}
		fmt.Fprintf(&b, "%d. %d x %s\n", i+1, line.Qty, name)
	}
	return strings.TrimRight(b.String(), "\n")
}
