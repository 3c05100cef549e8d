package conversation

import (
	"context"
	"fmt"
	"strings"

	"joana-bot/internal/models"
	"joana-bot/internal/nlp"
)

// finalize persists the cart as a pending order and moves to payment
// selection. On a store error the state is left untouched so the user can
// simply retry.
func (m *Machine) finalize(ctx context.Context, st *State) []models.Reply {
	if len(st.Order) == 0 {
		return []models.Reply{models.TextReply(tr(st.Lang, "cart_empty"))}
	}

	id, err := m.orders.CreateOrder(ctx, st.Phone, st.Order, st.Total)
	if err != nil {
		m.logger.Errorw("failed to create order", "phone", st.Phone, "error", err)
		return []models.Reply{models.TextReply(tr(st.Lang, "something_wrong"))}
	}
	st.OrderID = id
	st.Stage = StageChoosePayment

	return []models.Reply{
		models.TextReply(m.summary(st)),
		models.ButtonsReply(tr(st.Lang, "choose_payment"),
			models.Button{ID: "pay:cash", Title: tr(st.Lang, "btn_cash")},
			models.Button{ID: "pay:online", Title: tr(st.Lang, "btn_online")},
		),
	}
}

var paidKeywords = []string{"paid", "done", "تم الدفع", "دفعت"}

// handlePaymentStage covers both choose_payment and payment. Add-item text
// is rejected here; the cart is frozen once checkout starts.
func (m *Machine) handlePaymentStage(ctx context.Context, st *State, msg models.Message, text string) []models.Reply {
	t := nlp.Normalize(text)

	if m.looksLikeAddItem(text) {
		return []models.Reply{models.TextReply(tr(st.Lang, "checkout_guard"))}
	}

	if st.Stage == StagePayment {
		for _, kw := range paidKeywords {
			if strings.Contains(t, kw) {
				return m.confirmPayment(ctx, st, models.PaymentOnline, models.OrderStatusPaid, "payment_done")
			}
		}
		return []models.Reply{models.TextReply(tr(st.Lang, "pay_invalid"))}
	}

	switch {
	case msg.ButtonID == "pay:cash" || strings.Contains(t, "cash") || strings.Contains(t, "كاش") || strings.Contains(t, "نقد"):
		return m.confirmPayment(ctx, st, models.PaymentCash, models.OrderStatusUnpaid, "cash_recorded")
	case msg.ButtonID == "pay:online" || strings.Contains(t, "online") || strings.Contains(t, "card") || strings.Contains(t, "اونلاين") || strings.Contains(t, "بطاقه"):
		link, err := m.payments.PaymentLink(ctx, st.OrderID, st.Total, m.currency)
		if err != nil {
			m.logger.Errorw("failed to create payment link", "order_id", st.OrderID, "error", err)
			return []models.Reply{models.TextReply(tr(st.Lang, "something_wrong"))}
		}
		st.Stage = StagePayment
		return []models.Reply{models.TextReply(fmt.Sprintf(tr(st.Lang, "online_link"), st.OrderID, link))}
	}
	return []models.Reply{models.TextReply(tr(st.Lang, "pay_invalid"))}
}

// confirmPayment records the method and schedules the feedback prompt.
func (m *Machine) confirmPayment(ctx context.Context, st *State, method, status, msgKey string) []models.Reply {
	due := m.now().Add(m.feedbackDelay)
	if err := m.orders.UpdatePayment(ctx, st.OrderID, method, status, due); err != nil {
		m.logger.Errorw("failed to update payment", "order_id", st.OrderID, "error", err)
		return []models.Reply{models.TextReply(tr(st.Lang, "something_wrong"))}
	}
	st.Stage = StageAwaitFeedback
	return []models.Reply{models.TextReply(fmt.Sprintf(tr(st.Lang, msgKey), st.OrderID))}
}

// looksLikeAddItem reports whether the text would add to the cart if the
// conversation were in add_more.
func (m *Machine) looksLikeAddItem(text string) bool {
	if _, ok := nlp.FindItem(text, m.catalog()); ok {
		return true
	}
	if _, ok := nlp.DetectKind(text); ok {
		return true
	}
	return false
}

var ratingKeywords = map[string]string{
	"excellent": "excellent", "great": "excellent", "amazing": "excellent", "ممتاز": "excellent", "رائع": "excellent",
	"good": "good", "ok": "good", "okay": "good", "fine": "good", "جيد": "good", "حلو": "good",
	"bad": "bad", "poor": "bad", "terrible": "bad", "awful": "bad", "سيء": "bad", "سئ": "bad",
}

// handleFeedback records the rating and asks for an optional comment.
func (m *Machine) handleFeedback(ctx context.Context, st *State, msg models.Message, text string) []models.Reply {
	rating := strings.TrimPrefix(msg.ButtonID, "fb:")
	if rating == msg.ButtonID {
		rating = ""
	}
	if rating == "" {
		t := nlp.Normalize(text)
		for _, word := range strings.Fields(t) {
			if r, ok := ratingKeywords[word]; ok {
				rating = r
				break
			}
		}
	}
	if rating == "" {
		// anything else during await_feedback is a fresh conversation
		st.Stage = StageIdle
		st.FeedbackRating = ""
		return m.handleFreeText(ctx, st, text)
	}

	st.FeedbackRating = rating
	if err := m.orders.SaveFeedback(ctx, &models.Feedback{
		OrderID: st.OrderID,
		Phone:   st.Phone,
		Rating:  rating,
	}); err != nil {
		m.logger.Errorw("failed to save feedback", "order_id", st.OrderID, "error", err)
	}
	st.Stage = StageAwaitFeedbackComment
	return []models.Reply{models.TextReply(tr(st.Lang, "ask_comment"))}
}

var skipKeywords = []string{"skip", "no", "تخطي", "لا"}

// handleFeedbackComment stores the free-text comment (or skips) and closes
// the conversation.
func (m *Machine) handleFeedbackComment(ctx context.Context, st *State, text string) []models.Reply {
	t := nlp.Normalize(text)
	comment := strings.TrimSpace(text)
	for _, kw := range skipKeywords {
		if t == kw {
			comment = ""
			break
		}
	}

	if err := m.orders.SaveFeedback(ctx, &models.Feedback{
		OrderID: st.OrderID,
		Phone:   st.Phone,
		Rating:  st.FeedbackRating,
		Comment: comment,
	}); err != nil {
		m.logger.Errorw("failed to save feedback comment", "order_id", st.OrderID, "error", err)
	}

	st.Reset()
	return []models.Reply{models.TextReply(tr(st.Lang, "thanks_feedback"))}
}

// FeedbackPrompt builds the delayed how-was-your-meal message for the
// reminder worker and primes the session to expect a rating.
func (m *Machine) FeedbackPrompt(phone string, orderID int64) models.Reply {
	st := m.session(phone)
	st.OrderID = orderID
	st.Stage = StageAwaitFeedback
	return models.ButtonsReply(tr(st.Lang, "ask_feedback"),
		models.Button{ID: "fb:excellent", Title: tr(st.Lang, "btn_excellent")},
		models.Button{ID: "fb:good", Title: tr(st.Lang, "btn_good")},
		models.Button{ID: "fb:bad", Title: tr(st.Lang, "btn_bad")},
	)
}
