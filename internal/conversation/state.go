package conversation

import (
	"joana-bot/internal/models"
	"joana-bot/internal/nlp"
)

// Stage is the expected-input mode of the conversation. The handler for
// the current stage runs after the precedence gate (cancel, price query,
// checkout guard) has had its say.
type Stage string

const (
	StageIdle                  Stage = ""
	StageAddMore               Stage = "add_more"
	StageAwaitSpice            Stage = "await_spice"
	StageAwaitSpecificBurger   Stage = "await_specific_burger"
	StageAwaitSpecificSandwich Stage = "await_specific_sandwich"
	StageAwaitSpecificMeal     Stage = "await_specific_meal_text"
	StageAwaitSpecificJuice    Stage = "await_specific_juice_text"
	StageAwaitSpecificDrink    Stage = "await_specific_drink_text"
	StageAwaitSpecificSide     Stage = "await_specific_side_text"
	StageCancelChoice          Stage = "cancel_choice"
	StageCancelItemSelect      Stage = "cancel_item_select"
	StageChoosePayment         Stage = "choose_payment"
	StagePayment               Stage = "payment"
	StageAwaitFeedback         Stage = "await_feedback"
	StageAwaitFeedbackComment  Stage = "await_feedback_comment"
)

// GenericPending is one queued category disambiguation.
type GenericPending struct {
	Kind nlp.Kind
	Qty  int
}

// SpicePending is a resolved burger/sandwich still missing its flavor.
type SpicePending struct {
	Item string
	Qty  int
}

// State is the per-phone conversation state. LastItem/LastQty/LastKind are
// scratch fields for the clarification currently in flight; they are set
// when a queue entry is popped and consumed when the stage resolves.
type State struct {
	Phone        string
	Lang         string
	Stage        Stage
	Order        []models.OrderLine
	GenericQueue []GenericPending
	SpiceQueue   []SpicePending
	LastItem     string
	LastQty      int
	LastKind     nlp.Kind
	OrderID      int64
	Total        float64
	FeedbackRating string
}

func NewState(phone string) *State {
	return &State{Phone: phone, Lang: "en"}
}

// Reset clears everything but the phone and language: used after an order
// is finalized or cancelled, and on a new-order trigger.
func (s *State) Reset() {
	*s = State{Phone: s.Phone, Lang: s.Lang}
}

// AddLine appends a cart line with the subtotal derived from the catalog
// price, then recomputes the running total.
func (s *State) AddLine(item string, qty, spicy, nonspicy int, price float64, category string) {
	if qty <= 0 {
		return
	}
	s.Order = append(s.Order, models.OrderLine{
		Item:     item,
		Qty:      qty,
		Spicy:    spicy,
		NonSpicy: nonspicy,
		Price:    price,
		Subtotal: price * float64(qty),
		Category: category,
	})
	s.Recompute()
}

// Recompute re-derives Total from line subtotals. Called after every cart
// mutation.
func (s *State) Recompute() {
	var total float64
	for _, line := range s.Order {
		total += line.Subtotal
	}
	s.Total = total
}

// PushGeneric enqueues a pending category question (FIFO).
func (s *State) PushGeneric(kind nlp.Kind, qty int) {
	s.GenericQueue = append(s.GenericQueue, GenericPending{Kind: kind, Qty: qty})
}

// PushSpice enqueues a pending flavor question (FIFO).
func (s *State) PushSpice(item string, qty int) {
	s.SpiceQueue = append(s.SpiceQueue, SpicePending{Item: item, Qty: qty})
}

func (s *State) popGeneric() (GenericPending, bool) {
	if len(s.GenericQueue) == 0 {
		return GenericPending{}, false
	}
	g := s.GenericQueue[0]
	s.GenericQueue = s.GenericQueue[1:]
	return g, true
}

func (s *State) popSpice() (SpicePending, bool) {
	if len(s.SpiceQueue) == 0 {
		return SpicePending{}, false
	}
	sp := s.SpiceQueue[0]
	s.SpiceQueue = s.SpiceQueue[1:]
	return sp, true
}
