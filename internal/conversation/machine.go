package conversation

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"joana-bot/internal/catalog"
	"joana-bot/internal/models"
	"joana-bot/internal/nlp"
	"joana-bot/internal/payment"
	"joana-bot/pkg/logger"
)

// OrderStore is the persistence boundary. A failed call is logged and the
// conversation simply does not advance; state is never corrupted.
type OrderStore interface {
	CreateOrder(ctx context.Context, phone string, lines []models.OrderLine, total float64) (int64, error)
	UpdatePayment(ctx context.Context, orderID int64, method, status string, feedbackDueAt time.Time) error
	MarkCancelled(ctx context.Context, orderID int64) error
	SaveFeedback(ctx context.Context, fb *models.Feedback) error
}

// Extractor is the LLM fallback for complex multi-item sentences. May be
// nil, in which case only the rule-based extractor runs.
type Extractor interface {
	ExtractItems(ctx context.Context, text string, cat *catalog.Catalog) ([]nlp.Extraction, []string, error)
}

type Deps struct {
	Catalog   *catalog.Store
	Sessions  SessionStore
	Orders    OrderStore
	Payments  payment.Provider
	Extractor Extractor
	Logger    *logger.Logger
}

type Settings struct {
	Currency      string
	VATPercent    float64
	FeedbackDelay time.Duration
	MenuImageURL  string
	BranchName    string
	BranchPhone   string
	BranchAddress string
	OpeningHours  map[string]string
}

// Machine runs the conversational order flow: one Handle call per inbound
// message, replies out, all state in the session store.
type Machine struct {
	catalogs      *catalog.Store
	sessions      SessionStore
	orders        OrderStore
	payments      payment.Provider
	extractor     Extractor
	logger        *logger.Logger
	currency      string
	vatPercent    float64
	feedbackDelay time.Duration
	menuImageURL  string
	branchName    string
	branchPhone   string
	branchAddress string
	openingHours  map[string]string
	now           func() time.Time
}

func NewMachine(deps Deps, settings Settings) *Machine {
	return &Machine{
		catalogs:      deps.Catalog,
		sessions:      deps.Sessions,
		orders:        deps.Orders,
		payments:      deps.Payments,
		extractor:     deps.Extractor,
		logger:        deps.Logger,
		currency:      settings.Currency,
		vatPercent:    settings.VATPercent,
		feedbackDelay: settings.FeedbackDelay,
		menuImageURL:  settings.MenuImageURL,
		branchName:    settings.BranchName,
		branchPhone:   settings.BranchPhone,
		branchAddress: settings.BranchAddress,
		openingHours:  settings.OpeningHours,
		now:           time.Now,
	}
}

func (m *Machine) catalog() *catalog.Catalog {
	return m.catalogs.Current()
}

func (m *Machine) session(phone string) *State {
	if st, ok := m.sessions.Get(phone); ok {
		return st
	}
	st := NewState(phone)
	m.sessions.Put(phone, st)
	return st
}

// Handle processes one inbound message and returns the replies to send.
//
// The precedence gate runs before any stage handler and in one canonical
// order: abuse, cancel, price query. Cancel always beats add-item
// interpretation; price queries are read-only.
func (m *Machine) Handle(ctx context.Context, msg models.Message) []models.Reply {
	st := m.session(msg.From)
	text := strings.TrimSpace(msg.Text())
	if text == "" && msg.ButtonID == "" {
		return []models.Reply{models.TextReply(tr(st.Lang, "didnt_catch"))}
	}
	// button titles are localized, only typed text drives language
	if msg.ButtonID == "" && text != "" {
		st.Lang = nlp.DetectLanguage(text)
	}

	if nlp.IsAbusive(text) {
		return []models.Reply{models.TextReply(tr(st.Lang, "abuse_warning"))}
	}
	if msg.ButtonID == "cancel:all" || msg.ButtonID == "cancel:item" || msg.ButtonID == "cancel:keep" {
		return m.handleCancelChoice(ctx, st, msg, text)
	}
	if nlp.IsCancelText(text) && st.Stage != StageCancelItemSelect {
		return m.handleCancel(ctx, st, text)
	}
	if nlp.IsPriceQuery(text) {
		return []models.Reply{models.TextReply(m.summary(st))}
	}

	switch st.Stage {
	case StageAwaitSpice:
		return m.handleSpice(ctx, st, msg, text)
	case StageAwaitSpecificBurger, StageAwaitSpecificSandwich,
		StageAwaitSpecificMeal, StageAwaitSpecificJuice,
		StageAwaitSpecificDrink, StageAwaitSpecificSide:
		return m.handleSpecificPick(ctx, st, msg, text)
	case StageCancelChoice:
		return m.handleCancelChoice(ctx, st, msg, text)
	case StageCancelItemSelect:
		return m.handleCancelItemSelect(ctx, st, text)
	case StageChoosePayment, StagePayment:
		return m.handlePaymentStage(ctx, st, msg, text)
	case StageAwaitFeedback:
		return m.handleFeedback(ctx, st, msg, text)
	case StageAwaitFeedbackComment:
		return m.handleFeedbackComment(ctx, st, text)
	default: // idle, add_more
		return m.handleFreeText(ctx, st, text)
	}
}

var newOrderTriggers = []string{"new order", "start over", "طلب جديد", "من جديد"}

// handleFreeText is the idle/add_more path: resolve items and categories
// out of free text, queue clarifications, or answer info intents.
func (m *Machine) handleFreeText(ctx context.Context, st *State, text string) []models.Reply {
	t := nlp.Normalize(text)
	for _, kw := range newOrderTriggers {
		if strings.Contains(t, kw) {
			st.Reset()
			return []models.Reply{m.welcome(st)}
		}
	}

	if len(st.Order) > 0 && nlp.IsFinishText(text) {
		return m.finalize(ctx, st)
	}

	exts := nlp.Extract(text, m.catalog())
	var unknown []string
	if len(exts) == 0 && m.extractor != nil && nlp.LooksLikeMultiItem(text) {
		llmExts, llmUnknown, err := m.extractor.ExtractItems(ctx, text, m.catalog())
		if err != nil {
			// heuristics-only from here; the conversation still answers
			m.logger.Errorw("llm extraction failed", "error", err)
		} else {
			exts, unknown = llmExts, llmUnknown
		}
	}

	if len(exts) > 0 || len(unknown) > 0 {
		m.applyExtractions(st, exts)
		var out []models.Reply
		if len(unknown) > 0 {
			out = append(out, models.TextReply(fmt.Sprintf(tr(st.Lang, "unknown_items"), strings.Join(unknown, ", "))))
		}
		return append(out, m.advance(ctx, st)...)
	}

	return m.handleIntent(ctx, st, text)
}

func (m *Machine) handleIntent(ctx context.Context, st *State, text string) []models.Reply {
	if nlp.IsGreeting(text) {
		return []models.Reply{m.welcome(st)}
	}
	switch nlp.DetectIntent(text, m.catalog().Keys()) {
	case nlp.IntentMenu:
		return []models.Reply{m.menuReply(st)}
	case nlp.IntentGreeting, nlp.IntentOrderStart:
		return []models.Reply{m.welcome(st)}
	case nlp.IntentBranch:
		info := fmt.Sprintf(tr(st.Lang, "branch_info"), m.branchName, m.branchAddress, m.branchPhone)
		return []models.Reply{models.TextReply(info)}
	case nlp.IntentTiming:
		return []models.Reply{models.TextReply(m.timingReply(st))}
	case nlp.IntentDelivery:
		return []models.Reply{models.TextReply(tr(st.Lang, "delivery_info"))}
	case nlp.IntentConfirm:
		if len(st.Order) > 0 {
			// "confirm" with a non-empty cart is a checkout trigger
			return m.finalize(ctx, st)
		}
	}
	return []models.Reply{models.TextReply(tr(st.Lang, "didnt_catch"))}
}

// applyExtractions moves extractions into the cart and the two queues.
// Items without a needed flavor go to the spice queue; generic categories
// go to the generic queue; everything else is added directly.
func (m *Machine) applyExtractions(st *State, exts []nlp.Extraction) {
	c := m.catalog()
	for _, ex := range exts {
		if !ex.Specific {
			st.PushGeneric(ex.Kind, ex.Qty)
			continue
		}
		it, ok := c.Get(ex.Key)
		if !ok || it.Price <= 0 {
			// an unpriced item would corrupt the total
			m.logger.Warnw("skipping catalog item with no price", "item", ex.Key)
			continue
		}
		if catalog.NeedsSpice(it.Category) && ex.Spicy == nlp.SpiceUnknown {
			st.PushSpice(it.Key, ex.Qty)
			continue
		}
		spicy, nonspicy := 0, 0
		if catalog.NeedsSpice(it.Category) {
			if ex.Spicy == nlp.SpiceYes {
				spicy = 1
			} else {
				nonspicy = 1
			}
		}
		st.AddLine(it.Key, ex.Qty, spicy, nonspicy, it.Price, it.Category)
	}
}

// advance asks the next pending question: the spice queue drains first,
// then the generic queue (strictly one question at a time), then the
// conversation returns to add_more with a summary.
func (m *Machine) advance(ctx context.Context, st *State) []models.Reply {
	if sp, ok := st.popSpice(); ok {
		st.LastItem, st.LastQty = sp.Item, sp.Qty
		st.Stage = StageAwaitSpice
		it, _ := m.catalog().Get(sp.Item)
		q := fmt.Sprintf(tr(st.Lang, "spice_question"), sp.Qty, itemDisplay(it, st.Lang))
		return []models.Reply{models.ButtonsReply(q,
			models.Button{ID: "spice:spicy", Title: tr(st.Lang, "btn_spicy")},
			models.Button{ID: "spice:nonspicy", Title: tr(st.Lang, "btn_nonspicy")},
		)}
	}

	if g, ok := st.popGeneric(); ok {
		st.LastKind, st.LastQty = g.Kind, g.Qty
		st.Stage = stageForKind(g.Kind)
		items := m.catalog().ByCategory(nlp.CategoryOf(g.Kind))
		q := fmt.Sprintf(tr(st.Lang, "which_of"), kindLabel(st.Lang, string(g.Kind)), g.Qty)
		if btns := categoryButtons(items, st.Lang); btns != nil {
			return []models.Reply{models.ButtonsReply(q, btns...)}
		}
		return []models.Reply{models.TextReply(q + "\n" + m.numberedList(items, st.Lang))}
	}

	st.Stage = StageAddMore
	st.LastItem, st.LastQty, st.LastKind = "", 0, ""
	if len(st.Order) == 0 {
		return []models.Reply{models.TextReply(tr(st.Lang, "didnt_catch"))}
	}
	return []models.Reply{models.TextReply(m.summary(st) + "\n\n" + tr(st.Lang, "anything_else"))}
}

func stageForKind(k nlp.Kind) Stage {
	switch k {
	case nlp.KindBurger:
		return StageAwaitSpecificBurger
	case nlp.KindSandwich:
		return StageAwaitSpecificSandwich
	case nlp.KindMeal:
		return StageAwaitSpecificMeal
	case nlp.KindJuice:
		return StageAwaitSpecificJuice
	case nlp.KindDrink:
		return StageAwaitSpecificDrink
	default:
		return StageAwaitSpecificSide
	}
}

// handleSpice resolves the pending flavor question and drains the queues.
func (m *Machine) handleSpice(ctx context.Context, st *State, msg models.Message, text string) []models.Reply {
	var spicy, nonspicy int
	switch msg.ButtonID {
	case "spice:spicy":
		spicy = st.LastQty
	case "spice:nonspicy":
		nonspicy = st.LastQty
	default:
		// a bare number carries no preference, re-ask instead of guessing
		hasSpicy, hasNon := nlp.DetectSpice(text)
		if !hasSpicy && !hasNon {
			return []models.Reply{models.TextReply(tr(st.Lang, "spice_invalid"))}
		}
		spicy, nonspicy = nlp.SplitSpice(text, st.LastQty)
	}

	it, ok := m.catalog().Get(st.LastItem)
	if ok && it.Price > 0 {
		if spicy > 0 {
			st.AddLine(it.Key, spicy, 1, 0, it.Price, it.Category)
		}
		if nonspicy > 0 {
			st.AddLine(it.Key, nonspicy, 0, 1, it.Price, it.Category)
		}
	}
	st.LastItem, st.LastQty = "", 0
	return m.advance(ctx, st)
}

// handleSpecificPick resolves a which-one answer (button, list index or
// typed name) for the category held in LastKind.
func (m *Machine) handleSpecificPick(ctx context.Context, st *State, msg models.Message, text string) []models.Reply {
	items := m.catalog().ByCategory(nlp.CategoryOf(st.LastKind))

	var chosen catalog.Item
	found := false

	if key, ok := strings.CutPrefix(msg.ButtonID, "item:"); ok {
		chosen, found = m.catalog().Get(key)
	}
	if !found {
		if idx, err := strconv.Atoi(strings.TrimSpace(nlp.Normalize(text))); err == nil {
			if idx >= 1 && idx <= len(items) {
				chosen, found = items[idx-1], true
			} else {
				return []models.Reply{models.TextReply(tr(st.Lang, "pick_invalid"))}
			}
		}
	}
	if !found {
		if it, ok := nlp.FindItem(text, m.catalog()); ok && it.Category == nlp.CategoryOf(st.LastKind) {
			chosen, found = it, true
		}
	}
	if !found {
		// last resort: closest name within the category
		best := -1.0
		for _, it := range items {
			if s := nlp.Similarity(nlp.Normalize(text), nlp.Normalize(it.NameEN)); s > best && s >= 0.65 {
				best, chosen, found = s, it, true
			}
		}
	}
	if !found {
		return []models.Reply{models.TextReply(tr(st.Lang, "pick_invalid"))}
	}

	qty := st.LastQty
	if qty <= 0 {
		qty = 1
	}
	// an explicit quantity in the answer overrides the pending one
	if n, ok := nlp.QtyNearKeyword(text, chosen.NameEN); ok && n > 0 {
		qty = n
	}

	st.LastItem, st.LastQty, st.LastKind = "", 0, ""
	if catalog.NeedsSpice(chosen.Category) {
		if hasSpicy, hasNon := nlp.DetectSpice(text); hasSpicy || hasNon {
			spicy, nonspicy := nlp.SplitSpice(text, qty)
			if spicy > 0 {
				st.AddLine(chosen.Key, spicy, 1, 0, chosen.Price, chosen.Category)
			}
			if nonspicy > 0 {
				st.AddLine(chosen.Key, nonspicy, 0, 1, chosen.Price, chosen.Category)
			}
		} else {
			st.PushSpice(chosen.Key, qty)
		}
	} else {
		st.AddLine(chosen.Key, qty, 0, 0, chosen.Price, chosen.Category)
	}
	return m.advance(ctx, st)
}

func (m *Machine) welcome(st *State) models.Reply {
	if m.menuImageURL != "" {
		return models.Reply{ImageURL: m.menuImageURL, Caption: tr(st.Lang, "welcome")}
	}
	return models.TextReply(tr(st.Lang, "welcome"))
}

func (m *Machine) menuReply(st *State) models.Reply {
	if m.menuImageURL != "" {
		return models.Reply{ImageURL: m.menuImageURL, Caption: tr(st.Lang, "menu_caption")}
	}
	return models.TextReply(m.menuText(st.Lang) + "\n\n" + tr(st.Lang, "menu_caption"))
}

var weekdayKeys = [...]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

func (m *Machine) timingReply(st *State) string {
	now := m.now()
	hours, ok := m.openingHours[weekdayKeys[int(now.Weekday())]]
	if !ok {
		return fmt.Sprintf(tr(st.Lang, "open_now"), "11:00-23:59")
	}
	open := false
	if parts := strings.SplitN(hours, "-", 2); len(parts) == 2 {
		hhmm := now.Format("15:04")
		open = hhmm >= parts[0] && hhmm <= parts[1]
	}
	if open {
		return fmt.Sprintf(tr(st.Lang, "open_now"), hours)
	}
	return fmt.Sprintf(tr(st.Lang, "closed_now"), hours)
}
