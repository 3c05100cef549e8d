package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"joana-bot/internal/catalog"
	"joana-bot/internal/models"
	"joana-bot/internal/nlp"
	"joana-bot/internal/payment"
	"joana-bot/pkg/logger"
)

func testCatalog() *catalog.Catalog {
	return catalog.New([]catalog.Item{
		{Key: "beef burger", NameEN: "Beef Burger", NameAR: "برجر لحم", Price: 25, Category: catalog.CategoryBurgers},
		{Key: "chicken burger", NameEN: "Chicken Burger", NameAR: "برجر دجاج", Price: 22, Category: catalog.CategoryBurgers},
		{Key: "zinger burger", NameEN: "Zinger Burger", NameAR: "زنجر برجر", Price: 20, Category: catalog.CategoryBurgers},
		{Key: "tortilla zinger", NameEN: "Tortilla Zinger", NameAR: "تورتيلا زنجر", Price: 18, Category: catalog.CategorySandwiches},
		{Key: "orange juice", NameEN: "Orange Juice", NameAR: "عصير برتقال", Price: 10, Category: catalog.CategoryJuices},
		{Key: "coffee", NameEN: "Coffee", NameAR: "قهوه", Price: 8, Category: catalog.CategoryDrinks},
		{Key: "fries", NameEN: "Fries", NameAR: "بطاطس", Price: 9, Category: catalog.CategorySides},
	})
}

type paymentUpdate struct {
	orderID int64
	method  string
	status  string
}

type fakeOrders struct {
	nextID     int64
	created    int
	cancelled  []int64
	payments   []paymentUpdate
	feedback   []models.Feedback
	failCreate bool
}

func (f *fakeOrders) CreateOrder(_ context.Context, phone string, lines []models.OrderLine, total float64) (int64, error) {
	if f.failCreate {
		return 0, errors.New("db down")
	}
	f.created++
	f.nextID++
	return f.nextID, nil
}

func (f *fakeOrders) UpdatePayment(_ context.Context, orderID int64, method, status string, _ time.Time) error {
	f.payments = append(f.payments, paymentUpdate{orderID, method, status})
	return nil
}

func (f *fakeOrders) MarkCancelled(_ context.Context, orderID int64) error {
	f.cancelled = append(f.cancelled, orderID)
	return nil
}

func (f *fakeOrders) SaveFeedback(_ context.Context, fb *models.Feedback) error {
	f.feedback = append(f.feedback, *fb)
	return nil
}

type fakeExtractor struct {
	exts    []nlp.Extraction
	unknown []string
	err     error
	calls   int
}

func (f *fakeExtractor) ExtractItems(_ context.Context, _ string, _ *catalog.Catalog) ([]nlp.Extraction, []string, error) {
	f.calls++
	return f.exts, f.unknown, f.err
}

func testLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func newTestMachine(orders *fakeOrders, ex Extractor) *Machine {
	var extractor Extractor
	if ex != nil {
		extractor = ex
	}
	return NewMachine(Deps{
		Catalog:   catalog.NewStaticStore(testCatalog()),
		Sessions:  NewMemorySessions(),
		Orders:    orders,
		Payments:  payment.StaticLink{Base: "https://pay.example/"},
		Extractor: extractor,
		Logger:    testLogger(),
	}, Settings{
		Currency:      "SAR",
		VATPercent:    15,
		FeedbackDelay: time.Minute,
		OpeningHours:  map[string]string{"mon": "11:00-23:59"},
	})
}

func text(phone, body string) models.Message {
	return models.Message{From: phone, Type: "text", Body: body}
}

func button(phone, id string) models.Message {
	return models.Message{From: phone, Type: "interactive", ButtonID: id}
}

func state(m *Machine, phone string) *State {
	st, _ := m.sessions.Get(phone)
	return st
}

func TestGreetingGetsWelcome(t *testing.T) {
	m := newTestMachine(&fakeOrders{}, nil)

	replies := m.Handle(context.Background(), text("555", "hello"))
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "Welcome")
}

func TestFullOrderCashFlow(t *testing.T) {
	orders := &fakeOrders{}
	m := newTestMachine(orders, nil)
	ctx := context.Background()

	// generic burger goes to the queue, coffee is added directly
	replies := m.Handle(ctx, text("555", "2 burgers and 3 coffee"))
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "burger")
	assert.Len(t, replies[0].Buttons, 3) // three burgers in the catalog

	st := state(m, "555")
	require.NotNil(t, st)
	assert.Equal(t, StageAwaitSpecificBurger, st.Stage)
	require.Len(t, st.Order, 1)
	assert.Equal(t, "coffee", st.Order[0].Item)
	assert.Equal(t, 3, st.Order[0].Qty)

	// picking the burger triggers the flavor question
	replies = m.Handle(ctx, text("555", "zinger burger"))
	require.Len(t, replies, 1)
	assert.Equal(t, StageAwaitSpice, st.Stage)
	require.Len(t, replies[0].Buttons, 2)
	assert.Equal(t, "spice:spicy", replies[0].Buttons[0].ID)

	replies = m.Handle(ctx, text("555", "spicy"))
	require.Len(t, replies, 1)
	assert.Equal(t, StageAddMore, st.Stage)
	require.Len(t, st.Order, 2)
	assert.Equal(t, "zinger burger", st.Order[1].Item)
	assert.Equal(t, 2, st.Order[1].Qty)
	assert.Positive(t, st.Order[1].Spicy)
	assert.InDelta(t, 3*8+2*20, st.Total, 0.001)

	// checkout
	replies = m.Handle(ctx, text("555", "finish"))
	require.Len(t, replies, 2)
	assert.Equal(t, StageChoosePayment, st.Stage)
	assert.Equal(t, int64(1), st.OrderID)
	assert.Equal(t, 1, orders.created)
	require.Len(t, replies[1].Buttons, 2)

	// cash closes the loop
	replies = m.Handle(ctx, button("555", "pay:cash"))
	require.Len(t, replies, 1)
	assert.Equal(t, StageAwaitFeedback, st.Stage)
	require.Len(t, orders.payments, 1)
	assert.Equal(t, models.PaymentCash, orders.payments[0].method)
	assert.Equal(t, models.OrderStatusUnpaid, orders.payments[0].status)
}

func TestOnlinePaymentAndFeedback(t *testing.T) {
	orders := &fakeOrders{}
	m := newTestMachine(orders, nil)
	ctx := context.Background()

	m.Handle(ctx, text("777", "3 coffee"))
	m.Handle(ctx, text("777", "finish"))
	st := state(m, "777")
	require.Equal(t, StageChoosePayment, st.Stage)

	replies := m.Handle(ctx, button("777", "pay:online"))
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "https://pay.example/1")
	assert.Equal(t, StagePayment, st.Stage)

	replies = m.Handle(ctx, text("777", "paid"))
	require.Len(t, replies, 1)
	assert.Equal(t, StageAwaitFeedback, st.Stage)
	require.Len(t, orders.payments, 1)
	assert.Equal(t, models.PaymentOnline, orders.payments[0].method)
	assert.Equal(t, models.OrderStatusPaid, orders.payments[0].status)

	replies = m.Handle(ctx, button("777", "fb:good"))
	require.Len(t, replies, 1)
	assert.Equal(t, StageAwaitFeedbackComment, st.Stage)
	require.Len(t, orders.feedback, 1)
	assert.Equal(t, "good", orders.feedback[0].Rating)

	replies = m.Handle(ctx, text("777", "great food"))
	require.Len(t, replies, 1)
	require.Len(t, orders.feedback, 2)
	assert.Equal(t, "great food", orders.feedback[1].Comment)
	assert.Equal(t, StageIdle, st.Stage)
	assert.Empty(t, st.Order)
}

func TestGenericQueueIsFIFO(t *testing.T) {
	m := newTestMachine(&fakeOrders{}, nil)
	ctx := context.Background()

	replies := m.Handle(ctx, text("555", "burger and juice"))
	require.Len(t, replies, 1)
	st := state(m, "555")
	assert.Equal(t, StageAwaitSpecificBurger, st.Stage)
	require.Len(t, st.GenericQueue, 1) // juice still queued

	m.Handle(ctx, text("555", "beef burger"))
	assert.Equal(t, StageAwaitSpice, st.Stage)
	m.Handle(ctx, text("555", "non spicy"))

	// only after the burger resolves does the juice question come up
	assert.Equal(t, StageAwaitSpecificJuice, st.Stage)
	m.Handle(ctx, text("555", "orange juice"))

	assert.Equal(t, StageAddMore, st.Stage)
	require.Len(t, st.Order, 2)
	assert.Equal(t, "beef burger", st.Order[0].Item)
	assert.Equal(t, "orange juice", st.Order[1].Item)
}

func TestSpiceSplitAcrossQuantity(t *testing.T) {
	m := newTestMachine(&fakeOrders{}, nil)
	ctx := context.Background()

	m.Handle(ctx, text("555", "5 beef burger"))
	st := state(m, "555")
	require.Equal(t, StageAwaitSpice, st.Stage)

	m.Handle(ctx, text("555", "3 spicy 2 non spicy"))
	require.Len(t, st.Order, 2)
	assert.Equal(t, 3, st.Order[0].Qty)
	assert.Positive(t, st.Order[0].Spicy)
	assert.Equal(t, 2, st.Order[1].Qty)
	assert.Positive(t, st.Order[1].NonSpicy)
}

func TestBareNumberSpiceAnswerReasks(t *testing.T) {
	m := newTestMachine(&fakeOrders{}, nil)
	ctx := context.Background()

	m.Handle(ctx, text("555", "5 beef burger"))
	st := state(m, "555")
	require.Equal(t, StageAwaitSpice, st.Stage)

	// a number alone says nothing about the preference
	replies := m.Handle(ctx, text("555", "2"))
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "spicy")
	assert.Equal(t, StageAwaitSpice, st.Stage)
	assert.Empty(t, st.Order)
	assert.Equal(t, 5, st.LastQty)

	m.Handle(ctx, text("555", "2 spicy"))
	require.Len(t, st.Order, 2)
	assert.Equal(t, 2, st.Order[0].Qty)
	assert.Positive(t, st.Order[0].Spicy)
	assert.Equal(t, 3, st.Order[1].Qty)
	assert.Positive(t, st.Order[1].NonSpicy)
}

func TestSpiceAnswerClampsToPendingQuantity(t *testing.T) {
	m := newTestMachine(&fakeOrders{}, nil)
	ctx := context.Background()

	m.Handle(ctx, text("555", "3 beef burger"))
	st := state(m, "555")
	require.Equal(t, StageAwaitSpice, st.Stage)

	// claiming more than was ordered never inflates the cart
	m.Handle(ctx, text("555", "5 spicy"))
	require.Len(t, st.Order, 1)
	assert.Equal(t, 3, st.Order[0].Qty)
	assert.Positive(t, st.Order[0].Spicy)
	assert.InDelta(t, 75, st.Total, 0.001)
}

func TestCancelOneUnitSplitsLine(t *testing.T) {
	m := newTestMachine(&fakeOrders{}, nil)
	ctx := context.Background()

	m.Handle(ctx, text("555", "2 spicy beef burger"))
	st := state(m, "555")
	require.Len(t, st.Order, 1)
	require.Equal(t, 2, st.Order[0].Qty)

	replies := m.Handle(ctx, text("555", "cancel 1 beef burger"))
	require.NotEmpty(t, replies)
	require.Len(t, st.Order, 1)
	assert.Equal(t, 1, st.Order[0].Qty)
	assert.InDelta(t, 25, st.Order[0].Subtotal, 0.001)
	assert.InDelta(t, 25, st.Total, 0.001)
}

func TestCancelEntireOrder(t *testing.T) {
	orders := &fakeOrders{}
	m := newTestMachine(orders, nil)
	ctx := context.Background()

	m.Handle(ctx, text("555", "2 coffee"))
	st := state(m, "555")
	require.Len(t, st.Order, 1)

	replies := m.Handle(ctx, text("555", "cancel my entire order"))
	require.Len(t, replies, 1)
	assert.Empty(t, st.Order)
	assert.Equal(t, StageIdle, st.Stage)
	assert.Empty(t, orders.cancelled) // nothing persisted yet
}

func TestCancelAfterCheckoutMarksBackend(t *testing.T) {
	orders := &fakeOrders{}
	m := newTestMachine(orders, nil)
	ctx := context.Background()

	m.Handle(ctx, text("555", "2 coffee"))
	m.Handle(ctx, text("555", "finish"))
	st := state(m, "555")
	require.Equal(t, int64(1), st.OrderID)

	m.Handle(ctx, text("555", "cancel my entire order"))
	assert.Equal(t, []int64{1}, orders.cancelled)
	assert.Empty(t, st.Order)
}

func TestCancelUnknownItemLeavesOrderAlone(t *testing.T) {
	m := newTestMachine(&fakeOrders{}, nil)
	ctx := context.Background()

	m.Handle(ctx, text("555", "2 coffee"))
	st := state(m, "555")

	replies := m.Handle(ctx, text("555", "cancel the fries"))
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "couldn't find")
	require.Len(t, st.Order, 1)
	assert.Equal(t, 2, st.Order[0].Qty)
}

func TestCancelWithEmptyCart(t *testing.T) {
	m := newTestMachine(&fakeOrders{}, nil)

	replies := m.Handle(context.Background(), text("555", "cancel"))
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "empty")
}

func TestBareCancelOffersChoices(t *testing.T) {
	m := newTestMachine(&fakeOrders{}, nil)
	ctx := context.Background()

	m.Handle(ctx, text("555", "2 coffee"))
	replies := m.Handle(ctx, text("555", "cancel"))
	require.Len(t, replies, 1)
	require.Len(t, replies[0].Buttons, 3)

	st := state(m, "555")
	assert.Equal(t, StageCancelChoice, st.Stage)

	// keeping the order restores add_more
	m.Handle(ctx, button("555", "cancel:keep"))
	assert.Equal(t, StageAddMore, st.Stage)
	assert.Len(t, st.Order, 1)
}

func TestCancelChoiceItemNameContainingNo(t *testing.T) {
	m := newTestMachine(&fakeOrders{}, nil)
	ctx := context.Background()

	m.Handle(ctx, text("555", "2 non spicy tortilla zinger"))
	st := state(m, "555")
	require.Len(t, st.Order, 1)

	m.Handle(ctx, text("555", "cancel"))
	require.Equal(t, StageCancelChoice, st.Stage)

	// "non" must resolve as an item answer, not as a "no, keep it"
	replies := m.Handle(ctx, text("555", "non spicy tortilla zinger"))
	require.Len(t, replies, 1)
	require.Len(t, st.Order, 1)
	assert.Equal(t, 1, st.Order[0].Qty)

	// a real "no" still keeps the order
	m.Handle(ctx, text("555", "cancel"))
	m.Handle(ctx, text("555", "no thanks"))
	assert.Equal(t, StageAddMore, st.Stage)
	require.Len(t, st.Order, 1)
	assert.Equal(t, 1, st.Order[0].Qty)
}

func TestCancelItemSelectByIndex(t *testing.T) {
	m := newTestMachine(&fakeOrders{}, nil)
	ctx := context.Background()

	m.Handle(ctx, text("555", "2 coffee and fries"))
	st := state(m, "555")
	require.Len(t, st.Order, 2)

	m.Handle(ctx, text("555", "cancel"))
	m.Handle(ctx, button("555", "cancel:item"))
	require.Equal(t, StageCancelItemSelect, st.Stage)

	m.Handle(ctx, text("555", "2"))
	require.Len(t, st.Order, 1)
	assert.Equal(t, "coffee", st.Order[0].Item)
}

func TestCheckoutGuardRejectsNewItems(t *testing.T) {
	m := newTestMachine(&fakeOrders{}, nil)
	ctx := context.Background()

	m.Handle(ctx, text("555", "2 coffee"))
	m.Handle(ctx, text("555", "finish"))
	st := state(m, "555")
	require.Equal(t, StageChoosePayment, st.Stage)

	replies := m.Handle(ctx, text("555", "2 burgers"))
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "Checkout")
	assert.Equal(t, StageChoosePayment, st.Stage)
	assert.Len(t, st.Order, 1)
}

func TestPriceQueryIsReadOnly(t *testing.T) {
	m := newTestMachine(&fakeOrders{}, nil)
	ctx := context.Background()

	m.Handle(ctx, text("555", "2 coffee"))
	st := state(m, "555")
	before := st.Stage

	replies := m.Handle(ctx, text("555", "how much is my order"))
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "16.00")
	assert.Equal(t, before, st.Stage)
	assert.Len(t, st.Order, 1)
}

func TestAbuseGate(t *testing.T) {
	m := newTestMachine(&fakeOrders{}, nil)

	replies := m.Handle(context.Background(), text("555", "you are stupid"))
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "friendly")
	st := state(m, "555")
	assert.Empty(t, st.Order)
}

func TestLLMFallbackReportsUnknownItems(t *testing.T) {
	ex := &fakeExtractor{
		exts:    []nlp.Extraction{{Specific: true, Key: "coffee", Qty: 2, Spicy: nlp.SpiceNo}},
		unknown: []string{"pizza"},
	}
	m := newTestMachine(&fakeOrders{}, ex)
	ctx := context.Background()

	// neither "pizza" nor "pasta" resolve, so the LLM gets a shot
	replies := m.Handle(ctx, text("555", "2 pizza and 3 pasta"))
	assert.Equal(t, 1, ex.calls)
	require.Len(t, replies, 2)
	assert.Contains(t, replies[0].Text, "pizza")

	st := state(m, "555")
	require.Len(t, st.Order, 1)
	assert.Equal(t, "coffee", st.Order[0].Item)
	assert.Equal(t, 2, st.Order[0].Qty)
}

func TestLLMErrorFallsBackToUnknownReply(t *testing.T) {
	ex := &fakeExtractor{err: errors.New("rate limited")}
	m := newTestMachine(&fakeOrders{}, ex)

	replies := m.Handle(context.Background(), text("555", "2 pizza and 3 pasta"))
	assert.Equal(t, 1, ex.calls)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "didn't catch")
}

func TestCreateOrderFailureKeepsState(t *testing.T) {
	orders := &fakeOrders{failCreate: true}
	m := newTestMachine(orders, nil)
	ctx := context.Background()

	m.Handle(ctx, text("555", "2 coffee"))
	replies := m.Handle(ctx, text("555", "finish"))
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "went wrong")

	st := state(m, "555")
	assert.Equal(t, StageAddMore, st.Stage)
	assert.Len(t, st.Order, 1) // the cart survives for a retry
}

func TestNewOrderTriggerResets(t *testing.T) {
	m := newTestMachine(&fakeOrders{}, nil)
	ctx := context.Background()

	m.Handle(ctx, text("555", "2 coffee"))
	replies := m.Handle(ctx, text("555", "new order"))
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "Welcome")

	st := state(m, "555")
	assert.Empty(t, st.Order)
	assert.Equal(t, StageIdle, st.Stage)
}

func TestArabicOrderSetsLanguage(t *testing.T) {
	m := newTestMachine(&fakeOrders{}, nil)

	replies := m.Handle(context.Background(), text("555", "ابغى 2 برجر لحم"))
	require.Len(t, replies, 1)
	st := state(m, "555")
	assert.Equal(t, "ar", st.Lang)
	assert.Equal(t, StageAwaitSpice, st.Stage)
}

func TestFeedbackPromptPrimesSession(t *testing.T) {
	m := newTestMachine(&fakeOrders{}, nil)

	reply := m.FeedbackPrompt("999", 42)
	require.Len(t, reply.Buttons, 3)
	assert.Equal(t, "fb:excellent", reply.Buttons[0].ID)

	st := state(m, "999")
	require.NotNil(t, st)
	assert.Equal(t, StageAwaitFeedback, st.Stage)
	assert.Equal(t, int64(42), st.OrderID)
}
