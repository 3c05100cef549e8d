package feedback

import (
	"context"
	"time"

	"joana-bot/internal/models"
	"joana-bot/pkg/logger"
)

// ReminderStore lists orders whose feedback prompt became due and marks
// them sent.
type ReminderStore interface {
	DueReminders(ctx context.Context, now time.Time) ([]models.Reminder, error)
	MarkReminderSent(ctx context.Context, orderID int64) error
}

// Prompter builds the feedback message and primes the conversation state.
type Prompter interface {
	FeedbackPrompt(phone string, orderID int64) models.Reply
}

// Sender delivers a reply to a phone number.
type Sender interface {
	SendReply(ctx context.Context, to string, reply models.Reply) error
}

// Worker polls for due feedback reminders and sends the prompt. One prompt
// per order; MarkReminderSent runs before the send so a delivery failure
// never turns into repeated prompts.
type Worker struct {
	store    ReminderStore
	prompter Prompter
	sender   Sender
	logger   *logger.Logger
	interval time.Duration
}

func NewWorker(store ReminderStore, prompter Prompter, sender Sender, log *logger.Logger, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Worker{store: store, prompter: prompter, sender: sender, logger: log, interval: interval}
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Worker) tick(ctx context.Context) {
	due, err := w.store.DueReminders(ctx, time.Now())
	if err != nil {
		w.logger.Errorw("failed to list due feedback reminders", "error", err)
		return
	}
	for _, r := range due {
		if err := w.store.MarkReminderSent(ctx, r.OrderID); err != nil {
			w.logger.Errorw("failed to mark reminder sent", "order_id", r.OrderID, "error", err)
			continue
		}
		reply := w.prompter.FeedbackPrompt(r.Phone, r.OrderID)
		if err := w.sender.SendReply(ctx, r.Phone, reply); err != nil {
			w.logger.Errorw("failed to send feedback prompt", "order_id", r.OrderID, "phone", r.Phone, "error", err)
		}
	}
}
