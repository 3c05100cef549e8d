package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"joana-bot/config"
	"joana-bot/internal/catalog"
	"joana-bot/internal/conversation"
	"joana-bot/internal/feedback"
	"joana-bot/internal/llm"
	"joana-bot/internal/payment"
	"joana-bot/internal/server"
	"joana-bot/internal/store"
	"joana-bot/internal/whatsapp"
	"joana-bot/pkg/logger"
)

func main() {
	l := logger.New()
	l.Info("Starting Joana Fast Food bot...")

	cfg, err := config.Load()
	if err != nil {
		l.Fatal("Failed to load config", err)
	}

	if cfg.WhatsApp.Token == "" || cfg.WhatsApp.PhoneNumberID == "" {
		l.Fatal("WhatsApp credentials are not configured")
	}
	if cfg.Menu.Path == "" {
		l.Fatal("Menu file path is not configured")
	}

	// Database connection with retry
	var database *store.Postgres
	maxRetries := 5
	for i := 0; i < maxRetries; i++ {
		database, err = store.NewPostgres(cfg.DB)
		if err == nil {
			break
		}
		l.Error("Failed to connect to database, retrying...", err)
		time.Sleep(time.Duration(i+1) * time.Second)
	}
	if database == nil {
		l.Fatal("Failed to connect to database after multiple attempts", err)
	}
	defer database.Close()

	catalogs, err := catalog.NewStore(cfg.Menu.Path)
	if err != nil {
		l.Fatal("Failed to load menu", err)
	}

	var payments payment.Provider
	if cfg.Stripe.SecretKey != "" {
		payments = payment.NewStripeClient(cfg.Stripe.SecretKey, cfg.Stripe.SuccessURL, cfg.Stripe.CancelURL)
	} else {
		l.Info("Stripe not configured, using static payment links")
		payments = payment.StaticLink{Base: cfg.Payment.LinkBase}
	}

	var extractor *llm.Client
	if cfg.OpenAI.APIKey != "" {
		extractor = llm.NewClient(cfg.OpenAI.APIKey).
			WithModel(cfg.OpenAI.Model).
			WithTranscribeModel(cfg.OpenAI.TranscribeModel)
	} else {
		l.Info("OpenAI not configured, running rule-based extraction only")
	}

	machine := conversation.NewMachine(conversation.Deps{
		Catalog:   catalogs,
		Sessions:  conversation.NewMemorySessions(),
		Orders:    database,
		Payments:  payments,
		Extractor: extractorOrNil(extractor),
		Logger:    l.Named("conversation"),
	}, conversation.Settings{
		Currency:      cfg.Business.Currency,
		VATPercent:    cfg.Business.VATPercent,
		FeedbackDelay: cfg.Feedback.Delay,
		MenuImageURL:  cfg.Menu.ImageURL,
		BranchName:    cfg.Business.BranchName,
		BranchPhone:   cfg.Business.BranchPhone,
		BranchAddress: cfg.Business.BranchAddress,
		OpeningHours:  cfg.Business.OpeningHours,
	})

	wa := whatsapp.NewClient(cfg.WhatsApp.Token, cfg.WhatsApp.PhoneNumberID, cfg.WhatsApp.APIVersion, l.Named("whatsapp"))

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	worker := feedback.NewWorker(database, machine, wa, l.Named("feedback"), cfg.Feedback.PollInterval)
	go worker.Run(workerCtx)

	httpServer := server.New(cfg.Server.Port, machine, wa, transcriberOrNil(extractor), catalogs, cfg.WhatsApp.VerifyToken, l.Named("http"))
	go func() {
		l.Info("Starting HTTP server...")
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("Failed to start HTTP server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info("Shutting down bot...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	stopWorker()
	if err := httpServer.Stop(ctx); err != nil {
		l.Error("Error during HTTP server shutdown", err)
	}

	l.Info("Bot stopped successfully")
}

// extractorOrNil keeps a nil *llm.Client from becoming a non-nil interface.
func extractorOrNil(c *llm.Client) conversation.Extractor {
	if c == nil {
		return nil
	}
	return c
}

func transcriberOrNil(c *llm.Client) server.Transcriber {
	if c == nil {
		return nil
	}
	return c
}
