package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"joana-bot/internal/catalog"
	"joana-bot/internal/conversation"
	"joana-bot/internal/models"
	"joana-bot/internal/whatsapp"
	"joana-bot/pkg/logger"
)

// Handler runs the conversation for one inbound message.
type Handler interface {
	Handle(ctx context.Context, msg models.Message) []models.Reply
}

// Messenger is the outbound WhatsApp surface the webhook needs.
type Messenger interface {
	SendReply(ctx context.Context, to string, reply models.Reply) error
	MediaURL(ctx context.Context, mediaID string) (string, error)
	DownloadMedia(ctx context.Context, url string) ([]byte, error)
}

// Transcriber turns a voice note into text. May be nil.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio []byte) (string, error)
}

type Server struct {
	engine      *gin.Engine
	http        *http.Server
	machine     Handler
	messenger   Messenger
	transcriber Transcriber
	catalogs    *catalog.Store
	logger      *logger.Logger
	verifyToken string

	mu   sync.Mutex
	seen map[string]time.Time
}

func New(port string, machine Handler, messenger Messenger, transcriber Transcriber, catalogs *catalog.Store, verifyToken string, log *logger.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:      engine,
		machine:     machine,
		messenger:   messenger,
		transcriber: transcriber,
		catalogs:    catalogs,
		logger:      log,
		verifyToken: verifyToken,
		seen:        make(map[string]time.Time),
	}
	s.http = &http.Server{
		Addr:    ":" + port,
		Handler: engine,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.engine.GET("/webhook", s.verifyWebhook)
	s.engine.POST("/webhook", s.receiveWebhook)
	s.engine.POST("/api/chat", s.chat)
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.engine
}

// Start blocks serving HTTP until Stop is called.
func (s *Server) Start() error {
	s.logger.Infow("http server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Stop drains in-flight requests.
func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// verifyWebhook answers Meta's subscription handshake.
func (s *Server) verifyWebhook(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token == s.verifyToken {
		c.String(http.StatusOK, challenge)
		return
	}
	c.String(http.StatusForbidden, "verification failed")
}

func (s *Server) receiveWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		webhookErrors.Inc()
		c.Status(http.StatusBadRequest)
		return
	}

	msgs, err := whatsapp.ParseWebhook(body)
	if err != nil {
		webhookErrors.Inc()
		s.logger.Errorw("failed to parse webhook payload", "error", err)
		// Meta retries on non-200; a malformed payload will not improve
		c.Status(http.StatusOK)
		return
	}

	ctx := c.Request.Context()
	for _, msg := range msgs {
		if msg.MessageID != "" && s.alreadySeen(msg.MessageID) {
			continue
		}
		messagesReceived.WithLabelValues(msg.Type).Inc()
		s.process(ctx, msg)
	}
	c.Status(http.StatusOK)
}

// process runs one message through the machine and ships the replies. The
// menu file is re-read first so price edits show up without a restart.
func (s *Server) process(ctx context.Context, msg models.Message) {
	if err := s.catalogs.Reload(); err != nil {
		s.logger.Warnw("menu reload failed, serving previous catalog", "error", err)
	}

	if msg.Type == "audio" && msg.Body == "" {
		text, err := s.transcribeVoice(ctx, msg.MediaID)
		if err != nil {
			transcriptionErrors.Inc()
			s.logger.Errorw("voice transcription failed", "from", msg.From, "error", err)
			s.send(ctx, msg.From, models.TextReply(conversation.VoiceFallback("en")))
			return
		}
		msg.Body = text
	}

	for _, reply := range s.machine.Handle(ctx, msg) {
		s.send(ctx, msg.From, reply)
	}
}

func (s *Server) transcribeVoice(ctx context.Context, mediaID string) (string, error) {
	if s.transcriber == nil {
		return "", fmt.Errorf("no transcriber configured")
	}
	url, err := s.messenger.MediaURL(ctx, mediaID)
	if err != nil {
		return "", err
	}
	audio, err := s.messenger.DownloadMedia(ctx, url)
	if err != nil {
		return "", err
	}
	return s.transcriber.Transcribe(ctx, mediaID+".ogg", audio)
}

func (s *Server) send(ctx context.Context, to string, reply models.Reply) {
	if err := s.messenger.SendReply(ctx, to, reply); err != nil {
		s.logger.Errorw("failed to send reply", "to", to, "error", err)
		return
	}
	repliesSent.Inc()
}

// seenTTL bounds the webhook dedupe window. Meta redelivers within minutes.
const seenTTL = 10 * time.Minute

func (s *Server) alreadySeen(messageID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, at := range s.seen {
		if now.Sub(at) > seenTTL {
			delete(s.seen, id)
		}
	}
	if _, ok := s.seen[messageID]; ok {
		return true
	}
	s.seen[messageID] = now
	return false
}

type chatRequest struct {
	From     string `json:"from" binding:"required"`
	Text     string `json:"text"`
	ButtonID string `json:"button_id"`
}

type chatResponse struct {
	Replies []models.Reply `json:"replies"`
}

// chat is a direct JSON endpoint for testing the conversation without
// WhatsApp in the loop.
func (s *Server) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.catalogs.Reload(); err != nil {
		s.logger.Warnw("menu reload failed, serving previous catalog", "error", err)
	}

	msg := models.Message{From: req.From, Type: "text", Body: req.Text, ButtonID: req.ButtonID}
	replies := s.machine.Handle(c.Request.Context(), msg)
	c.JSON(http.StatusOK, chatResponse{Replies: replies})
}
