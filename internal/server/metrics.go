package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "joana_messages_received_total",
		Help: "Inbound WhatsApp messages by type.",
	}, []string{"type"})

	repliesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "joana_replies_sent_total",
		Help: "Replies sent back to users.",
	})

	webhookErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "joana_webhook_errors_total",
		Help: "Webhook payloads that failed to parse.",
	})

	transcriptionErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "joana_transcription_errors_total",
		Help: "Voice notes that could not be transcribed.",
	})
)
