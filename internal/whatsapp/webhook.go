package whatsapp

import (
	"encoding/json"
	"fmt"

	"joana-bot/internal/models"
)

// Webhook payload shapes for the Cloud API message delivery callback.
// Only the fields the bot consumes are declared.
type webhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []webhookMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type webhookMessage struct {
	From string `json:"from"`
	ID   string `json:"id"`
	Type string `json:"type"`
	Text *struct {
		Body string `json:"body"`
	} `json:"text"`
	Audio *struct {
		ID string `json:"id"`
	} `json:"audio"`
	Voice *struct {
		ID string `json:"id"`
	} `json:"voice"`
	Interactive *struct {
		Type        string `json:"type"`
		ButtonReply *struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"button_reply"`
	} `json:"interactive"`
	Button *struct {
		Payload string `json:"payload"`
		Text    string `json:"text"`
	} `json:"button"`
}

// ParseWebhook normalizes a webhook POST body into messages. Statuses and
// unsupported message types are dropped.
func ParseWebhook(body []byte) ([]models.Message, error) {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse webhook payload: %w", err)
	}

	var out []models.Message
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, wm := range change.Value.Messages {
				msg := models.Message{From: wm.From, MessageID: wm.ID}
				switch {
				case wm.Type == "text" && wm.Text != nil:
					msg.Type = "text"
					msg.Body = wm.Text.Body
				case wm.Audio != nil:
					msg.Type = "audio"
					msg.MediaID = wm.Audio.ID
				case wm.Voice != nil:
					msg.Type = "audio"
					msg.MediaID = wm.Voice.ID
				case wm.Interactive != nil && wm.Interactive.ButtonReply != nil:
					msg.Type = "interactive"
					msg.ButtonID = wm.Interactive.ButtonReply.ID
					msg.ButtonTitle = wm.Interactive.ButtonReply.Title
				case wm.Button != nil:
					msg.Type = "interactive"
					msg.ButtonID = wm.Button.Payload
					msg.ButtonTitle = wm.Button.Text
				default:
					continue
				}
				out = append(out, msg)
			}
		}
	}
	return out, nil
}
