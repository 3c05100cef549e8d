package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"joana-bot/internal/catalog"
	"joana-bot/internal/nlp"
)

type Client struct {
	client          *openai.Client
	model           string
	transcribeModel string
}

func NewClient(apiKey string) *Client {
	return &Client{
		client:          openai.NewClient(apiKey),
		model:           "gpt-4o-mini",
		transcribeModel: openai.Whisper1,
	}
}

func (c *Client) WithModel(model string) *Client {
	if model != "" {
		c.model = model
	}
	return c
}

func (c *Client) WithTranscribeModel(model string) *Client {
	if model != "" {
		c.transcribeModel = model
	}
	return c
}

// extractedItem mirrors the JSON shape the model is asked to produce.
type extractedItem struct {
	Type     string `json:"type"` // specific | generic
	Name     string `json:"name,omitempty"`
	Category string `json:"category,omitempty"`
	Qty      int    `json:"qty"`
	Spicy    *bool  `json:"spicy,omitempty"`
}

// ExtractItems asks the model to pull item/quantity pairs out of a complex
// multi-item sentence. Names are validated against the catalog: unknown
// names are returned separately and never become extractions. A non-JSON
// or empty response is an error; the caller falls back to regex extraction.
func (c *Client) ExtractItems(ctx context.Context, text string, cat *catalog.Catalog) ([]nlp.Extraction, []string, error) {
	var menu strings.Builder
	for _, it := range cat.Items() {
		fmt.Fprintf(&menu, "- %s (category: %s)\n", it.NameEN, it.Category)
	}

	system := "You extract food order items from customer messages for a fast-food restaurant. " +
		"Reply with a JSON array only, no prose. Each element: " +
		`{"type":"specific"|"generic","name":"<menu item>","category":"<burger|sandwich|meals|juices|drinks|snacks_sides>","qty":<int>,"spicy":<bool, only when stated>}. ` +
		"Use type specific with an exact menu name when the customer names an item; use type generic with a category when they only name a category. Menu:\n" + menu.String()

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		MaxTokens:   500,
		Temperature: 0,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, nil, fmt.Errorf("no response from extraction model")
	}

	items, err := parseExtraction(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, nil, err
	}
	return validate(items, cat)
}

func parseExtraction(content string) ([]extractedItem, error) {
	content = strings.TrimSpace(content)
	// models occasionally wrap JSON in a code fence
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var items []extractedItem
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &items); err != nil {
		return nil, fmt.Errorf("extraction response is not a JSON array: %w", err)
	}
	return items, nil
}

func validate(items []extractedItem, cat *catalog.Catalog) ([]nlp.Extraction, []string, error) {
	var out []nlp.Extraction
	var unknown []string
	for _, it := range items {
		qty := it.Qty
		if qty <= 0 {
			qty = 1
		}
		switch it.Type {
		case "specific":
			ci, ok := cat.Get(it.Name)
			if !ok {
				// try a display-name match before rejecting
				if found, fok := nlp.FindItem(it.Name, cat); fok {
					ci, ok = found, true
				}
			}
			if !ok {
				unknown = append(unknown, it.Name)
				continue
			}
			ex := nlp.Extraction{Specific: true, Key: ci.Key, Qty: qty, Spicy: nlp.SpiceUnknown}
			if !catalog.NeedsSpice(ci.Category) {
				ex.Spicy = nlp.SpiceNo
			} else if it.Spicy != nil {
				if *it.Spicy {
					ex.Spicy = nlp.SpiceYes
				} else {
					ex.Spicy = nlp.SpiceNo
				}
			}
			out = append(out, ex)
		case "generic":
			if kind, ok := nlp.DetectKind(it.Category); ok {
				out = append(out, nlp.Extraction{Kind: kind, Qty: qty, Spicy: nlp.SpiceUnknown})
			} else {
				unknown = append(unknown, it.Category)
			}
		}
	}
	return out, unknown, nil
}

// Transcribe converts a voice note to text. An empty transcript is returned
// as "" with no error; the conversation asks the customer to type instead.
func (c *Client) Transcribe(ctx context.Context, filename string, audio []byte) (string, error) {
	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.transcribeModel,
		FilePath: filename,
		Reader:   bytes.NewReader(audio),
	})
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}
