package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"joana-bot/internal/models"
	"joana-bot/pkg/logger"
)

const graphAPIBase = "https://graph.facebook.com"

// maxButtonTitle is the Cloud API limit for quick-reply button titles.
const maxButtonTitle = 20

// Client talks to the WhatsApp Cloud API. There is no official Go SDK;
// the endpoints are small enough for a plain HTTP client.
type Client struct {
	http       *http.Client
	token      string
	phoneID    string
	apiVersion string
	baseURL    string
	logger     *logger.Logger
}

func NewClient(token, phoneNumberID, apiVersion string, log *logger.Logger) *Client {
	return &Client{
		http:       &http.Client{Timeout: 20 * time.Second},
		token:      token,
		phoneID:    phoneNumberID,
		apiVersion: apiVersion,
		baseURL:    graphAPIBase,
		logger:     log,
	}
}

// WithBaseURL overrides the Graph API host, used by tests.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

func (c *Client) SendText(ctx context.Context, to, body string) error {
	return c.postMessage(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text":              map[string]any{"body": body},
	})
}

func (c *Client) SendImage(ctx context.Context, to, url, caption string) error {
	return c.postMessage(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "image",
		"image":             map[string]any{"link": url, "caption": caption},
	})
}

// SendButtons sends up to 3 quick-reply buttons. Extra buttons are dropped
// and titles are truncated to the API's 20-character limit.
func (c *Client) SendButtons(ctx context.Context, to, body string, buttons []models.Button) error {
	if len(buttons) == 0 {
		return c.SendText(ctx, to, body)
	}
	if len(buttons) > 3 {
		buttons = buttons[:3]
	}

	btns := make([]map[string]any, 0, len(buttons))
	for _, b := range buttons {
		title := []rune(b.Title)
		if len(title) > maxButtonTitle {
			title = title[:maxButtonTitle]
		}
		btns = append(btns, map[string]any{
			"type":  "reply",
			"reply": map[string]any{"id": b.ID, "title": string(title)},
		})
	}

	return c.postMessage(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "interactive",
		"interactive": map[string]any{
			"type":   "button",
			"body":   map[string]any{"text": body},
			"action": map[string]any{"buttons": btns},
		},
	})
}

// SendReply dispatches a normalized reply over the right message type.
func (c *Client) SendReply(ctx context.Context, to string, reply models.Reply) error {
	switch {
	case reply.ImageURL != "":
		return c.SendImage(ctx, to, reply.ImageURL, reply.Caption)
	case len(reply.Buttons) > 0:
		return c.SendButtons(ctx, to, reply.Text, reply.Buttons)
	default:
		return c.SendText(ctx, to, reply.Text)
	}
}

func (c *Client) postMessage(ctx context.Context, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s/messages", c.baseURL, c.apiVersion, c.phoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build message request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("message send returned %d: %s", resp.StatusCode, respBody)
	}
	return nil
}

// MediaURL resolves a media id (voice note) to its short-lived download URL.
func (c *Client) MediaURL(ctx context.Context, mediaID string) (string, error) {
	url := fmt.Sprintf("%s/%s/%s", c.baseURL, c.apiVersion, mediaID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build media request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to look up media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("media lookup returned %d", resp.StatusCode)
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode media response: %w", err)
	}
	return out.URL, nil
}

// DownloadMedia fetches the media bytes from a URL returned by MediaURL.
func (c *Client) DownloadMedia(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("media download returned %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
