package models

// Message is a normalized inbound message from the chat channel.
type Message struct {
	From        string `json:"from"`
	Type        string `json:"type"` // text | audio | interactive
	Body        string `json:"body,omitempty"`
	ButtonID    string `json:"button_id,omitempty"`
	ButtonTitle string `json:"button_title,omitempty"`
	MediaID     string `json:"media_id,omitempty"`
	MessageID   string `json:"message_id,omitempty"`
}

// Text returns the textual content of the message: typed body for text
// messages, button title for taps.
func (m Message) Text() string {
	if m.Type == "interactive" && m.ButtonTitle != "" {
		return m.ButtonTitle
	}
	return m.Body
}

type Button struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Reply is an outbound message. Exactly one of Text / ImageURL is set;
// Buttons may accompany Text (max 3, titles truncated by the channel client).
type Reply struct {
	Text     string   `json:"text,omitempty"`
	ImageURL string   `json:"image_url,omitempty"`
	Caption  string   `json:"caption,omitempty"`
	Buttons  []Button `json:"buttons,omitempty"`
}

func TextReply(text string) Reply {
	return Reply{Text: text}
}

func ButtonsReply(text string, buttons ...Button) Reply {
	return Reply{Text: text, Buttons: buttons}
}
