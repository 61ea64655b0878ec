package whatsapp

import (
	"strings"

	"order-agent/internal/models"
)

// WebhookPayload is the Cloud API notification envelope
type WebhookPayload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string      `json:"field"`
	Value ChangeValue `json:"value"`
}

type ChangeValue struct {
	MessagingProduct string    `json:"messaging_product"`
	Contacts         []Contact `json:"contacts"`
	Messages         []Message `json:"messages"`
}

type Contact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

type Message struct {
	ID          string              `json:"id"`
	From        string              `json:"from"`
	Timestamp   string              `json:"timestamp"`
	Type        string              `json:"type"`
	Text        *MessageText        `json:"text,omitempty"`
	Interactive *MessageInteractive `json:"interactive,omitempty"`
	Button      *MessageButton      `json:"button,omitempty"`
	Location    *MessageLocation    `json:"location,omitempty"`
}

type MessageText struct {
	Body string `json:"body"`
}

type MessageInteractive struct {
	Type        string `json:"type"`
	ButtonReply *struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"button_reply,omitempty"`
	ListReply *struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"list_reply,omitempty"`
}

// MessageButton is the reply to a template quick-reply button
type MessageButton struct {
	Payload string `json:"payload"`
	Text    string `json:"text"`
}

type MessageLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
}

// Events flattens the payload into inbound events in delivery order.
// Status notifications and unsupported message types are skipped.
func (p *WebhookPayload) Events() []models.InboundEvent {
	var events []models.InboundEvent

	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			names := make(map[string]string, len(change.Value.Contacts))
			for _, c := range change.Value.Contacts {
				names[c.WaID] = c.Profile.Name
			}

			for _, msg := range change.Value.Messages {
				ev, ok := msg.event()
				if !ok {
					continue
				}
				ev.CustomerName = names[msg.From]
				events = append(events, ev)
			}
		}
	}

	return events
}

func (m Message) event() (models.InboundEvent, bool) {
	ev := models.InboundEvent{MessageID: m.ID, UserID: m.From}
	if m.From == "" {
		return ev, false
	}

	switch m.Type {
	case "text":
		if m.Text == nil || strings.TrimSpace(m.Text.Body) == "" {
			return ev, false
		}
		ev.Type = models.MessageTypeText
		ev.Text = m.Text.Body
	case "interactive":
		if m.Interactive == nil {
			return ev, false
		}
		ev.Type = models.MessageTypeInteractive
		switch {
		case m.Interactive.ButtonReply != nil:
			ev.ButtonID = m.Interactive.ButtonReply.ID
			ev.Text = m.Interactive.ButtonReply.Title
		case m.Interactive.ListReply != nil:
			ev.ButtonID = m.Interactive.ListReply.ID
			ev.Text = m.Interactive.ListReply.Title
		default:
			return ev, false
		}
	case "button":
		if m.Button == nil {
			return ev, false
		}
		ev.Type = models.MessageTypeInteractive
		ev.ButtonID = m.Button.Payload
		ev.Text = m.Button.Text
	case "location":
		if m.Location == nil {
			return ev, false
		}
		ev.Type = models.MessageTypeLocation
		ev.Location = &models.Location{
			Latitude:  m.Location.Latitude,
			Longitude: m.Location.Longitude,
			Name:      m.Location.Name,
			Address:   m.Location.Address,
		}
	default:
		return ev, false
	}

	return ev, true
}

// VerifyChallenge answers the webhook subscription handshake. It returns
// the challenge to echo back, or false when the request must be refused.
func VerifyChallenge(mode, token, challenge, expected string) (string, bool) {
	if mode != "subscribe" || expected == "" || token != expected {
		return "", false
	}
	return challenge, true
}
