package models

// MessageType is the kind of content carried by an inbound message
type MessageType string

const (
	MessageTypeText        MessageType = "text"
	MessageTypeInteractive MessageType = "interactive"
	MessageTypeLocation    MessageType = "location"
)

// InboundEvent is one customer message, already parsed from the provider webhook
type InboundEvent struct {
	MessageID    string      `json:"message_id"`
	UserID       string      `json:"user_id"`
	Type         MessageType `json:"type"`
	Text         string      `json:"text,omitempty"`
	ButtonID     string      `json:"button_id,omitempty"`
	Location     *Location   `json:"location,omitempty"`
	CustomerName string      `json:"customer_name,omitempty"`
}
