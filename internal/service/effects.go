package service

import "order-agent/internal/models"

// Effect is an outbound action decided by a transition. Effects are plain
// data; the engine executes them after the transition is computed.
type Effect interface {
	isEffect()
}

// SendText replies to the customer with a text message
type SendText struct {
	Body string
}

// SendImage sends the product picture to the customer
type SendImage struct {
	URL     string
	Caption string
}

// SendButtons sends a quick-reply prompt to the customer
type SendButtons struct {
	Body    string
	Buttons []models.Button
}

// GenerateAnswer asks the answer generator and replies with its answer.
// The exchange becomes the session's last turn.
type GenerateAnswer struct {
	Product  *models.Product
	LastTurn *models.Turn
	Question string
}

// NotifyOperator sends the order summary to the configured operator
type NotifyOperator struct {
	Body string
}

// PublishOrder announces the finalized order
type PublishOrder struct {
	Order models.Order
}

func (SendText) isEffect()       {}
func (SendImage) isEffect()      {}
func (SendButtons) isEffect()    {}
func (GenerateAnswer) isEffect() {}
func (NotifyOperator) isEffect() {}
func (PublishOrder) isEffect()   {}
