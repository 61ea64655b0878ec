package service

import (
	"regexp"
	"strings"
	"time"

	"order-agent/internal/catalog"
	"order-agent/internal/models"

	"github.com/google/uuid"
)

var purchaseKeywords = []string{
	"comprar", "compro", "lo quiero", "la quiero", "los quiero", "las quiero",
	"me lo llevo", "me la llevo", "pedido", "pedir", "ordenar", "encargar",
}

var cashKeywords = []string{"contra entrega", "contraentrega", "efectivo", "entrega", "cash"}

var transferKeywords = []string{"transferencia", "transferir", "consignacion", "nequi", "daviplata"}

var greetingPattern = regexp.MustCompile(`^(hola|holi|buenas|buenos dias|buenas tardes|buenas noches|saludos|hey|hi)\b`)

// Machine is the conversation transition function. It holds only
// read-only collaborators and is safe for concurrent use.
type Machine struct {
	index     *catalog.Index
	storeName string
	operator  string
	now       func() time.Time
	newRef    func() string
}

// NewMachine creates the transition function over a catalog index. An
// empty operator disables operator notifications.
func NewMachine(index *catalog.Index, storeName, operator string) *Machine {
	return &Machine{
		index:     index,
		storeName: storeName,
		operator:  operator,
		now:       time.Now,
		newRef:    func() string { return uuid.New().String() },
	}
}

// Transition computes the next session and the effects for one inbound
// event. The finalization guard runs after every state-specific step.
func (m *Machine) Transition(sess models.Session, ev models.InboundEvent) (models.Session, []Effect) {
	next, effects, _ := m.transition(sess, ev)
	return next, effects
}

// productMatch is the catalog lookup outcome of a free-text turn, "" when
// no lookup ran
type productMatch string

const (
	matchHit  productMatch = "hit"
	matchMiss productMatch = "miss"
)

func (m *Machine) transition(sess models.Session, ev models.InboundEvent) (models.Session, []Effect, productMatch) {
	if sess.Stage == nil {
		sess.Stage = models.Idle{}
	}
	if id := sess.ProductID(); id != "" {
		if _, ok := m.index.Product(id); !ok {
			sess = *models.NewSession()
		}
	}

	var (
		next    models.Session
		effects []Effect
		match   productMatch
	)
	if ev.Type == models.MessageTypeText && acceptsFreeText(sess.Stage) {
		next, effects, match = m.freeText(sess, ev)
	} else {
		next, effects = m.step(sess, ev)
	}

	if pending, ok := ReadyToFinalize(next); ok {
		reset, finalEffects := m.finalize(pending, ev)
		return reset, append(effects, finalEffects...), match
	}
	return next, effects, match
}

func acceptsFreeText(stage models.Stage) bool {
	switch stage.(type) {
	case models.Idle, models.Browsing:
		return true
	}
	return false
}

// ReadyToFinalize reports whether the session holds a complete order
func ReadyToFinalize(sess models.Session) (models.AwaitingPayment, bool) {
	p, ok := sess.Stage.(models.AwaitingPayment)
	return p, ok && p.Payment != ""
}

func (m *Machine) step(sess models.Session, ev models.InboundEvent) (models.Session, []Effect) {
	switch stage := sess.Stage.(type) {
	case models.AwaitingQuantity:
		return m.awaitingQuantity(sess, stage, ev)
	case models.AwaitingLocation:
		return m.awaitingLocation(sess, stage, ev)
	case models.AwaitingPayment:
		return m.awaitingPayment(sess, stage, ev)
	}

	if ev.Type == models.MessageTypeLocation {
		return sess, []Effect{SendText{Body: missingFieldReminder(sess.State())}}
	}
	return sess, nil
}

func (m *Machine) awaitingQuantity(sess models.Session, stage models.AwaitingQuantity, ev models.InboundEvent) (models.Session, []Effect) {
	switch ev.Type {
	case models.MessageTypeText:
		qty, ok := catalog.ExtractQuantity(ev.Text)
		if !ok {
			return sess, []Effect{SendText{Body: quantityRepromptMessage()}}
		}
		product, _ := m.index.Product(stage.ProductID)
		sess.Stage = models.AwaitingLocation{ProductID: stage.ProductID, Quantity: qty}
		return sess, []Effect{SendText{Body: askLocationMessage(product, qty)}}
	case models.MessageTypeLocation:
		return sess, []Effect{SendText{Body: missingFieldReminder(sess.State())}}
	}
	return sess, nil
}

func (m *Machine) awaitingLocation(sess models.Session, stage models.AwaitingLocation, ev models.InboundEvent) (models.Session, []Effect) {
	switch ev.Type {
	case models.MessageTypeText:
		return sess, []Effect{SendText{Body: locationInstructionMessage()}}
	case models.MessageTypeLocation:
		if ev.Location == nil {
			return sess, []Effect{SendText{Body: locationInstructionMessage()}}
		}
		sess.Stage = models.AwaitingPayment{
			ProductID: stage.ProductID,
			Quantity:  stage.Quantity,
			Location:  *ev.Location,
		}
		return sess, []Effect{SendButtons{Body: askPaymentMessage(), Buttons: paymentButtons}}
	}
	return sess, nil
}

func (m *Machine) awaitingPayment(sess models.Session, stage models.AwaitingPayment, ev models.InboundEvent) (models.Session, []Effect) {
	switch ev.Type {
	case models.MessageTypeText:
		method, ok := paymentFromText(ev.Text)
		if !ok {
			return sess, []Effect{SendText{Body: paymentRepromptMessage()}}
		}
		stage.Payment = method
	case models.MessageTypeInteractive:
		switch ev.ButtonID {
		case models.ButtonPayCash:
			stage.Payment = models.PaymentCashOnDelivery
		case models.ButtonPayTransfer:
			stage.Payment = models.PaymentTransfer
		default:
			return sess, nil
		}
	case models.MessageTypeLocation:
		return sess, []Effect{SendText{Body: missingFieldReminder(sess.State())}}
	default:
		return sess, nil
	}

	sess.Stage = stage
	return sess, nil
}

// freeText handles INIT and QA: product selection, purchase intent and questions
func (m *Machine) freeText(sess models.Session, ev models.InboundEvent) (models.Session, []Effect, productMatch) {
	var effects []Effect

	intent := hasPurchaseIntent(ev.Text)
	qty, hasQty := catalog.ExtractQuantity(ev.Text)

	productID := sess.ProductID()
	entry, matched := m.index.MatchProduct(ev.Text)
	match := matchMiss
	if matched {
		match = matchHit
	}
	if matched && entry.ID != productID {
		if productID != "" {
			effects = append(effects, SendText{Body: productSwitchMessage(entry.Product)})
		}
		productID = entry.ID
		sess.SentImage = false
	}

	if productID == "" {
		sess.Stage = models.Idle{}
		if greetingPattern.MatchString(catalog.Normalize(ev.Text)) {
			return sess, append(effects, SendText{Body: welcomeMessage(m.storeName, ev.CustomerName)}), match
		}
		return sess, append(effects, SendText{Body: productNotIdentifiedMessage()}), match
	}

	product, _ := m.index.Product(productID)

	if intent {
		if hasQty {
			sess.Stage = models.AwaitingLocation{ProductID: productID, Quantity: qty}
			return sess, append(effects, SendText{Body: askLocationMessage(product, qty)}), match
		}
		sess.Stage = models.AwaitingQuantity{ProductID: productID}
		return sess, append(effects, SendText{Body: askQuantityMessage(product)}), match
	}

	sess.Stage = models.Browsing{ProductID: productID}
	if !sess.SentImage && product.Image != "" {
		effects = append(effects, SendImage{URL: product.Image, Caption: imageCaption(product)})
	}
	sess.SentImage = true
	effects = append(effects, GenerateAnswer{Product: product, LastTurn: sess.LastTurn, Question: ev.Text})
	return sess, effects, match
}

func (m *Machine) finalize(p models.AwaitingPayment, ev models.InboundEvent) (models.Session, []Effect) {
	order := models.Order{
		Reference:       m.newRef(),
		CustomerID:      ev.UserID,
		CustomerName:    ev.CustomerName,
		ProductID:       p.ProductID,
		Quantity:        p.Quantity,
		Latitude:        p.Location.Latitude,
		Longitude:       p.Location.Longitude,
		LocationName:    p.Location.Name,
		LocationAddress: p.Location.Address,
		PaymentMethod:   string(p.Payment),
		CreatedAt:       m.now(),
	}
	if product, ok := m.index.Product(p.ProductID); ok {
		order.ProductName = product.Name
		order.UnitPrice = product.Price
		order.TotalAmount = product.Price * int64(p.Quantity)
	}

	effects := []Effect{SendText{Body: confirmationMessage(&order)}}
	if m.operator != "" {
		effects = append(effects, NotifyOperator{Body: operatorNotification(&order)})
	}
	effects = append(effects, PublishOrder{Order: order})

	return *models.NewSession(), effects
}

func hasPurchaseIntent(text string) bool {
	return containsAny(strings.ToLower(text), purchaseKeywords)
}

func paymentFromText(text string) (models.PaymentMethod, bool) {
	normalized := catalog.Normalize(text)
	switch {
	case containsAny(normalized, cashKeywords):
		return models.PaymentCashOnDelivery, true
	case containsAny(normalized, transferKeywords):
		return models.PaymentTransfer, true
	}
	return "", false
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
