package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// State is the externally visible conversation step
type State string

const (
	StateInit          State = "INIT"
	StateQA            State = "QA"
	StateAwaitQuantity State = "AWAIT_QUANTITY"
	StateAwaitLocation State = "AWAIT_LOCATION"
	StateAwaitPayment  State = "AWAIT_PAYMENT"
)

// PaymentMethod is one of the two accepted ways to pay
type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "Contra entrega"
	PaymentTransfer       PaymentMethod = "Transferencia"
)

// Location is a shared delivery point
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
	Address   string  `json:"address,omitempty"`
}

// Turn is one question/answer exchange kept as context for answer generation
type Turn struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// Stage is the closed set of conversation steps. Each variant carries only
// the order fields that are valid at that step.
type Stage interface {
	State() State
	isStage()
}

// Idle has no product in context
type Idle struct{}

// Browsing has a product in context and answers free-form questions about it
type Browsing struct {
	ProductID string
}

// AwaitingQuantity waits for how many units the customer wants
type AwaitingQuantity struct {
	ProductID string
}

// AwaitingLocation waits for a shared delivery location
type AwaitingLocation struct {
	ProductID string
	Quantity  int
}

// AwaitingPayment waits for the payment method. Payment is empty until the
// customer picks one; a non-empty Payment means the order is complete.
type AwaitingPayment struct {
	ProductID string
	Quantity  int
	Location  Location
	Payment   PaymentMethod
}

func (Idle) State() State             { return StateInit }
func (Browsing) State() State         { return StateQA }
func (AwaitingQuantity) State() State { return StateAwaitQuantity }
func (AwaitingLocation) State() State { return StateAwaitLocation }
func (AwaitingPayment) State() State  { return StateAwaitPayment }

func (Idle) isStage()             {}
func (Browsing) isStage()         {}
func (AwaitingQuantity) isStage() {}
func (AwaitingLocation) isStage() {}
func (AwaitingPayment) isStage()  {}

// ContextProductID returns the product under discussion, or "" in Idle
func ContextProductID(stage Stage) string {
	switch s := stage.(type) {
	case Browsing:
		return s.ProductID
	case AwaitingQuantity:
		return s.ProductID
	case AwaitingLocation:
		return s.ProductID
	case AwaitingPayment:
		return s.ProductID
	}
	return ""
}

// Session is the per-customer conversation record
type Session struct {
	Stage     Stage
	LastTurn  *Turn
	SentImage bool
}

// NewSession returns the initial empty session
func NewSession() *Session {
	return &Session{Stage: Idle{}}
}

// State returns the current step, treating a missing stage as INIT
func (s Session) State() State {
	if s.Stage == nil {
		return StateInit
	}
	return s.Stage.State()
}

// ProductID returns the product in context, or ""
func (s Session) ProductID() string {
	return ContextProductID(s.Stage)
}

// ErrInvalidSession is returned when a persisted record describes an
// impossible state/field combination
var ErrInvalidSession = errors.New("invalid session record")

type sessionRecord struct {
	State     State       `json:"state"`
	Product   string      `json:"product,omitempty"`
	Order     orderRecord `json:"order"`
	History   []Turn      `json:"history"`
	SentImage bool        `json:"sentImage"`
}

type orderRecord struct {
	Quantity int           `json:"quantity,omitempty"`
	Location *Location     `json:"location,omitempty"`
	Payment  PaymentMethod `json:"payment,omitempty"`
}

// MarshalJSON flattens the stage into the persisted record
func (s Session) MarshalJSON() ([]byte, error) {
	rec := sessionRecord{
		State:     s.State(),
		Product:   ContextProductID(s.Stage),
		History:   []Turn{},
		SentImage: s.SentImage,
	}
	if s.LastTurn != nil {
		rec.History = append(rec.History, *s.LastTurn)
	}

	switch st := s.Stage.(type) {
	case AwaitingLocation:
		rec.Order.Quantity = st.Quantity
	case AwaitingPayment:
		loc := st.Location
		rec.Order.Quantity = st.Quantity
		rec.Order.Location = &loc
		rec.Order.Payment = st.Payment
	}

	return json.Marshal(rec)
}

// UnmarshalJSON rebuilds the stage variant and rejects records whose fields
// do not fit their state
func (s *Session) UnmarshalJSON(data []byte) error {
	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}

	stage, err := rec.stage()
	if err != nil {
		return err
	}

	s.Stage = stage
	s.SentImage = rec.SentImage
	s.LastTurn = nil
	if n := len(rec.History); n > 0 {
		last := rec.History[n-1]
		s.LastTurn = &last
	}
	return nil
}

func (r sessionRecord) stage() (Stage, error) {
	if r.State == "" || r.State == StateInit {
		return Idle{}, nil
	}
	if r.Product == "" {
		return nil, fmt.Errorf("%w: state %s without product", ErrInvalidSession, r.State)
	}

	switch r.State {
	case StateQA:
		return Browsing{ProductID: r.Product}, nil
	case StateAwaitQuantity:
		return AwaitingQuantity{ProductID: r.Product}, nil
	case StateAwaitLocation:
		if r.Order.Quantity <= 0 {
			return nil, fmt.Errorf("%w: %s without quantity", ErrInvalidSession, r.State)
		}
		return AwaitingLocation{ProductID: r.Product, Quantity: r.Order.Quantity}, nil
	case StateAwaitPayment:
		if r.Order.Quantity <= 0 || r.Order.Location == nil {
			return nil, fmt.Errorf("%w: %s without quantity or location", ErrInvalidSession, r.State)
		}
		return AwaitingPayment{
			ProductID: r.Product,
			Quantity:  r.Order.Quantity,
			Location:  *r.Order.Location,
			Payment:   r.Order.Payment,
		}, nil
	}

	return nil, fmt.Errorf("%w: unknown state %q", ErrInvalidSession, r.State)
}
