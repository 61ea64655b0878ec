package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"order-agent/internal/catalog"
	"order-agent/internal/models"
)

const (
	customerID  = "573001112233"
	operatorID  = "573009998877"
	testRefUUID = "0f8fad5b-d9cb-469f-a165-70867728950e"
)

func testCatalog() *catalog.Index {
	return catalog.NewIndex([]models.Product{
		{ID: "crema-manos", Name: "Crema de Manos Botanika Karité", Price: 38000, Description: "Hidratante", Image: "https://img/crema.jpg"},
		{ID: "shampoo-romero", Name: "Shampoo de Romero Botanika", Price: 42000, Image: "https://img/shampoo.jpg"},
		{ID: "jabon-avena", Name: "Jabón Artesanal de Avena", Price: 15000},
	})
}

func testMachine(operator string) *Machine {
	m := NewMachine(testCatalog(), "Botanika", operator)
	m.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }
	m.newRef = func() string { return testRefUUID }
	return m
}

type sentMessage struct {
	Kind    string
	To      string
	Body    string
	URL     string
	Buttons []models.Button
}

type fakeDispatcher struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (d *fakeDispatcher) record(m sentMessage) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, m)
	return d.err
}

func (d *fakeDispatcher) SendText(_ context.Context, to, body string) error {
	return d.record(sentMessage{Kind: "text", To: to, Body: body})
}

func (d *fakeDispatcher) SendImage(_ context.Context, to, url, caption string) error {
	return d.record(sentMessage{Kind: "image", To: to, URL: url, Body: caption})
}

func (d *fakeDispatcher) SendButtons(_ context.Context, to, body string, buttons []models.Button) error {
	return d.record(sentMessage{Kind: "buttons", To: to, Body: body, Buttons: buttons})
}

func (d *fakeDispatcher) ofKind(kind string) []sentMessage {
	var out []sentMessage
	for _, m := range d.sent {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

func (d *fakeDispatcher) to(recipient string) []sentMessage {
	var out []sentMessage
	for _, m := range d.sent {
		if m.To == recipient {
			out = append(out, m)
		}
	}
	return out
}

type answerCall struct {
	Product  *models.Product
	LastTurn *models.Turn
	Question string
}

type fakeAnswers struct {
	mu    sync.Mutex
	reply string
	err   error
	calls []answerCall
}

func (a *fakeAnswers) Answer(_ context.Context, product *models.Product, last *models.Turn, question string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, answerCall{Product: product, LastTurn: last, Question: question})
	if a.err != nil {
		return "", a.err
	}
	return a.reply, nil
}

// memSessions persists sessions as JSON so every test exercises the
// stored record format
type memSessions struct {
	mu      sync.Mutex
	data    map[string][]byte
	loadErr error
	saveErr error
	saves   int
}

func newMemSessions() *memSessions {
	return &memSessions{data: make(map[string][]byte)}
}

func (s *memSessions) Load(_ context.Context, userID string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	raw, ok := s.data[userID]
	if !ok {
		return nil, nil
	}
	var sess models.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *memSessions) Save(_ context.Context, userID string, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	s.data[userID] = raw
	return nil
}

func (s *memSessions) put(t *testing.T, userID string, sess models.Session) {
	t.Helper()
	if err := s.Save(context.Background(), userID, &sess); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	s.saves = 0
}

func (s *memSessions) get(t *testing.T, userID string) models.Session {
	t.Helper()
	sess, err := s.Load(context.Background(), userID)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if sess == nil {
		return *models.NewSession()
	}
	return *sess
}

type fakePublisher struct {
	mu     sync.Mutex
	events []*models.OrderFinalizedEvent
	err    error
}

func (p *fakePublisher) PublishOrderFinalized(_ context.Context, event *models.OrderFinalizedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

type fakeRepo struct {
	orders    map[string]*models.Order
	processed map[string]bool
	nextID    int64
	createErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{orders: make(map[string]*models.Order), processed: make(map[string]bool)}
}

func (r *fakeRepo) CreateOrder(_ context.Context, order *models.Order) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	order.ID = r.nextID
	stored := *order
	r.orders[order.Reference] = &stored
	return nil
}

func (r *fakeRepo) GetOrderByReference(_ context.Context, reference string) (*models.Order, error) {
	return r.orders[reference], nil
}

func (r *fakeRepo) GetOrdersByCustomer(_ context.Context, customerID string) ([]models.Order, error) {
	var orders []models.Order
	for _, o := range r.orders {
		if o.CustomerID == customerID {
			orders = append(orders, *o)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID > orders[j].ID })
	return orders, nil
}

func (r *fakeRepo) IsEventProcessed(_ context.Context, eventID string) (bool, error) {
	return r.processed[eventID], nil
}

func (r *fakeRepo) MarkEventProcessed(_ context.Context, eventID, _ string) error {
	r.processed[eventID] = true
	return nil
}

var errDown = errors.New("downstream unavailable")

type testHarness struct {
	engine     *Engine
	dispatcher *fakeDispatcher
	answers    *fakeAnswers
	sessions   *memSessions
	publisher  *fakePublisher
}

func newHarness(operator string) *testHarness {
	h := &testHarness{
		dispatcher: &fakeDispatcher{},
		answers:    &fakeAnswers{reply: "Sirve para hidratar las manos resecas."},
		sessions:   newMemSessions(),
		publisher:  &fakePublisher{},
	}
	h.engine = NewEngine(
		testMachine(operator),
		h.sessions,
		h.dispatcher,
		h.answers,
		NewOrderService(nil, h.publisher),
	)
	return h
}

func textEvent(text string) models.InboundEvent {
	return models.InboundEvent{UserID: customerID, Type: models.MessageTypeText, Text: text, CustomerName: "Laura"}
}

func buttonEvent(id string) models.InboundEvent {
	return models.InboundEvent{UserID: customerID, Type: models.MessageTypeInteractive, ButtonID: id, CustomerName: "Laura"}
}

func locationEvent(loc models.Location) models.InboundEvent {
	return models.InboundEvent{UserID: customerID, Type: models.MessageTypeLocation, Location: &loc, CustomerName: "Laura"}
}

var bogota = models.Location{Latitude: 4.6097, Longitude: -74.0817, Name: "Casa", Address: "Cra 7 # 12-30"}
