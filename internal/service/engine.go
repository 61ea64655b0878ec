package service

import (
	"context"
	"strings"
	"time"

	"order-agent/internal/models"
	"order-agent/internal/util"

	"go.uber.org/zap"
)

// Engine handles one inbound event end to end: load session, transition,
// dispatch effects, save session.
//
// Sessions are not locked. Two events for the same user processed at the
// same time race on load/save and the last writer wins; providers deliver
// a user's messages serially so this is accepted. Events for different
// users share no mutable state.
type Engine struct {
	machine    *Machine
	sessions   SessionStore
	dispatcher Dispatcher
	answers    AnswerGenerator
	orders     *OrderService
	logger     *zap.Logger
}

// NewEngine creates a dialogue engine. A nil session store runs without
// persistence and a nil order service skips order publication.
func NewEngine(
	machine *Machine,
	sessions SessionStore,
	dispatcher Dispatcher,
	answers AnswerGenerator,
	orders *OrderService,
) *Engine {
	if sessions == nil {
		sessions = noSessions{}
	}
	return &Engine{
		machine:    machine,
		sessions:   sessions,
		dispatcher: dispatcher,
		answers:    answers,
		orders:     orders,
		logger:     util.GetLogger(),
	}
}

// HandleEvent processes one inbound event and returns the session as saved.
// Downstream failures are logged and never abort processing.
func (e *Engine) HandleEvent(ctx context.Context, ev models.InboundEvent) models.Session {
	ctx, span := util.StartSpan(ctx, "Engine.HandleEvent")
	defer span.End()

	util.InboundMessagesTotal.WithLabelValues(string(ev.Type)).Inc()

	sess := e.loadSession(ctx, ev.UserID)
	from := sess.State()

	next, effects, match := e.machine.transition(*sess, ev)
	if match != "" {
		util.ProductMatchesTotal.WithLabelValues(string(match)).Inc()
	}

	if turn := e.execute(ctx, ev.UserID, effects); turn != nil {
		if _, browsing := next.Stage.(models.Browsing); browsing {
			next.LastTurn = turn
		}
	}

	util.StateTransitionsTotal.WithLabelValues(string(from), string(next.State())).Inc()
	e.logger.Info("Event handled",
		zap.String("user_id", ev.UserID),
		zap.String("type", string(ev.Type)),
		zap.String("from", string(from)),
		zap.String("to", string(next.State())),
		zap.Int("effects", len(effects)))

	if err := e.sessions.Save(ctx, ev.UserID, &next); err != nil {
		e.logger.Error("Failed to save session",
			zap.String("user_id", ev.UserID),
			zap.Error(err))
	}

	return next
}

func (e *Engine) loadSession(ctx context.Context, userID string) *models.Session {
	sess, err := e.sessions.Load(ctx, userID)
	if err != nil {
		e.logger.Warn("Failed to load session, starting fresh",
			zap.String("user_id", userID),
			zap.Error(err))
		return models.NewSession()
	}
	if sess == nil {
		return models.NewSession()
	}
	return sess
}

// execute runs effects in order. It returns the exchange recorded by an
// answer effect, if any.
func (e *Engine) execute(ctx context.Context, userID string, effects []Effect) *models.Turn {
	var turn *models.Turn

	for _, effect := range effects {
		switch fx := effect.(type) {
		case SendText:
			e.dispatchErr("text", userID, e.dispatcher.SendText(ctx, userID, fx.Body))
		case SendImage:
			e.dispatchErr("image", userID, e.dispatcher.SendImage(ctx, userID, fx.URL, fx.Caption))
		case SendButtons:
			e.dispatchErr("buttons", userID, e.dispatcher.SendButtons(ctx, userID, fx.Body, fx.Buttons))
		case GenerateAnswer:
			reply := e.answer(ctx, userID, fx)
			e.dispatchErr("text", userID, e.dispatcher.SendText(ctx, userID, reply))
			turn = &models.Turn{User: fx.Question, Assistant: reply}
		case NotifyOperator:
			operator := e.machine.operator
			e.dispatchErr("operator", operator, e.dispatcher.SendText(ctx, operator, fx.Body))
		case PublishOrder:
			util.OrdersFinalizedTotal.WithLabelValues(fx.Order.PaymentMethod).Inc()
			e.logger.Info("Order finalized",
				zap.String("reference", fx.Order.Reference),
				zap.String("user_id", userID),
				zap.String("product_id", fx.Order.ProductID),
				zap.Int("quantity", fx.Order.Quantity),
				zap.String("payment", fx.Order.PaymentMethod))
			if e.orders != nil {
				if err := e.orders.PublishFinalized(ctx, fx.Order); err != nil {
					e.logger.Error("Failed to publish finalized order",
						zap.String("reference", fx.Order.Reference),
						zap.Error(err))
				}
			}
		}
	}

	return turn
}

func (e *Engine) answer(ctx context.Context, userID string, fx GenerateAnswer) string {
	if e.answers == nil {
		return FallbackAnswer
	}

	start := time.Now()
	reply, err := e.answers.Answer(ctx, fx.Product, fx.LastTurn, fx.Question)
	util.AnswerLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		util.AnswerFailuresTotal.Inc()
		e.logger.Error("Answer generation failed",
			zap.String("user_id", userID),
			zap.String("product_id", fx.Product.ID),
			zap.Error(err))
		return FallbackAnswer
	}
	if strings.TrimSpace(reply) == "" {
		return FallbackAnswer
	}
	return reply
}

func (e *Engine) dispatchErr(kind, to string, err error) {
	if err == nil {
		return
	}
	util.DispatchFailuresTotal.WithLabelValues(kind).Inc()
	e.logger.Error("Failed to dispatch message",
		zap.String("kind", kind),
		zap.String("to", to),
		zap.Error(err))
}
