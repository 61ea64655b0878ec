package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"order-agent/internal/models"
	"order-agent/internal/service"
	"order-agent/internal/util"
	"order-agent/internal/whatsapp"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Conversation processes one inbound event
type Conversation interface {
	HandleEvent(ctx context.Context, ev models.InboundEvent) models.Session
}

// MessageDeduplicator records provider message ids. MarkMessageSeen
// returns false for an id that was already recorded.
type MessageDeduplicator interface {
	MarkMessageSeen(ctx context.Context, messageID string) (bool, error)
}

// ReadinessCheck reports whether a backend is reachable
type ReadinessCheck func(ctx context.Context) error

// Handler contains HTTP handlers
type Handler struct {
	conversation Conversation
	orders       *service.OrderService
	verifyToken  string
	dedup        MessageDeduplicator
	checks       map[string]ReadinessCheck
	logger       *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(conversation Conversation, orders *service.OrderService, verifyToken string) *Handler {
	return &Handler{
		conversation: conversation,
		orders:       orders,
		verifyToken:  verifyToken,
		checks:       make(map[string]ReadinessCheck),
		logger:       util.GetLogger(),
	}
}

// WithDeduplicator skips redelivered messages using d
func (h *Handler) WithDeduplicator(d MessageDeduplicator) *Handler {
	h.dedup = d
	return h
}

// AddReadinessCheck registers a backend probed by /ready
func (h *Handler) AddReadinessCheck(name string, check ReadinessCheck) {
	h.checks[name] = check
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/webhook", h.verifyWebhook)
	router.POST("/webhook", h.receiveWebhook)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/orders/:ref", h.getOrder)
		v1.GET("/customers/:id/orders", h.getCustomerOrders)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck probes every registered backend
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failures := gin.H{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			failures[name] = err.Error()
		}
	}

	if len(failures) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "not ready",
			"failures": failures,
			"time":     time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// verifyWebhook answers the subscription handshake
func (h *Handler) verifyWebhook(c *gin.Context) {
	challenge, ok := whatsapp.VerifyChallenge(
		c.Query("hub.mode"),
		c.Query("hub.verify_token"),
		c.Query("hub.challenge"),
		h.verifyToken,
	)
	if !ok {
		h.logger.Warn("Webhook verification refused", zap.String("mode", c.Query("hub.mode")))
		c.String(http.StatusForbidden, "forbidden")
		return
	}
	c.String(http.StatusOK, challenge)
}

// receiveWebhook handles inbound messages. It always acknowledges with 200
// so the provider does not retry payloads that can never be processed.
func (h *Handler) receiveWebhook(c *gin.Context) {
	var payload whatsapp.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.logger.Warn("Ignoring malformed webhook payload", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	ctx := c.Request.Context()
	processed := 0
	for _, ev := range payload.Events() {
		if h.isDuplicate(ctx, ev) {
			continue
		}
		h.conversation.HandleEvent(ctx, ev)
		processed++
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"processed": processed,
	})
}

func (h *Handler) isDuplicate(ctx context.Context, ev models.InboundEvent) bool {
	if h.dedup == nil || ev.MessageID == "" {
		return false
	}

	first, err := h.dedup.MarkMessageSeen(ctx, ev.MessageID)
	if err != nil {
		h.logger.Warn("Message de-duplication unavailable",
			zap.String("message_id", ev.MessageID),
			zap.Error(err))
		return false
	}
	if !first {
		util.DuplicateMessagesTotal.Inc()
		h.logger.Info("Skipping redelivered message",
			zap.String("message_id", ev.MessageID),
			zap.String("user_id", ev.UserID))
		return true
	}
	return false
}

// getOrder handles get order by reference
func (h *Handler) getOrder(c *gin.Context) {
	order, err := h.orders.GetOrder(c.Request.Context(), c.Param("ref"))
	switch {
	case errors.Is(err, service.ErrArchiveDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Order archive is disabled",
		})
		return
	case errors.Is(err, service.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Order not found",
		})
		return
	case err != nil:
		h.logger.Error("Failed to get order", zap.String("reference", c.Param("ref")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get order",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order": order,
	})
}

// getCustomerOrders handles order history for one customer
func (h *Handler) getCustomerOrders(c *gin.Context) {
	customerID := c.Param("id")
	orders, err := h.orders.ListCustomerOrders(c.Request.Context(), customerID)
	if errors.Is(err, service.ErrArchiveDisabled) {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Order archive is disabled",
		})
		return
	}
	if err != nil {
		h.logger.Error("Failed to list orders", zap.String("customer_id", customerID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list orders",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
