package orders

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/jogardn/order-bridge/internal/config"
	"github.com/jogardn/order-bridge/internal/events"
	"github.com/jogardn/order-bridge/internal/requestid"
	"github.com/jogardn/order-bridge/internal/shopify"
	"github.com/jogardn/order-bridge/internal/upward"
	"github.com/jogardn/order-bridge/internal/websocket"
	"github.com/jogardn/order-bridge/pkg/models"
	"github.com/sirupsen/logrus"
)

const maxWebhookBodyBytes = 5 << 20

type LogisticsClient interface {
	CreateOrder(ctx context.Context, order *models.OutboundOrder) (*upward.Response, error)
	DeleteOrder(ctx context.Context, orderNumber int) (*upward.Response, error)
	GetOrder(ctx context.Context, orderNumber int) (*upward.Response, error)
}

type WebSocketHub interface {
	Broadcast(messageType, requestID string, data interface{})
}

type Handler struct {
	cfg       config.Config
	verifier  *shopify.Verifier
	client    LogisticsClient
	publisher events.FailurePublisher
	logger    *logrus.Logger
	wsHub     WebSocketHub
}

// NewHandler wires the webhook and admin endpoints. publisher may be nil when
// failure events are disabled.
func NewHandler(cfg config.Config, client LogisticsClient, publisher events.FailurePublisher, logger *logrus.Logger) *Handler {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Handler{
		cfg:       cfg,
		verifier:  shopify.NewVerifier(cfg.ShopifySigningSecret),
		client:    client,
		publisher: publisher,
		logger:    logger,
	}
}

func (h *Handler) SetWebSocketHub(hub WebSocketHub) {
	h.wsHub = hub
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	respondWithText(w, http.StatusOK, h.cfg.Status())
}

// CreateOrder handles the Shopify orders/create webhook. Once the signature
// checks out the storefront always gets a 200, even if Upward rejects the
// order, so Shopify does not keep redelivering; failures are logged and
// published for manual reprocessing instead.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	reqID := requestid.FromContext(r.Context())
	log := h.logger.WithField("request_id", reqID)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes))
	if err != nil {
		log.WithError(err).Error("Failed to read webhook body")
		respondWithText(w, http.StatusBadRequest, "Unable to read request body")
		return
	}
	log.WithField("bytes", len(body)).Info("Webhook received")

	signature := r.Header.Get(shopify.HMACHeader)
	if !h.verifier.Verify(body, signature) {
		reason := "signature mismatch"
		if signature == "" {
			reason = "signature header missing"
		}
		log.WithField("reason", reason).Error("Webhook verification failed")
		h.broadcast(websocket.EventOrderRejected, reqID, map[string]interface{}{"reason": reason})
		respondWithText(w, http.StatusUnauthorized, "Webhook verification failed")
		return
	}
	log.Info("Webhook verified")

	var inbound models.InboundOrder
	if err := json.Unmarshal(body, &inbound); err != nil {
		log.WithError(err).Error("Failed to decode verified webhook body")
		h.broadcast(websocket.EventOrderRejected, reqID, map[string]interface{}{"reason": "malformed json"})
		respondWithText(w, http.StatusInternalServerError, "Unable to parse order")
		return
	}

	order, err := BuildOutboundOrder(&inbound, h.cfg.UpwardShipMethod)
	if err != nil {
		entry := log.WithError(err)
		if inbound.Number != nil {
			entry = entry.WithField("order_number", *inbound.Number)
		}
		entry.Error("Failed to transform order")
		h.broadcast(websocket.EventOrderRejected, reqID, map[string]interface{}{"reason": err.Error()})

		if errors.Is(err, ErrFieldMissing) || errors.Is(err, ErrDateParse) {
			respondWithText(w, http.StatusBadRequest, err.Error())
			return
		}
		respondWithText(w, http.StatusInternalServerError, "Unable to transform order")
		return
	}

	log.WithFields(logrus.Fields{
		"order_number": order.OrderNumber,
		"order_date":   order.OrderDate,
		"items_count":  len(order.Items),
	}).Info("Webhook parsing complete")

	// A storefront disconnect must not abort the outbound call.
	resp, err := h.client.CreateOrder(context.WithoutCancel(r.Context()), order)
	switch {
	case err != nil:
		log.WithError(err).WithField("order_number", order.OrderNumber).Error("Upward API failure")
		h.reportDeliveryFailure(log, events.DeliveryFailedEvent{
			RequestID:   reqID,
			OrderNumber: order.OrderNumber,
			Error:       err.Error(),
			Order:       order,
		})
	case !resp.Success():
		log.WithFields(logrus.Fields{
			"order_number": order.OrderNumber,
			"status":       resp.StatusCode,
			"body":         string(resp.Body),
		}).Error("Upward API rejected order")
		h.reportDeliveryFailure(log, events.DeliveryFailedEvent{
			RequestID:    reqID,
			OrderNumber:  order.OrderNumber,
			StatusCode:   resp.StatusCode,
			ResponseBody: string(resp.Body),
			Order:        order,
		})
	default:
		log.WithFields(logrus.Fields{
			"order_number": order.OrderNumber,
			"status":       resp.StatusCode,
		}).Info("Processing complete; order forwarded")
		h.broadcast(websocket.EventOrderForwarded, reqID, map[string]interface{}{
			"order_number": order.OrderNumber,
			"items_count":  len(order.Items),
			"status":       resp.StatusCode,
		})
	}

	w.WriteHeader(http.StatusOK)
}

// DeleteOrder cancels an order upstream. Upward answers 403 once fulfilment
// has started.
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	reqID := requestid.FromContext(r.Context())
	log := h.logger.WithField("request_id", reqID)

	orderNumber, ok := h.authorizeAdminRequest(w, r, log)
	if !ok {
		return
	}
	log = log.WithField("order_number", orderNumber)

	resp, err := h.client.DeleteOrder(context.WithoutCancel(r.Context()), orderNumber)
	if err != nil {
		log.WithError(err).Error("Upward API failure during delete")
		respondWithText(w, http.StatusBadGateway, fmt.Sprintf("Failed to delete order %d: %v", orderNumber, err))
		return
	}

	switch resp.StatusCode {
	case http.StatusOK:
		log.Info("Order deleted")
		h.broadcast(websocket.EventOrderDeleted, reqID, map[string]interface{}{"order_number": orderNumber})
		respondWithText(w, http.StatusOK, fmt.Sprintf("Order %d deleted", orderNumber))
	case http.StatusForbidden:
		log.WithField("body", string(resp.Body)).Warn("Order already in progress, delete refused")
		h.broadcast(websocket.EventDeleteRefused, reqID, map[string]interface{}{"order_number": orderNumber})
		respondWithText(w, http.StatusForbidden, fmt.Sprintf("Order %d already in progress, cannot delete", orderNumber))
	default:
		log.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"body":   string(resp.Body),
		}).Error("Upward API failure during delete")
		respondWithText(w, http.StatusBadRequest,
			fmt.Sprintf("Failed to delete order %d: Upward returned status %d", orderNumber, resp.StatusCode))
	}
}

// LookupOrder returns Upward's view of an order, status and body unchanged.
func (h *Handler) LookupOrder(w http.ResponseWriter, r *http.Request) {
	log := h.logger.WithField("request_id", requestid.FromContext(r.Context()))

	orderNumber, ok := h.authorizeAdminRequest(w, r, log)
	if !ok {
		return
	}

	resp, err := h.client.GetOrder(context.WithoutCancel(r.Context()), orderNumber)
	if err != nil {
		log.WithError(err).WithField("order_number", orderNumber).Error("Upward API failure during lookup")
		respondWithText(w, http.StatusBadGateway, fmt.Sprintf("Failed to look up order %d: %v", orderNumber, err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(resp.Body)
}

// authorizeAdminRequest checks the deletion secret before parsing the order
// number, so an unauthenticated caller learns nothing about parameter format.
func (h *Handler) authorizeAdminRequest(w http.ResponseWriter, r *http.Request, log *logrus.Entry) (int, bool) {
	if !h.cfg.DeletionEnabled() {
		log.Warn("Admin request refused: deletion secret not configured")
		respondWithText(w, http.StatusForbidden, "Deletion is disabled: DELETION_SECRET is not configured")
		return 0, false
	}

	query := r.URL.Query()
	password := query.Get("password")
	if subtle.ConstantTimeCompare([]byte(password), []byte(*h.cfg.DeletionSecret)) != 1 {
		log.Warn("Admin request refused: wrong password")
		respondWithText(w, http.StatusForbidden, "Invalid password")
		return 0, false
	}

	raw := query.Get("order")
	if raw == "" {
		respondWithText(w, http.StatusBadRequest, "Missing order parameter")
		return 0, false
	}
	orderNumber, err := strconv.Atoi(raw)
	if err != nil {
		log.WithField("order", raw).Warn("Admin request refused: order is not an integer")
		respondWithText(w, http.StatusBadRequest, "Order parameter must be an integer")
		return 0, false
	}
	return orderNumber, true
}

func (h *Handler) reportDeliveryFailure(log *logrus.Entry, event events.DeliveryFailedEvent) {
	if err := h.publisher.PublishDeliveryFailed(event); err != nil {
		log.WithError(err).WithField("order_number", event.OrderNumber).Error("Failed to publish delivery failure")
	}
	h.broadcast(websocket.EventDeliveryFailed, event.RequestID, map[string]interface{}{
		"order_number": event.OrderNumber,
		"status":       event.StatusCode,
		"error":        event.Error,
	})
}

func (h *Handler) broadcast(messageType, requestID string, data interface{}) {
	if h.wsHub != nil {
		h.wsHub.Broadcast(messageType, requestID, data)
	}
}

func respondWithText(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = io.WriteString(w, message)
}
