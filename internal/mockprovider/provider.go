package mockprovider

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/jogardn/order-bridge/internal/upward"
	"github.com/jogardn/order-bridge/pkg/models"
	"github.com/sirupsen/logrus"
)

const (
	StatusReceived   = "received"
	StatusInProgress = "in_progress"
)

type StoredOrder struct {
	Order      models.OutboundOrder `json:"order"`
	Status     string               `json:"status"`
	ReceivedAt time.Time            `json:"received_at"`
}

// Store is an in-memory stand-in for the Upward order book. Creating the same
// order number twice keeps both submissions, like the real API.
type Store struct {
	orders      map[int][]*StoredOrder
	createCalls int
	mutex       sync.RWMutex
}

func NewStore() *Store {
	return &Store{
		orders: make(map[int][]*StoredOrder),
	}
}

func (s *Store) add(order models.OutboundOrder) {
	s.orders[order.OrderNumber] = append(s.orders[order.OrderNumber], &StoredOrder{
		Order:      order,
		Status:     StatusReceived,
		ReceivedAt: time.Now().UTC(),
	})
}

// Get returns the latest submission for orderNumber.
func (s *Store) Get(orderNumber int) (*StoredOrder, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	versions := s.orders[orderNumber]
	if len(versions) == 0 {
		return nil, false
	}
	return versions[len(versions)-1], true
}

// MarkInProgress simulates fulfilment starting, after which deletes are refused.
func (s *Store) MarkInProgress(orderNumber int) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	versions := s.orders[orderNumber]
	if len(versions) == 0 {
		return false
	}
	for _, stored := range versions {
		stored.Status = StatusInProgress
	}
	return true
}

func (s *Store) Submissions(orderNumber int) int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.orders[orderNumber])
}

func (s *Store) CreateCalls() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.createCalls
}

type Provider struct {
	store  *Store
	apiKey string
	logger *logrus.Logger
}

func New(store *Store, apiKey string, logger *logrus.Logger) *Provider {
	return &Provider{store: store, apiKey: apiKey, logger: logger}
}

// Router serves the Upward API under prefix, e.g. "/v1".
func (p *Provider) Router(prefix string) *mux.Router {
	router := mux.NewRouter()
	api := router.PathPrefix(prefix).Subrouter()
	api.HandleFunc("/Orders", p.createOrders).Methods(http.MethodPost)
	api.HandleFunc("/Orders/{number:[0-9]+}", p.getOrder).Methods(http.MethodGet)
	api.HandleFunc("/Orders/{number:[0-9]+}", p.deleteOrder).Methods(http.MethodDelete)
	api.HandleFunc("/Orders/{number:[0-9]+}/start", p.startOrder).Methods(http.MethodPost)
	api.Use(p.requireAPIKey)
	return router
}

func (p *Provider) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(upward.APIKeyHeader) != p.apiKey {
			p.logger.WithField("path", r.URL.Path).Warn("Rejected request with bad api key")
			respondWithJSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "message": "invalid api key"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (p *Provider) createOrders(w http.ResponseWriter, r *http.Request) {
	var batch []models.OutboundOrder
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		p.logger.WithError(err).Error("Failed to decode order batch")
		respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "message": "Invalid request body"})
		return
	}

	p.store.mutex.Lock()
	p.store.createCalls++
	numbers := make([]int, 0, len(batch))
	for _, order := range batch {
		p.store.add(order)
		numbers = append(numbers, order.OrderNumber)
	}
	p.store.mutex.Unlock()

	p.logger.WithField("order_numbers", numbers).Info("Orders received")
	respondWithJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "orders": numbers})
}

func (p *Provider) getOrder(w http.ResponseWriter, r *http.Request) {
	number, _ := strconv.Atoi(mux.Vars(r)["number"])
	stored, ok := p.store.Get(number)
	if !ok {
		respondWithJSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "message": "Order not found"})
		return
	}
	respondWithJSON(w, http.StatusOK, stored)
}

func (p *Provider) deleteOrder(w http.ResponseWriter, r *http.Request) {
	number, _ := strconv.Atoi(mux.Vars(r)["number"])

	p.store.mutex.Lock()
	defer p.store.mutex.Unlock()

	versions := p.store.orders[number]
	if len(versions) == 0 {
		respondWithJSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "message": "Order not found"})
		return
	}
	for _, stored := range versions {
		if stored.Status == StatusInProgress {
			respondWithJSON(w, http.StatusForbidden, map[string]interface{}{"success": false, "message": "Order in progress"})
			return
		}
	}
	delete(p.store.orders, number)

	p.logger.WithField("order_number", number).Info("Order deleted")
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (p *Provider) startOrder(w http.ResponseWriter, r *http.Request) {
	number, _ := strconv.Atoi(mux.Vars(r)["number"])
	if !p.store.MarkInProgress(number) {
		respondWithJSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "message": "Order not found"})
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}
