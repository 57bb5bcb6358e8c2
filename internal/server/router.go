package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jogardn/order-bridge/internal/orders"
	"github.com/jogardn/order-bridge/internal/requestid"
	"github.com/sirupsen/logrus"
)

// NewRouter registers the bridge routes. feed serves the operator websocket
// and may be nil.
func NewRouter(handler *orders.Handler, feed http.HandlerFunc, logger *logrus.Logger) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/", handler.Status).Methods(http.MethodGet)
	router.HandleFunc("/create", handler.CreateOrder).Methods(http.MethodPost)
	router.HandleFunc("/delete", handler.DeleteOrder).Methods(http.MethodGet)
	router.HandleFunc("/order", handler.LookupOrder).Methods(http.MethodGet)
	if feed != nil {
		router.HandleFunc("/ws", feed)
	}

	router.Use(requestid.Middleware())
	router.Use(loggingMiddleware(logger))

	return router
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(logger *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			// Query strings are left out: /delete carries the password there.
			fields := logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"remote":     r.RemoteAddr,
				"request_id": requestid.FromContext(r.Context()),
			}
			logger.WithFields(fields).Debug("Request received")

			// The websocket upgrade needs the original writer to hijack.
			if r.URL.Path == "/ws" {
				next.ServeHTTP(w, r)
				return
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			fields["status"] = rec.status
			fields["duration"] = time.Since(start).Milliseconds()
			logger.WithFields(fields).Info("Request completed")
		})
	}
}
