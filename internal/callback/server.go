package callback

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/golden-vcr/server-common/entry"
	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/golden-vcr/ttvinfo/internal/metrics"
	"github.com/golden-vcr/ttvinfo/internal/signature"
)

// Sustained rate and burst size for incoming webhook requests; anything beyond that
// is rejected before we bother verifying signatures
const (
	webhookRateLimit = rate.Limit(20)
	webhookBurst     = 50
)

type Server struct {
	webhookSecret string
	publisher     Publisher
	limiter       *rate.Limiter
	metrics       *metrics.Metrics
}

// NewServer initializes a callback server that verifies requests using the given
// shared secret. publisher may be nil, in which case verified events are only logged.
func NewServer(webhookSecret string, publisher Publisher, m *metrics.Metrics) *Server {
	return &Server{
		webhookSecret: webhookSecret,
		publisher:     publisher,
		limiter:       rate.NewLimiter(webhookRateLimit, webhookBurst),
		metrics:       m,
	}
}

func (s *Server) RegisterRoutes(r *mux.Router) {
	webhook := r.Path("/ttv/webhook").Subrouter()
	webhook.Use(s.rateLimit)
	webhook.Use(signature.Middleware(s.webhookSecret, s.metrics.ObserveSignatureCheck))
	webhook.Methods("POST").HandlerFunc(s.handlePostWebhook)
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		if !s.limiter.Allow() {
			http.Error(res, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(res, req)
	})
}

// handlePostWebhook (POST /ttv/webhook) accepts an event whose signature has
// already been verified
func (s *Server) handlePostWebhook(res http.ResponseWriter, req *http.Request) {
	logger := entry.Log(req)

	body, err := io.ReadAll(req.Body)
	if err != nil {
		logger.Error("Failed to read request body", "error", err)
		http.Error(res, err.Error(), http.StatusInternalServerError)
		return
	}
	defer req.Body.Close()

	// Events are forwarded verbatim, but they must at least be well-formed JSON
	if !json.Valid(body) {
		logger.Error("Webhook request body is not valid JSON")
		http.Error(res, "request body must be JSON", http.StatusBadRequest)
		return
	}

	logger = logger.With("event", string(body))
	if s.publisher == nil {
		logger.Info("Received webhook event")
		res.WriteHeader(http.StatusOK)
		return
	}
	if err := s.publisher.Publish(req.Context(), body); err != nil {
		logger.Error("Failed to publish webhook event", "error", err)
		http.Error(res, "failed to publish event", http.StatusInternalServerError)
		return
	}
	s.metrics.ObserveWebhookEventPublished()
	logger.Info("Published webhook event")
	res.WriteHeader(http.StatusOK)
}
