// Package httpapi: HTTP/JSON API заказов.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderdesk/internal/auth"
	"github.com/vladislavdragonenkov/orderdesk/internal/i18n"
	"github.com/vladislavdragonenkov/orderdesk/internal/metrics"
)

// RouterConfig: зависимости HTTP API. Metrics и Logger необязательны.
type RouterConfig struct {
	Orders    OrderService
	Signer    *auth.Signer
	Policy    *auth.Policy
	Localizer *i18n.Localizer
	Metrics   *metrics.HTTPMetrics
	Logger    *log.Entry
}

// NewRouter собирает маршруты API.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.WithField("component", "http-api")
	}
	localizer := cfg.Localizer
	if localizer == nil {
		localizer = i18n.NewLocalizer(i18n.LangID)
	}
	policy := cfg.Policy
	if policy == nil {
		policy = auth.DefaultPolicy()
	}
	h := NewHandler(cfg.Orders, localizer, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(locale(localizer))
	r.Use(accessLog(logger))
	if cfg.Metrics != nil {
		r.Use(instrument(cfg.Metrics))
	}
	r.Use(recoverer(logger, localizer))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusNotFound, localizer.T(langFromContext(r.Context()), i18n.KeyNotRoute), nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed), nil)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Use(authenticate(cfg.Signer, localizer))
		r.With(authorize(policy, localizer, auth.PermissionOrderList)).Get("/", h.ListOrders)
		r.With(authorize(policy, localizer, auth.PermissionOrderCreate)).Post("/", h.CreateOrder)
		r.With(authorize(policy, localizer, auth.PermissionOrderView)).Get("/{id}", h.GetOrder)
	})

	return r
}
