package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
	"github.com/vladislavdragonenkov/orderdesk/internal/i18n"
	"github.com/vladislavdragonenkov/orderdesk/internal/service/orders"
)

const maxRequestBody = 1 << 20

// OrderService: операции над заказами, которые обслуживает API.
type OrderService interface {
	List(ctx context.Context) ([]domain.Order, error)
	Get(ctx context.Context, id string) (domain.Order, error)
	Create(ctx context.Context, in orders.CreateOrderInput) (domain.Order, error)
}

// Handler обслуживает ресурс /orders.
type Handler struct {
	orders    OrderService
	localizer *i18n.Localizer
	logger    *log.Entry
}

// NewHandler создаёт обработчик заказов.
func NewHandler(svc OrderService, localizer *i18n.Localizer, logger *log.Entry) *Handler {
	if localizer == nil {
		localizer = i18n.NewLocalizer(i18n.LangID)
	}
	if logger == nil {
		logger = log.WithField("component", "http-api")
	}
	return &Handler{orders: svc, localizer: localizer, logger: logger}
}

// ListOrders отдаёт все неудалённые заказы, новые первыми.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	lang := langFromContext(r.Context())

	list, err := h.orders.List(r.Context())
	if err != nil {
		h.systemError(w, r, err)
		return
	}

	data := make([]orderResponse, 0, len(list))
	for _, order := range list {
		data = append(data, toOrderResponse(order, h.localizer, lang))
	}
	h.respond(w, r, http.StatusOK, i18n.KeySuccess, data)
}

// GetOrder отдаёт один заказ с позициями, товарами и партнёром.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	lang := langFromContext(r.Context())

	order, err := h.orders.Get(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		h.respond(w, r, http.StatusNotFound, i18n.KeyNotFound, nil)
		return
	case err != nil:
		h.systemError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, i18n.KeySuccess, toOrderResponse(order, h.localizer, lang))
}

// CreateOrder проверяет запрос и создаёт заказ.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	lang := langFromContext(r.Context())

	var (
		req   createOrderRequest
		in    orders.CreateOrderInput
		order domain.Order
	)
	// Нечитаемое тело считается запросом без полей.
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req)
	if err == nil {
		in, err = req.toInput()
	}
	if err != nil {
		err = domain.ErrFieldsRequired
	} else {
		order, err = h.orders.Create(r.Context(), in)
	}
	if err != nil {
		if code, ok := domain.InputErrorCode(err); ok {
			h.respond(w, r, http.StatusBadRequest, code, nil)
			return
		}
		h.systemError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, i18n.KeyCreated, toOrderResponse(order, h.localizer, lang))
}

// systemError пишет подробности в лог, клиент получает только общее сообщение.
func (h *Handler) systemError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.WithError(err).WithFields(log.Fields{
		"request_id": middleware.GetReqID(r.Context()),
		"method":     r.Method,
		"path":       r.URL.Path,
	}).Error("request failed")
	h.respond(w, r, http.StatusInternalServerError, i18n.KeySystemError, nil)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, key string, data any) {
	writeEnvelope(w, status, h.localizer.T(langFromContext(r.Context()), key), data)
}

func writeEnvelope(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Status: status, Message: message, Data: data})
}
