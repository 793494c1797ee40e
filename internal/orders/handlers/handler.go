package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"nublack-orders/internal/auth"
	"nublack-orders/internal/common/logger"
	"nublack-orders/internal/metrics"
	"nublack-orders/internal/orders/domain"
	"nublack-orders/internal/orders/service"
)

type Handler struct {
	Orders *OrderHandler
}

func New(svc service.OrderServiceInterface, lg *logger.Logger) *Handler {
	return &Handler{Orders: NewOrderHandler(svc, lg)}
}

// Routes wires the caller-facing operation surface.
func (h *Handler) Routes(jwtSvc *auth.JWTService, m *metrics.OrderMetrics) *http.ServeMux {
	mux := http.NewServeMux()

	authed := Authenticate(jwtSvc)
	admin := RequireAdmin()

	mux.Handle("POST /orders", Instrument(m, "create_order", authed(http.HandlerFunc(h.Orders.Create))))
	mux.Handle("GET /orders/my", Instrument(m, "list_my_orders", authed(http.HandlerFunc(h.Orders.ListMine))))
	mux.Handle("GET /orders", Instrument(m, "list_all_orders", authed(admin(http.HandlerFunc(h.Orders.ListAll)))))
	mux.Handle("PUT /orders/{id}/status", Instrument(m, "update_status", authed(admin(http.HandlerFunc(h.Orders.UpdateStatus)))))
	mux.Handle("PUT /orders/{id}/cancel", Instrument(m, "cancel_order", authed(http.HandlerFunc(h.Orders.Cancel))))

	return mux
}

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Item    any    `json:"item,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps core errors onto the wire taxonomy: validation and
// capacity errors are 400 with a machine code, missing orders are 404,
// anything else is an opaque 500.
func writeError(w http.ResponseWriter, err error) {
	var (
		validation   *domain.ValidationError
		notFound     *domain.ProductNotFoundError
		insufficient *domain.InsufficientStockError
		transition   *domain.InvalidTransitionError
	)

	switch {
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusBadRequest, errorBody{
			Message: notFound.Error(),
			Code:    domain.CodeProductNotFound,
			Item:    map[string]any{"id": notFound.ProductID},
		})
	case errors.As(err, &insufficient):
		item := map[string]any{
			"id":        insufficient.ProductID,
			"available": insufficient.Available,
			"requested": insufficient.Requested,
		}
		if insufficient.Size != "" {
			item["size"] = insufficient.Size
		}
		writeJSON(w, http.StatusBadRequest, errorBody{
			Message: insufficient.Error(),
			Code:    domain.CodeInsufficientStock,
			Item:    item,
		})
	case errors.As(err, &transition):
		writeJSON(w, http.StatusBadRequest, errorBody{
			Message: transition.Error(),
			Code:    domain.CodeInvalidTransition,
		})
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, errorBody{
			Message: validation.Error(),
			Code:    domain.CodeValidation,
		})
	case errors.Is(err, domain.ErrOrderNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Message: "order not found"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody{Message: "failed to process the request"})
	}
}
