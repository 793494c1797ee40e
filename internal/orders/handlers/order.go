package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"nublack-orders/internal/common/logger"
	"nublack-orders/internal/orders/domain"
	"nublack-orders/internal/orders/service"
)

const idempotencyHeader = "Idempotency-Key"

type OrderHandler struct {
	service service.OrderServiceInterface
	lg      *logger.Logger
}

func NewOrderHandler(s service.OrderServiceInterface, lg *logger.Logger) *OrderHandler {
	return &OrderHandler{service: s, lg: lg}
}

func (oh *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Message: "unauthorized"})
		return
	}

	var req domain.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "invalid JSON body", Code: domain.CodeValidation})
		return
	}

	// The header wins over the body field.
	if key := strings.TrimSpace(r.Header.Get(idempotencyHeader)); key != "" {
		req.IdempotencyKey = key
	}

	resp, err := oh.service.PlaceOrder(r.Context(), claims.UserID, req)
	if err != nil {
		oh.lg.Error("order_create_failed", err, map[string]any{"user_id": claims.UserID})
		writeError(w, err)
		return
	}

	status := http.StatusCreated
	if resp.AlreadyProcessed {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

func (oh *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Message: "unauthorized"})
		return
	}

	orders, err := oh.service.ListByUser(r.Context(), claims.UserID)
	if err != nil {
		oh.lg.Error("order_list_failed", err, map[string]any{"user_id": claims.UserID})
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toViews(orders))
}

func (oh *OrderHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	orders, err := oh.service.ListAll(r.Context())
	if err != nil {
		oh.lg.Error("order_list_all_failed", err, nil)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toViews(orders))
}

func (oh *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req domain.StatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "invalid JSON body", Code: domain.CodeValidation})
		return
	}

	updated, err := oh.service.SetStatus(r.Context(), orderID, req.Status, req.Reason)
	if err != nil {
		oh.lg.Error("order_status_update_failed", err, map[string]any{"order_id": orderID})
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"status":  domain.ToExternal(updated.Status),
	})
}

func (oh *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Message: "unauthorized"})
		return
	}
	orderID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req domain.CancelRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if err := oh.service.Cancel(r.Context(), orderID, claims.UserID, req.Reason); err != nil {
		oh.lg.Error("order_cancel_failed", err, map[string]any{"order_id": orderID, "user_id": claims.UserID})
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "invalid order id", Code: domain.CodeValidation})
		return 0, false
	}
	return id, true
}

func toViews(orders []domain.Order) []domain.OrderView {
	views := make([]domain.OrderView, 0, len(orders))
	for i := range orders {
		views = append(views, domain.ToView(&orders[i]))
	}
	return views
}
