package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/stocktrade/internal/domain"
	"github.com/efreitasn/stocktrade/internal/service"
)

// OrderHandler handles HTTP requests for order and quote endpoints.
type OrderHandler struct {
	orderSvc *service.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderSvc *service.OrderService) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc}
}

// orderResponse is the JSON representation of an order.
type orderResponse struct {
	OrderID       string  `json:"order_id"`
	TransactionID string  `json:"transaction_id"`
	UserName      string  `json:"username"`
	Type          string  `json:"type"`
	Symbol        string  `json:"symbol"`
	CashAmount    float64 `json:"cash_amount"`
	StockAmount   int64   `json:"stock_amount"`
	UnitPrice     float64 `json:"unit_price"`
	Status        string  `json:"status"`
	CreatedAt     string  `json:"created_at"`
}

func toOrderResponse(o *domain.Order) orderResponse {
	return orderResponse{
		OrderID:       o.OrderID,
		TransactionID: o.TransactionID,
		UserName:      o.UserName,
		Type:          string(o.Type),
		Symbol:        o.Symbol,
		CashAmount:    domain.CentsToDollars(o.CashAmount),
		StockAmount:   o.StockAmount,
		UnitPrice:     domain.CentsToDollars(o.UnitPrice),
		Status:        string(o.Status),
		CreatedAt:     o.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
}

// quoteResponse is the JSON representation of a quote.
type quoteResponse struct {
	Symbol    string  `json:"symbol"`
	UnitPrice float64 `json:"unit_price"`
	Timestamp string  `json:"timestamp"`
	CryptoKey string  `json:"crypto_key"`
}

// GetQuote handles GET /quotes/{symbol}.
func (h *OrderHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	userName := r.URL.Query().Get("username")
	transactionID := r.URL.Query().Get("transaction_id")

	q, err := h.orderSvc.GetQuote(userName, transactionID, symbol)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, quoteResponse{
		Symbol:    q.Symbol,
		UnitPrice: domain.CentsToDollars(q.UnitPrice),
		Timestamp: q.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		CryptoKey: q.CryptoKey,
	})
}

// createSimpleOrderRequest is the JSON body for POST /orders/simple.
type createSimpleOrderRequest struct {
	UserName      string  `json:"username"`
	TransactionID string  `json:"transaction_id"`
	Type          string  `json:"type"`
	Symbol        string  `json:"symbol"`
	CashAmount    float64 `json:"cash_amount"`
}

// CreateSimpleOrder handles POST /orders/simple.
func (h *OrderHandler) CreateSimpleOrder(w http.ResponseWriter, r *http.Request) {
	var req createSimpleOrderRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	ord, err := h.orderSvc.CreateSimpleOrder(service.CreateSimpleOrderRequest{
		UserName:      req.UserName,
		TransactionID: req.TransactionID,
		Type:          domain.OrderType(req.Type),
		Symbol:        req.Symbol,
		CashAmount:    req.CashAmount,
	})
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toOrderResponse(ord))
}

// simpleOrderActionRequest is the JSON body for commit/cancel of a
// simple order.
type simpleOrderActionRequest struct {
	UserName      string `json:"username"`
	TransactionID string `json:"transaction_id"`
	Type          string `json:"type"`
}

// CommitSimpleOrder handles POST /orders/simple/commit.
func (h *OrderHandler) CommitSimpleOrder(w http.ResponseWriter, r *http.Request) {
	var req simpleOrderActionRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	ord, err := h.orderSvc.Commit(req.UserName, req.TransactionID, domain.OrderType(req.Type))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toOrderResponse(ord))
}

// CancelSimpleOrder handles POST /orders/simple/cancel.
func (h *OrderHandler) CancelSimpleOrder(w http.ResponseWriter, r *http.Request) {
	var req simpleOrderActionRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	ord, err := h.orderSvc.CancelSimple(req.UserName, req.TransactionID, domain.OrderType(req.Type))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toOrderResponse(ord))
}

// createLimitOrderRequest is the JSON body for POST /orders/limit.
type createLimitOrderRequest struct {
	UserName      string `json:"username"`
	TransactionID string `json:"transaction_id"`
	Type          string `json:"type"`
	Symbol        string `json:"symbol"`
	StockAmount   int64  `json:"stock_amount"`
}

// CreateLimitOrder handles POST /orders/limit.
func (h *OrderHandler) CreateLimitOrder(w http.ResponseWriter, r *http.Request) {
	var req createLimitOrderRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	ord, err := h.orderSvc.CreateLimitOrder(service.CreateLimitOrderRequest{
		UserName:      req.UserName,
		TransactionID: req.TransactionID,
		Type:          domain.OrderType(req.Type),
		Symbol:        req.Symbol,
		StockAmount:   req.StockAmount,
	})
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toOrderResponse(ord))
}

// triggerLimitOrderRequest is the JSON body for POST /orders/limit/trigger.
type triggerLimitOrderRequest struct {
	UserName      string  `json:"username"`
	TransactionID string  `json:"transaction_id"`
	Type          string  `json:"type"`
	UnitPrice     float64 `json:"unit_price"`
}

// TriggerLimitOrder handles POST /orders/limit/trigger.
func (h *OrderHandler) TriggerLimitOrder(w http.ResponseWriter, r *http.Request) {
	var req triggerLimitOrderRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	ord, err := h.orderSvc.Trigger(req.UserName, req.TransactionID, domain.OrderType(req.Type), req.UnitPrice)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toOrderResponse(ord))
}

// cancelLimitOrderRequest is the JSON body for POST /orders/limit/cancel.
type cancelLimitOrderRequest struct {
	UserName      string `json:"username"`
	TransactionID string `json:"transaction_id"`
	Type          string `json:"type"`
	Symbol        string `json:"symbol"`
}

// CancelLimitOrder handles POST /orders/limit/cancel.
func (h *OrderHandler) CancelLimitOrder(w http.ResponseWriter, r *http.Request) {
	var req cancelLimitOrderRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	ord, err := h.orderSvc.CancelLimit(req.UserName, req.TransactionID, domain.OrderType(req.Type), req.Symbol)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toOrderResponse(ord))
}
