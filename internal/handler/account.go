package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/stocktrade/internal/domain"
	"github.com/efreitasn/stocktrade/internal/service"
)

// AccountHandler handles HTTP requests for account endpoints.
type AccountHandler struct {
	accountSvc *service.AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountSvc *service.AccountService) *AccountHandler {
	return &AccountHandler{accountSvc: accountSvc}
}

// registerRequest is the JSON body for POST /accounts.
type registerRequest struct {
	UserName string `json:"username"`
}

// accountResponse is the JSON representation of an account.
type accountResponse struct {
	UserName  string           `json:"username"`
	Balance   float64          `json:"balance"`
	Portfolio map[string]int64 `json:"portfolio"`
}

// Register handles POST /accounts.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	account, err := h.accountSvc.Register(req.UserName)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, accountResponse{
		UserName:  account.UserName,
		Balance:   domain.CentsToDollars(account.Balance),
		Portfolio: account.Portfolio,
	})
}

// addFundsRequest is the JSON body for POST /accounts/{username}/funds.
type addFundsRequest struct {
	TransactionID string  `json:"transaction_id"`
	Amount        float64 `json:"amount"`
}

// AddFunds handles POST /accounts/{username}/funds.
func (h *AccountHandler) AddFunds(w http.ResponseWriter, r *http.Request) {
	userName := chi.URLParam(r, "username")

	var req addFundsRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	balance, err := h.accountSvc.AddFunds(userName, req.TransactionID, req.Amount)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"username": userName,
		"balance":  domain.CentsToDollars(balance),
	})
}

// summaryResponse is the JSON representation of an account summary.
type summaryResponse struct {
	UserName     string           `json:"username"`
	Balance      float64          `json:"balance"`
	Portfolio    map[string]int64 `json:"portfolio"`
	OpenOrders   []orderResponse  `json:"open_orders"`
	ClosedOrders []orderResponse  `json:"closed_orders"`
}

// GetSummary handles GET /accounts/{username}/summary.
func (h *AccountHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	userName := chi.URLParam(r, "username")

	summary, err := h.accountSvc.GetSummary(userName)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	resp := summaryResponse{
		UserName:     summary.UserName,
		Balance:      domain.CentsToDollars(summary.Balance),
		Portfolio:    summary.Portfolio,
		OpenOrders:   make([]orderResponse, 0, len(summary.OpenOrders)),
		ClosedOrders: make([]orderResponse, 0, len(summary.ClosedOrders)),
	}
	for _, o := range summary.OpenOrders {
		resp.OpenOrders = append(resp.OpenOrders, toOrderResponse(o))
	}
	for _, o := range summary.ClosedOrders {
		resp.ClosedOrders = append(resp.ClosedOrders, toOrderResponse(o))
	}
	WriteJSON(w, http.StatusOK, resp)
}

// eventResponse is the JSON representation of an audit event.
type eventResponse struct {
	EventID       string  `json:"event_id"`
	Kind          string  `json:"kind"`
	TransactionID string  `json:"transaction_id"`
	Command       string  `json:"command"`
	Symbol        string  `json:"symbol,omitempty"`
	Funds         float64 `json:"funds"`
	Message       string  `json:"message,omitempty"`
	At            string  `json:"at"`
}

// ListEvents handles GET /accounts/{username}/events.
func (h *AccountHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	userName := chi.URLParam(r, "username")

	events, err := h.accountSvc.ListEvents(userName)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	resp := make([]eventResponse, 0, len(events))
	for _, e := range events {
		resp = append(resp, eventResponse{
			EventID:       e.EventID,
			Kind:          string(e.Kind),
			TransactionID: e.TransactionID,
			Command:       e.Command,
			Symbol:        e.Symbol,
			Funds:         domain.CentsToDollars(e.Funds),
			Message:       e.Message,
			At:            e.At.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		})
	}
	WriteJSON(w, http.StatusOK, resp)
}
