package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hahaandwawa/portfolio-app-sub000/internal/models"
	"github.com/hahaandwawa/portfolio-app-sub000/internal/services"
)

type CashHandler struct {
	service services.CashService
}

func NewCashHandler(service services.CashService) *CashHandler {
	return &CashHandler{service: service}
}

// HandleCashAccounts handles collection-level operations for cash accounts.
// @Summary List or create cash accounts
// @Tags cash
// @Accept json
// @Produce json
// @Param accounts query string false "Comma-separated account names"
// @Success 200 {array} models.CashAccount
// @Failure 400 {string} string "Invalid request"
// @Failure 500 {string} string "Internal server error"
// @Router /cash [get]
// @Router /cash [post]
func (h *CashHandler) HandleCashAccounts(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case "GET":
		accounts, err := h.service.ListCashAccounts(r.Context(), parseAccounts(r))
		if err != nil {
			writeError(w, err)
			return
		}
		json.NewEncoder(w).Encode(accounts)
	case "POST":
		var account models.CashAccount
		if err := json.NewDecoder(r.Body).Decode(&account); err != nil {
			http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
			return
		}
		if err := h.service.CreateCashAccount(r.Context(), &account); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(account)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleCashAccount handles item-level operations for a cash account.
// @Summary Get, update, or delete a cash account
// @Tags cash
// @Accept json
// @Produce json
// @Param id path string true "Cash account ID"
// @Success 200 {object} models.CashAccount
// @Failure 400 {string} string "Bad request"
// @Failure 404 {string} string "Not found"
// @Failure 500 {string} string "Internal server error"
// @Router /cash/{id} [get]
// @Router /cash/{id} [put]
// @Router /cash/{id} [delete]
func (h *CashHandler) HandleCashAccount(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, "Cash account ID is required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case "GET":
		account, err := h.service.GetCashAccount(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		json.NewEncoder(w).Encode(account)
	case "PUT":
		var account models.CashAccount
		if err := json.NewDecoder(r.Body).Decode(&account); err != nil {
			http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
			return
		}
		account.ID = id
		if err := h.service.UpdateCashAccount(r.Context(), &account); err != nil {
			writeError(w, err)
			return
		}
		json.NewEncoder(w).Encode(account)
	case "DELETE":
		if err := h.service.DeleteCashAccount(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
