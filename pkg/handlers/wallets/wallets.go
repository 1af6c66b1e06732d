package wallets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/renovalink/escrow-ledger/pkg/api"
	"github.com/renovalink/escrow-ledger/pkg/ledger"
	"github.com/renovalink/escrow-ledger/pkg/mapping"
	"github.com/renovalink/escrow-ledger/pkg/models"
	"github.com/renovalink/escrow-ledger/pkg/storage"
)

// WalletsHandler holds the dependencies for wallet-related handlers.
type WalletsHandler struct {
	Ledger ledger.API
}

// NewWalletsHandler creates a new WalletsHandler.
func NewWalletsHandler(svc ledger.API) *WalletsHandler {
	return &WalletsHandler{Ledger: svc}
}

// CreateWallet handles the logic for creating a new project wallet.
func (h *WalletsHandler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	var newWallet api.NewWallet
	if err := json.NewDecoder(r.Body).Decode(&newWallet); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if newWallet.ProjectID == "" {
		http.Error(w, "project_id is required", http.StatusBadRequest)
		return
	}

	createdWallet, err := h.Ledger.CreateWallet(r.Context(), newWallet.ProjectID, newWallet.Currency, newWallet.Provider)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to create wallet: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, mapping.ToApiWallet(createdWallet))
}

// GetWalletByProjectId handles the logic for retrieving a project's wallet.
func (h *WalletsHandler) GetWalletByProjectId(w http.ResponseWriter, r *http.Request, projectId string) {
	domainWallet, err := h.Ledger.GetWallet(r.Context(), projectId)
	if err != nil {
		writeDomainError(w, err, "Failed to retrieve wallet")
		return
	}

	writeJSON(w, http.StatusOK, mapping.ToApiWallet(domainWallet))
}

// ListWallets handles the logic for retrieving all wallets.
func (h *WalletsHandler) ListWallets(w http.ResponseWriter, r *http.Request) {
	domainWallets, err := h.Ledger.ListWallets(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to retrieve wallets: %v", err), http.StatusInternalServerError)
		return
	}

	// Sort wallets by CreatedAt in descending order.
	sort.Slice(domainWallets, func(i, j int) bool {
		return domainWallets[i].CreatedAt.After(domainWallets[j].CreatedAt)
	})

	apiWallets := make([]*api.Wallet, len(domainWallets))
	for i, wallet := range domainWallets {
		apiWallets[i] = mapping.ToApiWallet(&wallet)
	}

	writeJSON(w, http.StatusOK, apiWallets)
}

// Withdraw handles the logic for disbursing funds from a wallet.
func (h *WalletsHandler) Withdraw(w http.ResponseWriter, r *http.Request, projectId string) {
	var req api.WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	txnID := ""
	if req.TransactionID != nil {
		txnID = *req.TransactionID
	}
	actorID := ""
	if req.ActorID != nil {
		actorID = *req.ActorID
	}

	updatedWallet, err := h.Ledger.Withdraw(r.Context(), projectId, req.Amount, txnID, actorID, req.Reason)
	if err != nil {
		writeDomainError(w, err, "Failed to withdraw")
		return
	}

	writeJSON(w, http.StatusOK, mapping.ToApiWallet(updatedWallet))
}

// Reserve handles the logic for earmarking funds against future work.
func (h *WalletsHandler) Reserve(w http.ResponseWriter, r *http.Request, projectId string) {
	var req api.ReserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	updatedWallet, err := h.Ledger.Reserve(r.Context(), projectId, req.Amount, req.Reason)
	if err != nil {
		writeDomainError(w, err, "Failed to reserve funds")
		return
	}

	writeJSON(w, http.StatusOK, mapping.ToApiWallet(updatedWallet))
}

// Release handles the logic for returning earmarked funds to the available pool.
func (h *WalletsHandler) Release(w http.ResponseWriter, r *http.Request, projectId string) {
	var req api.ReleaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	updatedWallet, err := h.Ledger.ReleaseReserved(r.Context(), projectId, req.Amount)
	if err != nil {
		writeDomainError(w, err, "Failed to release reservation")
		return
	}

	writeJSON(w, http.StatusOK, mapping.ToApiWallet(updatedWallet))
}

// Adjust handles the admin-facing balance correction. The reason is mandatory
// and the adjustment flows through the regular deposit or withdrawal path.
func (h *WalletsHandler) Adjust(w http.ResponseWriter, r *http.Request, projectId string) {
	var req api.AdjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	updatedWallet, err := h.Ledger.AdjustBalance(r.Context(), projectId, req.Amount, req.Reason, req.ActorID)
	if err != nil {
		writeDomainError(w, err, "Failed to adjust balance")
		return
	}

	writeJSON(w, http.StatusOK, mapping.ToApiWallet(updatedWallet))
}

// Freeze handles the logic for freezing a wallet.
func (h *WalletsHandler) Freeze(w http.ResponseWriter, r *http.Request, projectId string) {
	h.changeStatus(w, r, projectId, h.Ledger.Freeze, "Failed to freeze wallet")
}

// Unfreeze handles the logic for unfreezing a wallet.
func (h *WalletsHandler) Unfreeze(w http.ResponseWriter, r *http.Request, projectId string) {
	h.changeStatus(w, r, projectId, h.Ledger.Unfreeze, "Failed to unfreeze wallet")
}

// Close handles the logic for closing a wallet. The balance must be zero.
func (h *WalletsHandler) Close(w http.ResponseWriter, r *http.Request, projectId string) {
	h.changeStatus(w, r, projectId, h.Ledger.Close, "Failed to close wallet")
}

func (h *WalletsHandler) changeStatus(w http.ResponseWriter, r *http.Request, projectId string, op func(ctx context.Context, projectID, actorID string) (*models.Wallet, error), failMsg string) {
	var req api.StatusChangeRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
			return
		}
	}

	updatedWallet, err := op(r.Context(), projectId, req.ActorID)
	if err != nil {
		writeDomainError(w, err, failMsg)
		return
	}

	writeJSON(w, http.StatusOK, mapping.ToApiWallet(updatedWallet))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// writeDomainError maps storage sentinels onto the HTTP error contract.
func writeDomainError(w http.ResponseWriter, err error, failMsg string) {
	switch {
	case errors.Is(err, storage.ErrWalletNotFound):
		http.Error(w, "Wallet not found", http.StatusNotFound)
	case errors.Is(err, storage.ErrInvalidAmount), errors.Is(err, storage.ErrReasonRequired):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, storage.ErrInsufficientAvailableBalance),
		errors.Is(err, storage.ErrOverRelease),
		errors.Is(err, storage.ErrNonZeroBalance),
		errors.Is(err, storage.ErrWalletFrozen),
		errors.Is(err, storage.ErrWalletClosed):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, storage.ErrVersionConflict):
		http.Error(w, "Wallet was modified concurrently, retry", http.StatusConflict)
	default:
		http.Error(w, fmt.Sprintf("%s: %v", failMsg, err), http.StatusInternalServerError)
	}
}
