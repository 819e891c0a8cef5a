package httppresentation

import (
	"net/http"

	appaccount "github.com/Zhima-Mochi/vending-machine/internal/application/account"
	domacc "github.com/Zhima-Mochi/vending-machine/internal/domain/account"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/identity"
)

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type registerResponse struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.uc.Register.Execute(r.Context(), appaccount.RegisterCommand{
		Username: req.Username,
		Password: req.Password,
		Role:     identity.Role(req.Role),
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, registerResponse{ID: res.Account.ID, Token: res.Token})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}
	token, err := h.uc.Login.Execute(r.Context(), appaccount.LoginCommand{Username: req.Username, Password: req.Password})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if _, err := h.uc.Logout.Execute(r.Context(), callerFrom(r.Context())); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.pathID(w, r, domacc.ErrNotFound)
	if !ok {
		return
	}
	a, err := h.uc.GetAccount.Execute(r.Context(), appaccount.GetCommand{
		Caller:    callerFrom(r.Context()),
		AccountID: accountID,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAccountView(a))
}

type updateAccountRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

func (h *Handler) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.pathID(w, r, domacc.ErrNotFound)
	if !ok {
		return
	}
	var req updateAccountRequest
	if !h.decode(w, r, &req) {
		return
	}
	a, err := h.uc.UpdateAccount.Execute(r.Context(), appaccount.UpdateCommand{
		Caller:    callerFrom(r.Context()),
		AccountID: accountID,
		Username:  req.Username,
		Password:  req.Password,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAccountView(a))
}

func (h *Handler) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.pathID(w, r, domacc.ErrNotFound)
	if !ok {
		return
	}
	_, err := h.uc.DeleteAccount.Execute(r.Context(), appaccount.DeleteCommand{
		Caller:    callerFrom(r.Context()),
		AccountID: accountID,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type depositRequest struct {
	Coin int64 `json:"coin"`
}

func (h *Handler) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if !h.decode(w, r, &req) {
		return
	}
	balance, err := h.uc.Deposit.Execute(r.Context(), appaccount.DepositCommand{
		Caller: callerFrom(r.Context()),
		Coin:   req.Coin,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBalanceView(balance))
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	balance, err := h.uc.ResetDeposit.Execute(r.Context(), callerFrom(r.Context()))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBalanceView(balance))
}
