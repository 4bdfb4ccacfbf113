package handlers

import (
	"net/http"

	"github.com/tradeboard/backend/src/services"
	"github.com/tradeboard/backend/src/utils"
)

type AccountHandler struct {
	accountService services.AccountService
}

func NewAccountHandler(accountService services.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// HandleUpdateAccount upserts the broker snapshot posted as {account:{...}}.
func (h *AccountHandler) HandleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	payload, ok := readPayload(w, r)
	if !ok {
		return
	}

	raw, isObject := payload["account"].(map[string]any)
	if !isObject {
		utils.SendJSONError(w, "account object is required", http.StatusBadRequest)
		return
	}

	account, err := h.accountService.Update(r.Context(), services.Payload(raw))
	if err != nil {
		writeServiceError(w, r, "update account", err, "Account not found")
		return
	}
	utils.SendJSON(w, http.StatusOK, map[string]any{
		"status":  utils.StatusSuccess,
		"account": account,
	})
}
