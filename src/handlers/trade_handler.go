package handlers

import (
	"fmt"
	"net/http"

	"github.com/tradeboard/backend/src/logger"
	"github.com/tradeboard/backend/src/security/validation"
	"github.com/tradeboard/backend/src/services"
	"github.com/tradeboard/backend/src/utils"
)

type TradeHandler struct {
	tradeService services.TradeService
	closeQueue   services.CloseQueueService
}

func NewTradeHandler(tradeService services.TradeService, closeQueue services.CloseQueueService) *TradeHandler {
	return &TradeHandler{
		tradeService: tradeService,
		closeQueue:   closeQueue,
	}
}

// HandleGetTrades serves the account snapshot and the open/closed partition.
func (h *TradeHandler) HandleGetTrades(w http.ResponseWriter, r *http.Request) {
	book, err := h.tradeService.GetAll(r.Context())
	if err != nil {
		writeServiceError(w, r, "load trades", err, "No trades found")
		return
	}
	utils.SendJSON(w, http.StatusOK, map[string]any{
		"status": utils.StatusSuccess,
		"data":   book,
	})
}

func (h *TradeHandler) HandleGetCapital(w http.ResponseWriter, r *http.Request) {
	capital, err := h.tradeService.GetCapital(r.Context())
	if err != nil {
		writeServiceError(w, r, "load capital", err, "No capital available")
		return
	}
	utils.SendJSON(w, http.StatusOK, map[string]any{
		"status":  utils.StatusSuccess,
		"capital": capital,
	})
}

// HandleAddTrade is called by the trading agent. A ticket that already
// exists is acknowledged with 200 and left untouched.
func (h *TradeHandler) HandleAddTrade(w http.ResponseWriter, r *http.Request) {
	payload, ok := readPayload(w, r)
	if !ok {
		return
	}

	ticket, created, err := h.tradeService.AddTrade(r.Context(), payload)
	if err != nil {
		writeServiceError(w, r, "add trade", err, "Trade not found")
		return
	}

	if !created {
		utils.SendJSON(w, http.StatusOK, map[string]any{
			"status":   utils.StatusSuccess,
			"trade_id": ticket,
			"message":  fmt.Sprintf("Trade %d already exists", ticket),
		})
		return
	}
	utils.SendJSON(w, http.StatusCreated, map[string]any{
		"status":   utils.StatusSuccess,
		"trade_id": ticket,
	})
}

// HandleEditTrade accepts {id, updates:{...}} or the single-field form
// {id, field, value}.
func (h *TradeHandler) HandleEditTrade(w http.ResponseWriter, r *http.Request) {
	payload, ok := readPayload(w, r)
	if !ok {
		return
	}
	ticket, ok := readTicket(w, payload)
	if !ok {
		return
	}

	var updates services.Payload
	if raw, present := payload["updates"]; present {
		m, isObject := raw.(map[string]any)
		if !isObject {
			utils.SendJSONError(w, "updates must be an object", http.StatusBadRequest)
			return
		}
		updates = services.Payload(m)
	} else if raw, present := payload["field"]; present {
		field, err := validation.AsStrictString(raw, "field")
		if err != nil {
			utils.SendJSONError(w, validation.Message(err), http.StatusBadRequest)
			return
		}
		value, hasValue := payload["value"]
		if !hasValue {
			utils.SendJSONError(w, "value is required", http.StatusBadRequest)
			return
		}
		updates = services.Payload{field: value}
	} else {
		utils.SendJSONError(w, "Either updates or field/value is required", http.StatusBadRequest)
		return
	}

	trade, fields, err := h.tradeService.UpdateTrade(r.Context(), ticket, updates)
	if err != nil {
		writeServiceError(w, r, "update trade", err, fmt.Sprintf("Trade %d not found", ticket))
		return
	}
	utils.SendJSON(w, http.StatusOK, map[string]any{
		"status":         utils.StatusSuccess,
		"updated_fields": fields,
		"trade":          trade,
	})
}

// HandleRequestClose queues a dashboard close request for the agent.
func (h *TradeHandler) HandleRequestClose(w http.ResponseWriter, r *http.Request) {
	payload, ok := readPayload(w, r)
	if !ok {
		return
	}
	ticket, ok := readTicket(w, payload)
	if !ok {
		return
	}

	if err := h.closeQueue.RequestClose(r.Context(), ticket); err != nil {
		writeServiceError(w, r, "request close", err, fmt.Sprintf("Trade %d not found", ticket))
		return
	}
	utils.SendJSON(w, http.StatusOK, map[string]any{
		"status": utils.StatusSuccess,
		"id":     ticket,
	})
}

// HandlePendingCloses is polled by the agent with the tickets it still holds.
func (h *TradeHandler) HandlePendingCloses(w http.ResponseWriter, r *http.Request) {
	payload, ok := readPayload(w, r)
	if !ok {
		return
	}

	raw, isList := payload["open_tickets"].([]any)
	if !isList {
		utils.SendJSONError(w, "open_tickets must be a list of tickets", http.StatusBadRequest)
		return
	}
	openTickets := make([]int64, 0, len(raw))
	for _, item := range raw {
		ticket, err := validation.AsTicket(item, "open_tickets")
		if err != nil {
			utils.SendJSONError(w, validation.Message(err), http.StatusBadRequest)
			return
		}
		openTickets = append(openTickets, ticket)
	}

	toClose, err := h.closeQueue.FilterPending(r.Context(), openTickets)
	if err != nil {
		writeServiceError(w, r, "load pending closes", err, "No pending closes")
		return
	}
	if len(toClose) > 0 {
		logger.FromContext(r.Context()).Info("Pending closes handed to agent", "tickets", toClose)
	}
	utils.SendJSON(w, http.StatusOK, map[string]any{
		"status":           utils.StatusSuccess,
		"tickets_to_close": toClose,
	})
}
