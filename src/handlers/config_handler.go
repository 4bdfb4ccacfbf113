package handlers

import (
	"net/http"

	"github.com/tradeboard/backend/src/services"
	"github.com/tradeboard/backend/src/utils"
)

type ConfigHandler struct {
	configService services.ConfigService
}

func NewConfigHandler(configService services.ConfigService) *ConfigHandler {
	return &ConfigHandler{configService: configService}
}

// HandleGetConfig answers with {data:{config:{...}}}, the shape the
// dashboard reads for both backends.
func (h *ConfigHandler) HandleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.configService.Get(r.Context())
	if err != nil {
		writeServiceError(w, r, "load config", err, "Config not found")
		return
	}
	utils.SendJSON(w, http.StatusOK, map[string]any{
		"status": utils.StatusSuccess,
		"data":   map[string]any{"config": cfg},
	})
}

func (h *ConfigHandler) HandleEditConfig(w http.ResponseWriter, r *http.Request) {
	payload, ok := readPayload(w, r)
	if !ok {
		return
	}

	updated, err := h.configService.Patch(r.Context(), payload)
	if err != nil {
		writeServiceError(w, r, "update config", err, "Config not found")
		return
	}
	utils.SendJSON(w, http.StatusOK, map[string]any{
		"status":  utils.StatusSuccess,
		"updated": updated,
	})
}
