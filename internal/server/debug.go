package server

import (
	"encoding/json"
	"fmt"
	"math/bits"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vision-server/internal/engine"
	"vision-server/pkg/api"
)

// DebugHandler предоставляет доступ ко внутреннему состоянию движка
type DebugHandler struct {
	Service *engine.Service
}

func NewDebugHandler(s *engine.Service) *DebugHandler {
	return &DebugHandler{Service: s}
}

// RegisterRoutes регистрирует debug-эндпоинты
func (h *DebugHandler) RegisterRoutes(r chi.Router) {
	r.Get("/debug/sessions", h.handleListSessions)
	r.Get("/debug/fog", h.handleFog)
	r.Get("/debug/entities", h.handleDumpEntities)
}

// /debug/sessions - список открытых карт
func (h *DebugHandler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Service.SessionIDs())
}

// /debug/fog?map=m1 - сводка по туману карты
func (h *DebugHandler) handleFog(w http.ResponseWriter, r *http.Request) {
	frame, err := h.requestFrame(w, r)
	if err != nil {
		return
	}

	type FogSummary struct {
		MapID         string `json:"map_id"`
		Mode          string `json:"mode"`
		Cols          int    `json:"cols"`
		Rows          int    `json:"rows"`
		VisibleCells  int    `json:"visible_cells"`
		RevealedCells int    `json:"revealed_cells"`
	}

	summary := FogSummary{MapID: frame.MapID, Mode: frame.Mode}
	if frame.VisionMask != nil {
		summary.Cols = frame.VisionMask.Cols
		summary.Rows = frame.VisionMask.Rows
		summary.VisibleCells = popCount(frame.VisionMask.Visible)
		summary.RevealedCells = popCount(frame.VisionMask.Revealed)
	}
	writeJSON(w, summary)
}

// /debug/entities?map=m1 - полный мастерский кадр, включая скрытые сущности
func (h *DebugHandler) handleDumpEntities(w http.ResponseWriter, r *http.Request) {
	frame, err := h.requestFrame(w, r)
	if err != nil {
		return
	}
	writeJSON(w, frame)
}

// requestFrame достает свежий мастерский кадр карты из query-параметра.
// Все ответы на ошибки пишутся здесь, вызывающему достаточно return.
func (h *DebugHandler) requestFrame(w http.ResponseWriter, r *http.Request) (api.DisplayFrame, error) {
	mapID := r.URL.Query().Get("map")
	if mapID == "" {
		http.Error(w, "map query parameter is required", http.StatusBadRequest)
		return api.DisplayFrame{}, fmt.Errorf("missing map")
	}

	frame, err := h.Service.Recompute(mapID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return api.DisplayFrame{}, err
	}
	return frame, nil
}

func popCount(bs []byte) int {
	n := 0
	for _, b := range bs {
		n += bits.OnesCount8(b)
	}
	return n
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")

	if data == nil {
		w.Write([]byte("[]"))
		return
	}
	json.NewEncoder(w).Encode(data)
}
