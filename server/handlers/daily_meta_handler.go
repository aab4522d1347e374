package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"traffic-reporter/models"
)

// DailyMetaWriter stores the order target of a date.
type DailyMetaWriter interface {
	UpsertDailyMeta(ctx context.Context, m *models.DailyMeta) error
}

// DailyMetaRequest is the body of PUT /v1/daily-metas/{date}.
type DailyMetaRequest struct {
	TargetCount *int `json:"target_count" validate:"required,min=0"`
}

type DailyMetaHandler struct {
	metas  DailyMetaWriter
	logger *zap.Logger
}

func NewDailyMetaHandler(metas DailyMetaWriter, logger *zap.Logger) *DailyMetaHandler {
	return &DailyMetaHandler{metas: metas, logger: logger}
}

// PutDailyMeta serves PUT /v1/daily-metas/{date} with a {"target_count": N} body.
// An existing target for the date is replaced.
func (h *DailyMetaHandler) PutDailyMeta(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["date"]
	date, err := time.Parse(models.DATE_LAYOUT, raw)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, fmt.Sprintf("date must use the %s layout", models.DATE_LAYOUT))
		return
	}

	var req DailyMetaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "target_count must be a non-negative integer")
		return
	}

	meta := &models.DailyMeta{Date: date, TargetCount: *req.TargetCount}
	if err := h.metas.UpsertDailyMeta(r.Context(), meta); err != nil {
		h.logger.Error("[DailyMetaHandler] error storing daily meta", zap.String("date", raw), zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"id":           meta.ID,
			"date":         raw,
			"target_count": meta.TargetCount,
		},
	})
}
