package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	apimw "github.com/zionnet/newsflow/internal/api/middleware"
	"github.com/zionnet/newsflow/internal/domain"
	"github.com/zionnet/newsflow/internal/pipeline"
)

// NewsHandler fronts the aggregation pipeline.
type NewsHandler struct {
	pipe   *pipeline.Pipeline
	logger *zap.Logger
}

func NewNewsHandler(pipe *pipeline.Pipeline, logger *zap.Logger) *NewsHandler {
	return &NewsHandler{pipe: pipe, logger: logger}
}

type fetchNewsRequest struct {
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	Preferences []string `json:"preferences"`
}

// FetchNews handles POST /users/{id}/news: assemble cached-or-fresh content
// for the requested categories and fan it out to the notification channels.
func (h *NewsHandler) FetchNews(w http.ResponseWriter, r *http.Request) {
	var req fetchNewsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Preferences) == 0 {
		respondError(w, http.StatusBadRequest, "preferences are required")
		return
	}

	items, err := h.pipe.Process(r.Context(), req.Preferences, domain.Recipient{
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		h.logger.Warn("news aggregation failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message": "News fetch request sent successfully",
		"news":    items,
	})
}
