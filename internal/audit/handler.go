package audit

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/peoplehub/hr-backoffice/internal/transport"
	"github.com/peoplehub/hr-backoffice/pkg/logger"
)

// Handler serves the per-entity transition trail.
type Handler struct {
	*transport.BaseHandler
	Reader Reader
}

func NewHandler(reader Reader) *Handler {
	lg := logger.L()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Reader:      reader,
	}
}

func (h *Handler) ListEntityTrail(w http.ResponseWriter, r *http.Request) {
	entityType := chi.URLParam(r, "entity_type")
	idStr := chi.URLParam(r, "id")
	entityID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid entity ID")
		return
	}

	limit := 100
	offset := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 && v <= 500 {
			limit = v
		}
	}
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	events, err := h.Reader.ListByEntity(r.Context(), entityType, entityID, limit, offset)
	if err != nil {
		h.Logger.Error("ListEntityTrail: query failed", "error", err, "entity_type", entityType, "entity_id", entityID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, events)
}
