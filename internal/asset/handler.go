package asset

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/peoplehub/hr-backoffice/internal/transport"
	"github.com/peoplehub/hr-backoffice/pkg/logger"
)

type ServiceAPI interface {
	ListAssets(ctx context.Context, limit, offset int) ([]*Asset, error)
	GetAsset(ctx context.Context, id int64) (*Asset, error)
	RegisterAsset(ctx context.Context, tag, name, category, serialNumber string) (*Asset, error)
	RetireAsset(ctx context.Context, id int64) (*Asset, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.L()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

type registerAssetDTO struct {
	Tag          string `json:"tag"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	SerialNumber string `json:"serial_number"`
}

func (h *Handler) RegisterAsset(w http.ResponseWriter, r *http.Request) {
	var dto registerAssetDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, err := h.Service.RegisterAsset(r.Context(), dto.Tag, dto.Name, dto.Category, dto.SerialNumber)
	if err != nil {
		h.Logger.Error("RegisterAsset: service error", "error", err, "tag", dto.Tag)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, a)
}

func (h *Handler) GetAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := h.assetID(w, r)
	if !ok {
		return
	}

	a, err := h.Service.GetAsset(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 && v <= 200 {
			limit = v
		}
	}
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	list, err := h.Service.ListAssets(r.Context(), limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) RetireAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := h.assetID(w, r)
	if !ok {
		return
	}

	a, err := h.Service.RetireAsset(r.Context(), id)
	if err != nil {
		h.Logger.Error("RetireAsset: service error", "error", err, "asset_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) assetID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid asset ID")
		return 0, false
	}
	return id, true
}
