package resignation

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/peoplehub/hr-backoffice/internal/auth"
	"github.com/peoplehub/hr-backoffice/internal/transport"
	"github.com/peoplehub/hr-backoffice/internal/workflow"
	"github.com/peoplehub/hr-backoffice/pkg/logger"
)

type ServiceAPI interface {
	SubmitResignation(ctx context.Context, actor workflow.Actor, dto SubmitResignationDTO) (*Resignation, error)
	ApproveResignation(ctx context.Context, actor workflow.Actor, id int64) (*Resignation, error)
	RejectResignation(ctx context.Context, actor workflow.Actor, id int64, dto RejectResignationDTO) (*Resignation, error)
	CancelResignation(ctx context.Context, actor workflow.Actor, id int64, dto CancelResignationDTO) (*Resignation, error)
	GetResignation(ctx context.Context, id int64) (*Resignation, error)
	ListByEmployee(ctx context.Context, employeeID int64) ([]Resignation, error)
	ListPending(ctx context.Context) ([]Resignation, error)
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

func (h *Handler) SubmitResignation(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto SubmitResignationDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.Service.SubmitResignation(r.Context(), user.Actor(), dto)
	if err != nil {
		h.Logger.Error("SubmitResignation: service error", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("SubmitResignation: resignation submitted",
		"resignation_id", res.ID,
		"employee_id", res.EmployeeID)

	h.WriteJSON(w, http.StatusCreated, res)
}

func (h *Handler) GetResignation(w http.ResponseWriter, r *http.Request) {
	id, ok := h.resignationID(w, r)
	if !ok {
		return
	}

	res, err := h.Service.GetResignation(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) ListResignations(w http.ResponseWriter, r *http.Request) {
	if s := r.URL.Query().Get("employee_id"); s != "" {
		employeeID, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid employee_id")
			return
		}
		list, err := h.Service.ListByEmployee(r.Context(), employeeID)
		if err != nil {
			h.HandleServiceError(w, err)
			return
		}
		h.WriteJSON(w, http.StatusOK, list)
		return
	}

	list, err := h.Service.ListPending(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) ApproveResignation(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.resignationID(w, r)
	if !ok {
		return
	}

	res, err := h.Service.ApproveResignation(r.Context(), user.Actor(), id)
	if err != nil {
		h.Logger.Error("ApproveResignation: service error", "error", err, "resignation_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) RejectResignation(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.resignationID(w, r)
	if !ok {
		return
	}

	var dto RejectResignationDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.Service.RejectResignation(r.Context(), user.Actor(), id, dto)
	if err != nil {
		h.Logger.Error("RejectResignation: service error", "error", err, "resignation_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) CancelResignation(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.resignationID(w, r)
	if !ok {
		return
	}

	var dto CancelResignationDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.Service.CancelResignation(r.Context(), user.Actor(), id, dto)
	if err != nil {
		h.Logger.Error("CancelResignation: service error", "error", err, "resignation_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) resignationID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid resignation ID")
		return 0, false
	}
	return id, true
}
