package assignment

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
	CreateAssignment(ctx context.Context, actor workflow.Actor, dto CreateAssignmentDTO) (*Assignment, error)
	ApproveAssignment(ctx context.Context, actor workflow.Actor, id int64, evidence EvidenceDTO) (*Assignment, error)
	RejectAssignment(ctx context.Context, actor workflow.Actor, id int64, dto RejectAssignmentDTO) (*Assignment, error)
	RequestReturn(ctx context.Context, actor workflow.Actor, id int64) (*Assignment, error)
	ConfirmReturn(ctx context.Context, actor workflow.Actor, id int64, evidence EvidenceDTO) (*Assignment, error)
	GetAssignment(ctx context.Context, id int64) (*Assignment, error)
	ListByEmployee(ctx context.Context, employeeID int64) ([]Assignment, error)
	ListByAsset(ctx context.Context, assetID int64) ([]Assignment, error)
	ListOpen(ctx context.Context) ([]Assignment, error)
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

func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateAssignmentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateAssignment: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, err := h.Service.CreateAssignment(r.Context(), user.Actor(), dto)
	if err != nil {
		h.Logger.Error("CreateAssignment: service error", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CreateAssignment: assignment created",
		"assignment_id", a.ID,
		"asset_id", a.AssetID,
		"employee_id", a.EmployeeID)

	h.WriteJSON(w, http.StatusCreated, a)
}

func (h *Handler) GetAssignment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.assignmentID(w, r)
	if !ok {
		return
	}

	a, err := h.Service.GetAssignment(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) ListAssignments(w http.ResponseWriter, r *http.Request) {
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

	if s := r.URL.Query().Get("asset_id"); s != "" {
		assetID, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid asset_id")
			return
		}
		list, err := h.Service.ListByAsset(r.Context(), assetID)
		if err != nil {
			h.HandleServiceError(w, err)
			return
		}
		h.WriteJSON(w, http.StatusOK, list)
		return
	}

	list, err := h.Service.ListOpen(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, list)
}

// MyAssignments lists the calling employee's own assignments.
func (h *Handler) MyAssignments(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	list, err := h.Service.ListByEmployee(r.Context(), user.EmployeeID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) ApproveAssignment(w http.ResponseWriter, r *http.Request) {
	h.evidenceTransition(w, r, "ApproveAssignment", h.Service.ApproveAssignment)
}

func (h *Handler) RejectAssignment(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.assignmentID(w, r)
	if !ok {
		return
	}

	var dto RejectAssignmentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, err := h.Service.RejectAssignment(r.Context(), user.Actor(), id, dto)
	if err != nil {
		h.Logger.Error("RejectAssignment: service error", "error", err, "assignment_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) RequestReturn(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.assignmentID(w, r)
	if !ok {
		return
	}

	a, err := h.Service.RequestReturn(r.Context(), user.Actor(), id)
	if err != nil {
		h.Logger.Error("RequestReturn: service error", "error", err, "assignment_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) ConfirmReturn(w http.ResponseWriter, r *http.Request) {
	h.evidenceTransition(w, r, "ConfirmReturn", h.Service.ConfirmReturn)
}

func (h *Handler) evidenceTransition(w http.ResponseWriter, r *http.Request, op string,
	fn func(ctx context.Context, actor workflow.Actor, id int64, evidence EvidenceDTO) (*Assignment, error)) {

	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.assignmentID(w, r)
	if !ok {
		return
	}

	// evidence body is optional
	var evidence EvidenceDTO
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&evidence); err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	a, err := fn(r.Context(), user.Actor(), id, evidence)
	if err != nil {
		h.Logger.Error(op+": service error", "error", err, "assignment_id", id, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) assignmentID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid assignment ID")
		return 0, false
	}
	return id, true
}
