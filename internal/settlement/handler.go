package settlement

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/peoplehub/hr-backoffice/internal/auth"
	"github.com/peoplehub/hr-backoffice/internal/clearance"
	"github.com/peoplehub/hr-backoffice/internal/transport"
	"github.com/peoplehub/hr-backoffice/internal/workflow"
	"github.com/peoplehub/hr-backoffice/pkg/logger"
)

type ServiceAPI interface {
	CreateSettlement(ctx context.Context, actor workflow.Actor, dto CreateSettlementDTO) (*Settlement, error)
	ApproveSettlement(ctx context.Context, actor workflow.Actor, id int64) (*Settlement, error)
	RejectSettlement(ctx context.Context, actor workflow.Actor, id int64, dto RejectSettlementDTO) (*Settlement, error)
	MarkPaid(ctx context.Context, actor workflow.Actor, id int64) (*Settlement, error)
	CheckClearance(ctx context.Context, employeeID int64) (clearance.Report, error)
	GetSettlement(ctx context.Context, id int64) (*Settlement, error)
	ListByEmployee(ctx context.Context, employeeID int64) ([]Settlement, error)
	ListByStatus(ctx context.Context, status string) ([]Settlement, error)
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

func (h *Handler) CreateSettlement(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateSettlementDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s, err := h.Service.CreateSettlement(r.Context(), user.Actor(), dto)
	if err != nil {
		h.Logger.Error("CreateSettlement: service error", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CreateSettlement: settlement drafted",
		"settlement_id", s.ID,
		"employee_id", s.EmployeeID,
		"total_settlement", s.TotalSettlement.StringFixed(2))

	h.WriteJSON(w, http.StatusCreated, s)
}

func (h *Handler) GetSettlement(w http.ResponseWriter, r *http.Request) {
	id, ok := h.settlementID(w, r)
	if !ok {
		return
	}

	s, err := h.Service.GetSettlement(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, s)
}

func (h *Handler) ListSettlements(w http.ResponseWriter, r *http.Request) {
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

	status := r.URL.Query().Get("status")
	if status == "" {
		status = StatusPending
	}
	list, err := h.Service.ListByStatus(r.Context(), status)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) ApproveSettlement(w http.ResponseWriter, r *http.Request) {
	h.actOn(w, r, "ApproveSettlement", h.Service.ApproveSettlement)
}

func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	h.actOn(w, r, "MarkPaid", h.Service.MarkPaid)
}

func (h *Handler) RejectSettlement(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.settlementID(w, r)
	if !ok {
		return
	}

	var dto RejectSettlementDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s, err := h.Service.RejectSettlement(r.Context(), user.Actor(), id, dto)
	if err != nil {
		h.Logger.Error("RejectSettlement: service error", "error", err, "settlement_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, s)
}

// CheckClearance returns the advisory clearance report for an employee.
func (h *Handler) CheckClearance(w http.ResponseWriter, r *http.Request) {
	employeeIDStr := chi.URLParam(r, "employee_id")
	employeeID, err := strconv.ParseInt(employeeIDStr, 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid employee ID")
		return
	}

	report, err := h.Service.CheckClearance(r.Context(), employeeID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) actOn(w http.ResponseWriter, r *http.Request, op string,
	fn func(ctx context.Context, actor workflow.Actor, id int64) (*Settlement, error)) {

	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.settlementID(w, r)
	if !ok {
		return
	}

	s, err := fn(r.Context(), user.Actor(), id)
	if err != nil {
		h.Logger.Error(op+": service error", "error", err, "settlement_id", id, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, s)
}

func (h *Handler) settlementID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid settlement ID")
		return 0, false
	}
	return id, true
}
