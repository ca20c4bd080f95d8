package loan

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
	ApplyLoan(ctx context.Context, actor workflow.Actor, dto ApplyLoanDTO) (*Loan, error)
	GMApprove(ctx context.Context, actor workflow.Actor, id int64) (*Loan, error)
	GMReject(ctx context.Context, actor workflow.Actor, id int64, dto RejectLoanDTO) (*Loan, error)
	FinanceApprove(ctx context.Context, actor workflow.Actor, id int64) (*Loan, error)
	FinanceReject(ctx context.Context, actor workflow.Actor, id int64, dto RejectLoanDTO) (*Loan, error)
	CancelLoan(ctx context.Context, actor workflow.Actor, id int64) (*Loan, error)
	RecordPayment(ctx context.Context, actor workflow.Actor, id int64, dto RecordPaymentDTO) (*Loan, error)
	SkipInstallment(ctx context.Context, actor workflow.Actor, id int64, dto SkipInstallmentDTO) error
	ListPayments(ctx context.Context, id int64) ([]Payment, error)
	GetLoan(ctx context.Context, id int64) (*Loan, error)
	ListByEmployee(ctx context.Context, employeeID int64) ([]Loan, error)
	ListByStatus(ctx context.Context, status string) ([]Loan, error)
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

func (h *Handler) ApplyLoan(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto ApplyLoanDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	l, err := h.Service.ApplyLoan(r.Context(), user.Actor(), dto)
	if err != nil {
		h.Logger.Error("ApplyLoan: service error", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("ApplyLoan: loan submitted",
		"loan_id", l.ID,
		"employee_id", l.EmployeeID,
		"principal_amount", l.PrincipalAmount.StringFixed(2))

	h.WriteJSON(w, http.StatusCreated, l)
}

func (h *Handler) GetLoan(w http.ResponseWriter, r *http.Request) {
	id, ok := h.loanID(w, r)
	if !ok {
		return
	}

	l, err := h.Service.GetLoan(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, l)
}

func (h *Handler) ListLoans(w http.ResponseWriter, r *http.Request) {
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
		status = StatusPendingGM
	}
	list, err := h.Service.ListByStatus(r.Context(), status)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) MyLoans(w http.ResponseWriter, r *http.Request) {
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

func (h *Handler) GMApprove(w http.ResponseWriter, r *http.Request) {
	h.approve(w, r, "GMApprove", h.Service.GMApprove)
}

func (h *Handler) FinanceApprove(w http.ResponseWriter, r *http.Request) {
	h.approve(w, r, "FinanceApprove", h.Service.FinanceApprove)
}

func (h *Handler) GMReject(w http.ResponseWriter, r *http.Request) {
	h.reject(w, r, "GMReject", h.Service.GMReject)
}

func (h *Handler) FinanceReject(w http.ResponseWriter, r *http.Request) {
	h.reject(w, r, "FinanceReject", h.Service.FinanceReject)
}

func (h *Handler) CancelLoan(w http.ResponseWriter, r *http.Request) {
	h.approve(w, r, "CancelLoan", h.Service.CancelLoan)
}

func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.loanID(w, r)
	if !ok {
		return
	}

	var dto RecordPaymentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	l, err := h.Service.RecordPayment(r.Context(), user.Actor(), id, dto)
	if err != nil {
		h.Logger.Error("RecordPayment: service error", "error", err, "loan_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, l)
}

func (h *Handler) SkipInstallment(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.loanID(w, r)
	if !ok {
		return
	}

	var dto SkipInstallmentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.SkipInstallment(r.Context(), user.Actor(), id, dto); err != nil {
		h.Logger.Error("SkipInstallment: service error", "error", err, "loan_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	id, ok := h.loanID(w, r)
	if !ok {
		return
	}

	payments, err := h.Service.ListPayments(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, payments)
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request, op string,
	fn func(ctx context.Context, actor workflow.Actor, id int64) (*Loan, error)) {

	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.loanID(w, r)
	if !ok {
		return
	}

	l, err := fn(r.Context(), user.Actor(), id)
	if err != nil {
		h.Logger.Error(op+": service error", "error", err, "loan_id", id, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, l)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request, op string,
	fn func(ctx context.Context, actor workflow.Actor, id int64, dto RejectLoanDTO) (*Loan, error)) {

	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.loanID(w, r)
	if !ok {
		return
	}

	var dto RejectLoanDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	l, err := fn(r.Context(), user.Actor(), id, dto)
	if err != nil {
		h.Logger.Error(op+": service error", "error", err, "loan_id", id, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, l)
}

func (h *Handler) loanID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid loan ID")
		return 0, false
	}
	return id, true
}
