package loan

import (
	"context"
	"log/slog"

	"github.com/peoplehub/hr-backoffice/internal/workflow"
)

// Repository is the read side of the loan store.
type Repository interface {
	GetLoan(ctx context.Context, id int64) (*Loan, error)
	ListByEmployee(ctx context.Context, employeeID int64) ([]Loan, error)
	ListByStatus(ctx context.Context, status string) ([]Loan, error)
}

type Service struct {
	repo     Repository
	schedule *Schedule
	executor *workflow.Executor
	logger   *slog.Logger
}

func NewService(repo Repository, schedule *Schedule, executor *workflow.Executor, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		schedule: schedule,
		executor: executor,
		logger:   logger,
	}
}

// ApplyLoan submits a new loan request into the GM approval queue.
func (s *Service) ApplyLoan(ctx context.Context, actor workflow.Actor, dto ApplyLoanDTO) (*Loan, error) {
	principal, err := dto.Validate()
	if err != nil {
		return nil, err
	}

	employeeID := dto.EmployeeID
	if employeeID == 0 {
		employeeID = actor.EmployeeID
	}

	l := NewLoan(employeeID, dto.Purpose, principal, dto.InstallmentsCount)
	if _, err := s.executor.Execute(ctx, workflow.Request{
		Type:   workflow.TypeLoan,
		Action: ActionSubmit,
		Actor:  actor,
		New:    l,
	}); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *Service) GMApprove(ctx context.Context, actor workflow.Actor, id int64) (*Loan, error) {
	return s.transition(ctx, actor, id, ActionGMApprove, nil)
}

func (s *Service) GMReject(ctx context.Context, actor workflow.Actor, id int64, dto RejectLoanDTO) (*Loan, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, id, ActionGMReject, map[string]string{"reason": dto.Reason})
}

func (s *Service) FinanceApprove(ctx context.Context, actor workflow.Actor, id int64) (*Loan, error) {
	return s.transition(ctx, actor, id, ActionFinanceApprove, nil)
}

func (s *Service) FinanceReject(ctx context.Context, actor workflow.Actor, id int64, dto RejectLoanDTO) (*Loan, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, id, ActionFinanceReject, map[string]string{"reason": dto.Reason})
}

// CancelLoan withdraws a request still waiting on the GM.
func (s *Service) CancelLoan(ctx context.Context, actor workflow.Actor, id int64) (*Loan, error) {
	return s.transition(ctx, actor, id, ActionCancel, nil)
}

func (s *Service) RecordPayment(ctx context.Context, actor workflow.Actor, id int64, dto RecordPaymentDTO) (*Loan, error) {
	return s.schedule.RecordPayment(ctx, actor, id, dto)
}

func (s *Service) SkipInstallment(ctx context.Context, actor workflow.Actor, id int64, dto SkipInstallmentDTO) error {
	return s.schedule.SkipInstallment(ctx, actor, id, dto)
}

func (s *Service) ListPayments(ctx context.Context, id int64) ([]Payment, error) {
	return s.schedule.ListPayments(ctx, id)
}

func (s *Service) transition(ctx context.Context, actor workflow.Actor, id int64, action workflow.Action, input map[string]string) (*Loan, error) {
	if _, err := s.executor.Execute(ctx, workflow.Request{
		Type:   workflow.TypeLoan,
		ID:     id,
		Action: action,
		Actor:  actor,
		Input:  input,
	}); err != nil {
		return nil, err
	}
	return s.repo.GetLoan(ctx, id)
}

func (s *Service) GetLoan(ctx context.Context, id int64) (*Loan, error) {
	return s.repo.GetLoan(ctx, id)
}

func (s *Service) ListByEmployee(ctx context.Context, employeeID int64) ([]Loan, error) {
	return s.repo.ListByEmployee(ctx, employeeID)
}

func (s *Service) ListByStatus(ctx context.Context, status string) ([]Loan, error) {
	return s.repo.ListByStatus(ctx, status)
}
