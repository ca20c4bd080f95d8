package settlement

import (
	"context"
	"log/slog"
	"time"

	"github.com/peoplehub/hr-backoffice/internal/clearance"
	"github.com/peoplehub/hr-backoffice/internal/employee"
	"github.com/peoplehub/hr-backoffice/internal/resignation"
	"github.com/peoplehub/hr-backoffice/internal/workflow"
)

// Repository is the read side of the settlement store.
type Repository interface {
	GetSettlement(ctx context.Context, id int64) (*Settlement, error)
	GetByResignation(ctx context.Context, resignationID int64) (*Settlement, error)
	ListByEmployee(ctx context.Context, employeeID int64) ([]Settlement, error)
	ListByStatus(ctx context.Context, status string) ([]Settlement, error)
}

type EmployeeReader interface {
	GetEmployee(ctx context.Context, id int64) (*employee.Employee, error)
}

type ResignationReader interface {
	GetResignation(ctx context.Context, id int64) (*resignation.Resignation, error)
}

type Service struct {
	repo         Repository
	employees    EmployeeReader
	resignations ResignationReader
	clearance    *clearance.Aggregator
	executor     *workflow.Executor
	logger       *slog.Logger
}

func NewService(repo Repository, employees EmployeeReader, resignations ResignationReader, agg *clearance.Aggregator, executor *workflow.Executor, logger *slog.Logger) *Service {
	return &Service{
		repo:         repo,
		employees:    employees,
		resignations: resignations,
		clearance:    agg,
		executor:     executor,
		logger:       logger,
	}
}

// CreateSettlement drafts a settlement with the calculator's breakdown frozen
// in. When the draft links a resignation, tenure runs to its last working
// day; otherwise to today.
func (s *Service) CreateSettlement(ctx context.Context, actor workflow.Actor, dto CreateSettlementDTO) (*Settlement, error) {
	unusedLeave, finalSalary, allowances, deductions, err := dto.Validate()
	if err != nil {
		return nil, err
	}

	emp, err := s.employees.GetEmployee(ctx, dto.EmployeeID)
	if err != nil {
		return nil, err
	}

	lastWorkingDay := time.Now()
	if dto.ResignationID != nil {
		res, err := s.resignations.GetResignation(ctx, *dto.ResignationID)
		if err != nil {
			return nil, err
		}
		lastWorkingDay = res.LastWorkingDay
	}

	in := Inputs{
		HireDate:        emp.HireDate,
		LastWorkingDay:  lastWorkingDay,
		BasicSalary:     emp.BasicSalary,
		UnusedLeaveDays: unusedLeave,
		FinalSalary:     finalSalary,
		OtherAllowances: allowances,
		Deductions:      deductions,
	}
	draft := NewSettlement(dto.EmployeeID, dto.ResignationID, in, Calculate(in))

	if _, err := s.executor.Execute(ctx, workflow.Request{
		Type:   workflow.TypeSettlement,
		Action: ActionCreate,
		Actor:  actor,
		New:    draft,
	}); err != nil {
		return nil, err
	}
	return draft, nil
}

// ApproveSettlement moves the draft to approved. Clearance is evaluated here
// for visibility and lands in the audit meta; the outcome never blocks.
func (s *Service) ApproveSettlement(ctx context.Context, actor workflow.Actor, id int64) (*Settlement, error) {
	return s.transition(ctx, actor, id, ActionApprove, map[string]string{})
}

func (s *Service) RejectSettlement(ctx context.Context, actor workflow.Actor, id int64, dto RejectSettlementDTO) (*Settlement, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, id, ActionReject, map[string]string{"reason": dto.Reason})
}

// MarkPaid releases the payout. The clearance gate re-evaluates live loan and
// assignment state inside the transition's transaction; any outstanding
// obligation blocks regardless of the actor's capabilities.
func (s *Service) MarkPaid(ctx context.Context, actor workflow.Actor, id int64) (*Settlement, error) {
	return s.transition(ctx, actor, id, ActionMarkPaid, nil)
}

// CheckClearance exposes the advisory clearance report for the UI.
func (s *Service) CheckClearance(ctx context.Context, employeeID int64) (clearance.Report, error) {
	return s.clearance.CheckSettlementClearance(ctx, nil, employeeID)
}

func (s *Service) transition(ctx context.Context, actor workflow.Actor, id int64, action workflow.Action, input map[string]string) (*Settlement, error) {
	if _, err := s.executor.Execute(ctx, workflow.Request{
		Type:   workflow.TypeSettlement,
		ID:     id,
		Action: action,
		Actor:  actor,
		Input:  input,
	}); err != nil {
		return nil, err
	}
	return s.repo.GetSettlement(ctx, id)
}

func (s *Service) GetSettlement(ctx context.Context, id int64) (*Settlement, error) {
	return s.repo.GetSettlement(ctx, id)
}

func (s *Service) ListByEmployee(ctx context.Context, employeeID int64) ([]Settlement, error) {
	return s.repo.ListByEmployee(ctx, employeeID)
}

func (s *Service) ListByStatus(ctx context.Context, status string) ([]Settlement, error) {
	return s.repo.ListByStatus(ctx, status)
}
