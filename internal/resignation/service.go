package resignation

import (
	"context"
	"log/slog"

	"github.com/peoplehub/hr-backoffice/internal/workflow"
)

// Repository is the read side of the resignation store.
type Repository interface {
	GetResignation(ctx context.Context, id int64) (*Resignation, error)
	ListByEmployee(ctx context.Context, employeeID int64) ([]Resignation, error)
	ListPending(ctx context.Context) ([]Resignation, error)
}

type Service struct {
	repo     Repository
	executor *workflow.Executor
	logger   *slog.Logger
}

func NewService(repo Repository, executor *workflow.Executor, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		executor: executor,
		logger:   logger,
	}
}

// SubmitResignation opens a request at level 1 of the approval chain.
func (s *Service) SubmitResignation(ctx context.Context, actor workflow.Actor, dto SubmitResignationDTO) (*Resignation, error) {
	resignationDate, lastWorkingDay, err := dto.Validate()
	if err != nil {
		return nil, err
	}

	employeeID := dto.EmployeeID
	if employeeID == 0 {
		employeeID = actor.EmployeeID
	}

	r := NewResignation(employeeID, dto.Reason, resignationDate, lastWorkingDay)
	if _, err := s.executor.Execute(ctx, workflow.Request{
		Type:   workflow.TypeResignation,
		Action: ActionSubmit,
		Actor:  actor,
		New:    r,
	}); err != nil {
		return nil, err
	}
	return r, nil
}

// ApproveResignation signs off the current stage; the chain advances or the
// request becomes approved after the final stage.
func (s *Service) ApproveResignation(ctx context.Context, actor workflow.Actor, id int64) (*Resignation, error) {
	return s.transition(ctx, actor, id, ActionApprove, nil)
}

func (s *Service) RejectResignation(ctx context.Context, actor workflow.Actor, id int64, dto RejectResignationDTO) (*Resignation, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, id, ActionReject, map[string]string{"reason": dto.Reason})
}

func (s *Service) CancelResignation(ctx context.Context, actor workflow.Actor, id int64, dto CancelResignationDTO) (*Resignation, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, id, ActionCancel, map[string]string{"reason": dto.Reason})
}

func (s *Service) transition(ctx context.Context, actor workflow.Actor, id int64, action workflow.Action, input map[string]string) (*Resignation, error) {
	if _, err := s.executor.Execute(ctx, workflow.Request{
		Type:   workflow.TypeResignation,
		ID:     id,
		Action: action,
		Actor:  actor,
		Input:  input,
	}); err != nil {
		return nil, err
	}
	return s.repo.GetResignation(ctx, id)
}

func (s *Service) GetResignation(ctx context.Context, id int64) (*Resignation, error) {
	return s.repo.GetResignation(ctx, id)
}

func (s *Service) ListByEmployee(ctx context.Context, employeeID int64) ([]Resignation, error) {
	return s.repo.ListByEmployee(ctx, employeeID)
}

func (s *Service) ListPending(ctx context.Context) ([]Resignation, error) {
	return s.repo.ListPending(ctx)
}
