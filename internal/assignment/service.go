package assignment

import (
	"context"
	"log/slog"

	"github.com/peoplehub/hr-backoffice/internal/workflow"
)

// Repository is the read side of the assignment store. All writes go through
// the workflow executor's adapter.
type Repository interface {
	GetAssignment(ctx context.Context, id int64) (*Assignment, error)
	ListByEmployee(ctx context.Context, employeeID int64) ([]Assignment, error)
	ListByAsset(ctx context.Context, assetID int64) ([]Assignment, error)
	ListOpen(ctx context.Context) ([]Assignment, error)
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

// CreateAssignment hands an asset to an employee. The conflict guard and the
// partial unique index together guarantee the asset is not already out.
func (s *Service) CreateAssignment(ctx context.Context, actor workflow.Actor, dto CreateAssignmentDTO) (*Assignment, error) {
	startDate, err := dto.Validate()
	if err != nil {
		return nil, err
	}

	a := NewAssignment(dto.AssetID, dto.EmployeeID, actor.EmployeeID, startDate)
	if _, err := s.executor.Execute(ctx, workflow.Request{
		Type:   workflow.TypeAssignment,
		Action: ActionCreate,
		Actor:  actor,
		New:    a,
	}); err != nil {
		return nil, err
	}
	return a, nil
}

// ApproveAssignment is the employee confirming receipt of the asset.
func (s *Service) ApproveAssignment(ctx context.Context, actor workflow.Actor, id int64, evidence EvidenceDTO) (*Assignment, error) {
	input := map[string]string{
		"receipt_selfie_id": evidence.SelfieID,
		"receipt_photo_id":  evidence.PhotoID,
	}
	return s.transition(ctx, actor, id, ActionEmployeeApprove, input)
}

// RejectAssignment is the employee declining the hand-over.
func (s *Service) RejectAssignment(ctx context.Context, actor workflow.Actor, id int64, dto RejectAssignmentDTO) (*Assignment, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, id, ActionEmployeeReject, map[string]string{"reason": dto.Reason})
}

// RequestReturn asks the employee to hand the asset back.
func (s *Service) RequestReturn(ctx context.Context, actor workflow.Actor, id int64) (*Assignment, error) {
	return s.transition(ctx, actor, id, ActionManagerRequestReturn, nil)
}

// ConfirmReturn is the employee acknowledging the hand-back, closing the
// assignment.
func (s *Service) ConfirmReturn(ctx context.Context, actor workflow.Actor, id int64, evidence EvidenceDTO) (*Assignment, error) {
	input := map[string]string{
		"return_selfie_id": evidence.SelfieID,
		"return_photo_id":  evidence.PhotoID,
	}
	return s.transition(ctx, actor, id, ActionEmployeeConfirmReturn, input)
}

func (s *Service) transition(ctx context.Context, actor workflow.Actor, id int64, action workflow.Action, input map[string]string) (*Assignment, error) {
	if _, err := s.executor.Execute(ctx, workflow.Request{
		Type:   workflow.TypeAssignment,
		ID:     id,
		Action: action,
		Actor:  actor,
		Input:  input,
	}); err != nil {
		return nil, err
	}
	return s.repo.GetAssignment(ctx, id)
}

func (s *Service) GetAssignment(ctx context.Context, id int64) (*Assignment, error) {
	return s.repo.GetAssignment(ctx, id)
}

func (s *Service) ListByEmployee(ctx context.Context, employeeID int64) ([]Assignment, error) {
	return s.repo.ListByEmployee(ctx, employeeID)
}

func (s *Service) ListByAsset(ctx context.Context, assetID int64) ([]Assignment, error) {
	return s.repo.ListByAsset(ctx, assetID)
}

func (s *Service) ListOpen(ctx context.Context) ([]Assignment, error) {
	return s.repo.ListOpen(ctx)
}
