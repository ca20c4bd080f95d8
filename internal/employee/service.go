package employee

import (
	"context"
	"log/slog"
)

// Repository is the data access contract for employee records. It also serves
// as the notification directory (EmailForEmployee).
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Employee, error)
	GetByUserID(ctx context.Context, userID int64) (*Employee, error)
	EmailForEmployee(ctx context.Context, employeeID int64) (string, error)
	List(ctx context.Context, limit, offset int) ([]*Employee, error)
	Create(ctx context.Context, emp *Employee) error
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) GetEmployee(ctx context.Context, id int64) (*Employee, error) {
	emp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get employee", "error", err, "employee_id", id)
		return nil, err
	}
	return emp, nil
}

// GetByUserID resolves the employee record linked to an authenticated user.
// Returns ErrEmployeeNotFound for users with no HR record.
func (s *Service) GetByUserID(ctx context.Context, userID int64) (*Employee, error) {
	return s.repo.GetByUserID(ctx, userID)
}

func (s *Service) ListEmployees(ctx context.Context, limit, offset int) ([]*Employee, error) {
	employees, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list employees", "error", err)
		return nil, err
	}
	return employees, nil
}
