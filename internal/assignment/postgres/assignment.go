package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/peoplehub/hr-backoffice/internal"
	"github.com/peoplehub/hr-backoffice/internal/assignment"
	"github.com/peoplehub/hr-backoffice/internal/workflow"
)

const uniqueViolation = "23505"

// AssignmentRepository implements assignment.Repository for reads, the
// workflow adapter and conflict checker for transitions, and the clearance
// counter for settlement gating.
type AssignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

func (r *AssignmentRepository) GetAssignment(ctx context.Context, id int64) (*assignment.Assignment, error) {
	var a assignment.Assignment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, assignment.ErrAssignmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *AssignmentRepository) ListByEmployee(ctx context.Context, employeeID int64) ([]assignment.Assignment, error) {
	var list []assignment.Assignment
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *AssignmentRepository) ListByAsset(ctx context.Context, assetID int64) ([]assignment.Assignment, error) {
	var list []assignment.Assignment
	err := r.db.WithContext(ctx).
		Where("asset_id = ?", assetID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *AssignmentRepository) ListOpen(ctx context.Context) ([]assignment.Assignment, error) {
	var list []assignment.Assignment
	err := r.db.WithContext(ctx).
		Where("status IN ?", assignment.NonTerminalStatuses()).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

// workflow.Adapter implementation

// Load takes the row lock that serializes concurrent transitions on the same
// assignment for the rest of the executor's transaction.
func (r *AssignmentRepository) Load(ctx context.Context, tx *gorm.DB, id int64) (workflow.Entity, error) {
	var a assignment.Assignment
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Where("id = ?", id).
		First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, assignment.ErrAssignmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *AssignmentRepository) Insert(ctx context.Context, tx *gorm.DB, e workflow.Entity) error {
	a := e.(*assignment.Assignment)
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		return translateConflict(err, a.AssetID)
	}
	return nil
}

func (r *AssignmentRepository) Update(ctx context.Context, tx *gorm.DB, e workflow.Entity) error {
	a := e.(*assignment.Assignment)
	if err := tx.WithContext(ctx).Save(a).Error; err != nil {
		return translateConflict(err, a.AssetID)
	}
	return nil
}

// translateConflict maps a violation of the one-open-assignment-per-asset
// unique index onto the same guard failure the conflict guard raises, so the
// two lines of defense are indistinguishable to callers.
func translateConflict(err error, assetID int64) error {
	var pgErr *pgconn.PgError
	if errors.Is(err, gorm.ErrDuplicatedKey) ||
		(errors.As(err, &pgErr) && pgErr.Code == uniqueViolation) {
		return internal.NewGuardFailedError(internal.ReasonAlreadyActive,
			fmt.Sprintf("asset %d already has a pending or active assignment", assetID))
	}
	return err
}

// assignment.ConflictChecker implementation

// LockAssetRow pins the asset row so two transitions racing on the same asset
// serialize before either counts open assignments.
func (r *AssignmentRepository) LockAssetRow(ctx context.Context, tx *gorm.DB, assetID int64) error {
	var id int64
	err := tx.WithContext(ctx).
		Table("assets").
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Where("id = ? AND is_retired = ?", assetID, false).
		Select("id").
		Take(&id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return internal.NewNotFoundError("asset not found or retired", internal.ErrCodeEntityNotFound)
	}
	return err
}

func (r *AssignmentRepository) HasOpenAssignment(ctx context.Context, tx *gorm.DB, assetID, excludeID int64) (bool, error) {
	var count int64
	err := tx.WithContext(ctx).
		Model(&assignment.Assignment{}).
		Where("asset_id = ? AND id <> ? AND status IN ?", assetID, excludeID, assignment.NonTerminalStatuses()).
		Count(&count).Error
	return count > 0, err
}

// clearance.AssignmentCounter implementation

func (r *AssignmentRepository) CountUnreturned(ctx context.Context, tx *gorm.DB, employeeID int64) (int64, error) {
	db := r.db
	if tx != nil {
		db = tx
	}
	var count int64
	err := db.WithContext(ctx).
		Model(&assignment.Assignment{}).
		Where("employee_id = ? AND status IN ?", employeeID, assignment.NonTerminalStatuses()).
		Count(&count).Error
	return count, err
}
