package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/peoplehub/hr-backoffice/internal/resignation"
	"github.com/peoplehub/hr-backoffice/internal/workflow"
)

// ResignationRepository implements resignation.Repository and the workflow
// adapter.
type ResignationRepository struct {
	db *gorm.DB
}

func NewResignationRepository(db *gorm.DB) *ResignationRepository {
	return &ResignationRepository{db: db}
}

func (r *ResignationRepository) GetResignation(ctx context.Context, id int64) (*resignation.Resignation, error) {
	var res resignation.Resignation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&res).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, resignation.ErrResignationNotFound
		}
		return nil, err
	}
	return &res, nil
}

func (r *ResignationRepository) ListByEmployee(ctx context.Context, employeeID int64) ([]resignation.Resignation, error) {
	var list []resignation.Resignation
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *ResignationRepository) ListPending(ctx context.Context) ([]resignation.Resignation, error) {
	var list []resignation.Resignation
	err := r.db.WithContext(ctx).
		Where("status = ?", resignation.StatusPending).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

// workflow.Adapter implementation

func (r *ResignationRepository) Load(ctx context.Context, tx *gorm.DB, id int64) (workflow.Entity, error) {
	var res resignation.Resignation
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Where("id = ?", id).
		First(&res).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, resignation.ErrResignationNotFound
		}
		return nil, err
	}
	return &res, nil
}

func (r *ResignationRepository) Insert(ctx context.Context, tx *gorm.DB, e workflow.Entity) error {
	return tx.WithContext(ctx).Create(e.(*resignation.Resignation)).Error
}

func (r *ResignationRepository) Update(ctx context.Context, tx *gorm.DB, e workflow.Entity) error {
	return tx.WithContext(ctx).Save(e.(*resignation.Resignation)).Error
}
