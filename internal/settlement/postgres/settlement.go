package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/peoplehub/hr-backoffice/internal/settlement"
	"github.com/peoplehub/hr-backoffice/internal/workflow"
)

// SettlementRepository implements settlement.Repository and the workflow
// adapter.
type SettlementRepository struct {
	db *gorm.DB
}

func NewSettlementRepository(db *gorm.DB) *SettlementRepository {
	return &SettlementRepository{db: db}
}

func (r *SettlementRepository) GetSettlement(ctx context.Context, id int64) (*settlement.Settlement, error) {
	var s settlement.Settlement
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, settlement.ErrSettlementNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *SettlementRepository) GetByResignation(ctx context.Context, resignationID int64) (*settlement.Settlement, error) {
	var s settlement.Settlement
	err := r.db.WithContext(ctx).Where("resignation_id = ?", resignationID).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, settlement.ErrSettlementNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *SettlementRepository) ListByEmployee(ctx context.Context, employeeID int64) ([]settlement.Settlement, error) {
	var list []settlement.Settlement
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *SettlementRepository) ListByStatus(ctx context.Context, status string) ([]settlement.Settlement, error) {
	var list []settlement.Settlement
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

// workflow.Adapter implementation

func (r *SettlementRepository) Load(ctx context.Context, tx *gorm.DB, id int64) (workflow.Entity, error) {
	var s settlement.Settlement
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Where("id = ?", id).
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, settlement.ErrSettlementNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *SettlementRepository) Insert(ctx context.Context, tx *gorm.DB, e workflow.Entity) error {
	return tx.WithContext(ctx).Create(e.(*settlement.Settlement)).Error
}

func (r *SettlementRepository) Update(ctx context.Context, tx *gorm.DB, e workflow.Entity) error {
	return tx.WithContext(ctx).Save(e.(*settlement.Settlement)).Error
}
