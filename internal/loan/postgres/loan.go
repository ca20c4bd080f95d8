package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/peoplehub/hr-backoffice/internal/loan"
	"github.com/peoplehub/hr-backoffice/internal/workflow"
)

// LoanRepository implements loan.Repository, loan.ScheduleRepository, the
// workflow adapter and the clearance balance reader.
type LoanRepository struct {
	db *gorm.DB
}

func NewLoanRepository(db *gorm.DB) *LoanRepository {
	return &LoanRepository{db: db}
}

func (r *LoanRepository) GetLoan(ctx context.Context, id int64) (*loan.Loan, error) {
	var l loan.Loan
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&l).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, loan.ErrLoanNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (r *LoanRepository) ListByEmployee(ctx context.Context, employeeID int64) ([]loan.Loan, error) {
	var list []loan.Loan
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *LoanRepository) ListByStatus(ctx context.Context, status string) ([]loan.Loan, error) {
	var list []loan.Loan
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

// workflow.Adapter implementation

func (r *LoanRepository) Load(ctx context.Context, tx *gorm.DB, id int64) (workflow.Entity, error) {
	l, err := r.LockLoan(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (r *LoanRepository) Insert(ctx context.Context, tx *gorm.DB, e workflow.Entity) error {
	return tx.WithContext(ctx).Create(e.(*loan.Loan)).Error
}

func (r *LoanRepository) Update(ctx context.Context, tx *gorm.DB, e workflow.Entity) error {
	return tx.WithContext(ctx).Save(e.(*loan.Loan)).Error
}

// loan.ScheduleRepository implementation

func (r *LoanRepository) LockLoan(ctx context.Context, tx *gorm.DB, loanID int64) (*loan.Loan, error) {
	var l loan.Loan
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Where("id = ?", loanID).
		First(&l).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, loan.ErrLoanNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (r *LoanRepository) UpdateBalance(ctx context.Context, tx *gorm.DB, l *loan.Loan) error {
	return tx.WithContext(ctx).
		Model(&loan.Loan{}).
		Where("id = ?", l.ID).
		Updates(map[string]interface{}{
			"remaining_balance": l.RemainingBalance,
			"updated_at":        time.Now(),
		}).Error
}

func (r *LoanRepository) InsertPayment(ctx context.Context, tx *gorm.DB, p *loan.Payment) error {
	return tx.WithContext(ctx).Create(p).Error
}

func (r *LoanRepository) ListPayments(ctx context.Context, loanID int64) ([]loan.Payment, error) {
	var payments []loan.Payment
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("recorded_at ASC, id ASC").
		Find(&payments).Error
	return payments, err
}

// clearance.LoanBalanceReader implementation

// OutstandingBalance sums remaining_balance over the employee's active loans.
func (r *LoanRepository) OutstandingBalance(ctx context.Context, tx *gorm.DB, employeeID int64) (decimal.Decimal, error) {
	db := r.db
	if tx != nil {
		db = tx
	}
	var total decimal.NullDecimal
	err := db.WithContext(ctx).
		Model(&loan.Loan{}).
		Select("SUM(remaining_balance)").
		Where("employee_id = ? AND status = ?", employeeID, loan.StatusActive).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}
