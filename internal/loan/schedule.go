package loan

import (
	"context"
	"log/slog"

	"gorm.io/gorm"

	"github.com/peoplehub/hr-backoffice/internal"
	"github.com/peoplehub/hr-backoffice/internal/workflow"
)

// ScheduleRepository is the storage surface of the payment schedule. LockLoan
// must take a row lock so two concurrent postings against the same loan
// serialize.
type ScheduleRepository interface {
	LockLoan(ctx context.Context, tx *gorm.DB, loanID int64) (*Loan, error)
	UpdateBalance(ctx context.Context, tx *gorm.DB, l *Loan) error
	InsertPayment(ctx context.Context, tx *gorm.DB, p *Payment) error
	ListPayments(ctx context.Context, loanID int64) ([]Payment, error)
}

// Schedule is the only code path allowed to move RemainingBalance. When a
// posting drives the balance to zero it follows up with the mark_paid_off
// transition through the executor, which re-validates under its own lock.
type Schedule struct {
	db       *gorm.DB
	repo     ScheduleRepository
	executor *workflow.Executor
	logger   *slog.Logger
}

func NewSchedule(db *gorm.DB, repo ScheduleRepository, executor *workflow.Executor, logger *slog.Logger) *Schedule {
	return &Schedule{
		db:       db,
		repo:     repo,
		executor: executor,
		logger:   logger,
	}
}

// RecordPayment posts one installment, decrementing the balance.
func (s *Schedule) RecordPayment(ctx context.Context, actor workflow.Actor, loanID int64, dto RecordPaymentDTO) (*Loan, error) {
	amount, err := dto.Validate()
	if err != nil {
		return nil, err
	}

	var posted *Loan
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		l, err := s.repo.LockLoan(ctx, tx, loanID)
		if err != nil {
			return err
		}
		if l.Status != StatusActive {
			return internal.NewInvalidTransitionError("loan", l.Status, "record_payment")
		}
		if amount.GreaterThan(l.RemainingBalance) {
			return internal.NewValidationFieldError("amount",
				"amount exceeds the remaining balance", internal.ErrCodeInvalidAmount)
		}

		l.RemainingBalance = l.RemainingBalance.Sub(amount)
		if err := s.repo.UpdateBalance(ctx, tx, l); err != nil {
			return err
		}
		if err := s.repo.InsertPayment(ctx, tx, &Payment{
			LoanID:        loanID,
			InstallmentNo: dto.InstallmentNo,
			Amount:        amount,
			Kind:          PaymentKindPayment,
			RecordedBy:    actor.UserID,
		}); err != nil {
			return err
		}
		posted = l
		return nil
	})
	if err != nil {
		if appErr, isApp := internal.IsAppError(err); isApp {
			return nil, appErr
		}
		return nil, internal.NewPersistenceError("payment write failed", err)
	}

	s.logger.Info("loan payment recorded",
		"loan_id", loanID,
		"installment_no", dto.InstallmentNo,
		"amount", amount.StringFixed(2),
		"remaining_balance", posted.RemainingBalance.StringFixed(2))

	if posted.RemainingBalance.IsZero() {
		if _, err := s.executor.Execute(ctx, workflow.Request{
			Type:   workflow.TypeLoan,
			ID:     loanID,
			Action: ActionMarkPaidOff,
			Actor:  actor,
		}); err != nil {
			// the payment itself is committed; the paid_off transition can
			// be retried by any loan manager
			s.logger.Error("mark_paid_off after final payment failed", "loan_id", loanID, "error", err)
			return posted, err
		}
		posted.Status = StatusPaidOff
	}

	return posted, nil
}

// SkipInstallment records a deferred installment. The balance is untouched;
// the ledger line keeps the schedule history complete.
func (s *Schedule) SkipInstallment(ctx context.Context, actor workflow.Actor, loanID int64, dto SkipInstallmentDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		l, err := s.repo.LockLoan(ctx, tx, loanID)
		if err != nil {
			return err
		}
		if l.Status != StatusActive {
			return internal.NewInvalidTransitionError("loan", l.Status, "skip_installment")
		}
		return s.repo.InsertPayment(ctx, tx, &Payment{
			LoanID:        loanID,
			InstallmentNo: dto.InstallmentNo,
			Kind:          PaymentKindSkip,
			RecordedBy:    actor.UserID,
		})
	})
	if err != nil {
		if appErr, isApp := internal.IsAppError(err); isApp {
			return appErr
		}
		return internal.NewPersistenceError("skip write failed", err)
	}

	s.logger.Info("loan installment skipped", "loan_id", loanID, "installment_no", dto.InstallmentNo)
	return nil
}

func (s *Schedule) ListPayments(ctx context.Context, loanID int64) ([]Payment, error) {
	return s.repo.ListPayments(ctx, loanID)
}
