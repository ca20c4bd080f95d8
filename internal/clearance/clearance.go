package clearance

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/peoplehub/hr-backoffice/internal"
)

// Report is the aggregate judgment of whether an employee has outstanding
// financial or physical obligations.
type Report struct {
	LoanCleared            bool            `json:"loan_cleared"`
	OutstandingLoanBalance decimal.Decimal `json:"outstanding_loan_balance"`
	AssetCleared           bool            `json:"asset_cleared"`
	UnreturnedAssetCount   int64           `json:"unreturned_asset_count"`
}

func (r Report) Cleared() bool {
	return r.LoanCleared && r.AssetCleared
}

// Failures returns one guard failure per blocking obligation, with the
// balance/count attached so the caller can direct remediation.
func (r Report) Failures() []internal.GuardFailure {
	var failures []internal.GuardFailure
	if !r.LoanCleared {
		failures = append(failures, internal.GuardFailure{
			Reason:  internal.ReasonOutstandingLoan,
			Message: fmt.Sprintf("employee has an outstanding loan balance of %s", r.OutstandingLoanBalance.StringFixed(2)),
			Meta:    map[string]string{"outstanding_loan_balance": r.OutstandingLoanBalance.StringFixed(2)},
		})
	}
	if !r.AssetCleared {
		failures = append(failures, internal.GuardFailure{
			Reason:  internal.ReasonUnreturnedAssets,
			Message: fmt.Sprintf("employee has %d unreturned asset(s)", r.UnreturnedAssetCount),
			Meta:    map[string]string{"unreturned_asset_count": fmt.Sprintf("%d", r.UnreturnedAssetCount)},
		})
	}
	return failures
}

// LoanBalanceReader sums remaining_balance over the employee's active loans.
// Tx may be nil for an advisory read outside a transaction.
type LoanBalanceReader interface {
	OutstandingBalance(ctx context.Context, tx *gorm.DB, employeeID int64) (decimal.Decimal, error)
}

// AssignmentCounter counts the employee's assignments in a non-terminal state.
type AssignmentCounter interface {
	CountUnreturned(ctx context.Context, tx *gorm.DB, employeeID int64) (int64, error)
}

// Aggregator answers settlement clearance by querying the loan and asset
// subsystems. When called inside the executor's transaction both reads see
// the same snapshot as the state write that depends on them.
type Aggregator struct {
	loans  LoanBalanceReader
	assets AssignmentCounter
	logger *slog.Logger
}

func NewAggregator(loans LoanBalanceReader, assets AssignmentCounter, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		loans:  loans,
		assets: assets,
		logger: logger,
	}
}

func (a *Aggregator) CheckSettlementClearance(ctx context.Context, tx *gorm.DB, employeeID int64) (Report, error) {
	balance, err := a.loans.OutstandingBalance(ctx, tx, employeeID)
	if err != nil {
		a.logger.Error("clearance: loan balance query failed", "employee_id", employeeID, "error", err)
		return Report{}, internal.NewPersistenceError("loan clearance query failed", err)
	}

	count, err := a.assets.CountUnreturned(ctx, tx, employeeID)
	if err != nil {
		a.logger.Error("clearance: assignment count query failed", "employee_id", employeeID, "error", err)
		return Report{}, internal.NewPersistenceError("asset clearance query failed", err)
	}

	report := Report{
		LoanCleared:            balance.IsZero(),
		OutstandingLoanBalance: balance,
		AssetCleared:           count == 0,
		UnreturnedAssetCount:   count,
	}

	a.logger.Debug("settlement clearance computed",
		"employee_id", employeeID,
		"loan_cleared", report.LoanCleared,
		"outstanding_loan_balance", report.OutstandingLoanBalance.StringFixed(2),
		"asset_cleared", report.AssetCleared,
		"unreturned_asset_count", report.UnreturnedAssetCount)

	return report, nil
}
