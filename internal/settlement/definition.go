package settlement

import (
	"fmt"
	"time"

	"github.com/peoplehub/hr-backoffice/internal"
	"github.com/peoplehub/hr-backoffice/internal/auth"
	"github.com/peoplehub/hr-backoffice/internal/clearance"
	"github.com/peoplehub/hr-backoffice/internal/notification"
	"github.com/peoplehub/hr-backoffice/internal/workflow"
)

type DefinitionDeps struct {
	Clearance *clearance.Aggregator
}

// Definition builds the settlement workflow table:
//
//	(none)    create    -> pending
//	pending   approve   -> approved  (clearance evaluated, advisory)
//	pending   reject    -> rejected
//	approved  mark_paid -> paid      (clearance enforced, hard gate)
//
// The approve-time clearance check is recorded in the transition's audit meta
// so HR sees what is still blocking; the mandatory gate runs at mark_paid,
// re-evaluated against live loan and assignment state on every attempt.
func Definition(deps DefinitionDeps) *workflow.Definition {
	recordClearance := func(gc workflow.GuardContext) error {
		s := gc.Entity.(*Settlement)
		report, err := deps.Clearance.CheckSettlementClearance(gc.Ctx, gc.Tx, s.EmployeeID)
		if err != nil {
			return err
		}
		if gc.Input != nil {
			gc.Input["loan_cleared"] = fmt.Sprintf("%t", report.LoanCleared)
			gc.Input["outstanding_loan_balance"] = report.OutstandingLoanBalance.StringFixed(2)
			gc.Input["asset_cleared"] = fmt.Sprintf("%t", report.AssetCleared)
			gc.Input["unreturned_asset_count"] = fmt.Sprintf("%d", report.UnreturnedAssetCount)
		}
		return nil
	}

	enforceClearance := func(gc workflow.GuardContext) error {
		s := gc.Entity.(*Settlement)
		report, err := deps.Clearance.CheckSettlementClearance(gc.Ctx, gc.Tx, s.EmployeeID)
		if err != nil {
			return err
		}
		if !report.Cleared() {
			return internal.NewGuardFailuresError(
				"settlement cannot be paid while the employee has outstanding obligations",
				report.Failures())
		}
		return nil
	}

	requireReason := func(gc workflow.GuardContext) error {
		if gc.Input["reason"] == "" {
			return internal.NewGuardFailedError(internal.ReasonReasonRequired,
				"a reason is required when rejecting a settlement")
		}
		return nil
	}

	applyPaid := func(gc workflow.GuardContext) error {
		s := gc.Entity.(*Settlement)
		now := time.Now()
		s.PaidAt = &now
		return nil
	}

	notifyOwner := func(subject string, body func(*Settlement) string) workflow.Notify {
		return func(e workflow.Entity, input map[string]string) []notification.Message {
			s := e.(*Settlement)
			return []notification.Message{{
				EmployeeID: s.EmployeeID,
				Subject:    subject,
				Body:       body(s),
			}}
		}
	}

	return workflow.NewDefinition(workflow.TypeSettlement, []workflow.Rule{
		{
			From:       workflow.StateNone,
			Action:     ActionCreate,
			Capability: auth.CapHRManage,
			Next:       workflow.State(StatusPending),
		},
		{
			From:       workflow.State(StatusPending),
			Action:     ActionApprove,
			Capability: auth.CapHRManage,
			Guard:      recordClearance,
			Next:       workflow.State(StatusApproved),
			Notify: notifyOwner("Settlement approved", func(s *Settlement) string {
				return fmt.Sprintf("Your end-of-service settlement of %s has been approved and is awaiting payment.",
					s.TotalSettlement.StringFixed(2))
			}),
		},
		{
			From:       workflow.State(StatusPending),
			Action:     ActionReject,
			Capability: auth.CapHRManage,
			Guard:      requireReason,
			Next:       workflow.State(StatusRejected),
			Notify: notifyOwner("Settlement rejected", func(s *Settlement) string {
				return "Your end-of-service settlement was rejected."
			}),
		},
		{
			From:       workflow.State(StatusApproved),
			Action:     ActionMarkPaid,
			Capability: auth.CapFinanceManage,
			Guard:      enforceClearance,
			Apply:      applyPaid,
			Next:       workflow.State(StatusPaid),
			Notify: notifyOwner("Settlement paid", func(s *Settlement) string {
				return fmt.Sprintf("Your end-of-service settlement of %s has been released.",
					s.TotalSettlement.StringFixed(2))
			}),
		},
	})
}
