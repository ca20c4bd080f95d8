package loan

import (
	"fmt"

	"github.com/peoplehub/hr-backoffice/internal"
	"github.com/peoplehub/hr-backoffice/internal/auth"
	"github.com/peoplehub/hr-backoffice/internal/notification"
	"github.com/peoplehub/hr-backoffice/internal/workflow"
)

// DefinitionDeps carries the configured approver sets. An empty set means any
// holder of the stage's approve capability may act.
type DefinitionDeps struct {
	GMApprovers      []int64
	FinanceApprovers []int64
}

// Definition builds the loan workflow table:
//
//	(none)           submit          -> pending_gm
//	pending_gm       gm_approve      -> pending_finance
//	pending_gm       gm_reject       -> rejected
//	pending_gm       cancel          -> cancelled  (owner only)
//	pending_finance  finance_approve -> active
//	pending_finance  finance_reject  -> rejected
//	active           mark_paid_off   -> paid_off   (balance must be zero)
func Definition(deps DefinitionDeps) *workflow.Definition {
	inApproverSet := func(set []int64) workflow.Guard {
		return func(gc workflow.GuardContext) error {
			if len(set) == 0 || gc.Actor.Has(auth.CapManageLoans) || gc.Actor.Has(auth.CapAdmin) {
				return nil
			}
			for _, userID := range set {
				if userID == gc.Actor.UserID {
					return nil
				}
			}
			return internal.NewGuardFailedError(internal.ReasonNotApprover,
				"acting user is not in the configured approver set for this stage")
		}
	}

	submitForSelfOrHR := func(gc workflow.GuardContext) error {
		l := gc.Entity.(*Loan)
		if l.EmployeeID == gc.Actor.EmployeeID {
			return nil
		}
		if gc.Actor.Has(auth.CapHRManage) || gc.Actor.Has(auth.CapAdmin) {
			return nil
		}
		return internal.NewGuardFailedError(internal.ReasonNotOwner,
			"only HR may submit a loan on behalf of another employee")
	}

	requireReason := func(gc workflow.GuardContext) error {
		if gc.Input["reason"] == "" {
			return internal.NewGuardFailedError(internal.ReasonReasonRequired,
				"a reason is required when rejecting a loan")
		}
		return nil
	}

	applyGMApproval := func(gc workflow.GuardContext) error {
		l := gc.Entity.(*Loan)
		id := gc.Actor.UserID
		l.GMApprovedBy = &id
		return nil
	}

	applyFinanceApproval := func(gc workflow.GuardContext) error {
		l := gc.Entity.(*Loan)
		id := gc.Actor.UserID
		l.FinanceApprovedBy = &id
		return nil
	}

	applyRejection := func(gc workflow.GuardContext) error {
		l := gc.Entity.(*Loan)
		reason := gc.Input["reason"]
		l.RejectionReason = &reason
		return nil
	}

	balanceCleared := func(gc workflow.GuardContext) error {
		l := gc.Entity.(*Loan)
		if !l.RemainingBalance.IsZero() {
			return internal.NewGuardFailedError(internal.ReasonBalanceOutstanding,
				fmt.Sprintf("loan still has %s outstanding", l.RemainingBalance.StringFixed(2)))
		}
		return nil
	}

	notifyOwner := func(subject, body string) workflow.Notify {
		return func(e workflow.Entity, input map[string]string) []notification.Message {
			l := e.(*Loan)
			return []notification.Message{{
				EmployeeID: l.EmployeeID,
				Subject:    subject,
				Body:       fmt.Sprintf(body, l.PrincipalAmount.StringFixed(2)),
			}}
		}
	}

	return workflow.NewDefinition(workflow.TypeLoan, []workflow.Rule{
		{
			From:   workflow.StateNone,
			Action: ActionSubmit,
			Guard:  submitForSelfOrHR,
			Next:   workflow.State(StatusPendingGM),
			Notify: notifyOwner("Loan submitted", "Your loan request of %s is awaiting GM approval."),
		},
		{
			From:       workflow.State(StatusPendingGM),
			Action:     ActionGMApprove,
			Capability: auth.CapApproveLoansGM,
			Guard:      inApproverSet(deps.GMApprovers),
			Apply:      applyGMApproval,
			Next:       workflow.State(StatusPendingFinance),
			Notify:     notifyOwner("Loan approved by GM", "Your loan request of %s is now awaiting Finance approval."),
		},
		{
			From:       workflow.State(StatusPendingGM),
			Action:     ActionGMReject,
			Capability: auth.CapApproveLoansGM,
			Guard:      workflow.AllGuards(inApproverSet(deps.GMApprovers), requireReason),
			Apply:      applyRejection,
			Next:       workflow.State(StatusRejected),
			Notify:     notifyOwner("Loan rejected", "Your loan request of %s was rejected by the GM."),
		},
		{
			From:      workflow.State(StatusPendingGM),
			Action:    ActionCancel,
			OwnerOnly: true,
			Next:      workflow.State(StatusCancelled),
		},
		{
			From:       workflow.State(StatusPendingFinance),
			Action:     ActionFinanceApprove,
			Capability: auth.CapApproveLoansFin,
			Guard:      inApproverSet(deps.FinanceApprovers),
			Apply:      applyFinanceApproval,
			Next:       workflow.State(StatusActive),
			Notify:     notifyOwner("Loan active", "Your loan of %s has been approved and disbursed."),
		},
		{
			From:       workflow.State(StatusPendingFinance),
			Action:     ActionFinanceReject,
			Capability: auth.CapApproveLoansFin,
			Guard:      workflow.AllGuards(inApproverSet(deps.FinanceApprovers), requireReason),
			Apply:      applyRejection,
			Next:       workflow.State(StatusRejected),
			Notify:     notifyOwner("Loan rejected", "Your loan request of %s was rejected by Finance."),
		},
		{
			From:       workflow.State(StatusActive),
			Action:     ActionMarkPaidOff,
			Capability: auth.CapManageLoans,
			Guard:      balanceCleared,
			Next:       workflow.State(StatusPaidOff),
			Notify:     notifyOwner("Loan paid off", "Your loan of %s is fully repaid."),
		},
	})
}
