package resignation

import (
	"fmt"

	"github.com/peoplehub/hr-backoffice/internal"
	"github.com/peoplehub/hr-backoffice/internal/auth"
	"github.com/peoplehub/hr-backoffice/internal/notification"
	"github.com/peoplehub/hr-backoffice/internal/workflow"
)

// DefinitionDeps carries the configured approval chain: one capability per
// stage, in order (e.g. manage_team, hr_manage, finance_manage).
type DefinitionDeps struct {
	Chain []string
}

// Definition builds the resignation workflow table:
//
//	(none)   submit  -> pending (level 1)
//	pending  approve -> pending (level+1) | approved after the last stage
//	pending  reject  -> rejected   (current stage's approver)
//	pending  cancel  -> cancelled  (submitting employee or HR, reason required)
func Definition(deps DefinitionDeps) *workflow.Definition {
	submitForSelfOrHR := func(gc workflow.GuardContext) error {
		r := gc.Entity.(*Resignation)
		if r.EmployeeID == gc.Actor.EmployeeID {
			return nil
		}
		if gc.Actor.Has(auth.CapHRManage) || gc.Actor.Has(auth.CapAdmin) {
			return nil
		}
		return internal.NewGuardFailedError(internal.ReasonNotOwner,
			"only HR may submit a resignation on behalf of another employee")
	}

	currentStageApprover := func(gc workflow.GuardContext) error {
		r := gc.Entity.(*Resignation)
		if r.ApprovalLevel < 1 || r.ApprovalLevel > len(deps.Chain) {
			return internal.NewGuardFailedError(internal.ReasonNotAwaitingApproval,
				fmt.Sprintf("resignation is not awaiting approval at level %d", r.ApprovalLevel))
		}
		required := deps.Chain[r.ApprovalLevel-1]
		if gc.Actor.Has(required) || gc.Actor.Has(auth.CapAdmin) {
			return nil
		}
		return internal.NewGuardFailedError(internal.ReasonNotApprover,
			fmt.Sprintf("acting user is not the level %d approver", r.ApprovalLevel))
	}

	ownerOrHR := func(gc workflow.GuardContext) error {
		r := gc.Entity.(*Resignation)
		if r.EmployeeID == gc.Actor.EmployeeID {
			return nil
		}
		if gc.Actor.Has(auth.CapHRManage) || gc.Actor.Has(auth.CapAdmin) {
			return nil
		}
		return internal.NewGuardFailedError(internal.ReasonNotOwner,
			"only the submitting employee or HR may cancel a resignation")
	}

	requireReason := func(message string) workflow.Guard {
		return func(gc workflow.GuardContext) error {
			if gc.Input["reason"] == "" {
				return internal.NewGuardFailedError(internal.ReasonReasonRequired, message)
			}
			return nil
		}
	}

	advanceChain := func(gc workflow.GuardContext) error {
		r := gc.Entity.(*Resignation)
		stage := r.ApprovalLevel
		r.ApprovalLevel = stage + 1
		if stage < len(deps.Chain) {
			// more stages remain; the executor set approved, walk it back
			r.SetState(workflow.State(StatusPending))
		}
		return nil
	}

	applyRejection := func(gc workflow.GuardContext) error {
		r := gc.Entity.(*Resignation)
		reason := gc.Input["reason"]
		r.RejectReason = &reason
		return nil
	}

	applyCancellation := func(gc workflow.GuardContext) error {
		r := gc.Entity.(*Resignation)
		reason := gc.Input["reason"]
		r.CancelReason = &reason
		return nil
	}

	notifyOwner := func(subject string, body func(*Resignation) string) workflow.Notify {
		return func(e workflow.Entity, input map[string]string) []notification.Message {
			r := e.(*Resignation)
			return []notification.Message{{
				EmployeeID: r.EmployeeID,
				Subject:    subject,
				Body:       body(r),
			}}
		}
	}

	return workflow.NewDefinition(workflow.TypeResignation, []workflow.Rule{
		{
			From:   workflow.StateNone,
			Action: ActionSubmit,
			Guard:  submitForSelfOrHR,
			Next:   workflow.State(StatusPending),
			Notify: notifyOwner("Resignation submitted", func(r *Resignation) string {
				return fmt.Sprintf("Your resignation effective %s is awaiting level 1 approval.",
					r.LastWorkingDay.Format("2006-01-02"))
			}),
		},
		{
			From:   workflow.State(StatusPending),
			Action: ActionApprove,
			Guard:  currentStageApprover,
			Apply:  advanceChain,
			Next:   workflow.State(StatusApproved),
			Notify: notifyOwner("Resignation update", func(r *Resignation) string {
				if r.Status == StatusApproved {
					return "Your resignation has been fully approved."
				}
				return fmt.Sprintf("Your resignation moved to level %d approval.", r.ApprovalLevel)
			}),
		},
		{
			From:   workflow.State(StatusPending),
			Action: ActionReject,
			Guard:  workflow.AllGuards(currentStageApprover, requireReason("a reason is required when rejecting a resignation")),
			Apply:  applyRejection,
			Next:   workflow.State(StatusRejected),
			Notify: notifyOwner("Resignation rejected", func(r *Resignation) string {
				return "Your resignation request was rejected."
			}),
		},
		{
			From:   workflow.State(StatusPending),
			Action: ActionCancel,
			Guard:  workflow.AllGuards(ownerOrHR, requireReason("a reason is required when cancelling a resignation")),
			Apply:  applyCancellation,
			Next:   workflow.State(StatusCancelled),
			Notify: notifyOwner("Resignation cancelled", func(r *Resignation) string {
				return "Your resignation request has been withdrawn."
			}),
		},
	})
}
