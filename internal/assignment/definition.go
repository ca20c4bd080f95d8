package assignment

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/peoplehub/hr-backoffice/internal"
	"github.com/peoplehub/hr-backoffice/internal/auth"
	"github.com/peoplehub/hr-backoffice/internal/notification"
	"github.com/peoplehub/hr-backoffice/internal/workflow"
)

// ConflictChecker is the guard's view of the store: it must lock the asset
// row first so concurrent creates/approvals for the same asset serialize, and
// only then count open assignments.
type ConflictChecker interface {
	LockAssetRow(ctx context.Context, tx *gorm.DB, assetID int64) error
	HasOpenAssignment(ctx context.Context, tx *gorm.DB, assetID, excludeID int64) (bool, error)
}

// DefinitionDeps wires the assignment transition table. EvidencePhotos
// reflects whether the deployment schema carries the attachment columns,
// resolved once at startup.
type DefinitionDeps struct {
	Conflicts      ConflictChecker
	EvidencePhotos bool
}

// Definition builds the assignment workflow table:
//
//	(none)                      create                  -> pending_employee_approval
//	pending_employee_approval   employee_approve        -> active
//	pending_employee_approval   employee_reject         -> rejected
//	active                      manager_request_return  -> return_requested
//	return_requested            employee_confirm_return -> returned
func Definition(deps DefinitionDeps) *workflow.Definition {
	noConflict := func(gc workflow.GuardContext) error {
		a := gc.Entity.(*Assignment)
		if err := deps.Conflicts.LockAssetRow(gc.Ctx, gc.Tx, a.AssetID); err != nil {
			return err
		}
		open, err := deps.Conflicts.HasOpenAssignment(gc.Ctx, gc.Tx, a.AssetID, a.ID)
		if err != nil {
			return err
		}
		if open {
			return internal.NewGuardFailedError(internal.ReasonAlreadyActive,
				fmt.Sprintf("asset %d already has a pending or active assignment", a.AssetID))
		}
		return nil
	}

	applyReceiptEvidence := func(gc workflow.GuardContext) error {
		if !deps.EvidencePhotos {
			return nil
		}
		a := gc.Entity.(*Assignment)
		if v := gc.Input["receipt_selfie_id"]; v != "" {
			a.ReceiptSelfieID = &v
		}
		if v := gc.Input["receipt_photo_id"]; v != "" {
			a.ReceiptPhotoID = &v
		}
		return nil
	}

	applyReturnEvidence := func(gc workflow.GuardContext) error {
		a := gc.Entity.(*Assignment)
		now := time.Now()
		a.EndDate = &now
		if !deps.EvidencePhotos {
			return nil
		}
		if v := gc.Input["return_selfie_id"]; v != "" {
			a.ReturnSelfieID = &v
		}
		if v := gc.Input["return_photo_id"]; v != "" {
			a.ReturnPhotoID = &v
		}
		return nil
	}

	requireReason := func(gc workflow.GuardContext) error {
		if gc.Input["reason"] == "" {
			return internal.NewGuardFailedError(internal.ReasonReasonRequired,
				"a reason is required when rejecting an assignment")
		}
		return nil
	}

	notifyEmployee := func(subject, body string) workflow.Notify {
		return func(e workflow.Entity, input map[string]string) []notification.Message {
			a := e.(*Assignment)
			return []notification.Message{{
				EmployeeID: a.EmployeeID,
				Subject:    subject,
				Body:       fmt.Sprintf(body, a.AssetID),
			}}
		}
	}

	notifyAssigner := func(subject, body string) workflow.Notify {
		return func(e workflow.Entity, input map[string]string) []notification.Message {
			a := e.(*Assignment)
			return []notification.Message{{
				EmployeeID: a.AssignedBy,
				Subject:    subject,
				Body:       fmt.Sprintf(body, a.AssetID),
			}}
		}
	}

	return workflow.NewDefinition(workflow.TypeAssignment, []workflow.Rule{
		{
			From:       workflow.StateNone,
			Action:     ActionCreate,
			Capability: auth.CapManageAssets,
			Guard:      noConflict,
			Next:       workflow.State(StatusPendingEmployeeApproval),
			Notify:     notifyEmployee("Asset assigned to you", "Asset %d has been assigned to you. Please confirm receipt."),
		},
		{
			From:      workflow.State(StatusPendingEmployeeApproval),
			Action:    ActionEmployeeApprove,
			OwnerOnly: true,
			// re-checked under the same lock as create; the partial unique
			// index is the structural backstop
			Guard:  noConflict,
			Apply:  applyReceiptEvidence,
			Next:   workflow.State(StatusActive),
			Notify: notifyAssigner("Assignment accepted", "The employee confirmed receipt of asset %d."),
		},
		{
			From:      workflow.State(StatusPendingEmployeeApproval),
			Action:    ActionEmployeeReject,
			OwnerOnly: true,
			Guard:     requireReason,
			Next:      workflow.State(StatusRejected),
			Notify:    notifyAssigner("Assignment rejected", "The employee rejected asset %d."),
		},
		{
			From:       workflow.State(StatusActive),
			Action:     ActionManagerRequestReturn,
			Capability: auth.CapManageAssets,
			Next:       workflow.State(StatusReturnRequested),
			Notify:     notifyEmployee("Asset return requested", "Please return asset %d and confirm hand-back."),
		},
		{
			From:      workflow.State(StatusReturnRequested),
			Action:    ActionEmployeeConfirmReturn,
			OwnerOnly: true,
			Apply:     applyReturnEvidence,
			Next:      workflow.State(StatusReturned),
			Notify:    notifyAssigner("Asset returned", "The employee confirmed return of asset %d."),
		},
	})
}
