package catalog

import (
	"time"

	"ms-catalog/internal/models"
)

// The approval machine is deliberately liberal: any state can move to any
// other, last writer wins. Status follows requiresApproval unless the caller
// supplies an explicit status, which always wins.

func approvalForNew(requiresApproval bool) models.Approval {
	return models.Approval{Status: deriveApprovalStatus(requiresApproval)}
}

func deriveApprovalStatus(requiresApproval bool) string {
	if requiresApproval {
		return models.ApprovalPending
	}
	return models.ApprovalApproved
}

func applyApprovalUpdate(lot *models.Lot, upd LotUpdate) {
	if upd.RequiresApproval != nil {
		lot.RequiresApproval = *upd.RequiresApproval
		if upd.ApprovalStatus == nil {
			lot.Approval.Status = deriveApprovalStatus(*upd.RequiresApproval)
		}
	}
	if upd.ApprovalStatus != nil {
		lot.Approval.Status = *upd.ApprovalStatus
		lot.Approval.ReviewedByID = upd.UserID
		lot.Approval.ReviewedAt = time.Now()
	}
	// Notes alone never move the status.
	if upd.ApprovalNotes != nil {
		lot.Approval.Notes = *upd.ApprovalNotes
	}
}
