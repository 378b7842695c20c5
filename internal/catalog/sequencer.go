package catalog

import (
	"fmt"
	"time"

	"ms-catalog/internal/models"
)

// assignSequenceIfAbsent gives a new lot the next sequence in its auction
// when the caller did not pick one. A failed max lookup aborts the create;
// silently defaulting to 1 would collide with existing lots.
func (s *Service) assignSequenceIfAbsent(lot *models.Lot) error {
	if lot.Sequence > 0 {
		return nil
	}
	max, err := s.DB.MaxSequence(lot.AuctionID)
	if err != nil {
		return fmt.Errorf("failed to read current max sequence: %w", err)
	}
	lot.Sequence = max + 1
	return nil
}

// ReorderRequest carries either a fully ordered id list (position i becomes
// sequence i+1) or explicit lotId/sequence pairs. Order wins when both are
// set.
type ReorderRequest struct {
	AuctionID string                  `json:"auctionId"`
	Order     []string                `json:"order,omitempty"`
	Updates   []models.SequenceUpdate `json:"updates,omitempty"`
	UserID    string                  `json:"userId,omitempty"`
}

// Reorder rewrites sequence numbers for a set of lots in one auction. Every
// referenced lot must exist and belong to the auction or the whole operation
// is rejected; nothing is partially applied on validation failure. A store
// failure mid-batch surfaces as a PartialBatchError with the applied count.
func (s *Service) Reorder(req ReorderRequest) (int, error) {
	if req.AuctionID == "" {
		return 0, validationErrorf("auctionId is required")
	}

	updates := req.Updates
	if len(req.Order) > 0 {
		updates = make([]models.SequenceUpdate, len(req.Order))
		for i, lotID := range req.Order {
			updates[i] = models.SequenceUpdate{LotID: lotID, Sequence: i + 1}
		}
	}
	if len(updates) == 0 {
		return 0, validationErrorf("no ordering data provided")
	}

	ids := make([]string, len(updates))
	seen := make(map[string]bool, len(updates))
	for i, u := range updates {
		if u.LotID == "" {
			return 0, validationErrorf("ordering entry %d has no lotId", i)
		}
		if seen[u.LotID] {
			return 0, validationErrorf("duplicate lot id %s in ordering data", u.LotID)
		}
		seen[u.LotID] = true
		ids[i] = u.LotID
	}

	if _, err := s.DB.GetAuctionByID(req.AuctionID); err != nil {
		return 0, &NotFoundError{Resource: "auction", ID: req.AuctionID}
	}
	found, err := s.DB.GetLotsByIDsInAuction(req.AuctionID, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve lots: %w", err)
	}
	if len(found) != len(ids) {
		return 0, validationErrorf("ordering data references %d lots but only %d belong to auction %s",
			len(ids), len(found), req.AuctionID)
	}

	release := s.lockSequence(req.AuctionID)
	defer release()

	applied, err := s.DB.UpdateSequences(updates, req.UserID, time.Now())
	if err != nil {
		if applied > 0 {
			return applied, &PartialBatchError{
				Succeeded: applied,
				Errors:    []RowError{{Row: applied, Message: err.Error()}},
			}
		}
		return 0, fmt.Errorf("failed to apply reorder: %w", err)
	}

	updateData := make([]map[string]interface{}, len(updates))
	for i, u := range updates {
		updateData[i] = map[string]interface{}{"lotId": u.LotID, "sequence": u.Sequence}
	}
	s.record(models.EntityAuction, req.AuctionID, "lot_reorder", map[string]interface{}{
		"updates": updateData,
	}, nil, req.UserID)
	return applied, nil
}
