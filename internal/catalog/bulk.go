package catalog

import (
	"fmt"
	"strconv"
	"time"

	"ms-catalog/internal/models"
)

// BulkActionRequest applies one action verb to many lots at once.
type BulkActionRequest struct {
	Action string      `json:"action"`
	LotIDs []string    `json:"lotIds"`
	Field  string      `json:"field,omitempty"`
	Value  interface{} `json:"value,omitempty"`
	UserID string      `json:"userId,omitempty"`
}

type BulkActionResult struct {
	ModifiedCount int64 `json:"modifiedCount"`
}

// bulkField describes one entry of the closed update_field set: the column
// it writes and how the raw value is coerced. Anything outside this table is
// rejected; there are no reflection-driven writes.
type bulkField struct {
	column string
	coerce func(value interface{}) (interface{}, bool)
}

var bulkFields = map[string]bulkField{
	"subtitle":                  {column: "subtitle", coerce: passThrough},
	"companyCategory":           {column: "company_category", coerce: passThrough},
	"category":                  {column: "category", coerce: passThrough},
	"descriptionHtml":           {column: "description_html", coerce: passThrough},
	"additionalDescriptionHtml": {column: "additional_description_html", coerce: passThrough},
	"status":                    {column: "status", coerce: passThrough},
	"approvalNotes":             {column: "approval_notes", coerce: passThrough},
	"estimateLow":               {column: "estimate_low", coerce: coerceMoney},
	"estimateHigh":              {column: "estimate_high", coerce: coerceMoney},
	"startingBid":               {column: "starting_bid", coerce: coerceMoney},
	"reservePrice":              {column: "reserve_price", coerce: coerceMoney},
	"quantity":                  {column: "quantity", coerce: coerceQuantity},
	"featured":                  {column: "featured", coerce: coerceBool},
	"isArchived":                {column: "is_archived", coerce: coerceBool},
	// requiresApproval is handled separately: it also moves approval_status.
}

// ApplyBulkAction maps an action verb onto one patch and applies it across
// the whole id set. Except for delete, exactly one aggregated audit event is
// logged against the first lot id; delete logs one event per deleted lot.
func (s *Service) ApplyBulkAction(req BulkActionRequest) (*BulkActionResult, error) {
	if len(req.LotIDs) == 0 {
		return nil, validationErrorf("lotIds must not be empty")
	}

	if req.Action == "delete" {
		return s.bulkDelete(req)
	}

	patch, err := buildBulkPatch(req)
	if err != nil {
		return nil, err
	}
	patch["updated_at"] = time.Now()

	modified, err := s.DB.UpdateLotFields(req.LotIDs, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to apply bulk %s: %w", req.Action, err)
	}
	s.record(models.EntityLot, req.LotIDs[0], "bulk_update", map[string]interface{}{
		"action": req.Action,
		"field":  req.Field,
		"value":  req.Value,
		"lotIds": req.LotIDs,
	}, nil, req.UserID)
	return &BulkActionResult{ModifiedCount: modified}, nil
}

// bulkDelete is the one action that logs per entity rather than once for the
// batch; each deleted lot keeps its own trail entry.
func (s *Service) bulkDelete(req BulkActionRequest) (*BulkActionResult, error) {
	lots, err := s.DB.GetLotsByIDs(req.LotIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve lots for delete: %w", err)
	}
	deleted, err := s.DB.DeleteLotsByIDs(req.LotIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to delete lots: %w", err)
	}
	for _, lot := range lots {
		s.record(models.EntityLot, lot.ID, "delete", map[string]interface{}{
			"auctionId": lot.AuctionID,
			"lotNumber": lot.LotNumber,
			"title":     lot.Title,
		}, nil, req.UserID)
	}
	return &BulkActionResult{ModifiedCount: deleted}, nil
}

func buildBulkPatch(req BulkActionRequest) (map[string]interface{}, error) {
	switch req.Action {
	case "update_field":
		return buildFieldPatch(req.Field, req.Value)
	case "publish":
		return map[string]interface{}{"status": models.LotStatusPublished}, nil
	case "unpublish":
		return map[string]interface{}{"status": models.LotStatusDraft}, nil
	case "feature":
		return map[string]interface{}{"featured": true}, nil
	case "unfeature":
		return map[string]interface{}{"featured": false}, nil
	case "mark_sold":
		return map[string]interface{}{"status": models.LotStatusSold}, nil
	case "approve":
		return map[string]interface{}{
			"requires_approval": false,
			"approval_status":   models.ApprovalApproved,
		}, nil
	case "reject":
		return map[string]interface{}{
			"approval_status": models.ApprovalRejected,
			"approval_notes":  toString(req.Value),
		}, nil
	case "cancel":
		return map[string]interface{}{
			"status":       models.LotStatusCancelled,
			"cancelled_at": time.Now(),
		}, nil
	default:
		return nil, validationErrorf("unsupported action %q", req.Action)
	}
}

func buildFieldPatch(field string, value interface{}) (map[string]interface{}, error) {
	if field == "" {
		return nil, validationErrorf("update_field requires a field")
	}
	if field == "lotNumber" || field == "title" {
		return nil, validationErrorf("field %q cannot be changed in bulk", field)
	}
	if field == "requiresApproval" {
		required, _ := coerceBool(value)
		return map[string]interface{}{
			"requires_approval": required,
			"approval_status":   deriveApprovalStatus(required.(bool)),
		}, nil
	}
	def, ok := bulkFields[field]
	if !ok {
		return nil, validationErrorf("field %q is not bulk-updatable", field)
	}
	coerced, ok := def.coerce(value)
	if !ok {
		return nil, validationErrorf("invalid value for field %q", field)
	}
	return map[string]interface{}{def.column: coerced}, nil
}

func passThrough(value interface{}) (interface{}, bool) {
	return value, true
}

// coerceMoney turns the raw value into a non-negative float, defaulting to 0
// when it does not parse.
func coerceMoney(value interface{}) (interface{}, bool) {
	n := toNumber(value)
	if n < 0 {
		n = 0
	}
	return n, true
}

func coerceQuantity(value interface{}) (interface{}, bool) {
	n := int(toNumber(value))
	if n < 1 {
		n = 1
	}
	return n, true
}

func coerceBool(value interface{}) (interface{}, bool) {
	return toBool(value), true
}

func toNumber(value interface{}) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// toBool is true only for an actual boolean true or the exact string "true".
func toBool(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return v == "true"
	default:
		return false
	}
}

func toString(value interface{}) string {
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}
