package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	LotStatusDraft     = "draft"
	LotStatusPending   = "pending"
	LotStatusPublished = "published"
	LotStatusSold      = "sold"
	LotStatusPassed    = "passed"
	LotStatusCancelled = "cancelled"
)

const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// Approval is the review state attached to a lot. It is embedded in the lots
// table with an approval_ column prefix so bulk patches can target single
// columns.
type Approval struct {
	Status       string    `bun:"status" json:"status"`
	ReviewedByID string    `bun:"reviewed_by_id" json:"reviewedById"`
	ReviewedAt   time.Time `bun:"reviewed_at,nullzero" json:"reviewedAt"`
	Notes        string    `bun:"notes" json:"notes"`
}

type LotImage struct {
	URL     string `json:"url"`
	Caption string `json:"caption"`
	Order   int    `json:"order"`
	Source  string `json:"source,omitempty"`
}

type LotDocument struct {
	URL   string `json:"url"`
	Label string `json:"label"`
	Order int    `json:"order"`
}

type Lot struct {
	bun.BaseModel `bun:"table:lots"`

	ID                        string                 `bun:"id,pk" json:"id"`
	AuctionID                 string                 `bun:"auction_id,notnull,unique:auction_lot" json:"auctionId"`
	LotNumber                 string                 `bun:"lot_number,notnull,unique:auction_lot" json:"lotNumber"`
	Sequence                  int                    `bun:"sequence" json:"sequence"`
	Title                     string                 `bun:"title,notnull" json:"title"`
	Subtitle                  string                 `bun:"subtitle" json:"subtitle"`
	CompanyCategory           string                 `bun:"company_category" json:"companyCategory"`
	Category                  string                 `bun:"category" json:"category"`
	DescriptionHTML           string                 `bun:"description_html" json:"descriptionHtml"`
	AdditionalDescriptionHTML string                 `bun:"additional_description_html" json:"additionalDescriptionHtml"`
	Quantity                  int                    `bun:"quantity" json:"quantity"`
	EstimateLow               float64                `bun:"estimate_low" json:"estimateLow"`
	EstimateHigh              float64                `bun:"estimate_high" json:"estimateHigh"`
	StartingBid               float64                `bun:"starting_bid" json:"startingBid"`
	ReservePrice              float64                `bun:"reserve_price" json:"reservePrice"`
	Status                    string                 `bun:"status" json:"status"`
	Featured                  bool                   `bun:"featured" json:"featured"`
	RequiresApproval          bool                   `bun:"requires_approval" json:"requiresApproval"`
	Approval                  Approval               `bun:"embed:approval_" json:"approval"`
	IsArchived                bool                   `bun:"is_archived" json:"isArchived"`
	Attributes                map[string]string      `bun:"attributes,type:jsonb" json:"attributes,omitempty"`
	Metadata                  map[string]interface{} `bun:"metadata,type:jsonb" json:"metadata,omitempty"`
	Images                    []LotImage             `bun:"images,type:jsonb" json:"images,omitempty"`
	Documents                 []LotDocument          `bun:"documents,type:jsonb" json:"documents,omitempty"`
	CreatedByID               string                 `bun:"created_by_id" json:"createdById"`
	UpdatedByID               string                 `bun:"updated_by_id" json:"updatedById"`
	LastSequencedByID         string                 `bun:"last_sequenced_by_id" json:"lastSequencedById"`
	SequencedAt               time.Time              `bun:"sequenced_at,nullzero" json:"sequencedAt"`
	CancelledAt               time.Time              `bun:"cancelled_at,nullzero" json:"cancelledAt"`
	CreatedAt                 time.Time              `bun:"created_at,nullzero" json:"createdAt"`
	UpdatedAt                 time.Time              `bun:"updated_at,nullzero" json:"updatedAt"`
}

// SequenceUpdate is one lot's target position within an auction.
type SequenceUpdate struct {
	LotID    string `json:"lotId"`
	Sequence int    `json:"sequence"`
}

// InsertFailure reports a single row that the store refused during a
// multi-insert. Index is the position in the submitted slice.
type InsertFailure struct {
	Index int    `json:"index"`
	Err   string `json:"error"`
}
