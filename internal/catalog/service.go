package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ms-catalog/internal/models"
)

// CatalogDB is the store boundary the engine runs against. The store gives
// per-row atomicity only; there are no cross-row transactions.
type CatalogDB interface {
	CreateAuction(auction models.Auction) error
	GetAuctionByID(id string) (*models.Auction, error)
	GetAuctionBySlug(slug string) (*models.Auction, error)
	ListAuctions() ([]models.Auction, error)
	UpdateAuction(auction models.Auction) error
	DeleteAuction(id string) error

	CreateLot(lot models.Lot) error
	GetLotByID(id string) (*models.Lot, error)
	GetLotsByAuction(auctionID string) ([]models.Lot, error)
	GetLotsByIDsInAuction(auctionID string, ids []string) ([]models.Lot, error)
	GetLotsByIDs(ids []string) ([]models.Lot, error)
	MaxSequence(auctionID string) (int, error)
	LotNumberExists(auctionID, lotNumber string) (bool, error)
	UpdateLot(lot models.Lot) error
	UpdateLotFields(ids []string, patch map[string]interface{}) (int64, error)
	UpdateSequences(updates []models.SequenceUpdate, userID string, sequencedAt time.Time) (int, error)
	DeleteLot(id string) error
	DeleteLotsByIDs(ids []string) (int64, error)
	DeleteLotsByAuction(auctionID string) (int64, error)
	InsertLots(lots []models.Lot) (int, []models.InsertFailure)

	ListEventsByEntity(entityType, entityID string) ([]models.EventLogEntry, error)
}

// AuditTrail records one append-only event per mutating operation.
type AuditTrail interface {
	Record(entityType, entityID, action string, data, previous map[string]interface{}, actorID string) error
}

// SequenceLocker guards the max-sequence read/write window per auction.
// Implementations are best-effort; a nil locker means no guard.
type SequenceLocker interface {
	Acquire(auctionID string) (release func(), err error)
}

type Service struct {
	DB    CatalogDB
	Audit AuditTrail
	Lock  SequenceLocker
}

func NewService(db CatalogDB, audit AuditTrail) *Service {
	return &Service{DB: db, Audit: audit}
}

// lockSequence takes the per-auction sequence lock when a locker is wired.
// Lock failure does not abort the operation; the store still wins on
// conflicts.
func (s *Service) lockSequence(auctionID string) func() {
	if s.Lock == nil {
		return func() {}
	}
	release, err := s.Lock.Acquire(auctionID)
	if err != nil {
		return func() {}
	}
	return release
}

// --- Auctions ---

func (s *Service) CreateAuction(auction models.Auction, actorID string) (*models.Auction, error) {
	auction.Title = strings.TrimSpace(auction.Title)
	auction.Slug = strings.ToLower(strings.TrimSpace(auction.Slug))
	if auction.Title == "" {
		return nil, validationErrorf("title is required")
	}
	if auction.Slug == "" {
		return nil, validationErrorf("slug is required")
	}
	if existing, err := s.DB.GetAuctionBySlug(auction.Slug); err == nil && existing != nil {
		return nil, &ConflictError{Message: fmt.Sprintf("auction slug %q already exists", auction.Slug)}
	}
	if auction.ID == "" {
		auction.ID = uuid.New().String()
	}
	if auction.Status == "" {
		auction.Status = models.AuctionStatusDraft
	}
	now := time.Now()
	auction.CreatedAt = now
	auction.UpdatedAt = now

	if err := s.DB.CreateAuction(auction); err != nil {
		if isUniqueViolation(err) {
			return nil, &ConflictError{Message: fmt.Sprintf("auction slug %q already exists", auction.Slug)}
		}
		return nil, fmt.Errorf("failed to create auction: %w", err)
	}
	s.record(models.EntityAuction, auction.ID, "create", map[string]interface{}{
		"slug":  auction.Slug,
		"title": auction.Title,
	}, nil, actorID)
	return &auction, nil
}

func (s *Service) GetAuction(id string) (*models.Auction, error) {
	auction, err := s.DB.GetAuctionByID(id)
	if err != nil {
		return nil, &NotFoundError{Resource: "auction", ID: id}
	}
	return auction, nil
}

func (s *Service) GetAuctionBySlug(slug string) (*models.Auction, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	auction, err := s.DB.GetAuctionBySlug(slug)
	if err != nil {
		return nil, &NotFoundError{Resource: "auction", ID: slug}
	}
	return auction, nil
}

func (s *Service) ListAuctions() ([]models.Auction, error) {
	return s.DB.ListAuctions()
}

// AuctionUpdate carries the fields an update may touch. Nil means the caller
// left the field alone.
type AuctionUpdate struct {
	Slug     *string    `json:"slug"`
	Title    *string    `json:"title"`
	StartsAt *time.Time `json:"startsAt"`
	EndsAt   *time.Time `json:"endsAt"`
	Status   *string    `json:"status"`
	UserID   string     `json:"userId"`
}

func (s *Service) UpdateAuction(id string, upd AuctionUpdate) (*models.Auction, error) {
	auction, err := s.DB.GetAuctionByID(id)
	if err != nil {
		return nil, &NotFoundError{Resource: "auction", ID: id}
	}
	previous := map[string]interface{}{
		"slug":   auction.Slug,
		"title":  auction.Title,
		"status": auction.Status,
	}
	if upd.Slug != nil {
		auction.Slug = strings.ToLower(strings.TrimSpace(*upd.Slug))
	}
	if upd.Title != nil {
		auction.Title = strings.TrimSpace(*upd.Title)
	}
	if upd.StartsAt != nil {
		auction.StartsAt = *upd.StartsAt
	}
	if upd.EndsAt != nil {
		auction.EndsAt = *upd.EndsAt
	}
	if upd.Status != nil {
		auction.Status = *upd.Status
	}
	auction.UpdatedAt = time.Now()

	if err := s.DB.UpdateAuction(*auction); err != nil {
		if isUniqueViolation(err) {
			return nil, &ConflictError{Message: fmt.Sprintf("auction slug %q already exists", auction.Slug)}
		}
		return nil, fmt.Errorf("failed to update auction: %w", err)
	}
	s.record(models.EntityAuction, auction.ID, "update", map[string]interface{}{
		"slug":   auction.Slug,
		"title":  auction.Title,
		"status": auction.Status,
	}, previous, upd.UserID)
	return auction, nil
}

// DeleteAuction removes the auction and cascades a delete of its lots. The
// cascade is fire-and-forget: a lot delete failure does not fail the call.
func (s *Service) DeleteAuction(id, actorID string) error {
	auction, err := s.DB.GetAuctionByID(id)
	if err != nil {
		return &NotFoundError{Resource: "auction", ID: id}
	}
	if err := s.DB.DeleteAuction(id); err != nil {
		return fmt.Errorf("failed to delete auction: %w", err)
	}
	_, _ = s.DB.DeleteLotsByAuction(id)
	s.record(models.EntityAuction, id, "delete", map[string]interface{}{
		"slug":  auction.Slug,
		"title": auction.Title,
	}, nil, actorID)
	return nil
}

// --- Lots ---

func (s *Service) CreateLot(auctionID string, lot models.Lot) (*models.Lot, error) {
	lot.LotNumber = strings.TrimSpace(lot.LotNumber)
	lot.Title = strings.TrimSpace(lot.Title)
	if lot.LotNumber == "" {
		return nil, validationErrorf("lotNumber is required")
	}
	if lot.Title == "" {
		return nil, validationErrorf("title is required")
	}
	if _, err := s.DB.GetAuctionByID(auctionID); err != nil {
		return nil, &NotFoundError{Resource: "auction", ID: auctionID}
	}
	exists, err := s.DB.LotNumberExists(auctionID, lot.LotNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to check lot number: %w", err)
	}
	if exists {
		return nil, &ConflictError{Message: fmt.Sprintf("lot number %q already exists in auction", lot.LotNumber)}
	}

	lot.AuctionID = auctionID
	if lot.ID == "" {
		lot.ID = uuid.New().String()
	}
	if lot.Status == "" {
		lot.Status = models.LotStatusDraft
	}
	clampLot(&lot)
	if err := s.assignSequenceIfAbsent(&lot); err != nil {
		return nil, err
	}
	lot.Approval = approvalForNew(lot.RequiresApproval)
	now := time.Now()
	lot.CreatedAt = now
	lot.UpdatedAt = now

	if err := s.DB.CreateLot(lot); err != nil {
		if isUniqueViolation(err) {
			return nil, &ConflictError{Message: fmt.Sprintf("lot number %q already exists in auction", lot.LotNumber)}
		}
		return nil, fmt.Errorf("failed to create lot: %w", err)
	}
	s.record(models.EntityLot, lot.ID, "create", map[string]interface{}{
		"auctionId": lot.AuctionID,
		"lotNumber": lot.LotNumber,
		"title":     lot.Title,
		"sequence":  lot.Sequence,
	}, nil, lot.CreatedByID)
	return &lot, nil
}

func (s *Service) GetLot(id string) (*models.Lot, error) {
	lot, err := s.DB.GetLotByID(id)
	if err != nil {
		return nil, &NotFoundError{Resource: "lot", ID: id}
	}
	return lot, nil
}

func (s *Service) ListLots(auctionID string) ([]models.Lot, error) {
	if _, err := s.DB.GetAuctionByID(auctionID); err != nil {
		return nil, &NotFoundError{Resource: "auction", ID: auctionID}
	}
	return s.DB.GetLotsByAuction(auctionID)
}

// LotUpdate carries a single-lot patch. Nil pointers mean "leave alone", so
// an explicit false or empty string is distinguishable from absence.
type LotUpdate struct {
	Title                     *string                `json:"title"`
	Subtitle                  *string                `json:"subtitle"`
	CompanyCategory           *string                `json:"companyCategory"`
	Category                  *string                `json:"category"`
	DescriptionHTML           *string                `json:"descriptionHtml"`
	AdditionalDescriptionHTML *string                `json:"additionalDescriptionHtml"`
	Quantity                  *int                   `json:"quantity"`
	EstimateLow               *float64               `json:"estimateLow"`
	EstimateHigh              *float64               `json:"estimateHigh"`
	StartingBid               *float64               `json:"startingBid"`
	ReservePrice              *float64               `json:"reservePrice"`
	Status                    *string                `json:"status"`
	Featured                  *bool                  `json:"featured"`
	RequiresApproval          *bool                  `json:"requiresApproval"`
	ApprovalStatus            *string                `json:"approvalStatus"`
	ApprovalNotes             *string                `json:"approvalNotes"`
	IsArchived                *bool                  `json:"isArchived"`
	Attributes                map[string]string      `json:"attributes"`
	Metadata                  map[string]interface{} `json:"metadata"`
	Images                    []models.LotImage      `json:"images"`
	Documents                 []models.LotDocument   `json:"documents"`
	UserID                    string                 `json:"userId"`
}

func (s *Service) UpdateLot(id string, upd LotUpdate) (*models.Lot, error) {
	lot, err := s.DB.GetLotByID(id)
	if err != nil {
		return nil, &NotFoundError{Resource: "lot", ID: id}
	}
	previous := lotSummary(lot)

	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return nil, validationErrorf("title cannot be blank")
		}
		lot.Title = title
	}
	if upd.Subtitle != nil {
		lot.Subtitle = *upd.Subtitle
	}
	if upd.CompanyCategory != nil {
		lot.CompanyCategory = *upd.CompanyCategory
	}
	if upd.Category != nil {
		lot.Category = *upd.Category
	}
	if upd.DescriptionHTML != nil {
		lot.DescriptionHTML = *upd.DescriptionHTML
	}
	if upd.AdditionalDescriptionHTML != nil {
		lot.AdditionalDescriptionHTML = *upd.AdditionalDescriptionHTML
	}
	if upd.Quantity != nil {
		lot.Quantity = *upd.Quantity
	}
	if upd.EstimateLow != nil {
		lot.EstimateLow = *upd.EstimateLow
	}
	if upd.EstimateHigh != nil {
		lot.EstimateHigh = *upd.EstimateHigh
	}
	if upd.StartingBid != nil {
		lot.StartingBid = *upd.StartingBid
	}
	if upd.ReservePrice != nil {
		lot.ReservePrice = *upd.ReservePrice
	}
	if upd.Status != nil {
		lot.Status = *upd.Status
	}
	if upd.Featured != nil {
		lot.Featured = *upd.Featured
	}
	if upd.IsArchived != nil {
		lot.IsArchived = *upd.IsArchived
	}
	if upd.Attributes != nil {
		lot.Attributes = upd.Attributes
	}
	if upd.Metadata != nil {
		lot.Metadata = upd.Metadata
	}
	if upd.Images != nil {
		lot.Images = upd.Images
	}
	if upd.Documents != nil {
		lot.Documents = upd.Documents
	}
	applyApprovalUpdate(lot, upd)
	clampLot(lot)
	lot.UpdatedByID = upd.UserID
	lot.UpdatedAt = time.Now()

	if err := s.DB.UpdateLot(*lot); err != nil {
		return nil, fmt.Errorf("failed to update lot: %w", err)
	}
	s.record(models.EntityLot, lot.ID, "update", lotSummary(lot), previous, upd.UserID)
	return lot, nil
}

func (s *Service) DeleteLot(id, actorID string) error {
	lot, err := s.DB.GetLotByID(id)
	if err != nil {
		return &NotFoundError{Resource: "lot", ID: id}
	}
	if err := s.DB.DeleteLot(id); err != nil {
		return fmt.Errorf("failed to delete lot: %w", err)
	}
	s.record(models.EntityLot, id, "delete", map[string]interface{}{
		"auctionId": lot.AuctionID,
		"lotNumber": lot.LotNumber,
		"title":     lot.Title,
	}, nil, actorID)
	return nil
}

// ListEvents returns the audit trail for one entity, oldest first.
func (s *Service) ListEvents(entityType, entityID string) ([]models.EventLogEntry, error) {
	if entityType == "" || entityID == "" {
		return nil, validationErrorf("entityType and entityId are required")
	}
	return s.DB.ListEventsByEntity(entityType, entityID)
}

// record writes an audit entry. Audit failures never fail the mutation that
// already happened.
func (s *Service) record(entityType, entityID, action string, data, previous map[string]interface{}, actorID string) {
	if s.Audit == nil {
		return
	}
	_ = s.Audit.Record(entityType, entityID, action, data, previous, actorID)
}

// clampLot applies the boundary clamps: quantity at least 1, money fields at
// least 0. Business logic past this point trusts the values.
func clampLot(lot *models.Lot) {
	if lot.Quantity < 1 {
		lot.Quantity = 1
	}
	if lot.EstimateLow < 0 {
		lot.EstimateLow = 0
	}
	if lot.EstimateHigh < 0 {
		lot.EstimateHigh = 0
	}
	if lot.StartingBid < 0 {
		lot.StartingBid = 0
	}
	if lot.ReservePrice < 0 {
		lot.ReservePrice = 0
	}
}

func lotSummary(lot *models.Lot) map[string]interface{} {
	return map[string]interface{}{
		"auctionId":        lot.AuctionID,
		"lotNumber":        lot.LotNumber,
		"title":            lot.Title,
		"status":           lot.Status,
		"sequence":         lot.Sequence,
		"featured":         lot.Featured,
		"requiresApproval": lot.RequiresApproval,
		"approvalStatus":   lot.Approval.Status,
	}
}
