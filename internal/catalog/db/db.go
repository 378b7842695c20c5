package db

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"ms-catalog/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// --- Auctions ---

func (d *DB) CreateAuction(auction models.Auction) error {
	_, err := d.Bun.NewInsert().Model(&auction).Exec(context.Background())
	return err
}

func (d *DB) GetAuctionByID(id string) (*models.Auction, error) {
	var auction models.Auction
	err := d.Bun.NewSelect().
		Model(&auction).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &auction, nil
}

func (d *DB) GetAuctionBySlug(slug string) (*models.Auction, error) {
	var auction models.Auction
	err := d.Bun.NewSelect().
		Model(&auction).
		Where("slug = ?", slug).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &auction, nil
}

func (d *DB) ListAuctions() ([]models.Auction, error) {
	var auctions []models.Auction
	err := d.Bun.NewSelect().
		Model(&auctions).
		Order("starts_at DESC").
		Scan(context.Background())
	return auctions, err
}

func (d *DB) UpdateAuction(auction models.Auction) error {
	_, err := d.Bun.NewUpdate().
		Model(&auction).
		WherePK().
		Exec(context.Background())
	return err
}

func (d *DB) DeleteAuction(id string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.Auction)(nil)).
		Where("id = ?", id).
		Exec(context.Background())
	return err
}

// --- Lots ---

func (d *DB) CreateLot(lot models.Lot) error {
	_, err := d.Bun.NewInsert().Model(&lot).Exec(context.Background())
	return err
}

func (d *DB) GetLotByID(id string) (*models.Lot, error) {
	var lot models.Lot
	err := d.Bun.NewSelect().
		Model(&lot).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &lot, nil
}

// GetLotsByAuction returns the auction's lots in display order.
func (d *DB) GetLotsByAuction(auctionID string) ([]models.Lot, error) {
	var lots []models.Lot
	err := d.Bun.NewSelect().
		Model(&lots).
		Where("auction_id = ?", auctionID).
		Order("sequence ASC").
		Scan(context.Background())
	return lots, err
}

// GetLotsByIDsInAuction returns only the requested lots that actually belong
// to the auction. Callers compare len(result) against len(ids) to detect
// strays.
func (d *DB) GetLotsByIDsInAuction(auctionID string, ids []string) ([]models.Lot, error) {
	var lots []models.Lot
	err := d.Bun.NewSelect().
		Model(&lots).
		Where("auction_id = ?", auctionID).
		Where("id IN (?)", bun.In(ids)).
		Scan(context.Background())
	return lots, err
}

func (d *DB) GetLotsByIDs(ids []string) ([]models.Lot, error) {
	var lots []models.Lot
	err := d.Bun.NewSelect().
		Model(&lots).
		Where("id IN (?)", bun.In(ids)).
		Scan(context.Background())
	return lots, err
}

// MaxSequence returns the highest sequence among the auction's lots, 0 if it
// has none.
func (d *DB) MaxSequence(auctionID string) (int, error) {
	var max int
	err := d.Bun.NewSelect().
		Model((*models.Lot)(nil)).
		ColumnExpr("COALESCE(MAX(sequence), 0)").
		Where("auction_id = ?", auctionID).
		Scan(context.Background(), &max)
	if err != nil {
		return 0, err
	}
	return max, nil
}

func (d *DB) LotNumberExists(auctionID, lotNumber string) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.Lot)(nil)).
		Where("auction_id = ?", auctionID).
		Where("lot_number = ?", lotNumber).
		Exists(context.Background())
}

func (d *DB) UpdateLot(lot models.Lot) error {
	_, err := d.Bun.NewUpdate().
		Model(&lot).
		WherePK().
		Exec(context.Background())
	return err
}

// UpdateLotFields applies one column patch across every lot in ids and
// returns the store-reported modified count. Keys must be column names from
// the closed set the service enumerates; values go through bun placeholders.
func (d *DB) UpdateLotFields(ids []string, patch map[string]interface{}) (int64, error) {
	if len(ids) == 0 || len(patch) == 0 {
		return 0, nil
	}
	q := d.Bun.NewUpdate().
		Model((*models.Lot)(nil)).
		Where("id IN (?)", bun.In(ids))
	for column, value := range patch {
		q = q.Set("? = ?", bun.Ident(column), value)
	}
	res, err := q.Exec(context.Background())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UpdateSequences applies reorder updates row by row. The store has no
// cross-row transaction, so a mid-batch failure leaves earlier rows updated;
// the applied count tells the caller how far it got.
func (d *DB) UpdateSequences(updates []models.SequenceUpdate, userID string, sequencedAt time.Time) (int, error) {
	ctx := context.Background()
	applied := 0
	for _, u := range updates {
		_, err := d.Bun.NewUpdate().
			Model((*models.Lot)(nil)).
			Set("sequence = ?", u.Sequence).
			Set("last_sequenced_by_id = ?", userID).
			Set("sequenced_at = ?", sequencedAt).
			Where("id = ?", u.LotID).
			Exec(ctx)
		if err != nil {
			return applied, err
		}
		applied++
	}
	return applied, nil
}

func (d *DB) DeleteLot(id string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.Lot)(nil)).
		Where("id = ?", id).
		Exec(context.Background())
	return err
}

func (d *DB) DeleteLotsByIDs(ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := d.Bun.NewDelete().
		Model((*models.Lot)(nil)).
		Where("id IN (?)", bun.In(ids)).
		Exec(context.Background())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (d *DB) DeleteLotsByAuction(auctionID string) (int64, error) {
	res, err := d.Bun.NewDelete().
		Model((*models.Lot)(nil)).
		Where("auction_id = ?", auctionID).
		Exec(context.Background())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// InsertLots inserts each lot individually so one bad row cannot block its
// siblings (unordered multi-insert semantics). Failures come back with the
// row's position in the submitted slice.
func (d *DB) InsertLots(lots []models.Lot) (int, []models.InsertFailure) {
	ctx := context.Background()
	inserted := 0
	var failures []models.InsertFailure
	for i := range lots {
		if _, err := d.Bun.NewInsert().Model(&lots[i]).Exec(ctx); err != nil {
			failures = append(failures, models.InsertFailure{Index: i, Err: err.Error()})
			continue
		}
		inserted++
	}
	return inserted, failures
}
