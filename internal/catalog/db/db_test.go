package db_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"

	catalogdb "ms-catalog/internal/catalog/db"
	"ms-catalog/internal/models"
)

func setupTestDB(t *testing.T) (*catalogdb.DB, *bun.DB) {
	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	// one connection so the in-memory database survives the whole test
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	for _, model := range []interface{}{
		(*models.Auction)(nil),
		(*models.Lot)(nil),
		(*models.EventLogEntry)(nil),
	} {
		_, err = bunDB.NewCreateTable().Model(model).Exec(ctx)
		if err != nil {
			t.Fatalf("Failed to create table: %v", err)
		}
	}

	return &catalogdb.DB{Bun: bunDB}, bunDB
}

func newTestLot(auctionID, lotNumber string, sequence int) models.Lot {
	return models.Lot{
		ID:        uuid.New().String(),
		AuctionID: auctionID,
		LotNumber: lotNumber,
		Sequence:  sequence,
		Title:     "Lot " + lotNumber,
		Quantity:  1,
		Status:    models.LotStatusDraft,
		Approval:  models.Approval{Status: models.ApprovalApproved},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestCreateAndGetLot(t *testing.T) {
	store, bunDB := setupTestDB(t)
	defer bunDB.Close()

	lot := newTestLot("auction1", "101", 1)
	lot.Attributes = map[string]string{"maker": "Steinway"}
	lot.Images = []models.LotImage{{URL: "http://img/1.jpg", Order: 1}}

	err := store.CreateLot(lot)
	assert.NoError(t, err)

	got, err := store.GetLotByID(lot.ID)
	assert.NoError(t, err)
	assert.Equal(t, "101", got.LotNumber)
	assert.Equal(t, "Steinway", got.Attributes["maker"])
	assert.Len(t, got.Images, 1)

	_, err = store.GetLotByID("missing")
	assert.Error(t, err)
}

func TestLotNumberUniquePerAuction(t *testing.T) {
	store, bunDB := setupTestDB(t)
	defer bunDB.Close()

	require.NoError(t, store.CreateLot(newTestLot("auction1", "101", 1)))

	err := store.CreateLot(newTestLot("auction1", "101", 2))
	assert.Error(t, err)

	// same number in another auction is fine
	assert.NoError(t, store.CreateLot(newTestLot("auction2", "101", 1)))
}

func TestMaxSequence(t *testing.T) {
	store, bunDB := setupTestDB(t)
	defer bunDB.Close()

	max, err := store.MaxSequence("auction1")
	assert.NoError(t, err)
	assert.Equal(t, 0, max)

	require.NoError(t, store.CreateLot(newTestLot("auction1", "101", 3)))
	require.NoError(t, store.CreateLot(newTestLot("auction1", "102", 7)))
	require.NoError(t, store.CreateLot(newTestLot("auction2", "101", 99)))

	max, err = store.MaxSequence("auction1")
	assert.NoError(t, err)
	assert.Equal(t, 7, max)
}

func TestUpdateLotFields(t *testing.T) {
	store, bunDB := setupTestDB(t)
	defer bunDB.Close()

	a := newTestLot("auction1", "101", 1)
	b := newTestLot("auction1", "102", 2)
	require.NoError(t, store.CreateLot(a))
	require.NoError(t, store.CreateLot(b))

	modified, err := store.UpdateLotFields([]string{a.ID, b.ID, "missing"}, map[string]interface{}{
		"status":   models.LotStatusPublished,
		"featured": true,
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(2), modified)

	got, err := store.GetLotByID(a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LotStatusPublished, got.Status)
	assert.True(t, got.Featured)
}

func TestUpdateSequences(t *testing.T) {
	store, bunDB := setupTestDB(t)
	defer bunDB.Close()

	a := newTestLot("auction1", "101", 1)
	b := newTestLot("auction1", "102", 2)
	require.NoError(t, store.CreateLot(a))
	require.NoError(t, store.CreateLot(b))

	applied, err := store.UpdateSequences([]models.SequenceUpdate{
		{LotID: a.ID, Sequence: 2},
		{LotID: b.ID, Sequence: 1},
	}, "user1", time.Now())
	assert.NoError(t, err)
	assert.Equal(t, 2, applied)

	got, err := store.GetLotByID(a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Sequence)
	assert.Equal(t, "user1", got.LastSequencedByID)
	assert.False(t, got.SequencedAt.IsZero())
}

func TestInsertLotsIsolatesFailures(t *testing.T) {
	store, bunDB := setupTestDB(t)
	defer bunDB.Close()

	require.NoError(t, store.CreateLot(newTestLot("auction1", "101", 1)))

	lots := []models.Lot{
		newTestLot("auction1", "102", 2),
		newTestLot("auction1", "101", 3), // duplicate lot number
		newTestLot("auction1", "103", 4),
	}
	inserted, failures := store.InsertLots(lots)
	assert.Equal(t, 2, inserted)
	require.Len(t, failures, 1)
	assert.Equal(t, 1, failures[0].Index)
	assert.NotEmpty(t, failures[0].Err)
}

func TestDeleteLotsByIDs(t *testing.T) {
	store, bunDB := setupTestDB(t)
	defer bunDB.Close()

	a := newTestLot("auction1", "101", 1)
	b := newTestLot("auction1", "102", 2)
	require.NoError(t, store.CreateLot(a))
	require.NoError(t, store.CreateLot(b))

	deleted, err := store.DeleteLotsByIDs([]string{a.ID, b.ID, "missing"})
	assert.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	lots, err := store.GetLotsByAuction("auction1")
	assert.NoError(t, err)
	assert.Empty(t, lots)
}

func TestGetLotsByAuctionOrdersBySequence(t *testing.T) {
	store, bunDB := setupTestDB(t)
	defer bunDB.Close()

	require.NoError(t, store.CreateLot(newTestLot("auction1", "103", 3)))
	require.NoError(t, store.CreateLot(newTestLot("auction1", "101", 1)))
	require.NoError(t, store.CreateLot(newTestLot("auction1", "102", 2)))

	lots, err := store.GetLotsByAuction("auction1")
	require.NoError(t, err)
	require.Len(t, lots, 3)
	assert.Equal(t, []string{"101", "102", "103"}, []string{lots[0].LotNumber, lots[1].LotNumber, lots[2].LotNumber})
}

func TestEventLogAppendAndList(t *testing.T) {
	store, bunDB := setupTestDB(t)
	defer bunDB.Close()

	entry := models.EventLogEntry{
		ID:         uuid.New().String(),
		EntityType: models.EntityLot,
		EntityID:   "lot1",
		Action:     "create",
		Data:       map[string]interface{}{"lotNumber": "101"},
		ActorID:    "user1",
		CreatedAt:  time.Now(),
	}
	require.NoError(t, store.InsertEvent(entry))

	entries, err := store.ListEventsByEntity(models.EntityLot, "lot1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "create", entries[0].Action)
	assert.Equal(t, "101", entries[0].Data["lotNumber"])

	byAction, err := store.ListEventsByAction("create")
	require.NoError(t, err)
	assert.Len(t, byAction, 1)
}
