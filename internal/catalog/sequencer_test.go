package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-catalog/internal/catalog"
	"ms-catalog/internal/models"
)

func TestSequencesIncreaseInCreationOrder(t *testing.T) {
	service, _ := setupService(t)
	auction := createTestAuction(t, service, "spring-sale")

	a := createTestLot(t, service, auction.ID, "101")
	b := createTestLot(t, service, auction.ID, "102")
	c := createTestLot(t, service, auction.ID, "103")

	assert.Equal(t, 1, a.Sequence)
	assert.Equal(t, 2, b.Sequence)
	assert.Equal(t, 3, c.Sequence)
}

func TestExplicitSequenceIsKept(t *testing.T) {
	service, _ := setupService(t)
	auction := createTestAuction(t, service, "spring-sale")

	lot, err := service.CreateLot(auction.ID, models.Lot{
		LotNumber: "101",
		Title:     "Pinned",
		Sequence:  40,
	})
	require.NoError(t, err)
	assert.Equal(t, 40, lot.Sequence)

	// next auto-assigned lot continues after the explicit value
	next := createTestLot(t, service, auction.ID, "102")
	assert.Equal(t, 41, next.Sequence)
}

func TestReorderWithOrderedList(t *testing.T) {
	service, store := setupService(t)
	auction := createTestAuction(t, service, "spring-sale")

	a := createTestLot(t, service, auction.ID, "101")
	b := createTestLot(t, service, auction.ID, "102")
	c := createTestLot(t, service, auction.ID, "103")

	applied, err := service.Reorder(catalog.ReorderRequest{
		AuctionID: auction.ID,
		Order:     []string{c.ID, a.ID, b.ID},
		UserID:    "user1",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, applied)

	lots, err := store.GetLotsByAuction(auction.ID)
	require.NoError(t, err)
	require.Len(t, lots, 3)
	assert.Equal(t, c.ID, lots[0].ID)
	assert.Equal(t, a.ID, lots[1].ID)
	assert.Equal(t, b.ID, lots[2].ID)
	assert.Equal(t, 1, lots[0].Sequence)
	assert.Equal(t, 2, lots[1].Sequence)
	assert.Equal(t, 3, lots[2].Sequence)
	assert.Equal(t, "user1", lots[0].LastSequencedByID)
}

func TestReorderWithExplicitUpdates(t *testing.T) {
	service, store := setupService(t)
	auction := createTestAuction(t, service, "spring-sale")

	a := createTestLot(t, service, auction.ID, "101")
	b := createTestLot(t, service, auction.ID, "102")

	applied, err := service.Reorder(catalog.ReorderRequest{
		AuctionID: auction.ID,
		Updates: []models.SequenceUpdate{
			{LotID: a.ID, Sequence: 10},
			{LotID: b.ID, Sequence: 5},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, applied)

	gotA, err := store.GetLotByID(a.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, gotA.Sequence)
}

func TestReorderRejectsForeignLot(t *testing.T) {
	service, store := setupService(t)
	auction := createTestAuction(t, service, "spring-sale")
	other := createTestAuction(t, service, "autumn-sale")

	a := createTestLot(t, service, auction.ID, "101")
	stray := createTestLot(t, service, other.ID, "901")

	var validationErr *catalog.ValidationError
	_, err := service.Reorder(catalog.ReorderRequest{
		AuctionID: auction.ID,
		Order:     []string{a.ID, stray.ID},
	})
	assert.ErrorAs(t, err, &validationErr)

	// nothing changed
	got, err := store.GetLotByID(a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Sequence)
}

func TestReorderRejectsEmptyAndDuplicates(t *testing.T) {
	service, _ := setupService(t)
	auction := createTestAuction(t, service, "spring-sale")
	a := createTestLot(t, service, auction.ID, "101")

	var validationErr *catalog.ValidationError

	_, err := service.Reorder(catalog.ReorderRequest{AuctionID: auction.ID})
	assert.ErrorAs(t, err, &validationErr)

	_, err = service.Reorder(catalog.ReorderRequest{})
	assert.ErrorAs(t, err, &validationErr)

	_, err = service.Reorder(catalog.ReorderRequest{
		AuctionID: auction.ID,
		Order:     []string{a.ID, a.ID},
	})
	assert.ErrorAs(t, err, &validationErr)
}

func TestReorderLogsSingleAuctionEvent(t *testing.T) {
	service, store := setupService(t)
	auction := createTestAuction(t, service, "spring-sale")

	a := createTestLot(t, service, auction.ID, "101")
	b := createTestLot(t, service, auction.ID, "102")

	_, err := service.Reorder(catalog.ReorderRequest{
		AuctionID: auction.ID,
		Order:     []string{b.ID, a.ID},
		UserID:    "user1",
	})
	require.NoError(t, err)

	entries, err := store.ListEventsByAction("lot_reorder")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.EntityAuction, entries[0].EntityType)
	assert.Equal(t, auction.ID, entries[0].EntityID)
	assert.Equal(t, "user1", entries[0].ActorID)
}
