package catalog_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-catalog/internal/catalog"
	"ms-catalog/internal/models"
)

const csvHeaderLine = "lotNumber,title,subtitle,companyCategory,category,descriptionHtml,additionalDescriptionHtml,quantity,estimateLow,estimateHigh,startingBid,reservePrice,status,featured,requiresApproval,attributes,images"

func TestExportLotsCSVExactBytes(t *testing.T) {
	lots := []models.Lot{
		{
			LotNumber:   "101",
			Title:       "Chair, oak",
			Subtitle:    `He said "ok"`,
			Quantity:    2,
			EstimateLow: 100.5,
			Status:      models.LotStatusDraft,
			Attributes:  map[string]string{"maker": "Steinway"},
			Images: []models.LotImage{
				{URL: "http://img/1.jpg", Order: 1},
				{URL: "http://img/2.jpg", Order: 2},
			},
		},
	}

	got := string(catalog.ExportLotsCSV(lots))
	want := csvHeaderLine + "\n" +
		`101,"Chair, oak","He said ""ok""",,,,,2,100.5,0,0,0,draft,false,false,"{""maker"":""Steinway""}",http://img/1.jpg;http://img/2.jpg`
	assert.Equal(t, want, got)

	// no trailing newline, even for an empty catalog
	assert.False(t, strings.HasSuffix(got, "\n"))
	assert.Equal(t, csvHeaderLine, string(catalog.ExportLotsCSV(nil)))
}

func TestImportDryRunValidatesWithoutPersisting(t *testing.T) {
	service, store := setupService(t)
	auction := createTestAuction(t, service, "spring-sale")

	file := csvHeaderLine + "\n" +
		"101,First chair,,,,,,1,,,,,,,,,\n" +
		"102,Second chair,,,,,,1,,,,,,,,,\n" +
		",No number,,,,,,1,,,,,,,,,\n"

	result, err := service.ImportLotsCSV(strings.NewReader(file), catalog.ImportOptions{
		AuctionID: auction.ID,
		DryRun:    true,
	})
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Equal(t, 2, result.Valid)
	assert.Equal(t, 1, result.Invalid)
	assert.Len(t, result.Preview, 2)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 4, result.Errors[0].Row)
	assert.Equal(t, 0, result.Imported)

	lots, err := store.GetLotsByAuction(auction.ID)
	require.NoError(t, err)
	assert.Empty(t, lots)
}

func TestImportCommitAssignsSequencesInFileOrder(t *testing.T) {
	service, store := setupService(t)
	auction := createTestAuction(t, service, "spring-sale")
	createTestLot(t, service, auction.ID, "100") // occupies sequence 1

	file := csvHeaderLine + "\n" +
		"101,First chair,,,,,,1,,,,,,,,,\n" +
		",Missing number,,,,,,1,,,,,,,,,\n" +
		"102,Second chair,,,,,,1,,,,,,,,,\n"

	result, err := service.ImportLotsCSV(strings.NewReader(file), catalog.ImportOptions{
		AuctionID: auction.ID,
		UserID:    "user1",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	// invalid rows count as failed and consume no sequence numbers
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 3, result.Errors[0].Row)
	assert.Empty(t, result.InsertErrors)

	lots, err := store.GetLotsByAuction(auction.ID)
	require.NoError(t, err)
	require.Len(t, lots, 3)
	assert.Equal(t, "101", lots[1].LotNumber)
	assert.Equal(t, 2, lots[1].Sequence)
	assert.Equal(t, "102", lots[2].LotNumber)
	assert.Equal(t, 3, lots[2].Sequence)
	assert.Equal(t, models.LotStatusDraft, lots[1].Status)
	assert.Equal(t, models.ApprovalApproved, lots[1].Approval.Status)
	assert.Equal(t, "user1", lots[1].CreatedByID)

	entries, err := store.ListEventsByAction("lot_import")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, auction.ID, entries[0].EntityID)
}

func TestImportIsolatesDuplicateLotNumbers(t *testing.T) {
	service, store := setupService(t)
	auction := createTestAuction(t, service, "spring-sale")
	createTestLot(t, service, auction.ID, "101")

	file := csvHeaderLine + "\n" +
		"101,Duplicate,,,,,,1,,,,,,,,,\n" +
		"102,Fresh,,,,,,1,,,,,,,,,\n"

	result, err := service.ImportLotsCSV(strings.NewReader(file), catalog.ImportOptions{
		AuctionID: auction.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	// store-level failures are reported separately from validation failures
	assert.Equal(t, 0, result.Failed)
	require.Len(t, result.InsertErrors, 1)
	assert.Equal(t, 2, result.InsertErrors[0].Row)

	lots, err := store.GetLotsByAuction(auction.ID)
	require.NoError(t, err)
	assert.Len(t, lots, 2)
}

func TestImportRowLevelErrors(t *testing.T) {
	service, _ := setupService(t)
	auction := createTestAuction(t, service, "spring-sale")

	file := csvHeaderLine + "\n" +
		"101,Bad estimate,,,,,,1,abc,,,,,,,,\n" +
		"102,Bad attributes,,,,,,1,,,,,,,,not-json,\n" +
		"103,Good,,,,,,1,,,,,,,,,\n"

	result, err := service.ImportLotsCSV(strings.NewReader(file), catalog.ImportOptions{
		AuctionID: auction.ID,
		DryRun:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Valid)
	assert.Equal(t, 2, result.Invalid)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0].Message, "estimateLow")
	assert.Contains(t, result.Errors[1].Message, "attributes")
}

func TestImportBooleansRequireExactTrue(t *testing.T) {
	service, _ := setupService(t)
	auction := createTestAuction(t, service, "spring-sale")

	file := csvHeaderLine + "\n" +
		"101,Exact,,,,,,1,,,,,,true,true,,\n" +
		"102,Shouty,,,,,,1,,,,,,TRUE,yes,,\n"

	result, err := service.ImportLotsCSV(strings.NewReader(file), catalog.ImportOptions{
		AuctionID: auction.ID,
		DryRun:    true,
	})
	require.NoError(t, err)
	require.Len(t, result.Preview, 2)
	assert.True(t, result.Preview[0].Featured)
	assert.True(t, result.Preview[0].RequiresApproval)
	assert.False(t, result.Preview[1].Featured)
	assert.False(t, result.Preview[1].RequiresApproval)
}

func TestImportCommitWithNoValidRowsFails(t *testing.T) {
	service, _ := setupService(t)
	auction := createTestAuction(t, service, "spring-sale")

	file := csvHeaderLine + "\n" +
		",Missing number,,,,,,1,,,,,,,,,\n"

	var validationErr *catalog.ValidationError
	_, err := service.ImportLotsCSV(strings.NewReader(file), catalog.ImportOptions{
		AuctionID: auction.ID,
	})
	assert.ErrorAs(t, err, &validationErr)

	var notFoundErr *catalog.NotFoundError
	_, err = service.ImportLotsCSV(strings.NewReader(file), catalog.ImportOptions{
		AuctionID: "missing-auction",
	})
	assert.ErrorAs(t, err, &notFoundErr)
}

func TestExportImportRoundTrip(t *testing.T) {
	service, store := setupService(t)
	source := createTestAuction(t, service, "spring-sale")
	target := createTestAuction(t, service, "autumn-sale")

	_, err := service.CreateLot(source.ID, models.Lot{
		LotNumber:    "101",
		Title:        "Grand piano, ebony",
		Category:     "Instruments",
		Quantity:     1,
		EstimateLow:  5000,
		EstimateHigh: 8000,
		StartingBid:  2500,
		Attributes:   map[string]string{"maker": "Steinway"},
		Images: []models.LotImage{
			{URL: "http://img/1.jpg", Order: 1},
			{URL: "http://img/2.jpg", Order: 2},
		},
	})
	require.NoError(t, err)

	lots, err := store.GetLotsByAuction(source.ID)
	require.NoError(t, err)
	exported := catalog.ExportLotsCSV(lots)

	result, err := service.ImportLotsCSV(strings.NewReader(string(exported)), catalog.ImportOptions{
		AuctionID: target.ID,
	})
	require.NoError(t, err)
	require.Equal(t, 1, result.Imported)

	copied, err := store.GetLotsByAuction(target.ID)
	require.NoError(t, err)
	require.Len(t, copied, 1)
	got := copied[0]
	assert.Equal(t, "101", got.LotNumber)
	assert.Equal(t, "Grand piano, ebony", got.Title)
	assert.Equal(t, "Instruments", got.Category)
	assert.Equal(t, 5000.0, got.EstimateLow)
	assert.Equal(t, 8000.0, got.EstimateHigh)
	assert.Equal(t, 2500.0, got.StartingBid)
	assert.Equal(t, "Steinway", got.Attributes["maker"])
	require.Len(t, got.Images, 2)
	assert.Equal(t, "http://img/1.jpg", got.Images[0].URL)
	assert.Equal(t, 1, got.Images[0].Order)
	assert.Equal(t, "http://img/2.jpg", got.Images[1].URL)
}
