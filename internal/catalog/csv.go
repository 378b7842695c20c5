package catalog

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"ms-catalog/internal/models"
)

// csvHeader is the export column order. Import resolves columns by header
// name, so the two sides stay compatible even if a file reorders columns.
var csvHeader = []string{
	"lotNumber", "title", "subtitle", "companyCategory", "category",
	"descriptionHtml", "additionalDescriptionHtml", "quantity",
	"estimateLow", "estimateHigh", "startingBid", "reservePrice",
	"status", "featured", "requiresApproval", "attributes", "images",
}

const importPreviewRows = 5

// ExportLotsCSV serializes lots in the fixed column order. Cells containing
// a comma or double quote are wrapped in double quotes with internal quotes
// doubled; rows are newline-joined with no trailing newline.
func ExportLotsCSV(lots []models.Lot) []byte {
	rows := make([]string, 0, len(lots)+1)
	rows = append(rows, joinCSVRow(csvHeader))
	for _, lot := range lots {
		rows = append(rows, joinCSVRow(lotToCells(lot)))
	}
	return []byte(strings.Join(rows, "\n"))
}

func lotToCells(lot models.Lot) []string {
	attributes := ""
	if len(lot.Attributes) > 0 {
		if b, err := json.Marshal(lot.Attributes); err == nil {
			attributes = string(b)
		}
	}
	urls := make([]string, len(lot.Images))
	for i, img := range lot.Images {
		urls[i] = img.URL
	}
	return []string{
		lot.LotNumber,
		lot.Title,
		lot.Subtitle,
		lot.CompanyCategory,
		lot.Category,
		lot.DescriptionHTML,
		lot.AdditionalDescriptionHTML,
		strconv.Itoa(lot.Quantity),
		formatNumber(lot.EstimateLow),
		formatNumber(lot.EstimateHigh),
		formatNumber(lot.StartingBid),
		formatNumber(lot.ReservePrice),
		lot.Status,
		strconv.FormatBool(lot.Featured),
		strconv.FormatBool(lot.RequiresApproval),
		attributes,
		strings.Join(urls, ";"),
	}
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func joinCSVRow(cells []string) string {
	quoted := make([]string, len(cells))
	for i, cell := range cells {
		quoted[i] = quoteCSVCell(cell)
	}
	return strings.Join(quoted, ",")
}

func quoteCSVCell(cell string) string {
	if !strings.ContainsAny(cell, ",\"") {
		return cell
	}
	return `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
}

// ImportOptions controls a CSV import run. DryRun validates and previews
// without touching the store.
type ImportOptions struct {
	AuctionID string
	DryRun    bool
	UserID    string
}

type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult reports both failure channels separately: Errors holds
// pre-insert validation failures (counted by Failed), InsertErrors holds
// store-level failures such as duplicate lot numbers (not counted by
// Failed).
type ImportResult struct {
	DryRun       bool             `json:"dryRun"`
	Valid        int              `json:"valid"`
	Invalid      int              `json:"invalid"`
	Preview      []models.Lot     `json:"preview,omitempty"`
	Imported     int              `json:"imported"`
	Failed       int              `json:"failed"`
	Errors       []ImportRowError `json:"errors,omitempty"`
	InsertErrors []ImportRowError `json:"insertErrors,omitempty"`
}

// ImportLotsCSV parses the file and either previews (dry run) or commits the
// valid rows. Row failures are isolated; one bad row never aborts its
// siblings.
func (s *Service) ImportLotsCSV(r io.Reader, opts ImportOptions) (*ImportResult, error) {
	if opts.AuctionID == "" {
		return nil, validationErrorf("auctionId is required")
	}
	if _, err := s.DB.GetAuctionByID(opts.AuctionID); err != nil {
		return nil, &NotFoundError{Resource: "auction", ID: opts.AuctionID}
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, validationErrorf("failed to read CSV header: %v", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}

	result := &ImportResult{DryRun: opts.DryRun}
	var validLots []models.Lot
	var validRows []int

	rowNum := 1 // header is row 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			result.Invalid++
			result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: err.Error()})
			continue
		}
		if isEmptyRecord(record) {
			continue
		}
		lot, err := parseLotRow(columns, record)
		if err != nil {
			result.Invalid++
			result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: err.Error()})
			continue
		}
		result.Valid++
		validLots = append(validLots, *lot)
		validRows = append(validRows, rowNum)
	}

	if opts.DryRun {
		preview := len(validLots)
		if preview > importPreviewRows {
			preview = importPreviewRows
		}
		result.Preview = validLots[:preview]
		return result, nil
	}

	if len(validLots) == 0 {
		return nil, validationErrorf("no valid rows")
	}

	release := s.lockSequence(opts.AuctionID)
	defer release()

	// Read the auction's max once, then hand out strictly increasing
	// sequences in file order.
	max, err := s.DB.MaxSequence(opts.AuctionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read current max sequence: %w", err)
	}
	now := time.Now()
	for i := range validLots {
		lot := &validLots[i]
		lot.ID = uuid.New().String()
		lot.AuctionID = opts.AuctionID
		lot.Sequence = max + i + 1
		if lot.Status == "" {
			lot.Status = models.LotStatusDraft
		}
		clampLot(lot)
		lot.Approval = approvalForNew(lot.RequiresApproval)
		lot.CreatedByID = opts.UserID
		lot.CreatedAt = now
		lot.UpdatedAt = now
	}

	inserted, failures := s.DB.InsertLots(validLots)
	result.Imported = inserted
	result.Failed = result.Invalid
	for _, f := range failures {
		result.InsertErrors = append(result.InsertErrors, ImportRowError{
			Row:     validRows[f.Index],
			Message: f.Err,
		})
	}

	s.record(models.EntityAuction, opts.AuctionID, "lot_import", map[string]interface{}{
		"imported":       inserted,
		"failed":         result.Failed,
		"insertFailures": len(failures),
	}, nil, opts.UserID)
	return result, nil
}

func isEmptyRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// parseLotRow maps one CSV record onto a lot. String cells copy only when
// non-empty, numeric cells must parse, attributes must be valid JSON, and
// booleans are true only for the exact string "true".
func parseLotRow(columns map[string]int, record []string) (*models.Lot, error) {
	cell := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	lot := &models.Lot{
		LotNumber: cell("lotNumber"),
		Title:     cell("title"),
	}
	if lot.LotNumber == "" {
		return nil, fmt.Errorf("missing lotNumber")
	}
	if lot.Title == "" {
		return nil, fmt.Errorf("missing title")
	}

	if v := cell("subtitle"); v != "" {
		lot.Subtitle = v
	}
	if v := cell("companyCategory"); v != "" {
		lot.CompanyCategory = v
	}
	if v := cell("category"); v != "" {
		lot.Category = v
	}
	if v := cell("descriptionHtml"); v != "" {
		lot.DescriptionHTML = v
	}
	if v := cell("additionalDescriptionHtml"); v != "" {
		lot.AdditionalDescriptionHTML = v
	}
	if v := cell("status"); v != "" {
		lot.Status = v
	}

	if v := cell("quantity"); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number for quantity: %q", v)
		}
		lot.Quantity = int(n)
	}
	numeric := []struct {
		name   string
		target *float64
	}{
		{"estimateLow", &lot.EstimateLow},
		{"estimateHigh", &lot.EstimateHigh},
		{"startingBid", &lot.StartingBid},
		{"reservePrice", &lot.ReservePrice},
	}
	for _, col := range numeric {
		v := cell(col.name)
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number for %s: %q", col.name, v)
		}
		*col.target = n
	}

	if v := cell("attributes"); v != "" {
		attributes := map[string]string{}
		if err := json.Unmarshal([]byte(v), &attributes); err != nil {
			return nil, fmt.Errorf("invalid attributes JSON: %v", err)
		}
		lot.Attributes = attributes
	}

	if v := cell("images"); v != "" {
		order := 0
		for _, part := range strings.Split(v, ";") {
			url := strings.TrimSpace(part)
			if url == "" {
				continue
			}
			order++
			lot.Images = append(lot.Images, models.LotImage{URL: url, Order: order})
		}
	}

	lot.Featured = cell("featured") == "true"
	lot.RequiresApproval = cell("requiresApproval") == "true"
	return lot, nil
}
