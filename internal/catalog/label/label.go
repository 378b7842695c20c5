package label

import (
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"ms-catalog/internal/models"
)

const defaultSize = 256

// Generator renders printable lot label QR codes. The QR encodes the lot's
// public catalog URL so a scanned sticker opens the lot page.
type Generator struct {
	BaseURL string
	Size    int
}

func NewGenerator(baseURL string) *Generator {
	return &Generator{BaseURL: baseURL, Size: defaultSize}
}

func (g *Generator) LotURL(lot *models.Lot) string {
	return fmt.Sprintf("%s/auctions/%s/lots/%s",
		strings.TrimRight(g.BaseURL, "/"), lot.AuctionID, lot.ID)
}

// LotLabelPNG returns the PNG bytes of the lot's label QR code.
func (g *Generator) LotLabelPNG(lot *models.Lot) ([]byte, error) {
	size := g.Size
	if size <= 0 {
		size = defaultSize
	}
	png, err := qrcode.Encode(g.LotURL(lot), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to generate label QR: %w", err)
	}
	return png, nil
}
