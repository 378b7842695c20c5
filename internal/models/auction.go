package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	AuctionStatusDraft     = "draft"
	AuctionStatusScheduled = "scheduled"
	AuctionStatusLive      = "live"
	AuctionStatusClosed    = "closed"
)

type Auction struct {
	bun.BaseModel `bun:"table:auctions"`

	ID        string    `bun:"id,pk" json:"id"`
	Slug      string    `bun:"slug,unique,notnull" json:"slug"`
	Title     string    `bun:"title,notnull" json:"title"`
	StartsAt  time.Time `bun:"starts_at,nullzero" json:"startsAt"`
	EndsAt    time.Time `bun:"ends_at,nullzero" json:"endsAt"`
	Status    string    `bun:"status,notnull" json:"status"`
	CreatedAt time.Time `bun:"created_at,nullzero" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,nullzero" json:"updatedAt"`
}
