package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	EntityAuction   = "Auction"
	EntityLot       = "Lot"
	EntityConsignor = "Consignor"
	EntityUser      = "User"
)

// EventLogEntry is one row of the append-only audit trail. Entries are never
// updated or deleted.
type EventLogEntry struct {
	bun.BaseModel `bun:"table:event_log"`

	ID           string                 `bun:"id,pk" json:"id"`
	EntityType   string                 `bun:"entity_type,notnull" json:"entityType"`
	EntityID     string                 `bun:"entity_id,notnull" json:"entityId"`
	Action       string                 `bun:"action,notnull" json:"action"`
	Data         map[string]interface{} `bun:"data,type:jsonb" json:"data,omitempty"`
	PreviousData map[string]interface{} `bun:"previous_data,type:jsonb" json:"previousData,omitempty"`
	ActorID      string                 `bun:"actor_id" json:"actorId"`
	CreatedAt    time.Time              `bun:"created_at,nullzero" json:"createdAt"`
}
