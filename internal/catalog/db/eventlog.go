package db

import (
	"context"

	"ms-catalog/internal/models"
)

// InsertEvent appends one audit entry. The event_log table is append-only;
// there is deliberately no update or delete method.
func (d *DB) InsertEvent(entry models.EventLogEntry) error {
	_, err := d.Bun.NewInsert().Model(&entry).Exec(context.Background())
	return err
}

func (d *DB) ListEventsByEntity(entityType, entityID string) ([]models.EventLogEntry, error) {
	var entries []models.EventLogEntry
	err := d.Bun.NewSelect().
		Model(&entries).
		Where("entity_type = ?", entityType).
		Where("entity_id = ?", entityID).
		Order("created_at ASC").
		Scan(context.Background())
	return entries, err
}

func (d *DB) ListEventsByAction(action string) ([]models.EventLogEntry, error) {
	var entries []models.EventLogEntry
	err := d.Bun.NewSelect().
		Model(&entries).
		Where("action = ?", action).
		Order("created_at ASC").
		Scan(context.Background())
	return entries, err
}
