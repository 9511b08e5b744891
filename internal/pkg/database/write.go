package database

import (
	"context"
	"time"

	"github.com/anicoll/rako-integration/internal/pkg/model"
)

func (db *Database) Write(ctx context.Context, state model.EntityState) error {
	_, err := db.conn.Exec(ctx, `
		INSERT INTO EntityState (time_stamp, unique_id, available, brightness, percentage)
		VALUES ($1, $2, $3, $4, $5)
	`, time.Now(), state.UniqueID, state.Available, int(state.Brightness), state.Percentage)
	return err
}

func (db *Database) RegisterEntity(state model.EntityState) error {
	_, err := db.conn.Exec(context.Background(), `
		INSERT INTO Entity (unique_id, kind, name, room, channel)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (unique_id) DO UPDATE SET kind = $2, name = $3;`,
		state.UniqueID, string(state.Kind), state.Name, state.Room, state.Channel)
	return err
}

// DeregisterEntity keeps the entity row and its history; detaching an
// entity is not a reason to lose its past.
func (db *Database) DeregisterEntity(_ string) error {
	return nil
}
