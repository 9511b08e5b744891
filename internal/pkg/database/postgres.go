package database

import (
	"context"
	"io"
	"time"

	"github.com/jackc/pgx/v5"
)

type Database struct {
	conn *pgx.Conn
	io.Closer
}

func NewDatabase(conn *pgx.Conn) *Database {
	return &Database{
		conn: conn,
	}
}

func (db *Database) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close(context.Background())
}

// StateRecord is one historical state snapshot for an entity.
type StateRecord struct {
	Id         int64     `json:"id"`
	TimeStamp  time.Time `json:"timestamp"`
	UniqueID   string    `json:"unique_id"`
	Available  bool      `json:"available"`
	Brightness int       `json:"brightness"`
	Percentage int       `json:"percentage"`
}

type StateRecords []StateRecord
