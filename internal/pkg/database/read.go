package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

func (db *Database) GetHistory(ctx context.Context, uniqueID string, from, to *time.Time) (StateRecords, error) {
	if from == nil || to == nil {
		from = func() *time.Time {
			t := time.Now().AddDate(0, 0, -2)
			return &t
		}()
		to = func() *time.Time {
			t := time.Now()
			return &t
		}()
	}
	const query = `
	SELECT id, time_stamp, unique_id, available, brightness, percentage
	FROM EntityState
	WHERE unique_id = $1 AND time_stamp BETWEEN $2 AND $3
	ORDER BY time_stamp DESC;
	`

	rows, err := db.conn.Query(ctx, query, uniqueID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanStateRecords(rows)
}

func (db *Database) GetLatestStates(ctx context.Context) (StateRecords, error) {
	const query = `
	SELECT DISTINCT ON (unique_id) id, time_stamp, unique_id, available, brightness, percentage
	FROM EntityState
	ORDER BY unique_id, time_stamp DESC;
	`

	rows, err := db.conn.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanStateRecords(rows)
}

func scanStateRecords(rows pgx.Rows) (StateRecords, error) {
	var records StateRecords
	for rows.Next() {
		var record StateRecord
		if err := rows.Scan(&record.Id, &record.TimeStamp, &record.UniqueID, &record.Available, &record.Brightness, &record.Percentage); err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		if err == pgx.ErrNoRows {
			return records, nil
		}
		return nil, err
	}

	return records, nil
}
