package database

import (
	"context"
	"fmt"
	"time"
)

// UpdateCycleRow records the outcome of one sensor update cycle. Prices are
// not stored.
type UpdateCycleRow struct {
	StartedAt time.Time
	Duration  time.Duration
	Result    string
	Error     string
}

func (d *Database) SaveUpdateCycle(ctx context.Context, r UpdateCycleRow) error {
	_, err := d.write.ExecContext(ctx, `
		INSERT INTO update_cycle (started_at, duration_ms, result, error)
		VALUES (?, ?, ?, ?)`,
		r.StartedAt.UTC().Format(time.RFC3339),
		r.Duration.Milliseconds(),
		r.Result,
		r.Error)
	if err != nil {
		return fmt.Errorf("saving update cycle: %w", err)
	}
	return nil
}

func (d *Database) GetUpdateCycles(ctx context.Context, limit int) ([]UpdateCycleRow, error) {
	if limit < 1 {
		limit = 24
	}

	rows, err := d.read.QueryContext(ctx, `
		SELECT started_at, duration_ms, result, error
		FROM update_cycle
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetching update cycles: %w", err)
	}
	defer rows.Close()

	var cycles []UpdateCycleRow
	for rows.Next() {
		var r UpdateCycleRow
		var ts string
		var ms int64
		if err := rows.Scan(&ts, &ms, &r.Result, &r.Error); err != nil {
			return nil, fmt.Errorf("scanning update cycle row: %w", err)
		}
		if r.StartedAt, err = time.Parse(time.RFC3339, ts); err != nil {
			return nil, fmt.Errorf("parsing timestamp: %w", err)
		}
		r.Duration = time.Duration(ms) * time.Millisecond
		cycles = append(cycles, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading update cycle rows: %w", err)
	}

	return cycles, nil
}

func (d *Database) PurgeUpdateCycles(ctx context.Context, retentionDays int) error {
	d.logger.Debug("purging update cycles")
	before := time.Now().UTC().AddDate(0, 0, -retentionDays).Format(time.RFC3339)
	res, err := d.write.ExecContext(ctx, `DELETE FROM update_cycle WHERE started_at < ?`, before)
	if err != nil {
		return fmt.Errorf("purging update cycles: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil {
		d.logger.Debug(fmt.Sprintf("purged %d rows from update_cycle", rows))
	}
	return nil
}
