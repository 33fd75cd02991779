package store

import (
	"context"
	"fmt"
	"time"
)

// RecordSourceFailure adds one consecutive permanent failure for the source
// and returns the new count.
func (d *DB) RecordSourceFailure(ctx context.Context, vendor, handle string) (int, error) {
	var n int
	err := d.Pool.QueryRowContext(ctx, `
INSERT INTO source_failures (vendor, handle, count, updated_at)
VALUES (?, ?, 1, ?)
ON CONFLICT (vendor, handle) DO UPDATE SET count = count + 1, updated_at = excluded.updated_at
RETURNING count;`,
		vendor, handle, time.Now().UTC().Format(time.RFC3339),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("record failure %s/%s: %w", vendor, handle, err)
	}
	return n, nil
}

func (d *DB) ResetSourceFailures(ctx context.Context, vendor, handle string) error {
	if _, err := d.Pool.ExecContext(ctx, `DELETE FROM source_failures WHERE vendor = ? AND handle = ?;`, vendor, handle); err != nil {
		return fmt.Errorf("reset failures %s/%s: %w", vendor, handle, err)
	}
	return nil
}
