// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ashirkhanov/syncwell/internal/logger"
	"github.com/ashirkhanov/syncwell/models"
)

// SQLiteCursorRepository persists per-(kind, owner) pull cursors.
type SQLiteCursorRepository struct {
	db     *DB
	logger *logger.Logger
}

func NewSQLiteCursorRepository(db *DB, log *logger.Logger) *SQLiteCursorRepository {
	return &SQLiteCursorRepository{db: db, logger: log}
}

func (r *SQLiteCursorRepository) Get(ctx context.Context, kind models.Kind, ownerID string) (models.Cursor, error) {
	cursor := models.Cursor{Kind: kind, OwnerID: ownerID}

	err := r.db.QueryRowContext(ctx, getCursor, kind, ownerID).Scan(&cursor.Since)
	if errors.Is(err, sql.ErrNoRows) {
		return cursor, nil
	}
	if err != nil {
		return models.Cursor{}, fmt.Errorf("%w: get cursor %s/%s: %v", ErrScanningRow, kind, ownerID, err)
	}
	return cursor, nil
}

// Advance moves the cursor forward. The compare happens inside the write
// transaction so concurrent passes cannot interleave a regression.
func (r *SQLiteCursorRepository) Advance(ctx context.Context, kind models.Kind, ownerID string, since time.Time) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		var current time.Time
		err := tx.QueryRowContext(ctx, getCursor, kind, ownerID).Scan(&current)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: advance cursor %s/%s: %v", ErrScanningRow, kind, ownerID, err)
		}

		if !since.After(current) {
			return nil
		}

		if _, err = tx.ExecContext(ctx, upsertCursor, kind, ownerID, since); err != nil {
			return fmt.Errorf("%w: advance cursor %s/%s: %v", ErrExecutingStatement, kind, ownerID, err)
		}
		return nil
	})
}
