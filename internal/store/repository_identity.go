// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ashirkhanov/syncwell/internal/logger"
)

// SQLiteIdentityCache persists the local-owner to remote-owner mapping so
// identity resolution survives restarts.
type SQLiteIdentityCache struct {
	db     *DB
	logger *logger.Logger
}

func NewSQLiteIdentityCache(db *DB, log *logger.Logger) *SQLiteIdentityCache {
	return &SQLiteIdentityCache{db: db, logger: log}
}

func (r *SQLiteIdentityCache) Lookup(ctx context.Context, ownerID string) (string, error) {
	var remoteOwnerID string

	err := r.db.QueryRowContext(ctx, lookupIdentity, ownerID).Scan(&remoteOwnerID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrIdentityNotCached
	}
	if err != nil {
		return "", fmt.Errorf("%w: lookup identity %s: %v", ErrScanningRow, ownerID, err)
	}
	return remoteOwnerID, nil
}

func (r *SQLiteIdentityCache) Store(ctx context.Context, ownerID, remoteOwnerID string) error {
	if _, err := r.db.ExecContext(ctx, storeIdentity, ownerID, remoteOwnerID); err != nil {
		return fmt.Errorf("%w: store identity %s: %v", ErrExecutingStatement, ownerID, err)
	}
	return nil
}

func (r *SQLiteIdentityCache) Invalidate(ctx context.Context, ownerID string) error {
	if _, err := r.db.ExecContext(ctx, invalidateIdentity, ownerID); err != nil {
		return fmt.Errorf("%w: invalidate identity %s: %v", ErrExecutingStatement, ownerID, err)
	}
	return nil
}
