// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/ashirkhanov/syncwell/internal/logger"
	"github.com/ashirkhanov/syncwell/models"
)

// SQLiteEntityRepository persists health entities in the local database.
type SQLiteEntityRepository struct {
	db     *DB
	logger *logger.Logger
}

// NewSQLiteEntityRepository returns an EntityRepository backed by db.
func NewSQLiteEntityRepository(db *DB, log *logger.Logger) *SQLiteEntityRepository {
	return &SQLiteEntityRepository{db: db, logger: log}
}

func (r *SQLiteEntityRepository) Save(ctx context.Context, entity *models.Entity) error {
	_, err := r.db.ExecContext(ctx, saveEntity,
		entity.LocalID,
		entity.RemoteID,
		entity.OwnerID,
		entity.Kind,
		entity.Payload,
		entity.Deleted,
		entity.LastSyncedAt,
		entity.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: save entity %s: %v", ErrExecutingStatement, entity.LocalID, err)
	}
	return nil
}

func (r *SQLiteEntityRepository) Get(ctx context.Context, localID string) (models.Entity, error) {
	row := r.db.QueryRowContext(ctx, getEntity, localID)

	entity, err := scanEntity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Entity{}, ErrEntityNotFound
	}
	if err != nil {
		return models.Entity{}, fmt.Errorf("%w: get entity %s: %v", ErrScanningRow, localID, err)
	}
	return entity, nil
}

func (r *SQLiteEntityRepository) GetByRemoteID(ctx context.Context, remoteID string) (models.Entity, error) {
	row := r.db.QueryRowContext(ctx, getEntityByRemoteID, remoteID)

	entity, err := scanEntity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Entity{}, ErrEntityNotFound
	}
	if err != nil {
		return models.Entity{}, fmt.Errorf("%w: get entity by remote id %s: %v", ErrScanningRow, remoteID, err)
	}
	return entity, nil
}

func (r *SQLiteEntityRepository) GetDirty(ctx context.Context, ownerID string, kinds ...models.Kind) ([]models.Entity, error) {
	builder := sq.Select(
		"local_id", "remote_id", "owner_id", "kind", "payload",
		"needs_sync", "deleted", "last_synced_at", "updated_at",
	).
		From("entities").
		Where(sq.Eq{"owner_id": ownerID, "needs_sync": true}).
		OrderBy("updated_at ASC", "local_id ASC").
		PlaceholderFormat(sq.Dollar)

	if len(kinds) > 0 {
		builder = builder.Where(sq.Eq{"kind": kinds})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBuildingSQLQuery, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: dirty entities: %v", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var dirty []models.Entity
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: dirty entities: %v", ErrScanningRow, err)
		}
		dirty = append(dirty, entity)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: dirty entities: %v", ErrExecutingQuery, err)
	}

	return dirty, nil
}

// MarkClean records a successful push of the snapshot stamped pushedAt. The
// remote id assigned on the first push is immutable afterwards. If the row
// was edited after the snapshot was taken, the acknowledgment still records
// the remote id and last_synced_at but leaves the entity dirty so the newer
// state goes out on the next pass.
func (r *SQLiteEntityRepository) MarkClean(ctx context.Context, localID string, remoteID string, pushedAt time.Time, syncedAt time.Time) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		entity, err := scanEntity(tx.QueryRowContext(ctx, getEntity, localID))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrEntityNotFound
		}
		if err != nil {
			return fmt.Errorf("%w: mark clean %s: %v", ErrScanningRow, localID, err)
		}

		if entity.RemoteID != nil && *entity.RemoteID != remoteID {
			return fmt.Errorf("%w: entity %s has %s, got %s",
				ErrRemoteIDMismatch, localID, *entity.RemoteID, remoteID)
		}

		stmt := markEntityClean
		if !entity.UpdatedAt.Equal(pushedAt) {
			// The entity changed while the push was in flight; the ack
			// covers a stale snapshot, so needs_sync stays set.
			stmt = markEntityAcked
		}

		if _, err = tx.ExecContext(ctx, stmt, remoteID, syncedAt, localID); err != nil {
			return fmt.Errorf("%w: mark clean %s: %v", ErrExecutingStatement, localID, err)
		}
		return nil
	})
}

func (r *SQLiteEntityRepository) MarkDeleted(ctx context.Context, localID string, deletedAt time.Time) error {
	result, err := r.db.ExecContext(ctx, markEntityDeleted, deletedAt, localID)
	if err != nil {
		return fmt.Errorf("%w: mark deleted %s: %v", ErrExecutingStatement, localID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: mark deleted %s: %v", ErrExecutingStatement, localID, err)
	}
	if affected == 0 {
		return ErrEntityNotFound
	}
	return nil
}

// ApplyRemote writes a pulled record into the local row for the same entity.
// The server copy always wins, except that a local tombstone is never
// resurrected by remote data. Reports whether the row changed.
func (r *SQLiteEntityRepository) ApplyRemote(ctx context.Context, remote models.Entity, ownerID string) (bool, error) {
	if remote.RemoteID == nil {
		return false, fmt.Errorf("%w: remote entity without remote id", ErrExecutingStatement)
	}

	applied := false
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		local, err := scanEntity(tx.QueryRowContext(ctx, getEntityByRemoteID, *remote.RemoteID))
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: apply remote %s: %v", ErrScanningRow, *remote.RemoteID, err)
		}

		if errors.Is(err, sql.ErrNoRows) {
			if remote.Deleted {
				// Never materialize a row just to delete it.
				return nil
			}
			_, err = tx.ExecContext(ctx, insertRemoteEntity,
				remote.LocalID,
				remote.RemoteID,
				ownerID,
				remote.Kind,
				remote.Payload,
				remote.Deleted,
				remote.LastSyncedAt,
				remote.UpdatedAt,
			)
			if err != nil {
				return fmt.Errorf("%w: apply remote %s: %v", ErrExecutingStatement, *remote.RemoteID, err)
			}
			applied = true
			return nil
		}

		if local.Deleted && !remote.Deleted {
			// A local tombstone is never resurrected by remote data.
			return nil
		}

		_, err = tx.ExecContext(ctx, applyRemoteEntity,
			remote.RemoteID,
			remote.Payload,
			remote.Deleted,
			remote.LastSyncedAt,
			remote.UpdatedAt,
			local.LocalID,
		)
		if err != nil {
			return fmt.Errorf("%w: apply remote %s: %v", ErrExecutingStatement, *remote.RemoteID, err)
		}
		applied = true
		return nil
	})
	return applied, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntity(row rowScanner) (models.Entity, error) {
	var entity models.Entity
	err := row.Scan(
		&entity.LocalID,
		&entity.RemoteID,
		&entity.OwnerID,
		&entity.Kind,
		&entity.Payload,
		&entity.NeedsSync,
		&entity.Deleted,
		&entity.LastSyncedAt,
		&entity.UpdatedAt,
	)
	if err != nil {
		return models.Entity{}, err
	}
	return entity, nil
}
