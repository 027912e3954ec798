// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/ashirkhanov/syncwell/internal/logger"
	"github.com/ashirkhanov/syncwell/models"
)

// SQLiteQueueRepository is the durable FIFO for offline operations. The
// AUTOINCREMENT sequence column preserves enqueue order across restarts.
type SQLiteQueueRepository struct {
	db     *DB
	logger *logger.Logger
}

func NewSQLiteQueueRepository(db *DB, log *logger.Logger) *SQLiteQueueRepository {
	return &SQLiteQueueRepository{db: db, logger: log}
}

func (r *SQLiteQueueRepository) Append(ctx context.Context, op models.QueuedOp) (models.QueuedOp, error) {
	result, err := r.db.ExecContext(ctx, appendQueueOp,
		op.LocalID, op.OwnerID, op.Kind, op.Op, op.EnqueuedAt)
	if err != nil {
		return models.QueuedOp{}, fmt.Errorf("%w: append op for %s: %v", ErrExecutingStatement, op.LocalID, err)
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return models.QueuedOp{}, fmt.Errorf("%w: append op for %s: %v", ErrExecutingStatement, op.LocalID, err)
	}

	op.Seq = seq
	return op, nil
}

func (r *SQLiteQueueRepository) List(ctx context.Context, limit int) ([]models.QueuedOp, error) {
	builder := sq.Select("seq", "local_id", "owner_id", "kind", "op", "enqueued_at").
		From("op_queue").
		OrderBy("seq ASC").
		PlaceholderFormat(sq.Dollar)
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBuildingSQLQuery, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list ops: %v", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var ops []models.QueuedOp
	for rows.Next() {
		var op models.QueuedOp
		if err = rows.Scan(&op.Seq, &op.LocalID, &op.OwnerID, &op.Kind, &op.Op, &op.EnqueuedAt); err != nil {
			return nil, fmt.Errorf("%w: list ops: %v", ErrScanningRow, err)
		}
		ops = append(ops, op)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list ops: %v", ErrExecutingQuery, err)
	}

	return ops, nil
}

func (r *SQLiteQueueRepository) Tail(ctx context.Context, localID string) (models.QueuedOp, error) {
	var op models.QueuedOp

	err := r.db.QueryRowContext(ctx, tailQueueOp, localID).
		Scan(&op.Seq, &op.LocalID, &op.OwnerID, &op.Kind, &op.Op, &op.EnqueuedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.QueuedOp{}, ErrQueueEmpty
	}
	if err != nil {
		return models.QueuedOp{}, fmt.Errorf("%w: tail op for %s: %v", ErrScanningRow, localID, err)
	}
	return op, nil
}

func (r *SQLiteQueueRepository) Remove(ctx context.Context, seq int64) error {
	if _, err := r.db.ExecContext(ctx, removeQueueOp, seq); err != nil {
		return fmt.Errorf("%w: remove op %d: %v", ErrExecutingStatement, seq, err)
	}
	return nil
}
