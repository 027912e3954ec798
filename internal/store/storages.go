// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"

	"github.com/ashirkhanov/syncwell/internal/config"
	"github.com/ashirkhanov/syncwell/internal/logger"
)

// Storages groups all local repositories into a single value that can be
// passed around the service layer. Every repository shares one [DB] handle
// and therefore one write lock.
type Storages struct {
	// Entities is the SQLite-backed repository for health entities and
	// their sync metadata.
	Entities EntityRepository

	// Cursors holds the per-(kind, owner) pull high-water marks.
	Cursors CursorRepository

	// Identities caches resolved remote owner ids across restarts.
	Identities IdentityCache

	// Queue is the durable offline operation queue.
	Queue QueueRepository

	db *DB
}

// Close releases the shared database handle. Safe to call when the storages
// were assembled without one, as tests do.
func (s *Storages) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// NewStorages initialises the local storage layer: it opens the SQLite file
// named in cfg.DSN (creating it when missing), runs pending schema
// migrations, and wires all repositories to the shared connection.
func NewStorages(ctx context.Context, cfg config.EngineDB, log *logger.Logger) (*Storages, error) {
	log.Info().Msg("creating local storages...")

	db, err := NewConnectSQLite(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	return &Storages{
		Entities:   NewSQLiteEntityRepository(db, log),
		Cursors:    NewSQLiteCursorRepository(db, log),
		Identities: NewSQLiteIdentityCache(db, log),
		Queue:      NewSQLiteQueueRepository(db, log),
		db:         db,
	}, nil
}
