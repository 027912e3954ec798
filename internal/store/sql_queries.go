// SPDX-License-Identifier: Apache-2.0

package store

const (
	saveEntity = `
		INSERT INTO entities (
			local_id,
			remote_id,
			owner_id,
			kind,
			payload,
			needs_sync,
			deleted,
			last_synced_at,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, TRUE, $6, $7, $8)
		ON CONFLICT (local_id) DO UPDATE SET
			payload    = excluded.payload,
			needs_sync = TRUE,
			deleted    = excluded.deleted,
			updated_at = excluded.updated_at;`

	getEntity = `
		SELECT
			local_id,
			remote_id,
			owner_id,
			kind,
			payload,
			needs_sync,
			deleted,
			last_synced_at,
			updated_at
		FROM entities
		WHERE local_id = $1;`

	getEntityByRemoteID = `
		SELECT
			local_id,
			remote_id,
			owner_id,
			kind,
			payload,
			needs_sync,
			deleted,
			last_synced_at,
			updated_at
		FROM entities
		WHERE remote_id = $1;`

	markEntityClean = `
		UPDATE entities SET
			needs_sync     = FALSE,
			remote_id      = $1,
			last_synced_at = $2
		WHERE local_id = $3;`

	markEntityAcked = `
		UPDATE entities SET
			remote_id      = $1,
			last_synced_at = $2
		WHERE local_id = $3;`

	markEntityDeleted = `
		UPDATE entities SET
			deleted    = TRUE,
			needs_sync = TRUE,
			updated_at = $1
		WHERE local_id = $2;`

	applyRemoteEntity = `
		UPDATE entities SET
			remote_id      = $1,
			payload        = $2,
			needs_sync     = FALSE,
			deleted        = $3,
			last_synced_at = $4,
			updated_at     = $5
		WHERE local_id = $6;`

	insertRemoteEntity = `
		INSERT INTO entities (
			local_id,
			remote_id,
			owner_id,
			kind,
			payload,
			needs_sync,
			deleted,
			last_synced_at,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, FALSE, $6, $7, $8);`

	getCursor = `
		SELECT since FROM sync_cursors
		WHERE kind = $1 AND owner_id = $2;`

	upsertCursor = `
		INSERT INTO sync_cursors (kind, owner_id, since)
		VALUES ($1, $2, $3)
		ON CONFLICT (kind, owner_id) DO UPDATE SET
			since = excluded.since;`

	lookupIdentity = `
		SELECT remote_owner_id FROM identity_map
		WHERE owner_id = $1;`

	storeIdentity = `
		INSERT INTO identity_map (owner_id, remote_owner_id)
		VALUES ($1, $2)
		ON CONFLICT (owner_id) DO UPDATE SET
			remote_owner_id = excluded.remote_owner_id;`

	invalidateIdentity = `
		DELETE FROM identity_map
		WHERE owner_id = $1;`

	appendQueueOp = `
		INSERT INTO op_queue (local_id, owner_id, kind, op, enqueued_at)
		VALUES ($1, $2, $3, $4, $5);`

	tailQueueOp = `
		SELECT seq, local_id, owner_id, kind, op, enqueued_at
		FROM op_queue
		WHERE local_id = $1
		ORDER BY seq DESC
		LIMIT 1;`

	removeQueueOp = `
		DELETE FROM op_queue
		WHERE seq = $1;`
)
