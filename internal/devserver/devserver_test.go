package devserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashirkhanov/syncwell/internal/adapter"
	"github.com/ashirkhanov/syncwell/internal/config"
	"github.com/ashirkhanov/syncwell/internal/logger"
	"github.com/ashirkhanov/syncwell/models"
)

const testSecret = "dev-secret"

func newDevBackend(t *testing.T) (adapter.BackendAdapter, *httptest.Server) {
	t.Helper()

	srv := NewServer([]byte(testSecret), logger.Nop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	backend, err := adapter.NewHTTPBackendAdapter(config.EngineBackend{BaseURL: ts.URL}, logger.Nop())
	require.NoError(t, err)

	return backend, ts
}

func issueToken(t *testing.T, ts *httptest.Server, handle string) string {
	t.Helper()

	body, err := json.Marshal(models.IdentityResolveRequest{Handle: handle})
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/api/token", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var parsed map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	require.NotEmpty(t, parsed["token"])

	return parsed["token"]
}

func TestDevServer_PingNeedsNoToken(t *testing.T) {
	backend, _ := newDevBackend(t)

	require.NoError(t, backend.Ping(context.Background()))
}

func TestDevServer_RejectsMissingBearer(t *testing.T) {
	backend, _ := newDevBackend(t)

	_, err := backend.FindIdentity(context.Background(), "nobody@example.com")

	assert.ErrorIs(t, err, adapter.ErrUnauthenticated)
}

func TestDevServer_TokenCarriesIdentityClaims(t *testing.T) {
	backend, ts := newDevBackend(t)
	backend.SetToken(issueToken(t, ts, "anna@example.com"))

	claims, err := backend.SessionClaims()

	require.NoError(t, err)
	assert.NotEmpty(t, claims.RemoteID)
	assert.Equal(t, "anna@example.com", claims.Handle)

	found, err := backend.FindIdentity(context.Background(), "anna@example.com")
	require.NoError(t, err)
	assert.Equal(t, claims.RemoteID, found.RemoteID)
}

func TestDevServer_IdentityCreateThenFind(t *testing.T) {
	backend, ts := newDevBackend(t)
	backend.SetToken(issueToken(t, ts, "anna@example.com"))
	ctx := context.Background()

	_, err := backend.FindIdentity(ctx, "boris@example.com")
	assert.ErrorIs(t, err, adapter.ErrNotFound)

	created, err := backend.CreateIdentity(ctx, "boris@example.com")
	require.NoError(t, err)
	assert.True(t, created.Created)
	assert.NotEmpty(t, created.RemoteID)

	found, err := backend.FindIdentity(ctx, "boris@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.RemoteID, found.RemoteID)

	// the duplicate create is a conflict; the resolver converges via re-find
	_, err = backend.CreateIdentity(ctx, "boris@example.com")
	assert.ErrorIs(t, err, adapter.ErrConflict)
}

func TestDevServer_UpsertAssignsRemoteID(t *testing.T) {
	backend, ts := newDevBackend(t)
	backend.SetToken(issueToken(t, ts, "anna@example.com"))
	claims, err := backend.SessionClaims()
	require.NoError(t, err)

	resp, err := backend.Upsert(context.Background(), models.WireRecord{
		ClientID:      "meal-1",
		OwnerRemoteID: claims.RemoteID,
		Kind:          models.KindMeal,
		Payload:       json.RawMessage(`{"name":"oatmeal","calories":320}`),
	})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.RemoteID)
	assert.False(t, resp.UpdatedAt.IsZero())
}

func TestDevServer_DuplicateUpsertConvergesToCanonicalID(t *testing.T) {
	backend, ts := newDevBackend(t)
	backend.SetToken(issueToken(t, ts, "anna@example.com"))
	claims, err := backend.SessionClaims()
	require.NoError(t, err)
	ctx := context.Background()

	rec := models.WireRecord{
		ClientID:      "meal-1",
		OwnerRemoteID: claims.RemoteID,
		Kind:          models.KindMeal,
		Payload:       json.RawMessage(`{"name":"oatmeal","calories":320}`),
	}

	first, err := backend.Upsert(ctx, rec)
	require.NoError(t, err)

	// same client id pushed again without a remote id: the 409 path still
	// yields the canonical id
	second, err := backend.Upsert(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, first.RemoteID, second.RemoteID)

	// a re-push that already carries the remote id is a plain update
	rec.RemoteID = first.RemoteID
	third, err := backend.Upsert(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, first.RemoteID, third.RemoteID)
}

func TestDevServer_ChangesFiltersByOwnerAndCursor(t *testing.T) {
	backend, ts := newDevBackend(t)
	backend.SetToken(issueToken(t, ts, "anna@example.com"))
	claims, err := backend.SessionClaims()
	require.NoError(t, err)
	ctx := context.Background()

	other, err := backend.CreateIdentity(ctx, "boris@example.com")
	require.NoError(t, err)

	first, err := backend.Upsert(ctx, models.WireRecord{
		ClientID:      "reading-1",
		OwnerRemoteID: claims.RemoteID,
		Kind:          models.KindReading,
		Payload:       json.RawMessage(`{"mmol":5.4}`),
	})
	require.NoError(t, err)

	_, err = backend.Upsert(ctx, models.WireRecord{
		ClientID:      "reading-2",
		OwnerRemoteID: claims.RemoteID,
		Kind:          models.KindReading,
		Payload:       json.RawMessage(`{"mmol":7.1}`),
	})
	require.NoError(t, err)

	_, err = backend.Upsert(ctx, models.WireRecord{
		ClientID:      "reading-3",
		OwnerRemoteID: other.RemoteID,
		Kind:          models.KindReading,
		Payload:       json.RawMessage(`{"mmol":4.9}`),
	})
	require.NoError(t, err)

	all, err := backend.Changes(ctx, models.KindReading, claims.RemoteID, time.Time{})
	require.NoError(t, err)
	require.Len(t, all.Records, 2)
	assert.False(t, all.ServerTime.IsZero())
	for _, rec := range all.Records {
		assert.Equal(t, claims.RemoteID, rec.OwnerRemoteID)
	}

	sinceFirst, err := backend.Changes(ctx, models.KindReading, claims.RemoteID, first.UpdatedAt)
	require.NoError(t, err)
	require.Len(t, sinceFirst.Records, 1)
	assert.Equal(t, "reading-2", sinceFirst.Records[0].ClientID)
}

func TestDevServer_TombstonePropagatesThroughChanges(t *testing.T) {
	backend, ts := newDevBackend(t)
	backend.SetToken(issueToken(t, ts, "anna@example.com"))
	claims, err := backend.SessionClaims()
	require.NoError(t, err)
	ctx := context.Background()

	rec := models.WireRecord{
		ClientID:      "meal-1",
		OwnerRemoteID: claims.RemoteID,
		Kind:          models.KindMeal,
		Payload:       json.RawMessage(`{"name":"oatmeal","calories":320}`),
	}
	pushed, err := backend.Upsert(ctx, rec)
	require.NoError(t, err)

	rec.RemoteID = pushed.RemoteID
	rec.Deleted = true
	_, err = backend.Upsert(ctx, rec)
	require.NoError(t, err)

	changes, err := backend.Changes(ctx, models.KindMeal, claims.RemoteID, time.Time{})
	require.NoError(t, err)
	require.Len(t, changes.Records, 1)
	assert.True(t, changes.Records[0].Deleted)
	assert.Equal(t, pushed.RemoteID, changes.Records[0].RemoteID)
}
