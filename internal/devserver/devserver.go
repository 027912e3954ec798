// SPDX-License-Identifier: Apache-2.0

// Package devserver is an in-memory implementation of the backend API the
// engine syncs against. It exists for local development and for integration
// tests of the transport layer; it keeps no durable state.
package devserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ashirkhanov/syncwell/internal/logger"
	"github.com/ashirkhanov/syncwell/models"
)

// segmentKind is the inverse of the transport's kind-to-resource mapping.
var segmentKind = map[string]models.Kind{
	"profiles": models.KindProfile,
	"meals":    models.KindMeal,
	"readings": models.KindReading,
	"scans":    models.KindScan,
}

// Server holds the in-memory backend state.
type Server struct {
	secret []byte
	logger *logger.Logger
	now    func() time.Time

	mu         sync.Mutex
	identities map[string]string                            // handle -> remote id
	records    map[models.Kind]map[string]models.WireRecord // key: owner + "/" + client id
	seq        int
	lastStamp  time.Time
}

func NewServer(secret []byte, log *logger.Logger) *Server {
	records := make(map[models.Kind]map[string]models.WireRecord, len(segmentKind))
	for _, kind := range models.KindOrder {
		records[kind] = make(map[string]models.WireRecord)
	}

	return &Server{
		secret:     secret,
		logger:     log,
		now:        time.Now,
		identities: make(map[string]string),
		records:    records,
	}
}

// Handler builds the chi router for the dev backend.
func (s *Server) Handler() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	// routes without authorization
	router.Group(func(r chi.Router) {
		r.Head("/api/health", s.health)
		r.Post("/api/token", s.issueToken)
	})

	router.Group(func(r chi.Router) {
		r.Use(s.requireBearer)
		r.Get("/api/identity", s.findIdentity)
		r.Post("/api/identity", s.createIdentity)
		r.Put("/api/{resource}", s.upsert)
		r.Get("/api/{resource}/changes", s.changes)
	})

	return router
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// issueToken signs a dev bearer token for the given handle. The token's
// subject is the handle's remote identity, created on demand so a freshly
// issued token is always resolvable.
func (s *Server) issueToken(w http.ResponseWriter, r *http.Request) {
	var req models.IdentityResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Handle == "" {
		http.Error(w, "invalid JSON was passed", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	remoteID, ok := s.identities[req.Handle]
	if !ok {
		remoteID = s.nextRemoteID("owner")
		s.identities[req.Handle] = remoteID
	}
	s.mu.Unlock()

	claims := jwt.MapClaims{
		"sub":    remoteID,
		"handle": req.Handle,
		"iat":    s.now().Unix(),
		"exp":    s.now().Add(24 * time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		s.logger.Err(err).Msg("token signing failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": signed})
}

func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if raw == "" || raw == r.Header.Get("Authorization") {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}

		_, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return s.secret, nil
		})
		if err != nil {
			http.Error(w, "invalid bearer token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) findIdentity(w http.ResponseWriter, r *http.Request) {
	handle := r.URL.Query().Get("handle")
	if handle == "" {
		http.Error(w, "handle is required", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	remoteID, ok := s.identities[handle]
	s.mu.Unlock()

	if !ok {
		http.Error(w, "identity not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, models.IdentityResolveResponse{RemoteID: remoteID})
}

func (s *Server) createIdentity(w http.ResponseWriter, r *http.Request) {
	var req models.IdentityResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Handle == "" {
		http.Error(w, "invalid JSON was passed", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	if remoteID, ok := s.identities[req.Handle]; ok {
		s.mu.Unlock()
		writeJSON(w, http.StatusConflict, models.IdentityResolveResponse{RemoteID: remoteID})
		return
	}
	remoteID := s.nextRemoteID("owner")
	s.identities[req.Handle] = remoteID
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, models.IdentityResolveResponse{RemoteID: remoteID, Created: true})
}

// upsert stores one record keyed by (owner, client id). A push for an
// already known record without its remote id answers 409 and echoes the
// canonical id, matching what the engine expects from a duplicate create.
func (s *Server) upsert(w http.ResponseWriter, r *http.Request) {
	kind, err := resolveKind(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	var req models.UpsertRequest
	if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON was passed", http.StatusBadRequest)
		return
	}
	rec := req.Record
	if rec.ClientID == "" || rec.OwnerRemoteID == "" {
		http.Error(w, "client_id and owner_remote_id are required", http.StatusUnprocessableEntity)
		return
	}
	if rec.Kind != kind {
		http.Error(w, "record kind does not match resource", http.StatusUnprocessableEntity)
		return
	}

	key := rec.OwnerRemoteID + "/" + rec.ClientID

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.stamp()

	existing, ok := s.records[kind][key]
	if ok {
		canonical := existing.RemoteID
		duplicate := rec.RemoteID == ""

		rec.RemoteID = canonical
		rec.UpdatedAt = now
		s.records[kind][key] = rec

		status := http.StatusOK
		if duplicate {
			status = http.StatusConflict
		}
		writeJSON(w, status, models.UpsertResponse{RemoteID: canonical, UpdatedAt: now})
		return
	}

	rec.RemoteID = s.nextRemoteID(string(kind))
	rec.UpdatedAt = now
	s.records[kind][key] = rec

	writeJSON(w, http.StatusOK, models.UpsertResponse{RemoteID: rec.RemoteID, UpdatedAt: now})
}

func (s *Server) changes(w http.ResponseWriter, r *http.Request) {
	kind, err := resolveKind(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	owner := r.URL.Query().Get("owner")
	if owner == "" {
		http.Error(w, "owner is required", http.StatusBadRequest)
		return
	}

	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		since, err = time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			http.Error(w, "since must be RFC 3339", http.StatusBadRequest)
			return
		}
	}

	s.mu.Lock()
	matched := make([]models.WireRecord, 0)
	for _, rec := range s.records[kind] {
		if rec.OwnerRemoteID != owner {
			continue
		}
		if !rec.UpdatedAt.After(since) {
			continue
		}
		matched = append(matched, rec)
	}
	s.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].UpdatedAt.Before(matched[j].UpdatedAt)
	})

	writeJSON(w, http.StatusOK, models.ChangesResponse{
		Records:    matched,
		ServerTime: s.now().UTC(),
	})
}

// stamp hands out strictly increasing modification times so cursor queries
// never straddle two records on the same tick. Must be called with s.mu held.
func (s *Server) stamp() time.Time {
	now := s.now().UTC()
	if !now.After(s.lastStamp) {
		now = s.lastStamp.Add(time.Nanosecond)
	}
	s.lastStamp = now
	return now
}

// nextRemoteID must be called with s.mu held.
func (s *Server) nextRemoteID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%04d-%s", prefix, s.seq, uuid.NewString()[:8])
}

func resolveKind(r *http.Request) (models.Kind, error) {
	segment := chi.URLParam(r, "resource")
	kind, ok := segmentKind[segment]
	if !ok {
		return "", errors.New("unknown resource")
	}
	return kind, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
