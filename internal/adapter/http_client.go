// SPDX-License-Identifier: Apache-2.0

package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ashirkhanov/syncwell/internal/config"
	"github.com/ashirkhanov/syncwell/internal/logger"
	"github.com/ashirkhanov/syncwell/models"
	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
)

// kindPath maps an entity kind to its REST resource segment.
var kindPath = map[models.Kind]string{
	models.KindProfile: "profiles",
	models.KindMeal:    "meals",
	models.KindReading: "readings",
	models.KindScan:    "scans",
}

type httpBackendAdapter struct {
	client *resty.Client
	logger *logger.Logger

	mu    sync.RWMutex
	token string
}

// NewHTTPBackendAdapter constructs an HTTP/REST implementation of
// [BackendAdapter]. It validates and normalises the base URL and configures
// the underlying resty client with the request timeout from cfg.
//
// Returns an error if cfg.BaseURL is empty or cannot be parsed as a URL.
func NewHTTPBackendAdapter(cfg config.EngineBackend, log *logger.Logger) (BackendAdapter, error) {
	baseURL, err := normalizeBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend base url: %w", err)
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	cli := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout)

	a := &httpBackendAdapter{client: cli, logger: log}
	if cfg.Token != "" {
		a.SetToken(cfg.Token)
	}
	return a, nil
}

func (h *httpBackendAdapter) SetToken(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = strings.TrimSpace(token)
}

func (h *httpBackendAdapter) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

func (h *httpBackendAdapter) SessionClaims() (models.SessionClaims, error) {
	token := h.Token()
	if token == "" {
		return models.SessionClaims{}, fmt.Errorf("%w: no token set", ErrUnauthenticated)
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return models.SessionClaims{}, fmt.Errorf("%w: parse token: %v", ErrUnauthenticated, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return models.SessionClaims{}, fmt.Errorf("%w: invalid token claims", ErrUnauthenticated)
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return models.SessionClaims{}, fmt.Errorf("%w: token subject: %v", ErrUnauthenticated, err)
	}

	handle, _ := claims["handle"].(string)
	return models.SessionClaims{RemoteID: sub, Handle: handle}, nil
}

func (h *httpBackendAdapter) Ping(ctx context.Context) error {
	resp, err := h.client.R().SetContext(ctx).Head("/api/health")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return mapHTTPError(resp)
}

func (h *httpBackendAdapter) FindIdentity(ctx context.Context, handle string) (models.IdentityResolveResponse, error) {
	resp, err := h.authedRequest(ctx).
		SetQueryParam("handle", handle).
		Get("/api/identity")
	if err != nil {
		return models.IdentityResolveResponse{}, fmt.Errorf("find identity request: %w: %v", ErrUnreachable, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.IdentityResolveResponse{}, err
	}

	var ir models.IdentityResolveResponse
	if err = json.Unmarshal(resp.Body(), &ir); err != nil {
		return models.IdentityResolveResponse{}, fmt.Errorf("decode identity response: %w", err)
	}
	return ir, nil
}

func (h *httpBackendAdapter) CreateIdentity(ctx context.Context, handle string) (models.IdentityResolveResponse, error) {
	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(models.IdentityResolveRequest{Handle: handle}).
		Post("/api/identity")
	if err != nil {
		return models.IdentityResolveResponse{}, fmt.Errorf("create identity request: %w: %v", ErrUnreachable, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.IdentityResolveResponse{}, err
	}

	var ir models.IdentityResolveResponse
	if err = json.Unmarshal(resp.Body(), &ir); err != nil {
		return models.IdentityResolveResponse{}, fmt.Errorf("decode identity response: %w", err)
	}
	return ir, nil
}

func (h *httpBackendAdapter) Upsert(ctx context.Context, rec models.WireRecord) (models.UpsertResponse, error) {
	path, err := resourcePath(rec.Kind)
	if err != nil {
		return models.UpsertResponse{}, err
	}

	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(models.UpsertRequest{Record: rec}).
		Put(path)
	if err != nil {
		return models.UpsertResponse{}, fmt.Errorf("upsert request: %w: %v", ErrUnreachable, err)
	}

	// A 409 means the record already exists remotely. The server echoes the
	// canonical remote id in the body, so the duplicate converges to the
	// same outcome as a 2xx.
	if mapErr := mapHTTPError(resp); mapErr != nil && !errors.Is(mapErr, ErrConflict) {
		return models.UpsertResponse{}, mapErr
	}

	var ur models.UpsertResponse
	if err = json.Unmarshal(resp.Body(), &ur); err != nil {
		return models.UpsertResponse{}, fmt.Errorf("decode upsert response: %w", err)
	}
	return ur, nil
}

func (h *httpBackendAdapter) Changes(ctx context.Context, kind models.Kind, ownerRemoteID string, since time.Time) (models.ChangesResponse, error) {
	path, err := resourcePath(kind)
	if err != nil {
		return models.ChangesResponse{}, err
	}

	req := h.authedRequest(ctx).SetQueryParam("owner", ownerRemoteID)
	if !since.IsZero() {
		req.SetQueryParam("since", since.UTC().Format(time.RFC3339Nano))
	}

	resp, err := req.Get(path + "/changes")
	if err != nil {
		return models.ChangesResponse{}, fmt.Errorf("changes request: %w: %v", ErrUnreachable, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.ChangesResponse{}, err
	}

	var cr models.ChangesResponse
	if err = json.Unmarshal(resp.Body(), &cr); err != nil {
		return models.ChangesResponse{}, fmt.Errorf("decode changes response: %w", err)
	}
	return cr, nil
}

func (h *httpBackendAdapter) authedRequest(ctx context.Context) *resty.Request {
	req := h.client.R().SetContext(ctx)
	if token := h.Token(); token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	return req
}

func resourcePath(kind models.Kind) (string, error) {
	segment, ok := kindPath[kind]
	if !ok {
		return "", fmt.Errorf("unknown entity kind %q", kind)
	}
	return "/api/" + segment, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("empty base url")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if u.Host == "" {
		return "", errors.New("base url has no host")
	}

	return strings.TrimRight(u.String(), "/"), nil
}
