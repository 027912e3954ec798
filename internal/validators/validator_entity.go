package validators

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/ashirkhanov/syncwell/models"
)

const (
	FieldLocalID       = "local_id"
	FieldOwnerID       = "owner_id"
	FieldClientID      = "client_id"
	FieldOwnerRemoteID = "owner_remote_id"
	FieldKind          = "kind"
	FieldPayload       = "payload"
)

type EntityValidator struct {
}

func NewEntityValidator() Validator {
	return &EntityValidator{}
}

func (v *EntityValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch value := obj.(type) {
	case models.Entity:
		return v.validateEntity(ctx, value, fields...)
	case *models.Entity:
		return v.validateEntity(ctx, *value, fields...)

	case models.WireRecord:
		return v.validateWireRecord(ctx, value, fields...)
	case *models.WireRecord:
		return v.validateWireRecord(ctx, *value, fields...)

	default:
		return ErrUnsupportedType
	}
}

func (v *EntityValidator) validateEntity(_ context.Context, e models.Entity, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldLocalID, FieldOwnerID, FieldKind, FieldPayload}
	}

	for _, f := range fields {
		switch f {
		case FieldLocalID:
			if e.LocalID == "" {
				return ErrMissingLocalID
			}
		case FieldOwnerID:
			if e.OwnerID == "" {
				return ErrMissingOwnerID
			}
		case FieldKind:
			if !e.Kind.Valid() {
				return ErrInvalidKind
			}
		case FieldPayload:
			// tombstones may carry no payload: there is nothing left to sync
			// beyond the deletion itself
			if e.Deleted && len(e.Payload) == 0 {
				continue
			}
			if err := validPayload(e.Payload); err != nil {
				return err
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

func (v *EntityValidator) validateWireRecord(_ context.Context, rec models.WireRecord, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldClientID, FieldOwnerRemoteID, FieldKind, FieldPayload}
	}

	for _, f := range fields {
		switch f {
		case FieldClientID:
			if rec.ClientID == "" {
				return ErrMissingClientID
			}
		case FieldOwnerRemoteID:
			if rec.OwnerRemoteID == "" {
				return ErrMissingOwnerRemoteID
			}
		case FieldKind:
			if !rec.Kind.Valid() {
				return ErrInvalidKind
			}
		case FieldPayload:
			if rec.Deleted && len(rec.Payload) == 0 {
				continue
			}
			if err := validPayload(rec.Payload); err != nil {
				return err
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

func validPayload(raw json.RawMessage) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return ErrEmptyPayload
	}
	if !json.Valid(raw) {
		return ErrMalformedPayload
	}
	return nil
}
