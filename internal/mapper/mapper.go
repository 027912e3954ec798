// SPDX-License-Identifier: Apache-2.0

// Package mapper converts entities between their local representation and
// the remote wire format.
//
// Conversions are deterministic, stateless, and total over well-formed
// input. Malformed wire input produces a typed [*MappingError] instead of a
// panic or an opaque failure, so a pull batch can skip a single corrupt row
// and keep going. Numeric fields are validated and clamped to the documented
// bounds below; a remote row can therefore never smuggle an out-of-range
// value into the local store.
package mapper

import (
	"bytes"
	"encoding/json"
	"math"

	"github.com/ashirkhanov/syncwell/models"
)

// Clamp bounds for numeric payload fields. Values outside a bound are pulled
// to the nearest edge rather than rejected, so one exotic-but-harmless value
// does not block the record.
const (
	MaxCalories   = 10000.0 // kcal per meal or scan estimate
	MaxMacroGrams = 2000.0  // grams of protein/carbs/fat per meal
	MaxGlucose    = 50.0    // mmol/L
	MaxWeightKg   = 500.0
	MaxHeightCm   = 300.0
)

// ToWire converts a local entity into its remote wire representation.
// ownerRemoteID is the resolved remote identifier of the entity's owner.
// The entity's payload is decoded, validated, and re-encoded so that a
// malformed local payload is caught before it ever reaches the backend.
func ToWire(e *models.Entity, ownerRemoteID string) (models.WireRecord, error) {
	payload, err := normalizePayload(e.Kind, e.Payload)
	if err != nil {
		return models.WireRecord{}, err
	}

	rec := models.WireRecord{
		ClientID:      e.LocalID,
		OwnerRemoteID: ownerRemoteID,
		Kind:          e.Kind,
		Payload:       payload,
		Deleted:       e.Deleted,
		UpdatedAt:     e.UpdatedAt,
	}
	if e.RemoteID != nil {
		rec.RemoteID = *e.RemoteID
	}
	return rec, nil
}

// FromWire converts a remote wire record into local entity fields. The
// returned entity arrives clean (NeedsSync=false): it just came from the
// source of truth. OwnerID is left empty; the caller knows which local owner
// it pulled for.
func FromWire(rec models.WireRecord) (models.Entity, error) {
	if rec.ClientID == "" {
		return models.Entity{}, mappingErr(string(rec.Kind), "client_id", "missing required field")
	}
	if rec.RemoteID == "" {
		return models.Entity{}, mappingErr(string(rec.Kind), "remote_id", "missing required field")
	}
	if rec.UpdatedAt.IsZero() {
		return models.Entity{}, mappingErr(string(rec.Kind), "updated_at", "missing required field")
	}

	payload, err := normalizePayload(rec.Kind, rec.Payload)
	if err != nil {
		return models.Entity{}, err
	}

	remoteID := rec.RemoteID
	return models.Entity{
		LocalID:   rec.ClientID,
		RemoteID:  &remoteID,
		Kind:      rec.Kind,
		Payload:   payload,
		NeedsSync: false,
		Deleted:   rec.Deleted,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

// normalizePayload decodes raw into the typed payload for kind, validates
// and clamps its fields, and re-encodes it. Unknown kinds and undecodable
// documents are mapping errors.
func normalizePayload(kind models.Kind, raw json.RawMessage) (json.RawMessage, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, mappingErr(string(kind), "payload", "missing required field")
	}

	switch kind {
	case models.KindProfile:
		var p models.ProfilePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, mappingErr(string(kind), "payload", err.Error())
		}
		if p.Handle == "" {
			return nil, mappingErr(string(kind), "handle", "missing required field")
		}
		var err error
		if p.WeightKg, err = clamp(kind, "weight_kg", p.WeightKg, 0, MaxWeightKg); err != nil {
			return nil, err
		}
		if p.HeightCm, err = clamp(kind, "height_cm", p.HeightCm, 0, MaxHeightCm); err != nil {
			return nil, err
		}
		return marshalPayload(kind, p)

	case models.KindMeal:
		var p models.MealPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, mappingErr(string(kind), "payload", err.Error())
		}
		if p.Name == "" {
			return nil, mappingErr(string(kind), "name", "missing required field")
		}
		if p.EatenAt.IsZero() {
			return nil, mappingErr(string(kind), "eaten_at", "missing required field")
		}
		var err error
		if p.Calories, err = clamp(kind, "calories", p.Calories, 0, MaxCalories); err != nil {
			return nil, err
		}
		if p.ProteinG, err = clamp(kind, "protein_g", p.ProteinG, 0, MaxMacroGrams); err != nil {
			return nil, err
		}
		if p.CarbsG, err = clamp(kind, "carbs_g", p.CarbsG, 0, MaxMacroGrams); err != nil {
			return nil, err
		}
		if p.FatG, err = clamp(kind, "fat_g", p.FatG, 0, MaxMacroGrams); err != nil {
			return nil, err
		}
		return marshalPayload(kind, p)

	case models.KindReading:
		var p models.ReadingPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, mappingErr(string(kind), "payload", err.Error())
		}
		if p.MeasuredAt.IsZero() {
			return nil, mappingErr(string(kind), "measured_at", "missing required field")
		}
		var err error
		if p.Value, err = clamp(kind, "value", p.Value, 0, MaxGlucose); err != nil {
			return nil, err
		}
		return marshalPayload(kind, p)

	case models.KindScan:
		var p models.ScanPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, mappingErr(string(kind), "payload", err.Error())
		}
		if p.ImageRef == "" {
			return nil, mappingErr(string(kind), "image_ref", "missing required field")
		}
		var err error
		if p.Confidence, err = clamp(kind, "confidence", p.Confidence, 0, 1); err != nil {
			return nil, err
		}
		if p.CalorieEstimate, err = clamp(kind, "calorie_estimate", p.CalorieEstimate, 0, MaxCalories); err != nil {
			return nil, err
		}
		return marshalPayload(kind, p)

	default:
		return nil, mappingErr(string(kind), "kind", "unknown entity kind")
	}
}

// clamp rejects NaN and infinities outright and pulls finite values into
// [lo, hi]. JSON itself cannot carry NaN, but a payload that went through
// other hands may.
func clamp(kind models.Kind, field string, v, lo, hi float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, mappingErr(string(kind), field, "value is not a finite number")
	}
	if v < lo {
		return lo, nil
	}
	if v > hi {
		return hi, nil
	}
	return v, nil
}

func marshalPayload(kind models.Kind, p any) (json.RawMessage, error) {
	out, err := json.Marshal(p)
	if err != nil {
		return nil, mappingErr(string(kind), "payload", err.Error())
	}
	return out, nil
}
