// SPDX-License-Identifier: Apache-2.0

// Package validators enforces structural rules on sync envelopes before they
// reach the local store or the wire.
//
// Validation here is shallow on purpose: it checks the bookkeeping fields of
// an envelope (ids, kind, payload presence and well-formedness) and leaves
// the deep, kind-specific payload checks to the mapper, which decodes and
// clamps every payload on both wire directions.
package validators

import "context"

// Validator defines a generic validation interface for arbitrary input values.
// Implementations may perform structural validation, semantic checks,
// cross-field rules.
type Validator interface {

	// Validate validates the provided input and optionally
	// restricts validation to specific named fields.
	Validate(context.Context, any, ...string) error
}
