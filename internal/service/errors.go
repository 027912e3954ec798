// SPDX-License-Identifier: Apache-2.0

package service

import "errors"

// ErrNotAuthenticated is returned when a sync pass is requested before a
// bearer token has been provided via OnAuthenticated.
var ErrNotAuthenticated = errors.New("not authenticated")

// ErrOwnerUnknown is returned when a sync pass is requested before the local
// owner has been set via SetOwner.
var ErrOwnerUnknown = errors.New("owner not set")

// ErrSyncRunning is returned by the synchronous Run methods when another
// pass is already executing. A follow-up pass has been requested in that
// case, so callers can simply back off.
var ErrSyncRunning = errors.New("sync already running")
