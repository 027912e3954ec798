package validators

import "errors"

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")
	ErrUnknownField    = errors.New("unknown field for validation")

	ErrMissingLocalID       = errors.New("local id is required")
	ErrMissingOwnerID       = errors.New("owner id is required")
	ErrMissingClientID      = errors.New("client id is required")
	ErrMissingOwnerRemoteID = errors.New("owner remote id is required")
	ErrInvalidKind          = errors.New("unknown entity kind")
	ErrEmptyPayload         = errors.New("payload is required")
	ErrMalformedPayload     = errors.New("payload is not valid JSON")
)
