package mapper

import "fmt"

// MappingError describes why a single wire record could not be converted.
// It is a typed, recoverable error: the pull loop skips the record, logs the
// error, and carries on with the rest of the batch.
type MappingError struct {
	Kind   string
	Field  string
	Reason string
}

func (e *MappingError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("mapping %s: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("mapping %s: field %q: %s", e.Kind, e.Field, e.Reason)
}

func mappingErr(kind, field, reason string) *MappingError {
	return &MappingError{Kind: kind, Field: field, Reason: reason}
}
