package hcs

import (
	"errors"
	"fmt"
)

// Registration-time errors. These abort the whole load/registration call:
// they indicate malformed input that must be fixed before any data is trusted.
var (
	// ErrSchemaMismatch is returned when the assay metadata references
	// endpoint categories or channels that the plate metadata does not carry.
	ErrSchemaMismatch = errors.New("assay metadata does not match plate metadata")

	// ErrDuplicateStudy is returned when a (name, phase) pair is already
	// registered and no explicit prior study id was supplied. Overwrite must
	// be explicit, never implicit, since prior runs depend on fixed ids.
	ErrDuplicateStudy = errors.New("study already registered for name and phase")

	// ErrUnresolvedReference is returned when a raw measurement row cannot be
	// matched to exactly one well and one assay component. Ambiguous and
	// missing matches are both errors; silently picking one would corrupt
	// downstream statistics.
	ErrUnresolvedReference = errors.New("raw row does not resolve to exactly one well and component")

	// ErrUnknownMethod is returned when a method assignment names a method
	// that is not registered in the catalog for that level.
	ErrUnknownMethod = errors.New("method not registered in catalog")
)

// Per-endpoint processing errors. These are isolated and reported in the
// run's status collection; they never abort sibling endpoints.
var (
	// ErrInsufficientControls is returned when fewer than the minimum count
	// of usable negative-control values exist for an endpoint.
	ErrInsufficientControls = errors.New("insufficient usable negative-control wells")

	// ErrMissingCutoff is returned when a terminal-level method needs the
	// endpoint's noise-band cutoff and none has been persisted.
	ErrMissingCutoff = errors.New("no noise-band cutoff persisted for endpoint")
)

// ErrStoreIntegrity signals a foreign-key or uniqueness breach in the store.
// It is always fatal to the enclosing operation.
var ErrStoreIntegrity = errors.New("store integrity violation")

// TransformError wraps a failure raised by one endpoint's transform at one
// level. The pipeline runner records it in the run status collection and
// continues with other endpoints.
type TransformError struct {
	AEID   int64
	Level  int
	Method string
	Err    error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform %q failed at level %d for endpoint %d: %v", e.Method, e.Level, e.AEID, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }
