package services

import "fmt"

// ExtractionError covers OCR and file failures in the extraction gateway.
// The orchestrator routes these to manual review rather than rejecting.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction failed for %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("extraction failed for %s", e.Path)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ValidationError is raised before an external call when a required
// identifier is missing or malformed. It is never retried.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

// TransportError is a network/auth level failure calling an external
// capability, surfaced after the retry policy is exhausted.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure in %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RegistryRejection means the external registry answered and explicitly
// said the identifier is invalid. The document becomes REJECTED; this is
// not an exceptional condition.
type RegistryRejection struct {
	API    string
	Status string
	Reason string
}

func (e *RegistryRejection) Error() string {
	return fmt.Sprintf("registry %s rejected identifier: %s (%s)", e.API, e.Reason, e.Status)
}
