package intent

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrMissingCredential is returned by collaborators that have no API key.
var ErrMissingCredential = errors.New("no API credential configured")

// Reason categorises a ClassifierError.
type Reason string

const (
	ReasonCredential   Reason = "credential"
	ReasonCollaborator Reason = "collaborator"
	ReasonParse        Reason = "parse"
)

// ClassifierError is returned when an analysis could not be produced. It is
// never retried; the caller skips injection for the turn.
type ClassifierError struct {
	Reason Reason
	Err    error
}

func (e *ClassifierError) Error() string {
	return fmt.Sprintf("intent classification failed (%s): %v", e.Reason, e.Err)
}

func (e *ClassifierError) Unwrap() error {
	return e.Err
}

func classifierError(reason Reason, err error) *ClassifierError {
	return &ClassifierError{Reason: reason, Err: err}
}
