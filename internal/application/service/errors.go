package service

import (
	"errors"

	domainwf "github.com/clearhr/claimflow/internal/domain/workflow"
)

// Client-facing error taxonomy. Every workflow operation resolves to one of
// these; the HTTP layer maps them to stable status codes and never lets an
// unclassified fault crash the process.
var (
	// ErrNotFound means the record, or a parent it references, does not
	// exist within the actor's tenant
	ErrNotFound = errors.New("record not found")

	// ErrValidation means the request payload is malformed or misses
	// required fields
	ErrValidation = errors.New("validation failed")

	// ErrInvalidTransition means the record's current status does not
	// permit the requested operation
	ErrInvalidTransition = domainwf.ErrInvalidTransition

	// ErrInvalidLevel means the approval level token is not recognized
	ErrInvalidLevel = errors.New("unrecognized approval level")

	// ErrAlreadyRejected guards repeat rejections
	ErrAlreadyRejected = errors.New("record already rejected")

	// ErrAlreadySettled guards mutation of settled records
	ErrAlreadySettled = errors.New("record already settled")

	// ErrNotApproved means settlement was requested before finance approval
	ErrNotApproved = errors.New("record is not finance approved")

	// ErrDeadlineExceeded means the claim was created after the policy
	// submission window closed
	ErrDeadlineExceeded = errors.New("claim submission deadline exceeded")

	// ErrForbidden means the actor's role is not accepted for the operation
	ErrForbidden = errors.New("actor role not permitted for this operation")

	// ErrConflict means another actor changed the record between read and
	// write; the client should re-read and retry
	ErrConflict = errors.New("record was modified concurrently")
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}
