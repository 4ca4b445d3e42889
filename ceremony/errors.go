package ceremony

import "errors"

var (
	// ErrInvalidParties indicates an empty, duplicated or incomplete party list.
	ErrInvalidParties = errors.New("ceremony: invalid party list")

	// ErrSenderMismatch indicates a payload whose identifier does not
	// belong to the party that sent it.
	ErrSenderMismatch = errors.New("ceremony: payload identifier does not match sender")

	// ErrInconsistentResult indicates honest parties finished with
	// different outputs.
	ErrInconsistentResult = errors.New("ceremony: parties disagree on the result")

	// ErrMetricsRegistration indicates a collector could not be registered.
	ErrMetricsRegistration = errors.New("ceremony: metric registration failed")
)
