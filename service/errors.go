package service

import "errors"

var (
	// ErrNotFound is returned when no contract matches a lookup.
	ErrNotFound = errors.New("contract not found")
	// ErrAmbiguous is returned when a party-pair lookup matches more than
	// one contract.
	ErrAmbiguous = errors.New("multiple contracts match")
	// ErrAlreadySigned is returned when a signed contract is signed again.
	ErrAlreadySigned = errors.New("contract already signed")
)

// ValidationError reports malformed caller input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// SynthesisError wraps a failure of the document synthesis call.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string {
	return "synthesis failed: " + e.Err.Error()
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}
