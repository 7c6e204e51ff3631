package model

import "github.com/rotisserie/eris"

// Caller-visible failure kinds. Everything else degrades locally.
var (
	// ErrConfigurationMissing means no target profile is active.
	ErrConfigurationMissing = eris.New("no active target profile")
	// ErrNotFound means the referenced company does not exist.
	ErrNotFound = eris.New("not found")
	// ErrInvalidEvent means an inbound event failed validation.
	ErrInvalidEvent = eris.New("invalid event")
	// ErrInvalidProfile means a target profile failed validation.
	ErrInvalidProfile = eris.New("invalid target profile")
)
