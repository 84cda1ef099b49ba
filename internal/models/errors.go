package models

import "errors"

// Application-wide standard errors
var (
	// Caller supplied structurally invalid input (empty required text, malformed id).
	ErrValidation = errors.New("validation failed")
	// A referenced entity (node, choice, character, achievement) does not exist.
	ErrNotFound = errors.New("resource not found")
	// Invariant violation the creation API cannot produce itself (e.g. a parent pointer cycle).
	ErrCorruptGraph = errors.New("story graph is corrupt")
	// Unique constraint hit, e.g. two concurrent creations of the same achievement name.
	ErrAlreadyExists = errors.New("resource already exists")

	// General Request/Server Errors
	ErrRateLimited    = errors.New("rate limit exceeded")
	ErrInternalServer = errors.New("internal server error")
)
