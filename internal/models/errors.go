package models

import "errors"

// Sentinel errors shared across the engine. Callers wrap them with
// fmt.Errorf("...: %w", err) and branch with errors.Is.
var (
	ErrIndexBuildFailed     = errors.New("index build failed")
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")
	ErrContextFetchTimeout  = errors.New("context fetch timed out")
	ErrGenerationFailed     = errors.New("generation failed")
	ErrInvalidRequest       = errors.New("invalid request")
)
