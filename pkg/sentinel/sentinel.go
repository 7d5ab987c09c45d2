package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrStaleWrite: a conditional write lost to a newer committed version
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound   = errors.New("not found")
	ErrStaleWrite = errors.New("stale write")
)
