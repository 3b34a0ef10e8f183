// Package pipelineerror defines the error taxonomy of the aggregation
// pipeline. Fetch and classification failures are recovered locally and
// surfaced through diagnostics; missing authentication and persistence
// failures are fatal for the requesting operation.
package pipelineerror

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated means no valid source credential exists at all.
// The whole aggregation or classification request fails immediately;
// nothing partial is returned.
var ErrNotAuthenticated = errors.New("not authenticated")

// FetchError is a failed upstream fetch for one entity type. It is
// recovered per entity type: the pipeline logs it, records a diagnostics
// entry and continues with an empty result set for that type.
type FetchError struct {
	Source string
	Entity string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: fetching %s: %v", e.Source, e.Entity, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ClassificationError is a failed or malformed probabilistic
// classification for a single transaction. It is never propagated as a
// pipeline error; the transaction falls through to the review queue.
type ClassificationError struct {
	TransactionID string
	Err           error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classifying transaction %s: %v", e.TransactionID, e.Err)
}

func (e *ClassificationError) Unwrap() error {
	return e.Err
}

// PersistenceError is a failed durable write. The caller must be told
// the operation did not durably succeed.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
