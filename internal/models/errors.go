package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for the data-absence conditions. Read queries degrade to
// empty results instead; predictions and training surface these explicitly.
var (
	// ErrNoHistory means the label has never been observed.
	ErrNoHistory = errors.New("no data for label")

	// ErrNoDataForHour means the time model is trained but has no
	// observations for the requested hour bin.
	ErrNoDataForHour = errors.New("no data for this hour")

	// ErrInsufficientData means training was attempted with zero sightings.
	ErrInsufficientData = errors.New("insufficient data to train")

	// ErrNotTrained means a model lookup happened before a successful train.
	ErrNotTrained = errors.New("model not trained")
)

// StorageError reports a failed durable append. The store's state is
// unchanged when one is returned; the caller may retry.
type StorageError struct {
	Label string
	Op    string
	Err   error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s for %q: %v", e.Op, e.Label, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
