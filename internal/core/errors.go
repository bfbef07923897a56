package core

import "errors"

var (
	// ErrInvalidPeriod is returned when a period selector is outside the
	// supported calendar range or names an unknown kind.
	ErrInvalidPeriod = errors.New("invalid period")

	// ErrNotFound is returned when a record id does not resolve to a stored
	// record, or when a requested avatar blob is absent.
	ErrNotFound = errors.New("not found")

	// ErrPartialCascade is returned when an employee was deleted but removing
	// the dependent expenses failed, leaving orphan records behind. The state
	// is completable by retrying the expense deletion only.
	ErrPartialCascade = errors.New("cascade partially completed")

	// ErrStorage wraps failures of the underlying data store.
	ErrStorage = errors.New("storage failure")

	// ErrTransform is returned when thumbnail derivation fails.
	ErrTransform = errors.New("image transform failed")
)
