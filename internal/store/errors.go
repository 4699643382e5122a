package store

import "errors"

// Sentinel errors surfaced to the HTTP boundary. Callers branch with
// errors.Is; anything else is treated as a storage failure.
var (
	// ErrNotFound means the referenced locker or order does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateLocker means a locker with that physical ID is already
	// registered.
	ErrDuplicateLocker = errors.New("locker already registered")

	// ErrNoFreeLocker means the allocation claim found no free locker. The
	// order orchestrator branches into its compensation path on this one.
	ErrNoFreeLocker = errors.New("no free locker available")

	// ErrLockerOccupied means the operation requires a free locker
	// (decommissioning an occupied unit).
	ErrLockerOccupied = errors.New("locker is occupied")

	// ErrInvalidCode means the presented code matches no locker.
	ErrInvalidCode = errors.New("invalid code")

	// ErrStaleCode means the code matches a locker that is no longer
	// occupied.
	ErrStaleCode = errors.New("code is no longer active")
)
