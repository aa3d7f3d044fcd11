package notes

import (
	"errors"
	"fmt"
)

var (
	ErrNoteNotFound    = errors.New("note not found")
	ErrInvalidNoteData = errors.New("invalid note data")

	// ErrContextUnavailable is resolved by an adapter whose backing execution
	// context is gone when an operation runs, e.g. the adapter was torn down
	// while the call was still in flight.
	ErrContextUnavailable = errors.New("store context unavailable")

	ErrRemoteNotConfigured = errors.New("remote store not configured")

	ErrFetchFailed  = errors.New("fetch notes failed")
	ErrSearchFailed = errors.New("search notes failed")
	ErrSaveFailed   = errors.New("save note failed")
	ErrDeleteFailed = errors.New("delete note failed")
)

// the wrappers below attach the originating store error to the taxonomy
// sentinel, so errors.Is matches both the kind and the underlying cause
func fetchFailed(cause error) error  { return fmt.Errorf("%w: %w", ErrFetchFailed, cause) }
func searchFailed(cause error) error { return fmt.Errorf("%w: %w", ErrSearchFailed, cause) }
func saveFailed(cause error) error   { return fmt.Errorf("%w: %w", ErrSaveFailed, cause) }
func deleteFailed(cause error) error { return fmt.Errorf("%w: %w", ErrDeleteFailed, cause) }
