package index

import "errors"

var (
	// ErrIndexRunning is returned when a run is requested while another run
	// is in progress.
	ErrIndexRunning = errors.New("an indexing run is already in progress")

	// ErrIndexNotFound is returned for an index name with no definition.
	ErrIndexNotFound = errors.New("index not found")

	// ErrCollectionNotFound is returned for a collection name with no
	// definition in its index.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrInvalidDefinition is returned for definition files that cannot be
	// used.
	ErrInvalidDefinition = errors.New("invalid definition")
)
