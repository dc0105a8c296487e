package profile

import "errors"

var (
	// ErrUnknownSupertype is returned when a type names a supertype that is
	// not declared.
	ErrUnknownSupertype = errors.New("unknown supertype")

	// ErrDuplicateRDFType is returned when two types claim the same
	// rdf:type identifier.
	ErrDuplicateRDFType = errors.New("duplicate rdf type")

	// ErrInvalidAttribute is returned for attributes with a missing id or
	// predicate, an unknown kind or cardinality, or a repeated id.
	ErrInvalidAttribute = errors.New("invalid attribute")

	// ErrInvalidType is returned for types without an id or rdf types, and
	// for type ids declared twice.
	ErrInvalidType = errors.New("invalid type")
)
