package convert

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidConfiguration is returned by New for unset or conflicting
	// settings.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrUnresolvedType is returned when a node that must be projected has
	// no schema type.
	ErrUnresolvedType = errors.New("unresolved type")

	// ErrAmbiguousType is returned under the root model type when a node
	// does not carry exactly one rdf:type.
	ErrAmbiguousType = errors.New("expecting exactly one type")

	// ErrAttributeKind is returned for an attribute that is neither a
	// reference nor data.
	ErrAttributeKind = errors.New("attribute is neither reference nor data")

	// ErrCardinality is returned when a single attribute has more than one
	// value that is not a distinct language string.
	ErrCardinality = errors.New("cardinality violation")

	// ErrBlankNode is returned when a blank node is used as a value.
	ErrBlankNode = errors.New("blank nodes are not supported")

	// ErrNotAResource is returned when a reference attribute holds a literal.
	ErrNotAResource = errors.New("reference value is not a resource")

	// ErrMissingDatatype is returned for a literal with neither datatype nor
	// language.
	ErrMissingDatatype = errors.New("datatype not found")

	// ErrDuplicateLanguage is returned when a single attribute has two
	// values in the same language.
	ErrDuplicateLanguage = errors.New("more than one value for the same language")

	// ErrInvalidLexical is returned when a literal's lexical form does not
	// parse as its datatype.
	ErrInvalidLexical = errors.New("invalid lexical form")
)

// ProjectionError describes a failed projection: the node and attribute
// being projected and the values that broke the contract.
type ProjectionError struct {
	Err       error
	Node      string
	Type      string
	Attribute string
	Values    []string
	Detail    string
}

func (e *ProjectionError) Error() string {
	var b strings.Builder
	b.WriteString(e.Err.Error())
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Node != "" {
		fmt.Fprintf(&b, " (node %s", e.Node)
		if e.Type != "" {
			fmt.Fprintf(&b, ", type %s", e.Type)
		}
		if e.Attribute != "" {
			fmt.Fprintf(&b, ", attribute %s", e.Attribute)
		}
		if len(e.Values) > 0 {
			fmt.Fprintf(&b, ", values [%s]", strings.Join(e.Values, ", "))
		}
		b.WriteString(")")
	}
	return b.String()
}

func (e *ProjectionError) Unwrap() error { return e.Err }
