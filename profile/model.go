// Package profile holds the schema that drives projection: Types bound to
// graph rdf:type identifiers, and the predicate-bound Attributes each Type
// exposes.
//
// A Profile is immutable once built. Lookups resolve a node's rdf:type set to
// a Type in three ways: a direct lookup of a single identifier, a best match
// against the most specific declared Type, and a union of every matching
// Type.
package profile

// Kind says whether an attribute holds references to other typed nodes or
// literal data.
type Kind string

const (
	// KindReference is an attribute whose values are other typed nodes.
	KindReference Kind = "reference"

	// KindData is an attribute whose values are literals or plain resources.
	KindData Kind = "data"
)

// IsValid checks if a kind string is a known kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindReference, KindData:
		return true
	}
	return false
}

// Cardinality says whether an attribute holds one value or many.
type Cardinality string

const (
	// CardinalitySingle allows exactly one value, or one value per language
	// for language-tagged strings.
	CardinalitySingle Cardinality = "single"

	// CardinalityList allows any number of values.
	CardinalityList Cardinality = "list"
)

// IsValid checks if a cardinality string is a known cardinality.
func (c Cardinality) IsValid() bool {
	switch c {
	case CardinalitySingle, CardinalityList:
		return true
	}
	return false
}

// Attribute is a predicate-bound field of a Type.
type Attribute struct {
	ID          string      `yaml:"id" json:"id"`
	Predicate   string      `yaml:"predicate" json:"predicate"`
	Kind        Kind        `yaml:"kind" json:"kind"`
	Cardinality Cardinality `yaml:"cardinality" json:"cardinality"`

	// Inverse reads the predicate with the projected node as object.
	Inverse bool `yaml:"inverse,omitempty" json:"inverse,omitempty"`
}

func (a Attribute) IsReference() bool { return a.Kind == KindReference }
func (a Attribute) IsData() bool      { return a.Kind == KindData }
func (a Attribute) IsList() bool      { return a.Cardinality == CardinalityList }
func (a Attribute) IsSingle() bool    { return a.Cardinality == CardinalitySingle }

// Type is a resolved schema type.
type Type struct {
	// RootClassID identifies the type.
	RootClassID string

	// ClassIDs is the type itself followed by its transitive supertypes.
	ClassIDs []string

	// RDFTypes are the rdf:type identifiers that mark a node as this type.
	RDFTypes []string

	// ClassRDFTypes are the rdf:type identifiers of every class in ClassIDs.
	ClassRDFTypes []string

	// Attributes are the type's own attributes followed by inherited ones.
	Attributes []Attribute
}

// HasClass reports whether classID is the type or one of its supertypes.
func (t *Type) HasClass(classID string) bool {
	for _, id := range t.ClassIDs {
		if id == classID {
			return true
		}
	}
	return false
}

// Attribute returns the attribute with the given id.
func (t *Type) Attribute(id string) (Attribute, bool) {
	for _, a := range t.Attributes {
		if a.ID == id {
			return a, true
		}
	}
	return Attribute{}, false
}
