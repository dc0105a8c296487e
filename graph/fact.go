package graph

import "github.com/c360studio/semcube/vocabulary/rdf"

// Fact is a single subject-predicate-object statement.
type Fact struct {
	S Term
	P IRI
	O Term
}

// NewFact returns a fact.
func NewFact(s Term, p string, o Term) Fact {
	return Fact{S: s, P: NewIRI(p), O: o}
}

// TypeFact returns the rdf:type fact for subject and type IRI.
func TypeFact(subject string, typeIRI string) Fact {
	return NewFact(NewIRI(subject), rdf.Type, NewIRI(typeIRI))
}

// Key returns the canonical identity of the fact, its N-Triples line
// without the terminating dot.
func (f Fact) Key() string {
	return f.S.Key() + " " + f.P.Key() + " " + f.O.Key()
}

// String returns the fact as an N-Triples statement.
func (f Fact) String() string {
	return f.Key() + " ."
}

// IsType reports whether the fact is an rdf:type statement.
func (f Fact) IsType() bool {
	return f.P.Value == rdf.Type
}
