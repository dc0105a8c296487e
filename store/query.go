package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/c360studio/semcube/graph"
	"github.com/c360studio/semcube/vocabulary/rdf"
)

// ErrInvalidPattern is returned for patterns ParsePattern cannot read.
var ErrInvalidPattern = errors.New("invalid pattern")

// Pattern is a single triple pattern with a variable subject, such as
//
//	?s a <http://example.org/Person>
//	?s <http://example.org/status> "active"^^<http://www.w3.org/2001/XMLSchema#string>
//	?s <http://example.org/name> ?name
//
// A "SELECT ... WHERE { ... }" wrapper around the pattern is accepted and
// ignored.
type Pattern struct {
	Variable  string
	Predicate string
	// Object is nil when the object is a variable.
	Object graph.Term
}

// ParsePattern reads a pattern.
func ParsePattern(query string) (Pattern, error) {
	body := strings.TrimSpace(query)
	if open := strings.IndexByte(body, '{'); open >= 0 {
		end := strings.LastIndexByte(body, '}')
		if end < open {
			return Pattern{}, fmt.Errorf("%w: unbalanced braces", ErrInvalidPattern)
		}
		body = strings.TrimSpace(body[open+1 : end])
	}
	body = strings.TrimSpace(strings.TrimSuffix(body, "."))

	subject, rest, ok := strings.Cut(body, " ")
	if !ok || !strings.HasPrefix(subject, "?") || len(subject) < 2 {
		return Pattern{}, fmt.Errorf("%w: subject must be a variable in %q", ErrInvalidPattern, query)
	}
	rest = strings.TrimSpace(rest)

	p := Pattern{Variable: subject[1:]}
	predicate, object, ok := strings.Cut(rest, " ")
	if !ok {
		return Pattern{}, fmt.Errorf("%w: missing object in %q", ErrInvalidPattern, query)
	}
	switch {
	case predicate == "a":
		p.Predicate = rdf.Type
	case strings.HasPrefix(predicate, "<") && strings.HasSuffix(predicate, ">"):
		p.Predicate = predicate[1 : len(predicate)-1]
	default:
		return Pattern{}, fmt.Errorf("%w: predicate must be an IRI or 'a' in %q", ErrInvalidPattern, query)
	}

	object = strings.TrimSpace(object)
	if strings.HasPrefix(object, "?") {
		return p, nil
	}
	term, err := graph.ParseTerm(object)
	if err != nil {
		return Pattern{}, fmt.Errorf("%w: object: %v", ErrInvalidPattern, err)
	}
	p.Object = term
	return p, nil
}

// Subjects returns the distinct IRI subjects matching the pattern in g.
func (p Pattern) Subjects(g *graph.Graph) []string {
	var uris []string
	for _, s := range g.Subjects(p.Predicate, p.Object) {
		if iri, ok := s.(graph.IRI); ok {
			uris = append(uris, iri.Value)
		}
	}
	return uris
}

// Select returns the IRIs bound to the pattern's subject variable over the
// union of the transaction's graphs.
func (tx *Tx) Select(query string) ([]string, error) {
	p, err := ParsePattern(query)
	if err != nil {
		return nil, err
	}
	return p.Subjects(tx.Union()), nil
}

// Ask reports whether any subject matches the pattern.
func (tx *Tx) Ask(query string) (bool, error) {
	uris, err := tx.Select(query)
	if err != nil {
		return false, err
	}
	return len(uris) > 0, nil
}
