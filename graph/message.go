package graph

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/c360studio/semstreams/message"

	"github.com/c360studio/semcube/vocabulary/rdf"
)

// MessageTypePredicate is the dotted predicate semstreams uses for type
// assertions. It is read as rdf:type.
const MessageTypePredicate = "rdf.syntax.type"

// FromMessageTriples builds a graph from semstreams triples.
//
// Subjects become IRIs. String objects written in N-Triples term syntax, as
// ToMessageTriples writes them, are parsed back into the exact term. Other
// strings that look like IRIs or dotted entity IDs become IRIs; every other
// object becomes a typed literal whose datatype follows the Go type of the
// value.
func FromMessageTriples(triples []message.Triple) *Graph {
	g := New()
	for _, t := range triples {
		if t.Subject == "" || t.Predicate == "" || t.Object == nil {
			continue
		}
		predicate := t.Predicate
		if predicate == MessageTypePredicate {
			predicate = rdf.Type
		}
		g.Add(NewFact(NewIRI(t.Subject), predicate, objectTerm(t.Object)))
	}
	return g
}

// ToMessageTriples converts the facts of g into semstreams triples. Blank
// nodes are skipped; semstreams has no anonymous nodes.
//
// Objects that FromMessageTriples reads back unchanged as plain values are
// written that way: references, plain strings, canonical booleans and longs.
// Every other object is written as its N-Triples term, which keeps language
// tags and datatypes intact.
func ToMessageTriples(g *Graph, source string, now time.Time) []message.Triple {
	facts := g.Facts()
	triples := make([]message.Triple, 0, len(facts))
	for _, f := range facts {
		subject, ok := f.S.(IRI)
		if !ok {
			continue
		}
		predicate := f.P.Value
		if predicate == rdf.Type {
			predicate = MessageTypePredicate
		}

		var object any
		switch o := f.O.(type) {
		case IRI:
			object = iriValue(o)
		case Literal:
			object = literalValue(o)
		default:
			continue
		}

		triples = append(triples, message.Triple{
			Subject:    subject.Value,
			Predicate:  predicate,
			Object:     object,
			Source:     source,
			Timestamp:  now,
			Confidence: 1.0,
		})
	}
	return triples
}

func objectTerm(obj any) Term {
	switch v := obj.(type) {
	case string:
		if isTermSyntax(v) {
			if term, err := ParseTerm(v); err == nil {
				return term
			}
		}
		if looksLikeReference(v) {
			return NewIRI(v)
		}
		if _, err := time.Parse(time.RFC3339, v); err == nil {
			return NewTypedLiteral(v, rdf.XSDDateTime)
		}
		return NewTypedLiteral(v, rdf.XSDString)
	case bool:
		return NewTypedLiteral(strconv.FormatBool(v), rdf.XSDBoolean)
	case int32:
		return NewTypedLiteral(strconv.FormatInt(int64(v), 10), rdf.XSDInt)
	case int:
		return NewTypedLiteral(strconv.FormatInt(int64(v), 10), rdf.XSDLong)
	case int64:
		return NewTypedLiteral(strconv.FormatInt(v, 10), rdf.XSDLong)
	case float32:
		return NewTypedLiteral(strconv.FormatFloat(float64(v), 'g', -1, 32), rdf.XSDFloat)
	case float64:
		// JSON decoding turns every number into float64.
		if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
			return NewTypedLiteral(strconv.FormatInt(int64(v), 10), rdf.XSDLong)
		}
		return NewTypedLiteral(strconv.FormatFloat(v, 'g', -1, 64), rdf.XSDDouble)
	case time.Time:
		return NewTypedLiteral(v.Format(time.RFC3339Nano), rdf.XSDDateTime)
	default:
		return NewTypedLiteral(fmt.Sprint(v), rdf.XSDString)
	}
}

func iriValue(i IRI) any {
	if looksLikeReference(i.Value) && !isTermSyntax(i.Value) {
		return i.Value
	}
	return i.Key()
}

// literalValue returns the object semstreams carries for l.
func literalValue(l Literal) any {
	if l.Lang != "" {
		return l.Key()
	}
	switch l.Datatype {
	case rdf.XSDString:
		if objectTerm(l.Lexical) == Term(l) {
			return l.Lexical
		}
	case rdf.XSDBoolean:
		if l.Lexical == "true" || l.Lexical == "false" {
			return l.Lexical == "true"
		}
	case rdf.XSDLong:
		// Longs travel as JSON numbers, exact up to 2^53.
		n, err := strconv.ParseInt(l.Lexical, 10, 64)
		if err == nil && strconv.FormatInt(n, 10) == l.Lexical && n > -(1<<53) && n < 1<<53 {
			return n
		}
	}
	return l.Key()
}

// isTermSyntax reports whether v is written like an N-Triples IRI or
// literal term.
func isTermSyntax(v string) bool {
	return strings.HasPrefix(v, "<") || strings.HasPrefix(v, `"`)
}

// looksLikeReference reports whether a string object names another entity:
// an absolute IRI or a dotted entity ID such as
// "acme.semcube.project.proposal.api.auth-refresh".
func looksLikeReference(v string) bool {
	if strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") || strings.HasPrefix(v, "urn:") {
		return !strings.ContainsAny(v, " \t\n")
	}
	return strings.Contains(v, ".") && !strings.ContainsAny(v, " \t\n") && len(strings.Split(v, ".")) >= 4
}
