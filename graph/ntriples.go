package graph

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	ntriples "github.com/knakk/rdf"

	"github.com/c360studio/semcube/vocabulary/rdf"
)

// ErrInvalidTerm is returned by ParseTerm for input that is not exactly one
// N-Triples term.
var ErrInvalidTerm = errors.New("invalid term")

// ReadNTriples parses an N-Triples document into a new graph. Simple
// literals such as "abc" are read as xsd:string, as RDF 1.1 defines them.
func ReadNTriples(r io.Reader) (*Graph, error) {
	g := New()
	if err := DecodeNTriples(r, func(f Fact) error {
		g.Add(f)
		return nil
	}); err != nil {
		return nil, err
	}
	return g, nil
}

// DecodeNTriples streams the facts of an N-Triples document to handle.
func DecodeNTriples(r io.Reader, handle func(Fact) error) error {
	dec := ntriples.NewTripleDecoder(r, ntriples.NTriples)
	for n := 1; ; n++ {
		triple, err := dec.Decode()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("ntriples statement %d: %w", n, err)
		}
		fact, err := fromTriple(triple)
		if err != nil {
			return fmt.Errorf("ntriples statement %d: %w", n, err)
		}
		if err := handle(fact); err != nil {
			return err
		}
	}
}

// WriteNTriples writes every fact of g as N-Triples in canonical order.
func WriteNTriples(w io.Writer, g *Graph) error {
	bw := bufio.NewWriter(w)
	for _, f := range g.Facts() {
		if _, err := bw.WriteString(f.String() + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ParseTerm parses a single term written in N-Triples syntax: an <IRI>, a
// _:blank node or a literal.
func ParseTerm(s string) (Term, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "\r\n") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTerm, s)
	}

	stmt := "<urn:semcube:s> <urn:semcube:p> " + s + " .\n"
	dec := ntriples.NewTripleDecoder(strings.NewReader(stmt), ntriples.NTriples)
	triple, err := dec.Decode()
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidTerm, s, err)
	}
	if _, err := dec.Decode(); err != io.EOF {
		return nil, fmt.Errorf("%w %q: trailing content", ErrInvalidTerm, s)
	}
	return fromTerm(triple.Obj)
}

func fromTriple(t ntriples.Triple) (Fact, error) {
	subject, err := fromTerm(t.Subj)
	if err != nil {
		return Fact{}, err
	}
	if subject.Kind() == TermLiteral {
		return Fact{}, fmt.Errorf("literal subject %s", subject)
	}
	object, err := fromTerm(t.Obj)
	if err != nil {
		return Fact{}, err
	}
	return Fact{S: subject, P: NewIRI(t.Pred.String()), O: object}, nil
}

func fromTerm(t ntriples.Term) (Term, error) {
	switch term := t.(type) {
	case ntriples.IRI:
		return NewIRI(term.String()), nil
	case ntriples.Blank:
		return BlankNode{ID: strings.TrimPrefix(term.String(), "_:")}, nil
	case ntriples.Literal:
		if lang := term.Lang(); lang != "" {
			return NewLangLiteral(term.String(), strings.ToLower(lang)), nil
		}
		datatype := term.DataType.String()
		if datatype == "" {
			datatype = rdf.XSDString
		}
		return NewTypedLiteral(term.String(), datatype), nil
	default:
		return nil, fmt.Errorf("unsupported term %v", t)
	}
}
