package graph

import (
	"fmt"
	"strings"
)

// TermKind identifies the kind of a graph term.
type TermKind uint8

const (
	// TermIRI is an identified node.
	TermIRI TermKind = iota
	// TermBlankNode is an anonymous node.
	TermBlankNode
	// TermLiteral is a literal value.
	TermLiteral
)

// Term is a value that can appear in a fact.
type Term interface {
	Kind() TermKind
	// Key returns the canonical N-Triples rendering of the term. Two terms are
	// equal exactly when their keys are equal.
	Key() string
	String() string
}

// IRI is an identified node.
type IRI struct {
	Value string
}

// NewIRI returns an IRI term.
func NewIRI(value string) IRI { return IRI{Value: value} }

func (i IRI) Kind() TermKind { return TermIRI }
func (i IRI) Key() string    { return "<" + i.Value + ">" }
func (i IRI) String() string { return i.Value }

// BlankNode is an anonymous node.
type BlankNode struct {
	ID string
}

func (b BlankNode) Kind() TermKind { return TermBlankNode }
func (b BlankNode) Key() string    { return "_:" + b.ID }
func (b BlankNode) String() string { return "_:" + b.ID }

// Literal is a literal value. At most one of Datatype and Lang is set; a
// literal with neither has no determinable datatype.
type Literal struct {
	Lexical  string
	Datatype string
	Lang     string
}

// NewTypedLiteral returns a literal with the given datatype IRI.
func NewTypedLiteral(lexical, datatype string) Literal {
	return Literal{Lexical: lexical, Datatype: datatype}
}

// NewLangLiteral returns a language-tagged string.
func NewLangLiteral(lexical, lang string) Literal {
	return Literal{Lexical: lexical, Lang: lang}
}

func (l Literal) Kind() TermKind { return TermLiteral }

func (l Literal) Key() string {
	quoted := quote(l.Lexical)
	if l.Lang != "" {
		return quoted + "@" + l.Lang
	}
	if l.Datatype != "" {
		return quoted + "^^<" + l.Datatype + ">"
	}
	return quoted
}

func (l Literal) String() string {
	if l.Lang != "" {
		return fmt.Sprintf("%q@%s", l.Lexical, l.Lang)
	}
	if l.Datatype != "" {
		return fmt.Sprintf("%q^^<%s>", l.Lexical, l.Datatype)
	}
	return fmt.Sprintf("%q", l.Lexical)
}

// IsIRI reports whether t is an identified node.
func IsIRI(t Term) bool {
	return t != nil && t.Kind() == TermIRI
}

// IsBlank reports whether t is an anonymous node.
func IsBlank(t Term) bool {
	return t != nil && t.Kind() == TermBlankNode
}

// quote renders s as an N-Triples string literal.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u%04X`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
