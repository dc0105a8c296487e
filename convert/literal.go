package convert

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/c360studio/semcube/graph"
	"github.com/c360studio/semcube/vocabulary/rdf"
)

// valueKind enumerates the value shapes a data attribute can hold. Every
// datatype the engine understands has its own kind; kindOther keeps any
// other datatype under its own IRI.
type valueKind uint8

const (
	kindLangString valueKind = iota
	kindResource
	kindString
	kindBoolean
	kindDate
	kindDateTime
	kindInt
	kindLong
	kindFloat
	kindDouble
	kindAnyURI
	kindOther
)

// tags maps each kind to the key it is written under.
var tags = [...]string{
	kindLangString: rdf.TagLangString,
	kindResource:   rdf.TagResource,
	kindString:     rdf.TagString,
	kindBoolean:    rdf.TagBoolean,
	kindDate:       rdf.TagDate,
	kindDateTime:   rdf.TagDateTime,
	kindInt:        rdf.TagInt,
	kindLong:       rdf.TagLong,
	kindFloat:      rdf.TagFloat,
	kindDouble:     rdf.TagDouble,
	kindAnyURI:     rdf.TagAnyURI,
}

var datatypeKinds = map[string]valueKind{
	rdf.XSDString:   kindString,
	rdf.XSDBoolean:  kindBoolean,
	rdf.XSDDate:     kindDate,
	rdf.XSDDateTime: kindDateTime,
	rdf.XSDInt:      kindInt,
	rdf.XSDLong:     kindLong,
	rdf.XSDFloat:    kindFloat,
	rdf.XSDDouble:   kindDouble,
	rdf.XSDAnyURI:   kindAnyURI,
}

// dataValue is one converted value of a data attribute.
type dataValue struct {
	kind  valueKind
	tag   string
	lang  string
	value any
}

// DateTimeLayout is the canonical form of projected xsd:dateTime values.
const DateTimeLayout = "2006-01-02T15:04:05.000Z"

// DateLayout is the canonical form of projected xsd:date values.
const DateLayout = "2006-01-02"

// toDataValue classifies term and converts it to its document form.
func toDataValue(term graph.Term) (dataValue, error) {
	switch t := term.(type) {
	case graph.BlankNode:
		return dataValue{}, ErrBlankNode
	case graph.IRI:
		return dataValue{kind: kindResource, tag: tags[kindResource], value: t.Value}, nil
	case graph.Literal:
		return literalValue(t)
	default:
		return dataValue{}, fmt.Errorf("%w: unsupported term %v", ErrMissingDatatype, term)
	}
}

func literalValue(l graph.Literal) (dataValue, error) {
	if l.Lang != "" {
		return dataValue{kind: kindLangString, tag: tags[kindLangString], lang: l.Lang, value: l.Lexical}, nil
	}
	if l.Datatype == "" {
		return dataValue{}, ErrMissingDatatype
	}
	if l.Datatype == rdf.LangString {
		return dataValue{}, fmt.Errorf("%w: language string without language", ErrInvalidLexical)
	}

	kind, known := datatypeKinds[l.Datatype]
	if !known {
		return dataValue{kind: kindOther, tag: l.Datatype, value: l.Lexical}, nil
	}

	v, err := convertLexical(kind, l.Lexical)
	if err != nil {
		return dataValue{}, fmt.Errorf("%w: %q as %s: %v", ErrInvalidLexical, l.Lexical, tags[kind], err)
	}
	return dataValue{kind: kind, tag: tags[kind], value: v}, nil
}

func convertLexical(kind valueKind, lexical string) (any, error) {
	switch kind {
	case kindString, kindAnyURI:
		return lexical, nil
	case kindBoolean:
		switch strings.TrimSpace(lexical) {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
		return nil, fmt.Errorf("not a boolean")
	case kindDate:
		t, err := parseTemporal(lexical)
		if err != nil {
			return nil, err
		}
		return t.Format(DateLayout), nil
	case kindDateTime:
		t, err := parseTemporal(lexical)
		if err != nil {
			return nil, err
		}
		return t.UTC().Format(DateTimeLayout), nil
	case kindInt:
		n, err := strconv.ParseInt(strings.TrimSpace(lexical), 10, 32)
		if err != nil {
			return nil, err
		}
		return int32(n), nil
	case kindLong:
		return strconv.ParseInt(strings.TrimSpace(lexical), 10, 64)
	case kindFloat:
		f, err := parseFloat(lexical, 32)
		if err != nil {
			return nil, err
		}
		return float32(f), nil
	case kindDouble:
		return parseFloat(lexical, 64)
	default:
		return lexical, nil
	}
}

func parseFloat(lexical string, bitSize int) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(lexical), bitSize)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite value")
	}
	return f, nil
}

// temporalLayouts are tried in order. Values without an offset are read as
// UTC.
var temporalLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02Z07:00",
	"2006-01-02",
}

func parseTemporal(lexical string) (time.Time, error) {
	lexical = strings.TrimSpace(lexical)
	for _, layout := range temporalLayouts {
		if t, err := time.Parse(layout, lexical); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("not an ISO 8601 date or date-time")
}

func sortTerms(terms []graph.Term) {
	sort.Slice(terms, func(i, j int) bool { return terms[i].Key() < terms[j].Key() })
}
