package profile

import (
	"fmt"
	"sort"

	"github.com/c360studio/semcube/vocabulary/rdf"
)

// Document is the serialized form of a profile.
type Document struct {
	// Prefixes expand prefixed names in rdf types and predicates. The
	// standard rdf, rdfs, xsd, owl, skos, dc and prov prefixes are always
	// available.
	Prefixes map[string]string `yaml:"prefixes,omitempty" json:"prefixes,omitempty"`
	Types    []TypeDefinition  `yaml:"types" json:"types"`
}

// TypeDefinition declares one type.
type TypeDefinition struct {
	ID         string      `yaml:"id" json:"id"`
	RDFTypes   []string    `yaml:"rdf_types" json:"rdf_types"`
	Supertypes []string    `yaml:"supertypes,omitempty" json:"supertypes,omitempty"`
	Attributes []Attribute `yaml:"attributes,omitempty" json:"attributes,omitempty"`
}

// Profile is an immutable, validated set of types.
type Profile struct {
	types     map[string]*Type
	ids       []string
	byRDFType map[string]*Type
}

// New validates doc and resolves supertype closures and inherited
// attributes.
func New(doc Document) (*Profile, error) {
	prefixes := rdf.DefaultPrefixes()
	for k, v := range doc.Prefixes {
		prefixes[k] = v
	}

	defs := make(map[string]TypeDefinition, len(doc.Types))
	for _, def := range doc.Types {
		if err := validateDefinition(def); err != nil {
			return nil, err
		}
		if _, dup := defs[def.ID]; dup {
			return nil, fmt.Errorf("%w: type %q declared twice", ErrInvalidType, def.ID)
		}
		def.RDFTypes = expandAll(def.RDFTypes, prefixes)
		attrs := make([]Attribute, len(def.Attributes))
		for i, a := range def.Attributes {
			a.Predicate = rdf.Expand(a.Predicate, prefixes)
			attrs[i] = a
		}
		def.Attributes = attrs
		defs[def.ID] = def
	}

	p := &Profile{
		types:     make(map[string]*Type, len(defs)),
		byRDFType: make(map[string]*Type),
	}
	for id := range defs {
		p.ids = append(p.ids, id)
	}
	sort.Strings(p.ids)

	for _, id := range p.ids {
		classIDs, err := closure(id, defs)
		if err != nil {
			return nil, err
		}
		t := &Type{
			RootClassID: id,
			ClassIDs:    classIDs,
			RDFTypes:    defs[id].RDFTypes,
		}
		seenRDF := make(map[string]bool)
		seenAttr := make(map[string]bool)
		for _, classID := range classIDs {
			class := defs[classID]
			for _, rt := range class.RDFTypes {
				if !seenRDF[rt] {
					seenRDF[rt] = true
					t.ClassRDFTypes = append(t.ClassRDFTypes, rt)
				}
			}
			for _, a := range class.Attributes {
				if !seenAttr[a.ID] {
					seenAttr[a.ID] = true
					t.Attributes = append(t.Attributes, a)
				}
			}
		}
		p.types[id] = t

		for _, rt := range t.RDFTypes {
			if other, dup := p.byRDFType[rt]; dup {
				return nil, fmt.Errorf("%w: %s claimed by %s and %s", ErrDuplicateRDFType, rt, other.RootClassID, id)
			}
			p.byRDFType[rt] = t
		}
	}

	return p, nil
}

func validateDefinition(def TypeDefinition) error {
	if def.ID == "" {
		return fmt.Errorf("%w: type id is required", ErrInvalidType)
	}
	if len(def.RDFTypes) == 0 {
		return fmt.Errorf("%w: type %q has no rdf types", ErrInvalidType, def.ID)
	}

	seen := make(map[string]bool, len(def.Attributes))
	for _, a := range def.Attributes {
		switch {
		case a.ID == "":
			return fmt.Errorf("%w: type %q has an attribute without id", ErrInvalidAttribute, def.ID)
		case a.Predicate == "":
			return fmt.Errorf("%w: %s.%s has no predicate", ErrInvalidAttribute, def.ID, a.ID)
		case !a.Kind.IsValid():
			return fmt.Errorf("%w: %s.%s has kind %q", ErrInvalidAttribute, def.ID, a.ID, a.Kind)
		case !a.Cardinality.IsValid():
			return fmt.Errorf("%w: %s.%s has cardinality %q", ErrInvalidAttribute, def.ID, a.ID, a.Cardinality)
		case seen[a.ID]:
			return fmt.Errorf("%w: %s.%s declared twice", ErrInvalidAttribute, def.ID, a.ID)
		}
		seen[a.ID] = true
	}
	return nil
}

// closure returns id followed by its supertypes, breadth first. Cycles are
// cut at the first repeated class.
func closure(id string, defs map[string]TypeDefinition) ([]string, error) {
	result := []string{id}
	seen := map[string]bool{id: true}
	for i := 0; i < len(result); i++ {
		for _, super := range defs[result[i]].Supertypes {
			if _, ok := defs[super]; !ok {
				return nil, fmt.Errorf("%w: %s extends %s", ErrUnknownSupertype, result[i], super)
			}
			if !seen[super] {
				seen[super] = true
				result = append(result, super)
			}
		}
	}
	return result, nil
}

func expandAll(values []string, prefixes map[string]string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = rdf.Expand(v, prefixes)
	}
	return out
}

// Type returns the type with the given root class id.
func (p *Profile) Type(id string) (*Type, bool) {
	t, ok := p.types[id]
	return t, ok
}

// Types returns every type ordered by root class id.
func (p *Profile) Types() []*Type {
	types := make([]*Type, len(p.ids))
	for i, id := range p.ids {
		types[i] = p.types[id]
	}
	return types
}

// TypeFromRDFType returns the type marked by a single rdf:type identifier.
func (p *Profile) TypeFromRDFType(rdfType string) (*Type, bool) {
	t, ok := p.byRDFType[rdfType]
	return t, ok
}

// BestMatchingType returns the most specific type among those marked by
// rdfTypes: the candidate whose class ids cover the most other candidates.
// Ties go to the candidate with more class ids, then to the lowest root
// class id.
func (p *Profile) BestMatchingType(rdfTypes []string) (*Type, bool) {
	candidates := p.candidates(rdfTypes)
	if len(candidates) == 0 {
		return nil, false
	}

	best := candidates[0]
	bestScore := coverage(best, candidates)
	for _, c := range candidates[1:] {
		score := coverage(c, candidates)
		if score > bestScore || (score == bestScore && len(c.ClassIDs) > len(best.ClassIDs)) {
			best, bestScore = c, score
		}
	}
	return best, true
}

// UnionType returns a type combining every type marked by rdfTypes. The best
// matching type leads: its root class id is kept and its class ids and
// attributes come first.
func (p *Profile) UnionType(rdfTypes []string) (*Type, bool) {
	candidates := p.candidates(rdfTypes)
	switch len(candidates) {
	case 0:
		return nil, false
	case 1:
		return candidates[0], true
	}

	best, _ := p.BestMatchingType(rdfTypes)
	ordered := append([]*Type{best}, candidates...)

	union := &Type{RootClassID: best.RootClassID}
	seenClass := make(map[string]bool)
	seenRDF := make(map[string]bool)
	seenClassRDF := make(map[string]bool)
	seenAttr := make(map[string]bool)
	for _, t := range ordered {
		for _, id := range t.ClassIDs {
			if !seenClass[id] {
				seenClass[id] = true
				union.ClassIDs = append(union.ClassIDs, id)
			}
		}
		for _, rt := range t.RDFTypes {
			if !seenRDF[rt] {
				seenRDF[rt] = true
				union.RDFTypes = append(union.RDFTypes, rt)
			}
		}
		for _, rt := range t.ClassRDFTypes {
			if !seenClassRDF[rt] {
				seenClassRDF[rt] = true
				union.ClassRDFTypes = append(union.ClassRDFTypes, rt)
			}
		}
		for _, a := range t.Attributes {
			if !seenAttr[a.ID] {
				seenAttr[a.ID] = true
				union.Attributes = append(union.Attributes, a)
			}
		}
	}
	return union, true
}

// candidates returns the distinct types marked by rdfTypes, ordered by root
// class id.
func (p *Profile) candidates(rdfTypes []string) []*Type {
	seen := make(map[string]bool)
	var result []*Type
	for _, rt := range rdfTypes {
		t, ok := p.byRDFType[rt]
		if !ok || seen[t.RootClassID] {
			continue
		}
		seen[t.RootClassID] = true
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].RootClassID < result[j].RootClassID })
	return result
}

func coverage(t *Type, candidates []*Type) int {
	n := 0
	for _, c := range candidates {
		if t.HasClass(c.RootClassID) {
			n++
		}
	}
	return n
}
