package convert

import (
	"github.com/c360studio/semcube/graph"
	"github.com/c360studio/semcube/profile"
	"github.com/c360studio/semcube/vocabulary/rdf"
)

// Schema resolves rdf:type identifiers to schema types. *profile.Profile
// implements it.
type Schema interface {
	TypeFromRDFType(rdfType string) (*profile.Type, bool)
	BestMatchingType(rdfTypes []string) (*profile.Type, bool)
	UnionType(rdfTypes []string) (*profile.Type, bool)
}

var _ Schema = (*profile.Profile)(nil)

// TypeMap holds the resolved type of every typed node of a graph. It is
// computed once per projection and not modified afterwards.
type TypeMap struct {
	types map[string]*profile.Type
	nodes []graph.Term
}

// Lookup returns the type of node.
func (m *TypeMap) Lookup(node graph.Term) (*profile.Type, bool) {
	t, ok := m.types[node.Key()]
	return t, ok
}

// Nodes returns the typed nodes in canonical order.
func (m *TypeMap) Nodes() []graph.Term {
	return m.nodes
}

// Len returns the number of typed nodes.
func (m *TypeMap) Len() int {
	return len(m.nodes)
}

// ResolveTypes scans every rdf:type fact of g and resolves each typed node
// under policy. Nodes whose identifiers match no type are left out, except
// under ModelRoot where they fail the whole resolution.
func ResolveTypes(g *graph.Graph, policy ModelType, schema Schema) (*TypeMap, error) {
	var (
		order   []graph.Term
		rdfSets = make(map[string][]string)
	)
	for _, f := range g.Find(nil, rdf.Type, nil) {
		iri, ok := f.O.(graph.IRI)
		if !ok {
			continue
		}
		key := f.S.Key()
		if _, seen := rdfSets[key]; !seen {
			order = append(order, f.S)
		}
		rdfSets[key] = append(rdfSets[key], iri.Value)
	}
	sortTerms(order)

	m := &TypeMap{types: make(map[string]*profile.Type, len(order))}
	for _, node := range order {
		rdfTypes := rdfSets[node.Key()]
		t, err := resolveOne(node, rdfTypes, policy, schema)
		if err != nil {
			return nil, err
		}
		if t == nil {
			continue
		}
		m.types[node.Key()] = t
		m.nodes = append(m.nodes, node)
	}
	return m, nil
}

func resolveOne(node graph.Term, rdfTypes []string, policy ModelType, schema Schema) (*profile.Type, error) {
	switch policy {
	case ModelRoot:
		if len(rdfTypes) != 1 {
			return nil, &ProjectionError{Err: ErrAmbiguousType, Node: node.String(), Values: rdfTypes}
		}
		t, ok := schema.TypeFromRDFType(rdfTypes[0])
		if !ok {
			return nil, &ProjectionError{Err: ErrUnresolvedType, Node: node.String(), Values: rdfTypes}
		}
		return t, nil
	case ModelProfile:
		t, _ := schema.BestMatchingType(rdfTypes)
		return t, nil
	case ModelAll:
		t, _ := schema.UnionType(rdfTypes)
		return t, nil
	default:
		return nil, &ProjectionError{Err: ErrInvalidConfiguration, Detail: "unknown model_type " + string(policy)}
	}
}
