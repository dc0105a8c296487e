// Package graph provides the in-memory fact graph read by the projection
// engine.
//
// A Graph keeps three ordered indexes over its facts (subject-predicate-object,
// predicate-object-subject and object-subject-predicate) so that every lookup
// is a range scan and every result comes back in a canonical, repeatable order.
// Iteration order never depends on insertion order, which is what makes
// projections of the same graph byte-identical across runs.
//
// A Graph is safe for concurrent readers. Writers must be synchronised
// externally, typically through the store package's transactions.
package graph

import (
	"github.com/tidwall/btree"

	"github.com/c360studio/semcube/vocabulary/rdf"
)

// entry is an indexed fact with its term keys precomputed.
type entry struct {
	s, p, o string
	fact    Fact
}

func newEntry(f Fact) entry {
	return entry{s: f.S.Key(), p: f.P.Key(), o: f.O.Key(), fact: f}
}

func spoLess(a, b entry) bool {
	if a.s != b.s {
		return a.s < b.s
	}
	if a.p != b.p {
		return a.p < b.p
	}
	return a.o < b.o
}

func posLess(a, b entry) bool {
	if a.p != b.p {
		return a.p < b.p
	}
	if a.o != b.o {
		return a.o < b.o
	}
	return a.s < b.s
}

func ospLess(a, b entry) bool {
	if a.o != b.o {
		return a.o < b.o
	}
	if a.s != b.s {
		return a.s < b.s
	}
	return a.p < b.p
}

// Graph is an unordered set of facts with ordered indexes.
type Graph struct {
	spo *btree.BTreeG[entry]
	pos *btree.BTreeG[entry]
	osp *btree.BTreeG[entry]
}

// New returns an empty graph holding facts.
func New(facts ...Fact) *Graph {
	g := &Graph{
		spo: btree.NewBTreeG[entry](spoLess),
		pos: btree.NewBTreeG[entry](posLess),
		osp: btree.NewBTreeG[entry](ospLess),
	}
	g.Add(facts...)
	return g
}

// Add inserts facts. Adding a fact that is already present is a no-op.
func (g *Graph) Add(facts ...Fact) {
	for _, f := range facts {
		e := newEntry(f)
		g.spo.Set(e)
		g.pos.Set(e)
		g.osp.Set(e)
	}
}

// Remove deletes a fact and reports whether it was present.
func (g *Graph) Remove(f Fact) bool {
	e := newEntry(f)
	if _, ok := g.spo.Delete(e); !ok {
		return false
	}
	g.pos.Delete(e)
	g.osp.Delete(e)
	return true
}

// Contains reports whether the fact is present.
func (g *Graph) Contains(f Fact) bool {
	_, ok := g.spo.Get(newEntry(f))
	return ok
}

// Len returns the number of facts.
func (g *Graph) Len() int {
	return g.spo.Len()
}

// Facts returns every fact in subject-predicate-object order.
func (g *Graph) Facts() []Fact {
	facts := make([]Fact, 0, g.spo.Len())
	g.spo.Scan(func(e entry) bool {
		facts = append(facts, e.fact)
		return true
	})
	return facts
}

// Find returns the facts matching a pattern. A nil subject or object and an
// empty predicate are wildcards. Results are ordered by the index that serves
// the pattern, so the same pattern over the same graph always yields the same
// sequence.
func (g *Graph) Find(s Term, p string, o Term) []Fact {
	var (
		pivot entry
		tree  *btree.BTreeG[entry]
		match func(entry) bool
	)

	switch {
	case s != nil && p != "" && o != nil:
		if e, ok := g.spo.Get(newEntry(Fact{S: s, P: NewIRI(p), O: o})); ok {
			return []Fact{e.fact}
		}
		return nil
	case s != nil:
		pivot.s = s.Key()
		if p != "" {
			pivot.p = NewIRI(p).Key()
		}
		tree = g.spo
		if o != nil {
			// subject and object bound, predicate free
			pivot = entry{o: o.Key(), s: s.Key()}
			tree = g.osp
			match = func(e entry) bool { return e.o == pivot.o && e.s == pivot.s }
		} else if p != "" {
			match = func(e entry) bool { return e.s == pivot.s && e.p == pivot.p }
		} else {
			match = func(e entry) bool { return e.s == pivot.s }
		}
	case p != "":
		pivot.p = NewIRI(p).Key()
		tree = g.pos
		if o != nil {
			pivot.o = o.Key()
			match = func(e entry) bool { return e.p == pivot.p && e.o == pivot.o }
		} else {
			match = func(e entry) bool { return e.p == pivot.p }
		}
	case o != nil:
		pivot.o = o.Key()
		tree = g.osp
		match = func(e entry) bool { return e.o == pivot.o }
	default:
		return g.Facts()
	}

	var facts []Fact
	tree.Ascend(pivot, func(e entry) bool {
		if !match(e) {
			return false
		}
		facts = append(facts, e.fact)
		return true
	})
	return facts
}

// Subjects returns the distinct subjects of facts matching predicate p and
// object o, in canonical order.
func (g *Graph) Subjects(p string, o Term) []Term {
	var subjects []Term
	seen := make(map[string]bool)
	for _, f := range g.Find(nil, p, o) {
		key := f.S.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		subjects = append(subjects, f.S)
	}
	return subjects
}

// TypesOf returns the rdf:type IRIs asserted for subject.
func (g *Graph) TypesOf(subject Term) []string {
	var types []string
	for _, f := range g.Find(subject, rdf.Type, nil) {
		if iri, ok := f.O.(IRI); ok {
			types = append(types, iri.Value)
		}
	}
	return types
}

// Clone returns an independent copy of the graph. The copy shares structure
// with g until either side is modified.
func (g *Graph) Clone() *Graph {
	return &Graph{
		spo: g.spo.Copy(),
		pos: g.pos.Copy(),
		osp: g.osp.Copy(),
	}
}

// Merge adds every fact of other to g.
func (g *Graph) Merge(other *Graph) {
	if other == nil {
		return
	}
	other.spo.Scan(func(e entry) bool {
		g.spo.Set(e)
		g.pos.Set(e)
		g.osp.Set(e)
		return true
	})
}
