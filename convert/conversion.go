// Package convert projects a typed graph into a JSON document.
//
// A Converter resolves the type of every typed node in the graph, then walks
// from a start node through the reference attributes of its type. The start
// node becomes the document's "data"; every other node reached is projected
// once into "included", so cycles and shared references are safe.
//
// A projection either returns a complete document or fails with a
// *ProjectionError naming the offending node, attribute and values; there is
// no partial output.
package convert

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/c360studio/semcube/graph"
	"github.com/c360studio/semcube/metrics"
	"github.com/c360studio/semcube/profile"
	"github.com/c360studio/semcube/vocabulary/rdf"
)

// Converter projects graphs under one configuration and schema. It holds no
// per-projection state and is safe for concurrent use over graphs that are
// not being modified.
type Converter struct {
	config Configuration
	schema Schema
	logger *slog.Logger
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Converter) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New validates config and returns a Converter.
func New(config Configuration, schema Schema, opts ...Option) (*Converter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if schema == nil {
		return nil, fmt.Errorf("%w: schema is required", ErrInvalidConfiguration)
	}

	c := &Converter{
		config: config,
		schema: schema,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.config.IgnoredProperties = append([]string(nil), config.IgnoredProperties...)
	return c, nil
}

// Configuration returns the converter's configuration.
func (c *Converter) Configuration() Configuration {
	return c.config
}

// Convert projects g starting at the node with URI root.
func (c *Converter) Convert(g *graph.Graph, root string) (*Document, error) {
	doc, _, err := c.ConvertWithReport(g, root)
	return doc, err
}

// ConvertWithReport projects g like Convert. When diagnostics are enabled it
// also returns a report of typed nodes that were not reached and facts that
// were not consumed; otherwise the report is nil.
func (c *Converter) ConvertWithReport(g *graph.Graph, root string) (*Document, *Report, error) {
	start := time.Now()
	doc, report, err := c.convert(g, root)
	metrics.ProjectionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ProjectionsTotal.WithLabelValues(outcome(err)).Inc()
		return nil, nil, err
	}
	metrics.ProjectionsTotal.WithLabelValues("ok").Inc()
	metrics.IncludedNodes.Observe(float64(len(doc.Included)))
	return doc, report, nil
}

func (c *Converter) convert(g *graph.Graph, root string) (*Document, *Report, error) {
	types, err := ResolveTypes(g, c.config.ModelType, c.schema)
	if err != nil {
		return nil, nil, err
	}

	r := &run{
		Converter: c,
		graph:     g,
		types:     types,
		projected: make(map[string]bool),
		consumed:  make(map[string]bool),
		doc:       &Document{Included: []*Instance{}},
	}

	data, err := r.project(graph.NewIRI(root))
	if err != nil {
		return nil, nil, err
	}
	r.doc.Data = data

	if !c.config.LogIssues {
		return r.doc, nil, nil
	}
	report := r.report()
	report.Log(c.logger, root)
	metrics.UnprocessedFacts.Add(float64(len(report.UnprocessedFacts)))
	return r.doc, report, nil
}

// run is the state of one projection. It is never shared between
// projections.
type run struct {
	*Converter

	graph     *graph.Graph
	types     *TypeMap
	projected map[string]bool
	consumed  map[string]bool
	doc       *Document
}

// project renders node and, recursively, every node it references. It
// returns nil for a node that was already projected in this run.
func (r *run) project(node graph.Term) (*Instance, error) {
	if r.projected[node.Key()] {
		return nil, nil
	}

	t, ok := r.types.Lookup(node)
	if !ok {
		return nil, &ProjectionError{Err: ErrUnresolvedType, Node: node.String()}
	}
	r.logger.Debug("Projecting node", "uri", node.String(), "type", t.RootClassID)

	inst := &Instance{URI: node.String()}
	r.setType(inst, t)
	r.setRootType(inst, t)

	// Mark before attributes so references back to node end the walk.
	r.projected[node.Key()] = true
	for _, rt := range t.ClassRDFTypes {
		f := graph.NewFact(node, rdf.Type, graph.NewIRI(rt))
		if r.graph.Contains(f) {
			r.consume(f)
		}
	}

	for _, attr := range t.Attributes {
		if r.config.IsIgnored(attr.ID) {
			continue
		}
		if err := r.projectAttribute(node, t, attr, inst); err != nil {
			return nil, err
		}
	}
	return inst, nil
}

// include projects a referenced node into the document's included list.
func (r *run) include(t *profile.Type, attr profile.Attribute, value graph.Term) error {
	if _, typed := r.types.Lookup(value); !typed {
		r.logger.Error("Reference must point to a typed resource, found a plain resource",
			"type", t.RootClassID,
			"attribute", attr.ID,
			"value", value.String())
		if r.config.DanglingReferences == DanglingOmit {
			return nil
		}
		return &ProjectionError{
			Err:       ErrUnresolvedType,
			Detail:    "reference to untyped resource",
			Node:      value.String(),
			Type:      t.RootClassID,
			Attribute: attr.ID,
			Values:    []string{value.String()},
		}
	}

	linked, err := r.project(value)
	if err != nil {
		return err
	}
	if linked != nil {
		r.doc.Included = append(r.doc.Included, linked)
	}
	return nil
}

func (r *run) setType(inst *Instance, t *profile.Type) {
	switch r.config.JSONType {
	case TypeRoot:
		inst.Type = t.RootClassID
	case TypeAll:
		if len(t.ClassIDs) == 1 {
			inst.Type = t.ClassIDs[0]
			return
		}
		inst.Type = append([]string(nil), t.ClassIDs...)
	}
}

func (r *run) setRootType(inst *Instance, t *profile.Type) {
	if r.config.JSONRootType == RootTypeEnabled {
		inst.RootType = t.RootClassID
	}
}

func (r *run) consume(f graph.Fact) {
	r.consumed[f.Key()] = true
}

var outcomeLabels = []struct {
	err   error
	label string
}{
	{ErrUnresolvedType, "unresolved_type"},
	{ErrAmbiguousType, "ambiguous_type"},
	{ErrAttributeKind, "attribute_kind"},
	{ErrCardinality, "cardinality"},
	{ErrBlankNode, "blank_node"},
	{ErrNotAResource, "not_a_resource"},
	{ErrMissingDatatype, "missing_datatype"},
	{ErrDuplicateLanguage, "duplicate_language"},
	{ErrInvalidLexical, "invalid_lexical"},
}

func outcome(err error) string {
	for _, o := range outcomeLabels {
		if errors.Is(err, o.err) {
			return o.label
		}
	}
	return "error"
}
