package convert

import (
	"errors"
	"strings"

	"github.com/c360studio/semcube/graph"
	"github.com/c360studio/semcube/profile"
)

// values returns the nodes an attribute reaches from node, in canonical
// order, and marks every matched fact consumed. Inverse attributes read the
// facts with node as object and yield their subjects.
func (r *run) values(node graph.Term, attr profile.Attribute) []graph.Term {
	var facts []graph.Fact
	if attr.Inverse {
		facts = r.graph.Find(nil, attr.Predicate, node)
	} else {
		facts = r.graph.Find(node, attr.Predicate, nil)
	}

	result := make([]graph.Term, 0, len(facts))
	for _, f := range facts {
		r.consume(f)
		if attr.Inverse {
			result = append(result, f.S)
		} else {
			result = append(result, f.O)
		}
	}
	return result
}

// projectAttribute renders one attribute of node into inst and includes the
// nodes it references.
func (r *run) projectAttribute(node graph.Term, t *profile.Type, attr profile.Attribute, inst *Instance) error {
	values := r.values(node, attr)
	if len(values) == 0 {
		return nil
	}

	if attr.Inverse && !r.config.InverseAttributes {
		r.logger.Error("Inverse attributes disabled, skipping attribute",
			"uri", node.String(),
			"attribute", attr.ID,
			"values", termStrings(values))
		return nil
	}

	switch {
	case attr.IsReference():
		if err := addReferences(inst, attr, values); err != nil {
			return r.fail(err, node, t, attr, values)
		}
		for _, v := range values {
			if err := r.include(t, attr, v); err != nil {
				return err
			}
		}
		return nil
	case attr.IsData():
		if err := addAttributes(inst, attr, values); err != nil {
			return r.fail(err, node, t, attr, values)
		}
		return nil
	default:
		return r.fail(ErrAttributeKind, node, t, attr, nil)
	}
}

func addReferences(inst *Instance, attr profile.Attribute, values []graph.Term) error {
	uris := make([]string, 0, len(values))
	for _, v := range values {
		switch term := v.(type) {
		case graph.IRI:
			uris = append(uris, term.Value)
		case graph.BlankNode:
			return ErrBlankNode
		default:
			return ErrNotAResource
		}
	}

	if attr.IsList() {
		inst.reference(attr.ID, uris)
		return nil
	}
	if len(uris) != 1 {
		return ErrCardinality
	}
	inst.reference(attr.ID, uris[0])
	return nil
}

func addAttributes(inst *Instance, attr profile.Attribute, values []graph.Term) error {
	converted := make([]dataValue, 0, len(values))
	for _, v := range values {
		dv, err := toDataValue(v)
		if err != nil {
			return err
		}
		converted = append(converted, dv)
	}

	if attr.IsList() {
		addList(inst.attribute(attr.ID), converted)
		return nil
	}
	if len(converted) > 1 {
		return addLanguageGroup(inst, attr, converted)
	}

	dv := converted[0]
	if dv.kind == kindLangString {
		inst.attribute(attr.ID)[dv.tag] = map[string]string{dv.lang: dv.value.(string)}
		return nil
	}
	inst.attribute(attr.ID)[dv.tag] = dv.value
	return nil
}

// addLanguageGroup renders several values of a single attribute. They are
// only accepted as one text per language.
func addLanguageGroup(inst *Instance, attr profile.Attribute, values []dataValue) error {
	texts := make(map[string]string, len(values))
	for _, dv := range values {
		if dv.kind != kindLangString {
			return ErrCardinality
		}
		if _, dup := texts[dv.lang]; dup {
			return ErrDuplicateLanguage
		}
		texts[dv.lang] = dv.value.(string)
	}
	inst.attribute(attr.ID)[values[0].tag] = texts
	return nil
}

func addList(tagged map[string]any, values []dataValue) {
	for _, dv := range values {
		if dv.kind == kindLangString {
			texts, _ := tagged[dv.tag].(map[string][]string)
			if texts == nil {
				texts = make(map[string][]string)
				tagged[dv.tag] = texts
			}
			texts[dv.lang] = append(texts[dv.lang], dv.value.(string))
			continue
		}
		list, _ := tagged[dv.tag].([]any)
		tagged[dv.tag] = append(list, dv.value)
	}
}

// fail wraps a projection failure with the node, attribute and values
// involved.
func (r *run) fail(err error, node graph.Term, t *profile.Type, attr profile.Attribute, values []graph.Term) error {
	var pe *ProjectionError
	if errors.As(err, &pe) {
		return err
	}

	sentinel, detail := err, ""
	if inner := errors.Unwrap(err); inner != nil {
		sentinel, detail = inner, strings.TrimPrefix(err.Error(), inner.Error()+": ")
	}
	return &ProjectionError{
		Err:       sentinel,
		Detail:    detail,
		Node:      node.String(),
		Type:      t.RootClassID,
		Attribute: attr.ID,
		Values:    termStrings(values),
	}
}

func termStrings(terms []graph.Term) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = t.String()
	}
	return out
}
