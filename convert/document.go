package convert

import (
	"bytes"
	"encoding/json"
)

// Document is the result of a projection: the start node under "data" and
// every other reached node, each once, under "included".
type Document struct {
	Data     *Instance   `json:"data"`
	Included []*Instance `json:"included"`
}

// Instance is one projected node.
type Instance struct {
	URI string `json:"uri"`

	// Type is a string, or a []string when the type has several class ids
	// and every class id is emitted.
	Type     any    `json:"type,omitempty"`
	RootType string `json:"rootType,omitempty"`

	// References maps attribute ids to a referenced URI or a []string of
	// them.
	References map[string]any `json:"references,omitempty"`

	// Attributes maps attribute ids to values keyed by type tag.
	Attributes map[string]map[string]any `json:"attributes,omitempty"`
}

// Marshal encodes the document as compact JSON. Object keys are sorted, so
// equal documents always encode to equal bytes.
func (d *Document) Marshal() ([]byte, error) {
	data, err := d.encode("")
	if err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(data, []byte("\n")), nil
}

// MarshalIndent encodes the document as indented JSON.
func (d *Document) MarshalIndent() ([]byte, error) {
	return d.encode("  ")
}

// encode writes URIs verbatim; &, < and > are not escaped.
func (d *Document) encode(indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Find returns the projected node with the given URI from data or included.
func (d *Document) Find(uri string) (*Instance, bool) {
	if d.Data != nil && d.Data.URI == uri {
		return d.Data, true
	}
	for _, inst := range d.Included {
		if inst.URI == uri {
			return inst, true
		}
	}
	return nil, false
}

func (i *Instance) reference(attributeID string, value any) {
	if i.References == nil {
		i.References = make(map[string]any)
	}
	i.References[attributeID] = value
}

// attribute returns the tag map of an attribute, creating it on first use.
func (i *Instance) attribute(attributeID string) map[string]any {
	if i.Attributes == nil {
		i.Attributes = make(map[string]map[string]any)
	}
	m, ok := i.Attributes[attributeID]
	if !ok {
		m = make(map[string]any)
		i.Attributes[attributeID] = m
	}
	return m
}
