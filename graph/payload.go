package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/message"
)

func init() {
	err := component.RegisterPayload(&component.PayloadRegistration{
		Domain:      "graph",
		Category:    "entity",
		Version:     "v1",
		Description: "Facts of one graph node, keyed by its subject IRI",
		Factory:     func() any { return &EntityPayload{} },
	})
	if err != nil {
		panic("failed to register EntityPayload: " + err.Error())
	}
}

// EntityType is the message type for graph entity payloads.
var EntityType = message.Type{Domain: "graph", Category: "entity", Version: "v1"}

// EntityPayload carries the outgoing facts of one subject on the graph
// ingest stream. It satisfies message.Payload and the semstreams Graphable
// interface, so any graph processor can consume it.
type EntityPayload struct {
	EntityID_  string           `json:"id"`
	TripleData []message.Triple `json:"triples"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// NewEntityPayload returns the payload for subject holding every fact of g
// whose subject it is.
func NewEntityPayload(g *Graph, subject, source string, now time.Time) *EntityPayload {
	return &EntityPayload{
		EntityID_:  subject,
		TripleData: ToMessageTriples(New(g.Find(NewIRI(subject), "", nil)...), source, now),
		UpdatedAt:  now,
	}
}

// EntityID returns the subject IRI of the entity.
func (e *EntityPayload) EntityID() string { return e.EntityID_ }

// Triples returns the entity's facts as semstreams triples.
func (e *EntityPayload) Triples() []message.Triple { return e.TripleData }

// Schema returns the message type of the payload.
func (e *EntityPayload) Schema() message.Type { return EntityType }

// Graph returns the payload's triples as a fact graph.
func (e *EntityPayload) Graph() *Graph {
	return FromMessageTriples(e.TripleData)
}

// Validate requires an entity ID and complete triples about that entity.
func (e *EntityPayload) Validate() error {
	if e.EntityID_ == "" {
		return errors.New("entity ID is required")
	}
	for i, t := range e.TripleData {
		if t.Subject == "" || t.Predicate == "" {
			return fmt.Errorf("triple %d: subject and predicate are required", i)
		}
		if t.Subject != e.EntityID_ {
			return fmt.Errorf("triple %d: subject %q is not entity %q", i, t.Subject, e.EntityID_)
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (e *EntityPayload) MarshalJSON() ([]byte, error) {
	type Alias EntityPayload
	return json.Marshal((*Alias)(e))
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *EntityPayload) UnmarshalJSON(data []byte) error {
	type Alias EntityPayload
	return json.Unmarshal(data, (*Alias)(e))
}
