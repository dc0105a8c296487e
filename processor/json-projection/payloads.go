package jsonprojection

import (
	"encoding/json"
	"errors"

	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/message"
)

func init() {
	err := component.RegisterPayload(&component.PayloadRegistration{
		Domain:      "json",
		Category:    "projection",
		Version:     "v1",
		Description: "JSON document projected from a graph entity",
		Factory:     func() any { return &Payload{} },
	})
	if err != nil {
		panic("failed to register Payload: " + err.Error())
	}
}

// ProjectionType is the message type for projected documents.
var ProjectionType = message.Type{Domain: "json", Category: "projection", Version: "v1"}

// Payload carries the document projected for one entity.
type Payload struct {
	EntityID string          `json:"entity_id"`
	Document json.RawMessage `json:"document"`
}

// Schema returns the message type for Payload interface.
func (p *Payload) Schema() message.Type { return ProjectionType }

// Validate validates the payload for Payload interface.
func (p *Payload) Validate() error {
	if p.EntityID == "" {
		return errors.New("entity_id is required")
	}
	if len(p.Document) == 0 {
		return errors.New("document is required")
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (p *Payload) MarshalJSON() ([]byte, error) {
	type Alias Payload
	return json.Marshal((*Alias)(p))
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Payload) UnmarshalJSON(data []byte) error {
	type Alias Payload
	return json.Unmarshal(data, (*Alias)(p))
}
