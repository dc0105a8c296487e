package documentquery

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/message"
)

// QueryType selects what a request reads.
type QueryType string

const (
	// QueryDocument returns the document stored for one URI.
	QueryDocument QueryType = "document"

	// QueryList returns the URIs stored in an index.
	QueryList QueryType = "list"
)

// IsValid reports whether the query type is known.
func (t QueryType) IsValid() bool {
	return t == QueryDocument || t == QueryList
}

// Request is the request payload for document queries.
type Request struct {
	RequestID string    `json:"request_id,omitempty"`
	Type      QueryType `json:"type"`
	Index     string    `json:"index"`
	URI       string    `json:"uri,omitempty"`

	// MaxResults caps a list query; zero uses the component limit.
	MaxResults int `json:"max_results,omitempty"`
}

// Response is the reply payload for document queries.
type Response struct {
	RequestID  string          `json:"request_id,omitempty"`
	Success    bool            `json:"success"`
	Error      string          `json:"error,omitempty"`
	Document   json.RawMessage `json:"document,omitempty"`
	URIs       []string        `json:"uris,omitempty"`
	TotalCount int             `json:"total_count"`
	QueryTime  time.Duration   `json:"query_time"`
}

// NewResponse creates a successful empty response
func NewResponse(requestID string) *Response {
	return &Response{RequestID: requestID, Success: true}
}

// NewErrorResponse creates an error response
func NewErrorResponse(requestID, errorMsg string) *Response {
	return &Response{RequestID: requestID, Success: false, Error: errorMsg}
}

// Schema returns the message type for Request.
func (p *Request) Schema() message.Type {
	return RequestType
}

// Validate validates the Request.
func (p *Request) Validate() error {
	if !p.Type.IsValid() {
		return fmt.Errorf("unknown query type: %q", p.Type)
	}
	if p.Index == "" {
		return fmt.Errorf("index is required")
	}
	if p.Type == QueryDocument && p.URI == "" {
		return fmt.Errorf("uri is required for a document query")
	}
	if p.MaxResults < 0 {
		return fmt.Errorf("max_results must be non-negative")
	}
	return nil
}

// MarshalJSON marshals the Request to JSON.
func (p *Request) MarshalJSON() ([]byte, error) {
	type Alias Request
	return json.Marshal((*Alias)(p))
}

// UnmarshalJSON unmarshals the Request from JSON.
func (p *Request) UnmarshalJSON(data []byte) error {
	type Alias Request
	return json.Unmarshal(data, (*Alias)(p))
}

// Schema returns the message type for Response.
func (p *Response) Schema() message.Type {
	return ResponseType
}

// Validate validates the Response.
func (p *Response) Validate() error {
	return nil
}

// MarshalJSON marshals the Response to JSON.
func (p *Response) MarshalJSON() ([]byte, error) {
	type Alias Response
	return json.Marshal((*Alias)(p))
}

// UnmarshalJSON unmarshals the Response from JSON.
func (p *Response) UnmarshalJSON(data []byte) error {
	type Alias Response
	return json.Unmarshal(data, (*Alias)(p))
}

// RequestType is the message type for document query requests.
var RequestType = message.Type{
	Domain:   "index",
	Category: "query.request",
	Version:  "v1",
}

// ResponseType is the message type for document query responses.
var ResponseType = message.Type{
	Domain:   "index",
	Category: "query.response",
	Version:  "v1",
}

func init() {
	if err := component.RegisterPayload(&component.PayloadRegistration{
		Domain:      "index",
		Category:    "query.request",
		Version:     "v1",
		Description: "Indexed document query request",
		Factory:     func() any { return &Request{} },
	}); err != nil {
		log.Printf("ERROR: failed to register Request: %v", err)
	}

	if err := component.RegisterPayload(&component.PayloadRegistration{
		Domain:      "index",
		Category:    "query.response",
		Version:     "v1",
		Description: "Indexed document query response",
		Factory:     func() any { return &Response{} },
	}); err != nil {
		log.Printf("ERROR: failed to register Response: %v", err)
	}
}
