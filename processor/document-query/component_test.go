package documentquery

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/c360studio/semstreams/component"

	"github.com/c360studio/semcube/storage"
)

// fakeReader serves documents from a map keyed by index then URI.
type fakeReader struct {
	docs map[string]map[string][]byte
	err  error
}

func (f *fakeReader) Get(_ context.Context, index, uri string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	doc, ok := f.docs[index][uri]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return doc, nil
}

func (f *fakeReader) URIs(_ context.Context, index string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	var uris []string
	for _, uri := range []string{"http://example.org/P1", "http://example.org/P2", "http://example.org/P3"} {
		if _, ok := f.docs[index][uri]; ok {
			uris = append(uris, uri)
		}
	}
	return uris, nil
}

func newTestComponent(t *testing.T, rawConfig string, reader DocumentReader) *Component {
	t.Helper()
	comp, err := NewComponent(json.RawMessage(rawConfig), component.Dependencies{Logger: slog.Default()})
	if err != nil {
		t.Fatalf("NewComponent() error = %v", err)
	}
	c := comp.(*Component)
	c.reader = reader
	return c
}

func peopleReader() *fakeReader {
	return &fakeReader{docs: map[string]map[string][]byte{
		"people": {
			"http://example.org/P1": []byte(`{"data":{"uri":"http://example.org/P1"},"included":[]}`),
			"http://example.org/P2": []byte(`{"data":{"uri":"http://example.org/P2"},"included":[]}`),
			"http://example.org/P3": []byte(`{"data":{"uri":"http://example.org/P3"},"included":[]}`),
		},
	}}
}

func ask(t *testing.T, c *Component, req string) *Response {
	t.Helper()
	data, err := c.handleRequest(context.Background(), []byte(req))
	if err != nil {
		t.Fatalf("handleRequest() error = %v", err)
	}
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	return &resp
}

func TestNewComponent(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		wantErr bool
	}{
		{name: "empty config uses defaults", config: `{}`},
		{name: "custom limit", config: `{"max_results": 5}`},
		{name: "negative limit", config: `{"max_results": -1}`, wantErr: true},
		{name: "invalid json", config: `{`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewComponent(json.RawMessage(tt.config), component.Dependencies{Logger: slog.Default()})
			if (err != nil) != tt.wantErr {
				t.Errorf("NewComponent() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewComponent_Defaults(t *testing.T) {
	c := newTestComponent(t, `{}`, nil)
	if c.config.MaxResults != 1000 {
		t.Errorf("MaxResults = %d, want 1000", c.config.MaxResults)
	}
	if c.requestSubject != "index.query" {
		t.Errorf("requestSubject = %q, want index.query", c.requestSubject)
	}
}

func TestHandleRequest_Document(t *testing.T) {
	c := newTestComponent(t, `{}`, peopleReader())

	resp := ask(t, c, `{"request_id":"r1","type":"document","index":"people","uri":"http://example.org/P2"}`)
	if !resp.Success {
		t.Fatalf("Success = false, error = %q", resp.Error)
	}
	if resp.RequestID != "r1" {
		t.Errorf("RequestID = %q, want r1", resp.RequestID)
	}
	if resp.TotalCount != 1 {
		t.Errorf("TotalCount = %d, want 1", resp.TotalCount)
	}

	var doc struct {
		Data struct {
			URI string `json:"uri"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Document, &doc); err != nil {
		t.Fatalf("unmarshal document: %v", err)
	}
	if doc.Data.URI != "http://example.org/P2" {
		t.Errorf("document uri = %q", doc.Data.URI)
	}
}

func TestHandleRequest_DocumentNotFound(t *testing.T) {
	c := newTestComponent(t, `{}`, peopleReader())

	resp := ask(t, c, `{"type":"document","index":"people","uri":"http://example.org/nobody"}`)
	if resp.Success {
		t.Fatal("Success = true for a missing document")
	}
	if resp.Error != "document not found" {
		t.Errorf("Error = %q", resp.Error)
	}
	if c.requestsFailed.Load() != 1 {
		t.Errorf("requestsFailed = %d, want 1", c.requestsFailed.Load())
	}
}

func TestHandleRequest_List(t *testing.T) {
	c := newTestComponent(t, `{"max_results": 2}`, peopleReader())

	resp := ask(t, c, `{"type":"list","index":"people"}`)
	if !resp.Success {
		t.Fatalf("Success = false, error = %q", resp.Error)
	}
	if resp.TotalCount != 3 {
		t.Errorf("TotalCount = %d, want 3", resp.TotalCount)
	}
	want := []string{"http://example.org/P1", "http://example.org/P2"}
	if len(resp.URIs) != len(want) || resp.URIs[0] != want[0] || resp.URIs[1] != want[1] {
		t.Errorf("URIs = %v, want %v", resp.URIs, want)
	}

	resp = ask(t, c, `{"type":"list","index":"people","max_results":1}`)
	if len(resp.URIs) != 1 {
		t.Errorf("URIs = %v, want one entry", resp.URIs)
	}
}

func TestHandleRequest_Invalid(t *testing.T) {
	c := newTestComponent(t, `{}`, peopleReader())

	tests := []struct {
		name string
		req  string
	}{
		{name: "not json", req: `nope`},
		{name: "unknown type", req: `{"type":"search","index":"people"}`},
		{name: "missing index", req: `{"type":"list"}`},
		{name: "document without uri", req: `{"type":"document","index":"people"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ask(t, c, tt.req)
			if resp.Success {
				t.Error("Success = true for an invalid request")
			}
			if resp.Error == "" {
				t.Error("Error is empty")
			}
		})
	}
}

func TestHandleRequest_ReaderError(t *testing.T) {
	c := newTestComponent(t, `{}`, &fakeReader{err: errors.New("kv unavailable")})

	resp := ask(t, c, `{"type":"list","index":"people"}`)
	if resp.Success || resp.Error != "kv unavailable" {
		t.Errorf("response = %+v, want kv unavailable error", resp)
	}
}

func TestHandleRequest_Cancelled(t *testing.T) {
	c := newTestComponent(t, `{}`, peopleReader())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.handleRequest(ctx, []byte(`{"type":"list","index":"people"}`)); !errors.Is(err, context.Canceled) {
		t.Errorf("handleRequest() error = %v, want context.Canceled", err)
	}
}

func TestLifecycle(t *testing.T) {
	c := newTestComponent(t, `{}`, peopleReader())

	if err := c.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if err := c.Start(context.Background()); err == nil {
		t.Error("Start() without NATS client should fail")
	}
	if c.Health().Healthy {
		t.Error("Health().Healthy = true before start")
	}
	if err := c.Stop(0); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if got := c.Meta().Name; got != "document-query" {
		t.Errorf("Meta().Name = %q", got)
	}
	if ports := c.InputPorts(); len(ports) != 1 || ports[0].Name != "query_requests" {
		t.Errorf("InputPorts() = %+v", ports)
	}
	if ports := c.OutputPorts(); len(ports) != 0 {
		t.Errorf("OutputPorts() = %+v, want none", ports)
	}
}

type fakeRegistry struct {
	registered []component.RegistrationConfig
}

func (f *fakeRegistry) RegisterWithConfig(cfg component.RegistrationConfig) error {
	f.registered = append(f.registered, cfg)
	return nil
}

func TestRegister(t *testing.T) {
	if err := Register(nil); err == nil {
		t.Error("Register(nil) should fail")
	}

	reg := &fakeRegistry{}
	if err := Register(reg); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if len(reg.registered) != 1 || reg.registered[0].Name != "document-query" {
		t.Errorf("registered = %+v", reg.registered)
	}
}
