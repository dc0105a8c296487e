// Package documentquery provides a request/reply service that reads JSON
// documents from the indexes filled by the index service.
package documentquery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/message"
	"github.com/c360studio/semstreams/natsclient"

	"github.com/c360studio/semcube/storage"
)

// DocumentReader reads stored documents.
type DocumentReader interface {
	Get(ctx context.Context, index, uri string) ([]byte, error)
	URIs(ctx context.Context, index string) ([]string, error)
}

var _ DocumentReader = (*storage.Store)(nil)

// Component implements the document-query processor.
type Component struct {
	name       string
	config     Config
	natsClient *natsclient.Client
	logger     *slog.Logger

	reader DocumentReader

	// Request subject
	requestSubject string

	// Lifecycle
	running   bool
	startTime time.Time
	mu        sync.RWMutex
	cancel    context.CancelFunc

	// Metrics
	requestsProcessed atomic.Int64
	requestsFailed    atomic.Int64
	lastActivityMu    sync.RWMutex
	lastActivity      time.Time
}

// NewComponent creates a new document-query processor.
func NewComponent(rawConfig json.RawMessage, deps component.Dependencies) (component.Discoverable, error) {
	var config Config
	if err := json.Unmarshal(rawConfig, &config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Apply defaults if not specified
	defaults := DefaultConfig()
	if config.Ports == nil {
		config.Ports = defaults.Ports
	}
	if config.MaxResults == 0 {
		config.MaxResults = defaults.MaxResults
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	requestSubject := "index.query"
	if config.Ports != nil && len(config.Ports.Inputs) > 0 {
		requestSubject = config.Ports.Inputs[0].Subject
	}

	return &Component{
		name:           "document-query",
		config:         config,
		natsClient:     deps.NATSClient,
		logger:         deps.GetLogger(),
		requestSubject: requestSubject,
	}, nil
}

// Initialize prepares the component.
func (c *Component) Initialize() error {
	c.logger.Debug("Initialized document-query", "request_subject", c.requestSubject)
	return nil
}

// Start begins handling query requests.
func (c *Component) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("component already running")
	}
	if c.natsClient == nil {
		c.mu.Unlock()
		return fmt.Errorf("NATS client required")
	}
	if c.reader == nil {
		js, err := c.natsClient.JetStream()
		if err != nil {
			c.mu.Unlock()
			return fmt.Errorf("get jetstream: %w", err)
		}
		c.reader = storage.NewStore(js)
	}

	c.running = true
	c.startTime = time.Now()

	subCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	if _, err := c.natsClient.SubscribeForRequests(subCtx, c.requestSubject, c.handleRequest); err != nil {
		c.mu.Lock()
		c.running = false
		c.cancel = nil
		c.mu.Unlock()
		cancel()
		return fmt.Errorf("subscribe to %s: %w", c.requestSubject, err)
	}

	c.logger.Info("document-query started", "subject", c.requestSubject)
	return nil
}

// handleRequest answers one query. Accepts both raw Request JSON and
// BaseMessage-wrapped requests.
func (c *Component) handleRequest(ctx context.Context, data []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.requestsProcessed.Add(1)
	c.updateLastActivity()

	req, err := parseRequest(data)
	if err != nil {
		c.requestsFailed.Add(1)
		return json.Marshal(NewErrorResponse("", err.Error()))
	}

	resp := c.execute(ctx, req)
	if !resp.Success {
		c.requestsFailed.Add(1)
	}
	return json.Marshal(resp)
}

func parseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil || req.Type == "" {
		var baseMsg message.BaseMessage
		if err := json.Unmarshal(data, &baseMsg); err != nil {
			return nil, fmt.Errorf("failed to parse request: %w", err)
		}
		payloadBytes, err := json.Marshal(baseMsg.Payload())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		req = Request{}
		if err := json.Unmarshal(payloadBytes, &req); err != nil {
			return nil, fmt.Errorf("failed to unmarshal request: %w", err)
		}
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}

func (c *Component) execute(ctx context.Context, req *Request) *Response {
	start := time.Now()

	var resp *Response
	switch req.Type {
	case QueryDocument:
		resp = c.queryDocument(ctx, req)
	case QueryList:
		resp = c.queryList(ctx, req)
	default:
		resp = NewErrorResponse(req.RequestID, fmt.Sprintf("unknown query type: %s", req.Type))
	}

	resp.QueryTime = time.Since(start)
	return resp
}

func (c *Component) queryDocument(ctx context.Context, req *Request) *Response {
	doc, err := c.reader.Get(ctx, req.Index, req.URI)
	if errors.Is(err, storage.ErrNotFound) {
		return NewErrorResponse(req.RequestID, "document not found")
	}
	if err != nil {
		c.logger.Warn("Document lookup failed", "index", req.Index, "uri", req.URI, "error", err)
		return NewErrorResponse(req.RequestID, err.Error())
	}

	resp := NewResponse(req.RequestID)
	resp.Document = doc
	resp.TotalCount = 1
	return resp
}

func (c *Component) queryList(ctx context.Context, req *Request) *Response {
	uris, err := c.reader.URIs(ctx, req.Index)
	if err != nil {
		c.logger.Warn("Listing documents failed", "index", req.Index, "error", err)
		return NewErrorResponse(req.RequestID, err.Error())
	}

	maxResults := req.MaxResults
	if maxResults <= 0 || maxResults > c.config.MaxResults {
		maxResults = c.config.MaxResults
	}

	resp := NewResponse(req.RequestID)
	resp.TotalCount = len(uris)
	if len(uris) > maxResults {
		uris = uris[:maxResults]
	}
	resp.URIs = uris
	return resp
}

// Stop gracefully stops the component.
func (c *Component) Stop(_ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil
	}

	if c.cancel != nil {
		c.cancel()
	}

	c.running = false
	c.logger.Info("document-query stopped",
		"requests_processed", c.requestsProcessed.Load(),
		"requests_failed", c.requestsFailed.Load())

	return nil
}

// Meta returns component metadata.
func (c *Component) Meta() component.Metadata {
	return component.Metadata{
		Name:        "document-query",
		Type:        "processor",
		Description: "Request/reply service reading indexed JSON documents",
		Version:     "1.0.0",
	}
}

// InputPorts returns configured input port definitions.
func (c *Component) InputPorts() []component.Port {
	if c.config.Ports == nil {
		return []component.Port{}
	}

	ports := make([]component.Port, len(c.config.Ports.Inputs))
	for i, portDef := range c.config.Ports.Inputs {
		ports[i] = component.Port{
			Name:        portDef.Name,
			Direction:   component.DirectionInput,
			Required:    portDef.Required,
			Description: portDef.Description,
			Config: component.NATSPort{
				Subject: portDef.Subject,
			},
		}
	}
	return ports
}

// OutputPorts returns configured output port definitions.
func (c *Component) OutputPorts() []component.Port {
	if c.config.Ports == nil {
		return []component.Port{}
	}

	ports := make([]component.Port, len(c.config.Ports.Outputs))
	for i, portDef := range c.config.Ports.Outputs {
		ports[i] = component.Port{
			Name:        portDef.Name,
			Direction:   component.DirectionOutput,
			Required:    portDef.Required,
			Description: portDef.Description,
			Config: component.NATSPort{
				Subject: portDef.Subject,
			},
		}
	}
	return ports
}

// ConfigSchema returns the configuration schema.
func (c *Component) ConfigSchema() component.ConfigSchema {
	return documentQuerySchema
}

// Health returns the current health status.
func (c *Component) Health() component.HealthStatus {
	c.mu.RLock()
	running := c.running
	startTime := c.startTime
	c.mu.RUnlock()

	status := "stopped"
	if running {
		status = "running"
	}

	return component.HealthStatus{
		Healthy:    running,
		LastCheck:  time.Now(),
		ErrorCount: int(c.requestsFailed.Load()),
		Uptime:     time.Since(startTime),
		Status:     status,
	}
}

// DataFlow returns current data flow metrics.
func (c *Component) DataFlow() component.FlowMetrics {
	return component.FlowMetrics{
		MessagesPerSecond: 0,
		BytesPerSecond:    0,
		ErrorRate:         0,
		LastActivity:      c.getLastActivity(),
	}
}

func (c *Component) updateLastActivity() {
	c.lastActivityMu.Lock()
	c.lastActivity = time.Now()
	c.lastActivityMu.Unlock()
}

func (c *Component) getLastActivity() time.Time {
	c.lastActivityMu.RLock()
	defer c.lastActivityMu.RUnlock()
	return c.lastActivity
}
