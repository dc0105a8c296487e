// Package jsonprojection provides a streaming output component that
// subscribes to graph entity ingestion messages and projects each entity
// into a typed JSON document.
package jsonprojection

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
	ssgraph "github.com/c360studio/semstreams/graph"
	"github.com/c360studio/semstreams/message"
	"github.com/c360studio/semstreams/natsclient"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/tidwall/btree"

	"github.com/c360studio/semcube/convert"
	"github.com/c360studio/semcube/graph"
	"github.com/c360studio/semcube/profile"
	"github.com/c360studio/semcube/store"
)

// Component implements the json-projection output processor.
type Component struct {
	name       string
	config     Config
	natsClient *natsclient.Client
	logger     *slog.Logger

	converter *convert.Converter

	// Entities received so far, one named graph per entity ID.
	dataset *store.Dataset

	// Update order of the kept entities, oldest first.
	entitiesMu sync.Mutex
	updateSeq  uint64
	updated    btree.Map[uint64, string]
	lastUpdate map[string]uint64

	// Resolved subjects from port config
	inputSubject  string
	inputStream   string
	outputSubject string

	// Lifecycle
	running   bool
	startTime time.Time
	mu        sync.RWMutex
	cancel    context.CancelFunc

	// Metrics
	messagesProcessed atomic.Int64
	projectErrors     atomic.Int64
	publishErrors     atomic.Int64
	lastActivityMu    sync.RWMutex
	lastActivity      time.Time
}

// NewComponent creates a new json-projection output component.
func NewComponent(rawConfig json.RawMessage, deps component.Dependencies) (component.Discoverable, error) {
	config := DefaultConfig()
	if err := json.Unmarshal(rawConfig, &config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := deps.GetLogger()

	prof, err := profile.LoadFromFile(config.Profile)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	converter, err := convert.New(config.Conversion, prof, convert.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("create converter: %w", err)
	}

	// Resolve subjects from port definitions
	inputSubject := "graph.ingest.entity"
	inputStream := "GRAPH"
	outputSubject := "graph.export.json"

	if config.Ports != nil {
		if len(config.Ports.Inputs) > 0 {
			inputSubject = config.Ports.Inputs[0].Subject
			inputStream = config.Ports.Inputs[0].StreamName
		}
		if len(config.Ports.Outputs) > 0 {
			outputSubject = config.Ports.Outputs[0].Subject
		}
	}

	return &Component{
		name:          "json-projection",
		config:        config,
		natsClient:    deps.NATSClient,
		logger:        logger,
		converter:     converter,
		dataset:       store.NewDataset(logger),
		lastUpdate:    make(map[string]uint64),
		inputSubject:  inputSubject,
		inputStream:   inputStream,
		outputSubject: outputSubject,
	}, nil
}

// Initialize prepares the component.
func (c *Component) Initialize() error {
	return nil
}

// Start begins consuming entity ingest messages and producing JSON documents.
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

	// Set running state while holding lock to prevent race condition
	c.running = true
	c.startTime = time.Now()

	consumeCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	consumerCfg := natsclient.StreamConsumerConfig{
		StreamName:    c.inputStream,
		ConsumerName:  "json-projection",
		FilterSubject: c.inputSubject,
		DeliverPolicy: "new",
		AckPolicy:     "explicit",
		MaxDeliver:    3,
		AckWait:       10 * time.Second,
	}

	err := c.natsClient.ConsumeStreamWithConfig(consumeCtx, consumerCfg, c.handleMessage)
	if err != nil {
		// Rollback running state on failure
		c.mu.Lock()
		c.running = false
		c.cancel = nil
		c.mu.Unlock()
		cancel()
		return fmt.Errorf("start consumer: %w", err)
	}

	c.logger.Info("json-projection started",
		"profile", c.config.Profile,
		"model_type", c.config.Conversion.ModelType,
		"accumulate", c.config.Accumulate,
		"input", c.inputSubject,
		"output", c.outputSubject)

	return nil
}

// handleMessage processes a single entity ingest message.
func (c *Component) handleMessage(ctx context.Context, msg jetstream.Msg) {
	var baseMsg message.BaseMessage
	if err := json.Unmarshal(msg.Data(), &baseMsg); err != nil {
		c.logger.Warn("Failed to unmarshal base message",
			"error", err,
			"subject", msg.Subject())
		_ = msg.Nak()
		return
	}

	graphable, ok := baseMsg.Payload().(ssgraph.Graphable)
	if !ok {
		c.logger.Warn("Payload does not implement Graphable",
			"type", baseMsg.Type(),
			"subject", msg.Subject())
		_ = msg.Nak()
		return
	}

	entityID := graphable.EntityID()
	payload, err := c.project(ctx, entityID, graphable.Triples())
	if err != nil {
		c.logger.Warn("Failed to project entity",
			"entity_id", entityID,
			"error", err)
		c.projectErrors.Add(1)
		_ = msg.Nak()
		return
	}

	out := message.NewBaseMessage(ProjectionType, payload, c.name)
	data, err := json.Marshal(out)
	if err != nil {
		c.logger.Warn("Failed to marshal projection",
			"entity_id", entityID,
			"error", err)
		c.projectErrors.Add(1)
		_ = msg.Nak()
		return
	}

	js, err := c.natsClient.JetStream()
	if err != nil {
		c.logger.Warn("Failed to get JetStream for JSON output",
			"entity_id", entityID,
			"error", err)
		c.publishErrors.Add(1)
		_ = msg.Nak()
		return
	}
	if _, err := js.Publish(ctx, c.outputSubject, data); err != nil {
		c.logger.Warn("Failed to publish JSON output",
			"entity_id", entityID,
			"subject", c.outputSubject,
			"error", err)
		c.publishErrors.Add(1)
		_ = msg.Nak()
		return
	}

	_ = msg.Ack()
	c.messagesProcessed.Add(1)
	c.updateLastActivity()

	c.logger.Debug("Projected entity to JSON",
		"entity_id", entityID,
		"output_bytes", len(payload.Document))
}

// project stores the entity's facts and projects the entity as root. With
// accumulation enabled the projection sees every entity received so far.
func (c *Component) project(ctx context.Context, entityID string, triples []message.Triple) (*Payload, error) {
	g := graph.FromMessageTriples(triples)

	if !c.config.Accumulate {
		return c.projectGraph(g, entityID)
	}

	if err := c.keepEntity(ctx, entityID, g); err != nil {
		return nil, fmt.Errorf("store entity: %w", err)
	}

	var payload *Payload
	err := c.dataset.Read(ctx, func(_ context.Context, tx *store.Tx) error {
		var err error
		payload, err = c.projectGraph(tx.Union(), entityID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// keepEntity stores g as the entity's named graph and evicts the least
// recently updated entities beyond MaxEntities in the same transaction.
func (c *Component) keepEntity(ctx context.Context, entityID string, g *graph.Graph) error {
	c.entitiesMu.Lock()
	defer c.entitiesMu.Unlock()

	return c.dataset.Write(ctx, func(_ context.Context, tx *store.Tx) error {
		if err := tx.SetGraph(entityID, g); err != nil {
			return err
		}
		if seq, ok := c.lastUpdate[entityID]; ok {
			c.updated.Delete(seq)
		}
		c.updateSeq++
		c.updated.Set(c.updateSeq, entityID)
		c.lastUpdate[entityID] = c.updateSeq

		for c.config.MaxEntities > 0 && c.updated.Len() > c.config.MaxEntities {
			_, evicted, _ := c.updated.PopMin()
			delete(c.lastUpdate, evicted)
			if err := tx.RemoveGraph(evicted); err != nil && !errors.Is(err, store.ErrGraphNotFound) {
				return err
			}
			c.logger.Debug("Evicted entity from projection dataset", "entity_id", evicted)
		}
		return nil
	})
}

// entityCount returns the number of kept entities.
func (c *Component) entityCount() int {
	c.entitiesMu.Lock()
	defer c.entitiesMu.Unlock()
	return c.updated.Len()
}

func (c *Component) projectGraph(g *graph.Graph, entityID string) (*Payload, error) {
	doc, err := c.converter.Convert(g, entityID)
	if err != nil {
		return nil, err
	}
	data, err := doc.Marshal()
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return &Payload{EntityID: entityID, Document: data}, nil
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
	c.logger.Info("json-projection stopped",
		"messages_processed", c.messagesProcessed.Load(),
		"project_errors", c.projectErrors.Load(),
		"publish_errors", c.publishErrors.Load(),
		"entities_kept", c.entityCount())

	return nil
}

// Meta returns component metadata.
func (c *Component) Meta() component.Metadata {
	return component.Metadata{
		Name:        "json-projection",
		Type:        "output",
		Description: "Projects graph entities into typed JSON documents",
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
		ports[i] = buildPort(portDef, component.DirectionInput)
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
		ports[i] = buildPort(portDef, component.DirectionOutput)
	}
	return ports
}

// buildPort creates a component.Port from a PortDefinition, using JetStreamPort
// for jetstream-type ports and NATSPort for core NATS ports.
func buildPort(portDef component.PortDefinition, direction component.Direction) component.Port {
	port := component.Port{
		Name:        portDef.Name,
		Direction:   direction,
		Required:    portDef.Required,
		Description: portDef.Description,
	}
	if portDef.Type == "jetstream" {
		port.Config = component.JetStreamPort{
			StreamName: portDef.StreamName,
			Subjects:   []string{portDef.Subject},
		}
	} else {
		port.Config = component.NATSPort{
			Subject: portDef.Subject,
		}
	}
	return port
}

// ConfigSchema returns the configuration schema.
func (c *Component) ConfigSchema() component.ConfigSchema {
	return jsonProjectionSchema
}

// Health returns the current health status.
func (c *Component) Health() component.HealthStatus {
	c.mu.RLock()
	running := c.running
	startTime := c.startTime
	c.mu.RUnlock()

	errorCount := int(c.projectErrors.Load() + c.publishErrors.Load())

	status := "stopped"
	if running {
		status = "running"
	}

	return component.HealthStatus{
		Healthy:    running,
		LastCheck:  time.Now(),
		ErrorCount: errorCount,
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
