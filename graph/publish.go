package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/c360studio/semstreams/message"
	"github.com/c360studio/semstreams/natsclient"
)

// GraphIngestSubject is the subject entities are ingested on.
const GraphIngestSubject = "graph.ingest.entity"

// Publisher is the part of the NATS client used to publish entities.
type Publisher interface {
	PublishToStream(ctx context.Context, subject string, data []byte) error
}

var _ Publisher = (*natsclient.Client)(nil)

// EntityPayloads returns one payload per subject IRI of g, in subject
// order. Facts with blank-node subjects are dropped.
func EntityPayloads(g *Graph, source string, now time.Time) []*EntityPayload {
	var payloads []*EntityPayload
	seen := make(map[string]bool)
	for _, f := range g.Facts() {
		subject, ok := f.S.(IRI)
		if !ok || seen[subject.Value] {
			continue
		}
		seen[subject.Value] = true
		payloads = append(payloads, NewEntityPayload(g, subject.Value, source, now))
	}
	return payloads
}

// PublishGraph publishes every entity of g to the graph ingest stream and
// returns the number of entities sent.
func PublishGraph(ctx context.Context, pub Publisher, g *Graph, source string) (int, error) {
	if pub == nil {
		return 0, nil // no NATS client, nothing to do
	}

	sent := 0
	for _, payload := range EntityPayloads(g, source, time.Now()) {
		if err := PublishEntity(ctx, pub, payload); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

// PublishEntity publishes a single entity payload wrapped in a BaseMessage.
func PublishEntity(ctx context.Context, pub Publisher, payload *EntityPayload) error {
	if err := payload.Validate(); err != nil {
		return fmt.Errorf("invalid entity %q: %w", payload.EntityID_, err)
	}

	msg := message.NewBaseMessage(EntityType, payload, source(payload))
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal entity %s: %w", payload.EntityID_, err)
	}

	if err := pub.PublishToStream(ctx, GraphIngestSubject, data); err != nil {
		return fmt.Errorf("publish entity %s: %w", payload.EntityID_, err)
	}
	return nil
}

func source(payload *EntityPayload) string {
	if len(payload.TripleData) > 0 && payload.TripleData[0].Source != "" {
		return payload.TripleData[0].Source
	}
	return "semcube"
}
