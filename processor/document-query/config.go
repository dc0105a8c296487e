package documentquery

import (
	"fmt"
	"reflect"

	"github.com/c360studio/semstreams/component"
)

// documentQuerySchema defines the configuration schema.
var documentQuerySchema = component.GenerateConfigSchema(reflect.TypeOf(Config{}))

// Config holds configuration for the document-query processor.
type Config struct {
	Ports      *component.PortConfig `json:"ports" schema:"type:ports,description:Port configuration,category:basic"`
	MaxResults int                   `json:"max_results" schema:"type:int,description:Maximum URIs returned by a list query,category:advanced,default:1000"`
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.MaxResults < 0 {
		return fmt.Errorf("max_results must be non-negative")
	}
	return nil
}

// DefaultConfig returns the default configuration for document-query.
func DefaultConfig() Config {
	return Config{
		Ports: &component.PortConfig{
			Inputs: []component.PortDefinition{
				{
					Name:        "query_requests",
					Type:        "nats",
					Subject:     "index.query",
					Required:    true,
					Description: "Document query request/reply subject",
				},
			},
		},
		MaxResults: 1000,
	}
}
