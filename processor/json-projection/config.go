package jsonprojection

import (
	"fmt"
	"reflect"

	"github.com/c360studio/semstreams/component"

	"github.com/c360studio/semcube/convert"
)

// jsonProjectionSchema defines the configuration schema.
var jsonProjectionSchema = component.GenerateConfigSchema(reflect.TypeOf(Config{}))

// Config holds configuration for the json-projection output component.
type Config struct {
	Ports      *component.PortConfig `json:"ports" schema:"type:ports,description:Port configuration,category:basic"`
	Profile    string                `json:"profile" schema:"type:string,description:Path to the schema profile YAML,category:basic"`
	Conversion convert.Configuration `json:"conversion" schema:"type:object,description:Projection settings (json_root_type/json_type/model_type),category:basic"`
	Accumulate bool                  `json:"accumulate" schema:"type:bool,description:Keep ingested entities so references resolve across messages,category:advanced,default:true"`

	// MaxEntities bounds the accumulated entities. The least recently
	// updated entity is evicted first; 0 keeps every entity. Each message
	// projects over all kept entities, so its cost grows with this bound.
	MaxEntities int `json:"max_entities" schema:"type:int,description:Most recently updated entities kept for reference resolution (0 keeps all),category:advanced,default:10000"`
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Profile == "" {
		return fmt.Errorf("profile is required")
	}
	if err := c.Conversion.Validate(); err != nil {
		return err
	}
	if c.MaxEntities < 0 {
		return fmt.Errorf("max_entities must be non-negative, got %d", c.MaxEntities)
	}
	return nil
}

// DefaultConfig returns the default configuration for json-projection.
func DefaultConfig() Config {
	return Config{
		Ports: &component.PortConfig{
			Inputs: []component.PortDefinition{
				{
					Name:        "entities_in",
					Type:        "jetstream",
					Subject:     "graph.ingest.entity",
					StreamName:  "GRAPH",
					Required:    true,
					Description: "Entity ingest messages from the graph pipeline",
				},
			},
			Outputs: []component.PortDefinition{
				{
					Name:        "json_out",
					Type:        "jetstream",
					Subject:     "graph.export.json",
					Required:    true,
					Description: "Projected JSON documents for downstream consumers",
				},
			},
		},
		Conversion:  convert.DefaultConfiguration(),
		Accumulate:  true,
		MaxEntities: 10000,
	}
}
