package jsonprojection

import (
	"fmt"

	"github.com/c360studio/semstreams/component"
)

// RegistryInterface defines the minimal interface needed for registration.
type RegistryInterface interface {
	RegisterWithConfig(component.RegistrationConfig) error
}

// Register registers the json-projection output component with the given registry.
func Register(registry RegistryInterface) error {
	if registry == nil {
		return fmt.Errorf("registry cannot be nil")
	}
	return registry.RegisterWithConfig(component.RegistrationConfig{
		Name:        "json-projection",
		Factory:     NewComponent,
		Schema:      jsonProjectionSchema,
		Type:        "output",
		Protocol:    "json",
		Domain:      "graph",
		Description: "Projects graph entities into typed JSON documents",
		Version:     "1.0.0",
	})
}
