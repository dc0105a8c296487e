package documentquery

import (
	"fmt"

	"github.com/c360studio/semstreams/component"
)

// RegistryInterface defines the minimal interface needed for registration.
type RegistryInterface interface {
	RegisterWithConfig(component.RegistrationConfig) error
}

// Register registers the document-query processor with the given registry.
func Register(registry RegistryInterface) error {
	if registry == nil {
		return fmt.Errorf("registry cannot be nil")
	}
	return registry.RegisterWithConfig(component.RegistrationConfig{
		Name:        "document-query",
		Factory:     NewComponent,
		Schema:      documentQuerySchema,
		Type:        "processor",
		Protocol:    "json",
		Domain:      "index",
		Description: "Request/reply service reading indexed JSON documents",
		Version:     "1.0.0",
	})
}
