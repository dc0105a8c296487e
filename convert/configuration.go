package convert

import (
	"fmt"
	"strings"
)

// JSONRootType controls the "rootType" field of projected nodes.
type JSONRootType string

const (
	// RootTypeEnabled emits the type's root class id as "rootType".
	RootTypeEnabled JSONRootType = "enabled"
	// RootTypeDisabled omits "rootType".
	RootTypeDisabled JSONRootType = "disabled"
)

// IsValid checks if the value is a known setting.
func (t JSONRootType) IsValid() bool {
	return t == RootTypeEnabled || t == RootTypeDisabled
}

// JSONType controls the "type" field of projected nodes.
type JSONType string

const (
	// TypeAll emits every class id of the type: a string when there is one,
	// an array otherwise.
	TypeAll JSONType = "all"
	// TypeRoot emits only the root class id.
	TypeRoot JSONType = "root"
	// TypeDisabled omits "type".
	TypeDisabled JSONType = "disabled"
)

// IsValid checks if the value is a known setting.
func (t JSONType) IsValid() bool {
	switch t {
	case TypeAll, TypeRoot, TypeDisabled:
		return true
	}
	return false
}

// ModelType selects how a node's rdf:type set resolves to a schema type.
type ModelType string

const (
	// ModelAll unions every matching type.
	ModelAll ModelType = "all"
	// ModelProfile picks the best matching type.
	ModelProfile ModelType = "profile"
	// ModelRoot requires exactly one rdf:type that names a type directly.
	ModelRoot ModelType = "root"
)

// IsValid checks if the value is a known setting.
func (t ModelType) IsValid() bool {
	switch t {
	case ModelAll, ModelProfile, ModelRoot:
		return true
	}
	return false
}

// DanglingPolicy decides what happens when a reference points at a node
// that has no resolvable type.
type DanglingPolicy string

const (
	// DanglingFail aborts the projection.
	DanglingFail DanglingPolicy = "fail"
	// DanglingOmit keeps the reference id and leaves the node out of
	// "included".
	DanglingOmit DanglingPolicy = "omit"
)

// IsValid checks if the value is a known policy. The empty policy means
// DanglingFail.
func (p DanglingPolicy) IsValid() bool {
	switch p {
	case "", DanglingFail, DanglingOmit:
		return true
	}
	return false
}

// Configuration controls the shape of projected documents.
type Configuration struct {
	JSONRootType JSONRootType `yaml:"json_root_type" json:"json_root_type"`
	JSONType     JSONType     `yaml:"json_type" json:"json_type"`
	ModelType    ModelType    `yaml:"model_type" json:"model_type"`

	// IgnoredProperties are attribute ids that are never read.
	IgnoredProperties []string `yaml:"ignored_properties,omitempty" json:"ignored_properties,omitempty"`

	// InverseAttributes enables attributes read with the node as object.
	// When disabled such attributes are logged and skipped.
	InverseAttributes bool `yaml:"inverse_attributes" json:"inverse_attributes"`

	// LogIssues reports unreached typed nodes and unconsumed facts after
	// each projection.
	LogIssues bool `yaml:"log_issues" json:"log_issues"`

	DanglingReferences DanglingPolicy `yaml:"dangling_references,omitempty" json:"dangling_references,omitempty"`
}

// DefaultConfiguration returns the configuration used when none is given:
// all class ids in "type", no "rootType", union type resolution.
func DefaultConfiguration() Configuration {
	return Configuration{
		JSONRootType:       RootTypeDisabled,
		JSONType:           TypeAll,
		ModelType:          ModelAll,
		DanglingReferences: DanglingFail,
	}
}

// Validate checks that every setting is known and that at least one of
// "rootType" and "type" is emitted.
func (c Configuration) Validate() error {
	var missing []string
	if c.JSONRootType == "" {
		missing = append(missing, "json_root_type")
	}
	if c.JSONType == "" {
		missing = append(missing, "json_type")
	}
	if c.ModelType == "" {
		missing = append(missing, "model_type")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: please configure %s", ErrInvalidConfiguration, strings.Join(missing, ", "))
	}

	if !c.JSONRootType.IsValid() {
		return fmt.Errorf("%w: unknown json_root_type %q", ErrInvalidConfiguration, c.JSONRootType)
	}
	if !c.JSONType.IsValid() {
		return fmt.Errorf("%w: unknown json_type %q", ErrInvalidConfiguration, c.JSONType)
	}
	if !c.ModelType.IsValid() {
		return fmt.Errorf("%w: unknown model_type %q", ErrInvalidConfiguration, c.ModelType)
	}
	if !c.DanglingReferences.IsValid() {
		return fmt.Errorf("%w: unknown dangling_references %q", ErrInvalidConfiguration, c.DanglingReferences)
	}

	if c.JSONRootType == RootTypeDisabled && c.JSONType == TypeDisabled {
		return fmt.Errorf("%w: enable at least one of json_root_type or json_type", ErrInvalidConfiguration)
	}
	return nil
}

// IsIgnored reports whether attribute id is in IgnoredProperties.
func (c Configuration) IsIgnored(attributeID string) bool {
	for _, id := range c.IgnoredProperties {
		if id == attributeID {
			return true
		}
	}
	return false
}
