// Package manifest binds definitions described in a YAML file.
//
//	namespace: zoo
//	objects:
//	  greeting: hello
//	definitions:
//	  - id: logService
//	    class: LogService
//	    scope: singleton
//	    properties:
//	      Cat: cat             # by id
//	      Dog: "@Dog"          # by class
//	      Prefix: "$app.name"  # configuration value
//	  - id: clock
//	    provider: clock
//	    scope: prototype
package manifest

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Manifest is one parsed definitions file.
type Manifest struct {
	Namespace   string         `yaml:"namespace"`
	Objects     map[string]any `yaml:"objects"`
	Definitions []Entry        `yaml:"definitions"`

	// Path is the file the manifest was read from.
	Path string `yaml:"-"`
}

// Entry declares one definition. Exactly one of Class and Provider is set.
type Entry struct {
	ID             string       `yaml:"id"`
	Class          string       `yaml:"class"`
	Provider       string       `yaml:"provider"`
	Scope          string       `yaml:"scope"`
	AllowDowngrade bool         `yaml:"allowDowngrade"`
	Async          bool         `yaml:"async"`
	Init           string       `yaml:"init"`
	Destroy        string       `yaml:"destroy"`
	DependsOn      []string     `yaml:"dependsOn"`
	Properties     PropertyList `yaml:"properties"`
}

// SourceKind says how a property value is resolved.
type SourceKind int

const (
	// FromID resolves the definition bound under the value.
	FromID SourceKind = iota
	// FromClass resolves the catalog class named after "@".
	FromClass
	// FromValue reads the configuration key named after "$".
	FromValue
)

// Property is one field → source pair, in file order.
type Property struct {
	Field  string
	Source string
}

// Kind decodes the source prefix.
func (p Property) Kind() (SourceKind, string) {
	switch {
	case strings.HasPrefix(p.Source, "@"):
		return FromClass, p.Source[1:]
	case strings.HasPrefix(p.Source, "$"):
		return FromValue, p.Source[1:]
	}
	return FromID, p.Source
}

// PropertyList keeps properties in the order they appear in the file.
type PropertyList []Property

// UnmarshalYAML reads a mapping node without losing key order.
func (l *PropertyList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: properties must be a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: property %s must be a string", v.Line, k.Value)
		}
		*l = append(*l, Property{Field: k.Value, Source: v.Value})
	}
	return nil
}

// Parse decodes a manifest. path is only used for provenance and errors.
func Parse(data []byte, path string) (*Manifest, error) {
	m := &Manifest{}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, errors.Wrapf(err, "manifest: parse %s", path)
	}
	m.Path = path
	return m, nil
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "manifest: read %s", path)
	}
	return Parse(data, path)
}
