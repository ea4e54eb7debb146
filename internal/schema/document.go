package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is the declarative schema input: a database name and its tables
// in declaration order.
type Document struct {
	DatabaseName string    `yaml:"database_name" json:"database_name"`
	Tables       TableList `yaml:"tables" json:"tables"`
}

// TableList keeps tables in the order they were declared. It decodes from
// either a mapping (name -> table) or a sequence of named tables.
type TableList []Table

// UnmarshalYAML implements yaml.Unmarshaler. Mapping keys are walked on the
// node itself so declaration order survives decoding.
func (l *TableList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		tables := make(TableList, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			var name string
			if err := node.Content[i].Decode(&name); err != nil {
				return fmt.Errorf("line %d: table name: %w", node.Content[i].Line, err)
			}
			var t Table
			if err := node.Content[i+1].Decode(&t); err != nil {
				return fmt.Errorf("table %q: %w", name, err)
			}
			if t.Name != "" && t.Name != name {
				return fmt.Errorf("table %q: conflicting name %q", name, t.Name)
			}
			t.Name = name
			tables = append(tables, t)
		}
		*l = tables
		return nil
	case yaml.SequenceNode:
		var tables []Table
		if err := node.Decode(&tables); err != nil {
			return err
		}
		*l = tables
		return nil
	default:
		return fmt.Errorf("line %d: tables must be a mapping or a list", node.Line)
	}
}

// MarshalYAML writes tables as an ordered mapping, the form used by the
// original schema files.
func (l TableList) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, t := range l {
		body := struct {
			Description string   `yaml:"description,omitempty"`
			Columns     []Column `yaml:"columns"`
		}{t.Description, t.Columns}
		var value yaml.Node
		if err := value.Encode(body); err != nil {
			return nil, fmt.Errorf("table %q: %w", t.Name, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: t.Name},
			&value,
		)
	}
	return node, nil
}

// Parse decodes a YAML or JSON schema document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing schema document: %w", err)
	}
	return &doc, nil
}

// LoadFile reads and parses a schema document from disk.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}
	return Parse(data)
}

// Encode renders the document as YAML.
func (d *Document) Encode() ([]byte, error) {
	return yaml.Marshal(d)
}
