package codec

import (
	"fmt"
	"io"

	"checksmtp/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles YAML import/export
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// Parse reads one record or a list of records
func (c *YAMLCodec) Parse(r io.Reader) ([]domain.RunRecord, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}

	if root.Kind == yaml.SequenceNode {
		var records []domain.RunRecord
		if err := root.Decode(&records); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
		return records, nil
	}

	var rec domain.RunRecord
	if err := root.Decode(&rec); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return []domain.RunRecord{rec}, nil
}

// Export writes records as YAML
func (c *YAMLCodec) Export(records []domain.RunRecord, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	var v any = records
	if len(records) == 1 {
		v = records[0]
	} else if records == nil {
		v = []domain.RunRecord{}
	}

	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
