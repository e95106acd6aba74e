package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"checksmtp/internal/domain"
)

// JSONCodec handles JSON import/export
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// Parse reads one record or a list of records
func (c *JSONCodec) Parse(r io.Reader) ([]domain.RunRecord, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
		var records []domain.RunRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
		return records, nil
	}

	var rec domain.RunRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return []domain.RunRecord{rec}, nil
}

// Export writes records as indented JSON
func (c *JSONCodec) Export(records []domain.RunRecord, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	var v any = records
	if len(records) == 1 {
		v = records[0]
	} else if records == nil {
		v = []domain.RunRecord{}
	}

	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
