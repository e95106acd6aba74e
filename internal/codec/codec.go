package codec

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"checksmtp/internal/domain"
)

// Importer interface for reading exported run reports back
type Importer interface {
	Parse(r io.Reader) ([]domain.RunRecord, error)
	Format() string
}

// Exporter interface for writing run reports in machine-readable formats.
// A single record is written as an object, anything else as a list.
type Exporter interface {
	Export(records []domain.RunRecord, w io.Writer) error
	Format() string
}

// Codec both exports and imports
type Codec interface {
	Importer
	Exporter
}

// ForFormat returns the codec for an output format name
func ForFormat(format string) (Codec, error) {
	switch strings.ToLower(format) {
	case "json":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// ForPath picks a codec from a file extension
func ForPath(path string) (Codec, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return nil, fmt.Errorf("cannot infer format of %s", path)
	}
	return ForFormat(ext)
}
