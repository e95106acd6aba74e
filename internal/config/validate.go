package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/invopop/jsonschema"
	validator "github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

const schemaURL = "checksmtp-config.json"

var (
	schemaOnce     sync.Once
	compiledSchema *validator.Schema
	schemaErr      error
)

// Schema returns the JSON Schema of the config file, generated from Config
func Schema() ([]byte, error) {
	r := &jsonschema.Reflector{
		FieldNameTag:               "yaml",
		RequiredFromJSONSchemaTags: true,
	}
	s := r.Reflect(&Config{})
	return json.MarshalIndent(s, "", "  ")
}

func compileSchema() (*validator.Schema, error) {
	schemaOnce.Do(func() {
		raw, err := Schema()
		if err != nil {
			schemaErr = fmt.Errorf("generate config schema: %w", err)
			return
		}

		c := validator.NewCompiler()
		if err := c.AddResource(schemaURL, bytes.NewReader(raw)); err != nil {
			schemaErr = fmt.Errorf("load config schema: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

// Validate checks a raw YAML config document against the config schema.
// Unknown keys and out-of-range enum values are rejected.
func Validate(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if doc == nil {
		// Empty file means all defaults
		return nil
	}

	// Normalize YAML types into their JSON equivalents
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("normalize config: %w", err)
	}
	var obj any
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("normalize config: %w", err)
	}

	sch, err := compileSchema()
	if err != nil {
		return err
	}

	if err := sch.Validate(obj); err != nil {
		var ve *validator.ValidationError
		if errors.As(err, &ve) {
			return fmt.Errorf("invalid config: %s", ve.Error())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
