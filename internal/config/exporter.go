package config

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	ExporterTypeUptimeKuma = "uptime-kuma"
)

// ExporterConfig keeps the raw JSON of an exporter entry so each exporter
// can decode its own settings.
type ExporterConfig struct {
	Type string `json:"type" yaml:"type" validate:"required,exporterType"`
	Raw  json.RawMessage
}

func init() {
	if err := validate.RegisterValidation("exporterType", validateExporterType); err != nil {
		panic(fmt.Sprintf("failed to register exporter type validator: %v", err))
	}
}

func validateExporterType(fl validator.FieldLevel) bool {
	exporterType := fl.Field().String()
	switch exporterType {
	case ExporterTypeUptimeKuma:
		return true
	default:
		return false
	}
}

func (e *ExporterConfig) UnmarshalJSON(data []byte) error {
	// Store raw data
	e.Raw = data

	// Define an alias type to avoid recursion
	type alias ExporterConfig
	temp := struct {
		*alias
	}{
		alias: (*alias)(e),
	}

	if err := json.Unmarshal(data, &temp); err != nil {
		return fmt.Errorf("failed to unmarshal exporter config: %w", err)
	}

	// Validate the config
	if err := validate.Struct(e); err != nil {
		// Pass through the validation errors directly
		return fmt.Errorf("invalid exporter config: %w", err)
	}

	return nil
}

// UnmarshalYAML re-encodes the node as JSON so exporters only ever see JSON.
func (e *ExporterConfig) UnmarshalYAML(node *yaml.Node) error {
	var fields map[string]any
	if err := node.Decode(&fields); err != nil {
		return fmt.Errorf("failed to unmarshal exporter config: %w", err)
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to convert exporter config: %w", err)
	}

	return e.UnmarshalJSON(data)
}

// Ensure required interfaces are implemented
var (
	_ json.Unmarshaler = (*ExporterConfig)(nil)
	_ yaml.Unmarshaler = (*ExporterConfig)(nil)
)
