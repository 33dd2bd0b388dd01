package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when neither --config nor CONFIG_PATH is set. A missing
// file at this path is not an error.
const DefaultPath = "/usr/local/etc/xray-setup/config.yaml"

var validate *validator.Validate

var unitNameRegexp = regexp.MustCompile(`^[A-Za-z0-9:_.@-]+$`)

type Config struct {
	Xray      XrayConfig       `json:"xray" yaml:"xray" validate:"required"`
	Apt       AptConfig        `json:"apt" yaml:"apt" validate:"required"`
	Check     CheckConfig      `json:"check" yaml:"check" validate:"required"`
	Install   InstallConfig    `json:"install" yaml:"install"`
	Metrics   MetricsConfig    `json:"metrics" yaml:"metrics"`
	Exporters []ExporterConfig `json:"exporters" yaml:"exporters" validate:"dive"`
}

type XrayConfig struct {
	ConfigPath     string `json:"config_path" yaml:"config_path" validate:"required,abspath"`
	ServiceName    string `json:"service_name" yaml:"service_name" validate:"required,unit"`
	SkipValidation bool   `json:"skip_validation" yaml:"skip_validation"`
}

type AptConfig struct {
	ProxyPath string `json:"proxy_path" yaml:"proxy_path" validate:"required,abspath"`
}

type CheckConfig struct {
	IPService        string `json:"ip_service" yaml:"ip_service" validate:"required,url"`
	Timeout          int    `json:"timeout" yaml:"timeout" validate:"min=1"`         // seconds
	Retries          int    `json:"retries" yaml:"retries" validate:"min=1,max=10"`  // attempts per IP lookup
	RetryDelay       int    `json:"retry_delay" yaml:"retry_delay" validate:"min=0"` // milliseconds
	GeoIPCountryPath string `json:"geoip_country_path" yaml:"geoip_country_path"`
}

type InstallConfig struct {
	Skip        bool     `json:"skip" yaml:"skip"`
	Packages    []string `json:"packages" yaml:"packages" validate:"dive,required"`
	XrayCommand string   `json:"xray_command" yaml:"xray_command" validate:"required_unless=Skip true"`
}

type MetricsConfig struct {
	TextfilePath string `json:"textfile_path" yaml:"textfile_path" validate:"omitempty,abspath"`
}

func (c CheckConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

func (c CheckConfig) RetryDelayDuration() time.Duration {
	return time.Duration(c.RetryDelay) * time.Millisecond
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Xray: XrayConfig{
			ConfigPath:  "/usr/local/etc/xray/config.json",
			ServiceName: "xray",
		},
		Apt: AptConfig{
			ProxyPath: "/etc/apt/apt.conf.d/99proxy",
		},
		Check: CheckConfig{
			IPService:  "https://ifconfig.me",
			Timeout:    20,
			Retries:    1,
			RetryDelay: 500,
		},
		Install: InstallConfig{
			Packages: []string{
				"curl",
				"gnupg",
				"ca-certificates",
				"lsb-release",
				"software-properties-common",
			},
			XrayCommand: "bash <(curl -Ls https://github.com/XTLS/Xray-install/raw/main/install-release.sh)",
		},
	}
}

// Path resolves the configuration file location: explicit flag value first,
// then the CONFIG_PATH environment variable, then DefaultPath.
func Path(flagValue string) (path string, explicit bool) {
	if flagValue != "" {
		return flagValue, true
	}
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		return env, true
	}
	return DefaultPath, false
}

// Load reads the configuration at path on top of the defaults. A missing file
// is only an error when the path was given explicitly.
func Load(path string, explicit bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(path, data, cfg); err != nil {
			return nil, err
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// Built-in defaults only
	default:
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	// Validate the configuration
	if err := validate.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return nil, formatValidationErrors(validationErrors)
		}
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("error parsing config yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("error parsing config: %w", err)
		}
	}
	return nil
}

// Custom validators
func init() {
	validate = validator.New()

	if err := validate.RegisterValidation("abspath", validateAbsPath); err != nil {
		panic(fmt.Sprintf("failed to register abspath validator: %v", err))
	}
	if err := validate.RegisterValidation("unit", validateUnitName); err != nil {
		panic(fmt.Sprintf("failed to register unit validator: %v", err))
	}
}

func validateAbsPath(fl validator.FieldLevel) bool {
	return filepath.IsAbs(fl.Field().String())
}

func validateUnitName(fl validator.FieldLevel) bool {
	return unitNameRegexp.MatchString(fl.Field().String())
}

// formatValidationErrors formats validation errors into a user-friendly error message
func formatValidationErrors(errors validator.ValidationErrors) error {
	var errMsgs []string
	for _, err := range errors {
		errMsgs = append(errMsgs, fmt.Sprintf(
			"field '%s' failed validation: %s",
			err.Namespace(),
			err.Tag(),
		))
	}
	return fmt.Errorf("validation errors: %v", errMsgs)
}
