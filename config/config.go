// Package config loads the tool's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"bmp-steganography/models"
	"bmp-steganography/stego"

	"gopkg.in/yaml.v3"
)

const (
	// EnvConfigPath names the configuration file when -config is not given.
	EnvConfigPath = "BMPSTEGO_CONFIG"
	// EnvLogLevel overrides log.level.
	EnvLogLevel = "BMPSTEGO_LOG_LEVEL"
	// EnvPort overrides the port of server.address.
	EnvPort = "PORT"
)

// LogConfig selects the zap logger setup.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console or json
}

// ServerConfig configures the HTTP API started by `serve`.
type ServerConfig struct {
	Address        string   `yaml:"address"`
	AllowOrigins   []string `yaml:"allow_origins"`
	MaxUploadBytes int64    `yaml:"max_upload_bytes"`
}

// Config is the full configuration.
type Config struct {
	Signature         string       `yaml:"signature"`
	DefaultStegoName  string       `yaml:"default_stego_name"`
	DefaultOutputName string       `yaml:"default_output_name"`
	MaxExtensionLen   int          `yaml:"max_extension_len"`
	StrictCarrier     bool         `yaml:"strict_carrier"`
	ReportPSNR        bool         `yaml:"report_psnr"`
	MinPSNR           float64      `yaml:"min_psnr"`
	Log               LogConfig    `yaml:"log"`
	Server            ServerConfig `yaml:"server"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Signature:         stego.DefaultSignature,
		DefaultStegoName:  stego.DefaultStegoName,
		DefaultOutputName: stego.DefaultOutputName,
		MaxExtensionLen:   stego.MaxExtensionLen,
		ReportPSNR:        true,
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Server: ServerConfig{
			Address:        ":8080",
			AllowOrigins:   []string{"http://localhost:3000"},
			MaxUploadBytes: 32 << 20,
		},
	}
}

// Load reads filename over the defaults and applies environment overrides. An empty
// filename falls back to $BMPSTEGO_CONFIG, and to the defaults alone when that is unset.
func Load(filename string) (*Config, error) {
	conf := Default()

	if filename == "" {
		filename = os.Getenv(EnvConfigPath)
	}
	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, conf); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", filename, err)
		}
	}

	conf.applyEnv()

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// Save writes conf as YAML.
func Save(filename string, conf *Config) error {
	data, err := yaml.Marshal(conf)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0o644)
}

func (c *Config) applyEnv() {
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.Log.Level = level
	}
	if port := os.Getenv(EnvPort); port != "" {
		host := c.Server.Address
		if i := strings.LastIndex(host, ":"); i >= 0 {
			host = host[:i]
		}
		c.Server.Address = host + ":" + port
	}
}

// Validate rejects settings the codec cannot honor.
func (c *Config) Validate() error {
	var errs []error
	if c.Signature == "" {
		errs = append(errs, errors.New("signature must not be empty"))
	}
	if c.MaxExtensionLen < 1 || c.MaxExtensionLen > stego.MaxExtensionLen {
		errs = append(errs, fmt.Errorf("max_extension_len must be between 1 and %d, got %d",
			stego.MaxExtensionLen, c.MaxExtensionLen))
	}
	if c.DefaultStegoName != "" && !stego.IsBitmapName(c.DefaultStegoName) {
		errs = append(errs, fmt.Errorf("default_stego_name %q must end in .bmp", c.DefaultStegoName))
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be console or json, got %q", c.Log.Format))
	}
	for _, origin := range c.Server.AllowOrigins {
		if !validOrigin(origin) {
			errs = append(errs, fmt.Errorf("server.allow_origins entry %q must be \"*\" or start with http:// or https://", origin))
		}
	}
	if c.Server.MaxUploadBytes < 0 {
		errs = append(errs, errors.New("server.max_upload_bytes must not be negative"))
	}
	return errors.Join(errs...)
}

func validOrigin(origin string) bool {
	if origin == "*" {
		return true
	}
	if strings.Contains(origin, "*") {
		return false
	}
	return strings.HasPrefix(origin, "http://") || strings.HasPrefix(origin, "https://")
}

// StegoConfig extracts the codec settings.
func (c *Config) StegoConfig() *models.StegoConfig {
	return &models.StegoConfig{
		Signature:       c.Signature,
		MaxExtensionLen: c.MaxExtensionLen,
		StrictCarrier:   c.StrictCarrier,
	}
}
