package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Data    DataConfig        `yaml:"data"`
	Catalog CatalogConfig     `yaml:"catalog"`
	Bridge  BridgeConfig      `yaml:"bridge"`
	Batch   BatchConfig       `yaml:"batch"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Data.Validate(); err != nil {
		return err
	}
	if err := c.Catalog.Validate(); err != nil {
		return err
	}
	if err := c.Bridge.Validate(); err != nil {
		return err
	}
	if err := c.Batch.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns the HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// DataConfig holds the data directory layout: where the corpus, pattern
// files, trust list, and persisted exports live. All paths except Root
// are relative to Root.
type DataConfig struct {
	Root            string `yaml:"root"`
	DocumentsDir    string `yaml:"documents_dir"`
	PatternsDir     string `yaml:"patterns_dir"`
	TrustList       string `yaml:"trust_list"`
	KnowledgeFile   string `yaml:"knowledge_file"`
	ConnectionsFile string `yaml:"connections_file"`
	IDMapFile       string `yaml:"idmap_file"`
}

// Validate validates the data configuration.
func (c *DataConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.DocumentsDir, validation.Required),
		validation.Field(&c.PatternsDir, validation.Required),
		validation.Field(&c.TrustList, validation.Required),
		validation.Field(&c.KnowledgeFile, validation.Required),
		validation.Field(&c.ConnectionsFile, validation.Required),
		validation.Field(&c.IDMapFile, validation.Required),
	)
}

// CatalogConfig holds the SQLite catalogue configuration.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the catalog configuration.
func (c *CatalogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// BridgeConfig holds the host command-channel configuration.
// BuiltinLibrary names the host's canonical built-in component library;
// live-query resolutions into any other library are flagged.
type BridgeConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	QueryTimeout   time.Duration `yaml:"query_timeout"`
	CommandTimeout time.Duration `yaml:"command_timeout"`
	BuiltinLibrary string        `yaml:"builtin_library"`
}

// Validate validates the bridge configuration.
func (c *BridgeConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Host, validation.Required),
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.BuiltinLibrary, validation.Required),
	)
}

// BatchConfig holds batch creation settings.
type BatchConfig struct {
	Width int `yaml:"width"`
}

// Validate validates the batch configuration.
func (c *BatchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Width, validation.Min(1), validation.Max(64)),
	)
}

// AuthConfig holds API authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Data: DataConfig{
			Root:            "./data",
			DocumentsDir:    "corpus",
			PatternsDir:     "patterns",
			TrustList:       "trust_list.json",
			KnowledgeFile:   "knowledge.json",
			ConnectionsFile: "connections.json",
			IDMapFile:       "component_ids.json",
		},
		Catalog: CatalogConfig{
			Path: "./nodeatlas.db",
		},
		Bridge: BridgeConfig{
			Host:           "127.0.0.1",
			Port:           8081,
			QueryTimeout:   10 * time.Second,
			CommandTimeout: 5 * time.Second,
			BuiltinLibrary: "Core",
		},
		Batch: BatchConfig{
			Width: 10,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
