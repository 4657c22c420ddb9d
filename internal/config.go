package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/planthub/internal/catalog"
	"github.com/starford/planthub/internal/garden"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Store drivers.
const (
	StoreDriverFS       = "fs"
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Store   StoreConfig       `yaml:"store"`
	Catalog CatalogConfig     `yaml:"catalog"`
	Garden  GardenConfig      `yaml:"garden"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.Catalog.Validate(); err != nil {
		return err
	}
	if err := c.Garden.Validate(); err != nil {
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

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StoreConfig selects the key-value backend holding the garden.
//
// Path is the data directory for "fs" and the database file for "sqlite".
// DSN is the connection string for "postgres". "memory" keeps nothing.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	DSN    string `yaml:"dsn"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = StoreDriverFS
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required,
			validation.In(StoreDriverFS, StoreDriverSQLite, StoreDriverPostgres, StoreDriverMemory)),
		validation.Field(&c.Path,
			validation.When(c.Driver == StoreDriverFS || c.Driver == StoreDriverSQLite, validation.Required)),
		validation.Field(&c.DSN,
			validation.When(c.Driver == StoreDriverPostgres, validation.Required)),
	)
}

// CatalogConfig configures the species search sources.
type CatalogConfig struct {
	PerenualKey    string        `yaml:"perenual_key"`
	PerenualURL    string        `yaml:"perenual_url"`
	HousePlantsURL string        `yaml:"houseplants_url"`
	Cooldown       time.Duration `yaml:"cooldown"`
	Timeout        time.Duration `yaml:"timeout"`
}

// Validate validates the catalog configuration.
func (c *CatalogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Cooldown, validation.Min(time.Duration(0))),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Second)),
	)
}

// GardenConfig holds scheduling preferences.
type GardenConfig struct {
	UpcomingDays int `yaml:"upcoming_days"`
}

// Validate validates the garden configuration.
func (c *GardenConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.UpcomingDays, validation.Required, validation.Min(1), validation.Max(365)),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
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
		Store: StoreConfig{
			Driver: StoreDriverFS,
			Path:   "./data",
		},
		Catalog: CatalogConfig{
			PerenualURL:    catalog.DefaultPerenualURL,
			HousePlantsURL: catalog.DefaultHousePlantsURL,
			Cooldown:       catalog.DefaultCooldown,
			Timeout:        10 * time.Second,
		},
		Garden: GardenConfig{
			UpcomingDays: garden.DefaultUpcomingDays,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
