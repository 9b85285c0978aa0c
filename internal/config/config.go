package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	DriverSQLite    = "sqlite"
	DriverPostgres  = "postgres"
	DriverMySQL     = "mysql"
	DriverFirestore = "firestore"

	// DefaultDSN is a named shared-cache in-memory SQLite database that lives
	// as long as the process keeps a connection open.
	DefaultDSN = "file:TodoList?mode=memory&cache=shared"
)

// Config holds the server configuration.
type Config struct {
	Port  int    `mapstructure:"port" validate:"min=1,max=65535"`
	Env   string `mapstructure:"env" validate:"oneof=development production test"`
	Log   Log    `mapstructure:"log"`
	Store Store  `mapstructure:"store"`
}

// Log configures the logrus logger.
type Log struct {
	Level  string `mapstructure:"level" validate:"oneof=trace debug info warn warning error fatal panic"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// Store selects the persistence backend.
type Store struct {
	Driver string `mapstructure:"driver" validate:"oneof=sqlite postgres mysql firestore"`
	DSN    string `mapstructure:"dsn" validate:"required_unless=Driver firestore"`

	// Project is the Google Cloud project used by the firestore driver.
	Project string `mapstructure:"project" validate:"required_if=Driver firestore"`
}

// IsDevelopment reports whether the API documentation should be served.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// New returns a viper instance with defaults and environment bindings.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("port", 8080)
	v.SetDefault("env", EnvProduction)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("store.driver", DriverSQLite)
	v.SetDefault("store.dsn", DefaultDSN)
	v.SetDefault("store.project", "")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("env", "APP_ENV")
	_ = v.BindEnv("store.project", "GOOGLE_CLOUD_PROJECT")

	return v
}

// Load reads .env, the environment and, when path is set, a config file.
func Load(v *viper.Viper, path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the struct tags on Config.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
