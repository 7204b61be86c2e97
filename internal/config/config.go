package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
	SourceSQLite   = "sqlite"
)

type Config struct {
	Port          string   `mapstructure:"PORT"`
	GinMode       string   `mapstructure:"GIN_MODE"`
	Env           string   `mapstructure:"ENV"`
	LogLevel      string   `mapstructure:"LOG_LEVEL"`
	CatalogSource string   `mapstructure:"CATALOG_SOURCE"`
	DataDir       string   `mapstructure:"DATA_DIR"`
	AssetsDir     string   `mapstructure:"ASSETS_DIR"`
	DatabaseURL   string   `mapstructure:"DATABASE_URL"`
	SQLitePath    string   `mapstructure:"SQLITE_PATH"`
	CORSOrigins   []string `mapstructure:"-"`
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

var keys = []string{
	"PORT", "GIN_MODE", "ENV", "LOG_LEVEL", "CATALOG_SOURCE",
	"DATA_DIR", "ASSETS_DIR", "DATABASE_URL", "SQLITE_PATH", "CORS_ORIGINS",
}

// Load reads .env if present, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("ENV", "production")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CATALOG_SOURCE", SourceCSV)
	v.SetDefault("DATA_DIR", "data")
	v.SetDefault("ASSETS_DIR", "pictures")
	v.SetDefault("CORS_ORIGINS", "*")

	// Unmarshal only sees env vars that are bound or defaulted.
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	for _, o := range strings.Split(v.GetString("CORS_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}
	cfg.CatalogSource = strings.ToLower(strings.TrimSpace(cfg.CatalogSource))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.CatalogSource {
	case SourceCSV:
		if c.DataDir == "" {
			return fmt.Errorf("DATA_DIR is required when CATALOG_SOURCE=csv")
		}
	case SourcePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when CATALOG_SOURCE=postgres")
		}
	case SourceSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when CATALOG_SOURCE=sqlite")
		}
	default:
		return fmt.Errorf("unknown CATALOG_SOURCE %q (want csv, postgres or sqlite)", c.CatalogSource)
	}
	return nil
}
