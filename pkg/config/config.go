package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Version is set at build time.
var Version = "dev"

// Config holds application-wide configuration
type Config struct {
	REST    RESTConfig    `mapstructure:"rest"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type RESTConfig struct {
	PG           PGConfig `mapstructure:"pg"`
	ListenAddr   string   `mapstructure:"listenAddr"`
	BaseURL      string   `mapstructure:"baseURL"`
	DBSchema     string   `mapstructure:"dbSchema"`
	DefaultLimit int      `mapstructure:"defaultLimit"`
	MaxLimit     int      `mapstructure:"maxLimit"`
	// BasicAuth holds username/password pairs. Empty means no authentication.
	BasicAuth map[string]string `mapstructure:"basicAuth"`
	// TotalCacheTTL memoizes list total counts for this long. Zero disables
	// the cache.
	TotalCacheTTL time.Duration `mapstructure:"totalCacheTTL"`
}

type PGConfig struct {
	ConnString string `mapstructure:"connString"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

func DefaultRESTConfig() RESTConfig {
	return RESTConfig{
		ListenAddr:   ":8080",
		DBSchema:     "public",
		DefaultLimit: 20,
		MaxLimit:     100,
	}
}

// Load reads config from file or environment
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("crudr")
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config"))
		}
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("CRUDR")

	v.SetDefault("rest.listenAddr", ":8080")
	v.SetDefault("rest.dbSchema", "public")
	v.SetDefault("rest.defaultLimit", 20)
	v.SetDefault("rest.maxLimit", 100)
	v.SetDefault("metrics.addr", ":9100")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		fmt.Println("Using config file:", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &cfg, nil
}
