package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Catalog   CatalogConfig   `yaml:"catalog" mapstructure:"catalog"`
	Identity  IdentityConfig  `yaml:"identity" mapstructure:"identity"`
	Nutrition NutritionConfig `yaml:"nutrition" mapstructure:"nutrition"`
	Import    ImportConfig    `yaml:"import" mapstructure:"import"`
	Feeds     FeedsConfig     `yaml:"feeds" mapstructure:"feeds"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// CatalogConfig configures the static conversion dataset.
type CatalogConfig struct {
	// Path overrides the embedded dataset when set.
	Path string `yaml:"path" mapstructure:"path"`
}

// IdentityConfig configures name resolution.
type IdentityConfig struct {
	// Threshold is the minimum fuzzy score for an automatic match.
	Threshold      int `yaml:"threshold" mapstructure:"threshold"`
	MaxSuggestions int `yaml:"max_suggestions" mapstructure:"max_suggestions"`
}

// NutritionConfig configures the nutrition database lookup.
type NutritionConfig struct {
	Key           string  `yaml:"key" mapstructure:"key"`
	BaseURL       string  `yaml:"base_url" mapstructure:"base_url"`
	RatePerSec    float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	CacheTTLHours int     `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`

	RetryMaxAttempts        int `yaml:"retry_max_attempts" mapstructure:"retry_max_attempts"`
	CircuitFailureThreshold int `yaml:"circuit_failure_threshold" mapstructure:"circuit_failure_threshold"`
	CircuitResetSecs        int `yaml:"circuit_reset_secs" mapstructure:"circuit_reset_secs"`
}

// ImportConfig configures price sheet ingestion.
type ImportConfig struct {
	Workers  int    `yaml:"workers" mapstructure:"workers"`
	CostUnit string `yaml:"cost_unit" mapstructure:"cost_unit"`
}

// FeedsConfig configures vendor feed downloads.
type FeedsConfig struct {
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	HostRate    float64 `yaml:"host_rate" mapstructure:"host_rate"`
	FTPUser     string  `yaml:"ftp_user" mapstructure:"ftp_user"`
	FTPPassword string  `yaml:"ftp_password" mapstructure:"ftp_password"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FOODCOST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Keys with no meaningful default still need an entry:
	// AutomaticEnv only resolves keys viper already knows about, so a
	// key absent here and from the file would ignore its env var.
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "foodcost.db")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.max_conns", 0)
	v.SetDefault("store.min_conns", 0)
	v.SetDefault("catalog.path", "")
	v.SetDefault("nutrition.key", "")
	v.SetDefault("feeds.ftp_user", "")
	v.SetDefault("feeds.ftp_password", "")
	v.SetDefault("identity.threshold", 70)
	v.SetDefault("identity.max_suggestions", 5)
	v.SetDefault("nutrition.base_url", "https://api.nal.usda.gov/fdc")
	v.SetDefault("nutrition.rate_per_sec", 0.25)
	v.SetDefault("nutrition.cache_ttl_hours", 720)
	v.SetDefault("nutrition.retry_max_attempts", 3)
	v.SetDefault("nutrition.circuit_failure_threshold", 5)
	v.SetDefault("nutrition.circuit_reset_secs", 30)
	v.SetDefault("import.workers", 8)
	v.SetDefault("import.cost_unit", "g")
	v.SetDefault("feeds.timeout_secs", 30)
	v.SetDefault("feeds.host_rate", 5)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the configuration required by the given mode is
// present and within bounds. Modes map to commands: "serve", "import",
// "sync", "resolve", "convert", "migrate".
func (c *Config) Validate(mode string) error {
	var problems []string

	appendStoreProblems := func() {
		switch c.Store.Driver {
		case "sqlite":
			if c.Store.SQLitePath == "" {
				problems = append(problems, "store.sqlite_path is required for the sqlite driver")
			}
		case "postgres":
			if c.Store.DatabaseURL == "" {
				problems = append(problems, "store.database_url is required for the postgres driver")
			}
		default:
			problems = append(problems, "store.driver must be sqlite or postgres")
		}
	}

	switch mode {
	case "serve":
		appendStoreProblems()
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	case "import":
		appendStoreProblems()
		if c.Import.Workers < 1 || c.Import.Workers > 64 {
			problems = append(problems, "import.workers must be between 1 and 64")
		}
	case "sync":
		appendStoreProblems()
		if c.Nutrition.Key == "" {
			problems = append(problems, "nutrition.key is required")
		}
	case "resolve", "convert", "migrate":
		appendStoreProblems()
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Identity.Threshold < 0 || c.Identity.Threshold > 100 {
		problems = append(problems, "identity.threshold must be between 0 and 100")
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
