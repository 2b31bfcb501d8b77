package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Data   DataConfig   `yaml:"data" mapstructure:"data"`
	Model  ModelConfig  `yaml:"model" mapstructure:"model"`
	Router RouterConfig `yaml:"router" mapstructure:"router"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the model artifact database.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// DataConfig points at the input datasets.
type DataConfig struct {
	SecurityPoints       string `yaml:"security_points" mapstructure:"security_points"`
	LocalitiesShapefile  string `yaml:"localities_shapefile" mapstructure:"localities_shapefile"`
	LocalityField        string `yaml:"locality_field" mapstructure:"locality_field"`
	TiersFile            string `yaml:"tiers_file" mapstructure:"tiers_file"`
	SyntheticPerLocality int    `yaml:"synthetic_per_locality" mapstructure:"synthetic_per_locality"`
}

// ModelConfig holds classifier hyperparameters and sampling settings.
type ModelConfig struct {
	Trees           int     `yaml:"trees" mapstructure:"trees"`
	MaxDepth        int     `yaml:"max_depth" mapstructure:"max_depth"`
	MinSamplesSplit int     `yaml:"min_samples_split" mapstructure:"min_samples_split"`
	MinSamplesLeaf  int     `yaml:"min_samples_leaf" mapstructure:"min_samples_leaf"`
	Seed            uint64  `yaml:"seed" mapstructure:"seed"`
	PointsPerTier   int     `yaml:"points_per_tier" mapstructure:"points_per_tier"`
	HoldoutFraction float64 `yaml:"holdout_fraction" mapstructure:"holdout_fraction"`
	Workers         int     `yaml:"workers" mapstructure:"workers"`
	TrainOnStart    bool    `yaml:"train_on_start" mapstructure:"train_on_start"`
}

// RouterConfig configures the waypoint grid search.
type RouterConfig struct {
	SafetyWeight    float64      `yaml:"safety_weight" mapstructure:"safety_weight"`
	DistanceWeight  float64      `yaml:"distance_weight" mapstructure:"distance_weight"`
	TimeWeight      float64      `yaml:"time_weight" mapstructure:"time_weight"`
	SearchRadiusDeg float64      `yaml:"search_radius_deg" mapstructure:"search_radius_deg"`
	Bearings        int          `yaml:"bearings" mapstructure:"bearings"`
	RadiusFractions []float64    `yaml:"radius_fractions" mapstructure:"radius_fractions"`
	Workers         int          `yaml:"workers" mapstructure:"workers"`
	Bounds          BoundsConfig `yaml:"bounds" mapstructure:"bounds"`
}

// BoundsConfig is the serviceable bounding box in degrees.
type BoundsConfig struct {
	North float64 `yaml:"north" mapstructure:"north"`
	South float64 `yaml:"south" mapstructure:"south"`
	East  float64 `yaml:"east" mapstructure:"east"`
	West  float64 `yaml:"west" mapstructure:"west"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	RateLimitBurst int      `yaml:"rate_limit_burst" mapstructure:"rate_limit_burst"`
	JWTSecret      string   `yaml:"jwt_secret" mapstructure:"jwt_secret"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultSQLitePath is the database file used when the sqlite driver has
// no explicit store.database_url. Postgres has no default.
const DefaultSQLitePath = "riskroute.db"

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RISKROUTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	// No default URL: it depends on the driver and is resolved after unmarshal.
	_ = v.BindEnv("store.database_url")
	v.SetDefault("store.max_conns", 5)
	v.SetDefault("store.min_conns", 1)
	v.SetDefault("data.locality_field", "LocNombre")
	v.SetDefault("data.synthetic_per_locality", 40)
	v.SetDefault("model.trees", 100)
	v.SetDefault("model.max_depth", 12)
	v.SetDefault("model.min_samples_split", 5)
	v.SetDefault("model.min_samples_leaf", 2)
	v.SetDefault("model.seed", 42)
	v.SetDefault("model.points_per_tier", 300)
	v.SetDefault("model.holdout_fraction", 0.2)
	v.SetDefault("model.workers", 4)
	v.SetDefault("model.train_on_start", true)
	v.SetDefault("router.safety_weight", 0.60)
	v.SetDefault("router.distance_weight", 0.30)
	v.SetDefault("router.time_weight", 0.10)
	v.SetDefault("router.search_radius_deg", 0.008)
	v.SetDefault("router.bearings", 16)
	v.SetDefault("router.radius_fractions", []float64{0.3, 0.6, 1.0})
	v.SetDefault("router.workers", 4)
	v.SetDefault("router.bounds.north", 4.8353)
	v.SetDefault("router.bounds.south", 4.3774)
	v.SetDefault("router.bounds.east", -73.9387)
	v.SetDefault("router.bounds.west", -74.2227)
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.rate_limit_rps", 10.0)
	v.SetDefault("server.rate_limit_burst", 20)
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
	if cfg.Store.DatabaseURL == "" && cfg.Store.Driver == "sqlite" {
		cfg.Store.DatabaseURL = DefaultSQLitePath
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Mode is one of
// "serve", "train", "predict" or "route".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Server.RateLimitRPS < 0 {
			errs = append(errs, "server.rate_limit_rps must be >= 0")
		}
	case "train", "predict", "route":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("store.driver must be sqlite or postgres, got %q", c.Store.Driver))
	}
	switch {
	case c.Store.DatabaseURL == "" && c.Store.Driver == "postgres":
		errs = append(errs, "store.database_url is required for the postgres driver")
	case c.Store.DatabaseURL == "":
		errs = append(errs, "store.database_url is required")
	case c.Store.Driver == "postgres" && !isPostgresDSN(c.Store.DatabaseURL):
		errs = append(errs, fmt.Sprintf("store.database_url %q is not a postgres URL or key=value DSN", c.Store.DatabaseURL))
	}
	if c.Model.Trees < 1 {
		errs = append(errs, "model.trees must be >= 1")
	}
	if c.Model.MaxDepth < 1 {
		errs = append(errs, "model.max_depth must be >= 1")
	}
	if c.Model.MinSamplesLeaf < 1 {
		errs = append(errs, "model.min_samples_leaf must be >= 1")
	}
	if c.Model.HoldoutFraction < 0 || c.Model.HoldoutFraction >= 1 {
		errs = append(errs, "model.holdout_fraction must be in [0, 1)")
	}
	if c.Router.SearchRadiusDeg <= 0 {
		errs = append(errs, "router.search_radius_deg must be > 0")
	}
	if c.Router.Bearings < 1 {
		errs = append(errs, "router.bearings must be >= 1")
	}
	if len(c.Router.RadiusFractions) == 0 {
		errs = append(errs, "router.radius_fractions must not be empty")
	}
	if c.Router.SafetyWeight < 0 || c.Router.DistanceWeight < 0 || c.Router.TimeWeight < 0 {
		errs = append(errs, "router weights must be non-negative")
	}
	b := c.Router.Bounds
	if b.North <= b.South || b.East <= b.West {
		errs = append(errs, "router.bounds must have north > south and east > west")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
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

func isPostgresDSN(s string) bool {
	return strings.HasPrefix(s, "postgres://") ||
		strings.HasPrefix(s, "postgresql://") ||
		strings.Contains(s, "=")
}
