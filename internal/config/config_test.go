package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "riskroute.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 100, cfg.Model.Trees)
	assert.Equal(t, 12, cfg.Model.MaxDepth)
	assert.Equal(t, 5, cfg.Model.MinSamplesSplit)
	assert.Equal(t, 2, cfg.Model.MinSamplesLeaf)
	assert.Equal(t, uint64(42), cfg.Model.Seed)
	assert.Equal(t, 300, cfg.Model.PointsPerTier)
	assert.InDelta(t, 0.60, cfg.Router.SafetyWeight, 1e-9)
	assert.InDelta(t, 0.30, cfg.Router.DistanceWeight, 1e-9)
	assert.InDelta(t, 0.10, cfg.Router.TimeWeight, 1e-9)
	assert.InDelta(t, 0.008, cfg.Router.SearchRadiusDeg, 1e-9)
	assert.Equal(t, 16, cfg.Router.Bearings)
	assert.Equal(t, []float64{0.3, 0.6, 1.0}, cfg.Router.RadiusFractions)
	assert.InDelta(t, 4.8353, cfg.Router.Bounds.North, 1e-9)
	assert.InDelta(t, -74.2227, cfg.Router.Bounds.West, 1e-9)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/riskroute
log:
  level: debug
  format: console
server:
  port: 9090
router:
  safety_weight: 0.8
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.InDelta(t, 0.8, cfg.Router.SafetyWeight, 1e-9)
	// Defaults still apply for unset values
	assert.InDelta(t, 0.3, cfg.Router.DistanceWeight, 1e-9)
	assert.Equal(t, 100, cfg.Model.Trees)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("RISKROUTE_STORE_DRIVER", "postgres")
	t.Setenv("RISKROUTE_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("RISKROUTE_SERVER_PORT", "3000")
	t.Setenv("RISKROUTE_MODEL_TREES", "25")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 25, cfg.Model.Trees)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [unclosed"), 0644))

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	return &Config{
		Store: StoreConfig{Driver: "sqlite", DatabaseURL: "riskroute.db"},
		Model: ModelConfig{Trees: 100, MaxDepth: 12, MinSamplesSplit: 5, MinSamplesLeaf: 2, HoldoutFraction: 0.2},
		Router: RouterConfig{
			SafetyWeight: 0.6, DistanceWeight: 0.3, TimeWeight: 0.1,
			SearchRadiusDeg: 0.008, Bearings: 16, RadiusFractions: []float64{0.3, 0.6, 1},
			Bounds: BoundsConfig{North: 4.8353, South: 4.3774, East: -73.9387, West: -74.2227},
		},
		Server: ServerConfig{Port: 8000},
	}
}

func TestValidate_Defaults(t *testing.T) {
	cfg := validDefaults()
	for _, mode := range []string{"serve", "train", "predict", "route"} {
		assert.NoError(t, cfg.Validate(mode), mode)
	}
}

func TestValidate_UnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		mode   string
		want   string
	}{
		{"bad driver", func(c *Config) { c.Store.Driver = "mysql" }, "train", "store.driver"},
		{"missing url", func(c *Config) { c.Store.DatabaseURL = "" }, "train", "store.database_url is required"},
		{"postgres without url", func(c *Config) { c.Store.Driver = "postgres"; c.Store.DatabaseURL = "" }, "serve", "required for the postgres driver"},
		{"postgres with file path", func(c *Config) { c.Store.Driver = "postgres"; c.Store.DatabaseURL = "riskroute.db" }, "train", "not a postgres URL"},
		{"zero port", func(c *Config) { c.Server.Port = 0 }, "serve", "server.port must be > 0"},
		{"no trees", func(c *Config) { c.Model.Trees = 0 }, "train", "model.trees"},
		{"holdout", func(c *Config) { c.Model.HoldoutFraction = 1 }, "train", "holdout_fraction"},
		{"radius", func(c *Config) { c.Router.SearchRadiusDeg = 0 }, "route", "search_radius_deg"},
		{"fractions", func(c *Config) { c.Router.RadiusFractions = nil }, "route", "radius_fractions"},
		{"negative weight", func(c *Config) { c.Router.TimeWeight = -1 }, "route", "weights"},
		{"inverted bounds", func(c *Config) { c.Router.Bounds.North = 4.0 }, "route", "router.bounds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validDefaults()
			tt.mutate(cfg)
			err := cfg.Validate(tt.mode)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadPostgresDriverHasNoDefaultURL(t *testing.T) {
	chdirTemp(t)
	t.Setenv("RISKROUTE_STORE_DRIVER", "postgres")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.Store.DatabaseURL)

	err = cfg.Validate("train")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required for the postgres driver")
}

func TestLoadDatabaseURLFromEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("RISKROUTE_STORE_DRIVER", "postgres")
	t.Setenv("RISKROUTE_STORE_DATABASE_URL", "postgres://db:5432/riskroute")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://db:5432/riskroute", cfg.Store.DatabaseURL)
	assert.NoError(t, cfg.Validate("train"))
}

func TestValidate_PostgresKeyValueDSN(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "postgres"
	cfg.Store.DatabaseURL = "host=localhost dbname=riskroute"
	assert.NoError(t, cfg.Validate("route"))
}

func TestValidate_ZeroPortIgnoredOutsideServe(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0
	assert.NoError(t, cfg.Validate("route"))
}
