// Package config loads application configuration from file and environment
// and bootstraps the global logger.
package config

import (
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	DB       DBConfig       `yaml:"db" mapstructure:"db"`
	Geocoder GeocoderConfig `yaml:"geocoder" mapstructure:"geocoder"`
	Geocache GeocacheConfig `yaml:"geocache" mapstructure:"geocache"`
	District DistrictConfig `yaml:"district" mapstructure:"district"`
	USPS     USPSConfig     `yaml:"usps" mapstructure:"usps"`
	Google   GoogleConfig   `yaml:"google" mapstructure:"google"`
	OSM      OSMConfig      `yaml:"osm" mapstructure:"osm"`
	WFS      WFSConfig      `yaml:"wfs" mapstructure:"wfs"`
	Batch    BatchConfig    `yaml:"batch" mapstructure:"batch"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// DBConfig configures the application database and the geospatial database
// holding district shapes, street files, and the geocode cache. When GeoURL
// is empty both roles share one database.
type DBConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	GeoURL      string `yaml:"geo_url" mapstructure:"geo_url"`
}

// GeocoderConfig configures the geocode provider chain. Active lists the
// providers exposed to callers, Rank orders the fallback chain, and
// Cacheable names the providers whose results may be persisted.
type GeocoderConfig struct {
	Active    []string `yaml:"active" mapstructure:"active"`
	Rank      []string `yaml:"rank" mapstructure:"rank"`
	Cacheable []string `yaml:"cacheable" mapstructure:"cacheable"`
	Threads   int      `yaml:"threads" mapstructure:"threads"`
}

// GeocacheConfig configures the write-through geocode cache.
type GeocacheConfig struct {
	Enabled    bool `yaml:"enabled" mapstructure:"enabled"`
	BufferSize int  `yaml:"buffer_size" mapstructure:"buffer_size"`
}

// DistrictConfig configures district assignment behavior.
type DistrictConfig struct {
	ProximityThreshold float64 `yaml:"proximity_threshold" mapstructure:"proximity_threshold"`
	StrategySingle     string  `yaml:"strategy_single" mapstructure:"strategy_single"`
	StrategyBluebird   string  `yaml:"strategy_bluebird" mapstructure:"strategy_bluebird"`
}

// USPSConfig holds USPS Web Tools API settings.
type USPSConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	UserID  string `yaml:"user_id" mapstructure:"user_id"`
}

// GoogleConfig holds Google Geocoding API settings.
type GoogleConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// OSMConfig holds Nominatim settings.
type OSMConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// WFSConfig holds the external GeoServer WFS fallback settings.
type WFSConfig struct {
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	Workspace string `yaml:"workspace" mapstructure:"workspace"`
}

// BatchConfig configures batch job processing.
type BatchConfig struct {
	Threads int `yaml:"threads" mapstructure:"threads"`
}

// ServerConfig configures the API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

func newViper() *viper.Viper {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/geoapi")

	// Environment
	v.SetEnvPrefix("GEOAPI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("geocoder.active", []string{"tiger", "osm"})
	v.SetDefault("geocoder.rank", []string{"tiger", "osm"})
	v.SetDefault("geocoder.cacheable", []string{"tiger", "google", "osm"})
	v.SetDefault("geocoder.threads", 3)
	v.SetDefault("geocache.enabled", true)
	v.SetDefault("geocache.buffer_size", 100)
	v.SetDefault("district.proximity_threshold", 0.001)
	v.SetDefault("district.strategy_single", "default")
	v.SetDefault("district.strategy_bluebird", "streetFallback")
	v.SetDefault("usps.base_url", "https://production.shippingapis.com/ShippingAPI.dll")
	v.SetDefault("google.base_url", "https://maps.googleapis.com/maps/api/geocode/json")
	v.SetDefault("osm.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("wfs.workspace", "nysenate")
	v.SetDefault("batch.threads", 3)

	return v
}

func read(v *viper.Viper) (*Config, error) {
	// Config file is optional; env vars and defaults can carry a deployment.
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

// Load reads configuration from file and environment once.
func Load() (*Config, error) {
	return read(newViper())
}

// Store holds an immutable configuration snapshot behind an atomic pointer.
// The file watcher swaps in a fresh snapshot on change; callers take the
// current snapshot once per request and never observe a partial reload.
type Store struct {
	v   *viper.Viper
	cur atomic.Pointer[Config]
}

// NewStore loads the initial snapshot and starts watching the config file
// for changes.
func NewStore() (*Store, error) {
	v := newViper()
	cfg, err := read(v)
	if err != nil {
		return nil, err
	}

	s := &Store{v: v}
	s.cur.Store(cfg)

	v.OnConfigChange(func(fsnotify.Event) { s.reload() })
	v.WatchConfig()

	return s, nil
}

// Current returns the latest configuration snapshot.
func (s *Store) Current() *Config {
	return s.cur.Load()
}

func (s *Store) reload() {
	cfg, err := read(s.v)
	if err != nil {
		zap.L().Warn("config: reload failed, keeping previous snapshot", zap.Error(err))
		return
	}
	s.cur.Store(cfg)
	zap.L().Info("config: reloaded")
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
