package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config struct is the top-level configuration structure.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Assessment AssessmentConfig `mapstructure:"assessment"`
}

// ServerConfig holds server-related settings.
type ServerConfig struct {
	Port          string `mapstructure:"port"`
	SessionSecret string `mapstructure:"session_secret"`
	SecureCookies bool   `mapstructure:"secure_cookies"`
	AssetsDir     string `mapstructure:"assets_dir"`
}

// LoggingConfig holds settings for the logger.
type LoggingConfig struct {
	Directory  string `mapstructure:"directory"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// ClassifierConfig points at the remote voice-feature classifier.
type ClassifierConfig struct {
	URL       string        `mapstructure:"url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit int           `mapstructure:"rate_limit"` // requests per minute per client
}

// AssessmentConfig controls the battery and attempt lifetime.
type AssessmentConfig struct {
	BatteryFile   string        `mapstructure:"battery_file"`
	AttemptTTL    time.Duration `mapstructure:"attempt_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	MaxAttempts   int           `mapstructure:"max_attempts"`
	StartLimit    int           `mapstructure:"start_rate_limit"` // attempt starts per minute per client
}

// Store holds the current configuration and swaps it on file changes.
type Store struct {
	mu  sync.RWMutex
	cfg Config
}

// Get returns a copy of the current configuration.
func (s *Store) Get() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func (s *Store) set(cfg Config) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

// setDefaults sets the default values for the configuration.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "5050")
	v.SetDefault("server.session_secret", "change-me-in-production")
	v.SetDefault("server.secure_cookies", false)
	v.SetDefault("server.assets_dir", "assets")

	// Logging defaults
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.max_size", 10)   // 10 MB
	v.SetDefault("logging.max_backups", 3) // Keep 3 backups
	v.SetDefault("logging.max_age", 7)     // 7 days
	v.SetDefault("logging.compress", true) // Compress old logs

	// Classifier defaults
	v.SetDefault("classifier.url", "http://localhost:5000/predict")
	v.SetDefault("classifier.timeout", "10s")
	v.SetDefault("classifier.rate_limit", 20)

	// Assessment defaults
	v.SetDefault("assessment.battery_file", "")
	v.SetDefault("assessment.attempt_ttl", "2h")
	v.SetDefault("assessment.sweep_interval", "1m")
	v.SetDefault("assessment.max_attempts", 10000)
	v.SetDefault("assessment.start_rate_limit", 30)
}

// Load reads config/config.yaml under projectRoot. Environment variables
// prefixed NEUROSCREEN_ override the file, which overrides the defaults.
func Load(projectRoot string) (*Store, *viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	// --- File Configuration ---
	v.AddConfigPath(filepath.Join(projectRoot, "config"))
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// --- Environment Variable Binding ---
	v.SetEnvPrefix("NEUROSCREEN") // e.g., NEUROSCREEN_SERVER_PORT
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// It's okay if the file doesn't exist; defaults and env vars will be used.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	return &Store{cfg: cfg}, v, nil
}

// Watch hot-reloads the store whenever the config file changes.
func Watch(v *viper.Viper, store *Store, log *zap.Logger) {
	if v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		log.Info("Configuration file changed, reloading.", zap.String("file", e.Name))
		var cfg Config
		if err := v.Unmarshal(&cfg); err != nil {
			log.Error("Error reloading configuration", zap.Error(err))
			return
		}
		store.set(cfg)
	})
	v.WatchConfig()
}
