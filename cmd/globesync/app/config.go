package app

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/peakatlas/globesync/pkg/constants"
)

// Config holds the application configuration loaded from flags,
// environment variables, .env files, and an optional config file.
type Config struct {
	// Global flags
	Verbose  bool
	Quiet    bool
	LogLevel string

	// Storage. DatabaseURL selects PostgreSQL; otherwise SQLitePath is
	// used.
	DatabaseURL string
	SQLitePath  string
	SeedFile    string

	// API server
	ListenAddr string

	// Geocode worker
	GeocodeEnabled bool
	WorkerInterval time.Duration

	// Engine
	Endpoint     string
	PollInterval time.Duration
}

// LoadConfig loads configuration in order of precedence: flags (applied
// later by cobra), environment variables, .env files, then defaults.
func LoadConfig() (*Config, error) {
	// .env before viper env binding; .env.local overrides .env.
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("globesync")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	// DATABASE_URL is conventional and unprefixed.
	_ = viper.BindEnv("database_url", "DATABASE_URL", "GLOBESYNC_DATABASE_URL")

	viper.SetDefault("sqlite_path", "globesync.db")
	viper.SetDefault("listen_addr", constants.DefaultListenAddr)
	viper.SetDefault("poll_interval", constants.DefaultPollInterval)
	viper.SetDefault("worker_interval", constants.DefaultWorkerInterval)

	config := &Config{
		LogLevel:       viper.GetString("log_level"),
		DatabaseURL:    viper.GetString("database_url"),
		SQLitePath:     viper.GetString("sqlite_path"),
		SeedFile:       viper.GetString("seed_file"),
		ListenAddr:     viper.GetString("listen_addr"),
		GeocodeEnabled: viper.GetBool("geocode"),
		WorkerInterval: viper.GetDuration("worker_interval"),
		Endpoint:       viper.GetString("endpoint"),
		PollInterval:   viper.GetDuration("poll_interval"),
	}

	if config.PollInterval <= 0 {
		config.PollInterval = constants.DefaultPollInterval
	}
	if config.WorkerInterval <= 0 {
		config.WorkerInterval = constants.DefaultWorkerInterval
	}

	return config, nil
}

// UpdateFromFlags applies parsed global flags, which take precedence over
// config file and environment values.
func (c *Config) UpdateFromFlags(verbose, quiet bool, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}
