package config

import (
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Version is injected at build time via ldflags.
var Version = "dev"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Backend   BackendConfig   `mapstructure:"backend"`
	UI        UIConfig        `mapstructure:"ui"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Stub      StubConfig      `mapstructure:"stub"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// MutationsPerMinute caps favourite and search posts per client IP.
	MutationsPerMinute int `mapstructure:"mutations_per_minute"`
}

// BackendConfig points at the REST catalog collaborator.
type BackendConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // seconds
}

// UIConfig holds rendering behavior of the views.
type UIConfig struct {
	RenderWaitMs        int `mapstructure:"render_wait_ms"`
	NotificationDelayMs int `mapstructure:"notification_delay_ms"`
	ViewIdleMinutes     int `mapstructure:"view_idle_minutes"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// SchedulerConfig holds cron expressions for background tasks.
type SchedulerConfig struct {
	ViewSweepCron        string `mapstructure:"view_sweep_cron"`
	BackendHealthCron    string `mapstructure:"backend_health_cron"`
	RateLimitCleanupCron string `mapstructure:"rate_limit_cleanup_cron"`
}

// StubConfig configures the development catalog backend.
type StubConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	SeedFile string `mapstructure:"seed_file"`
	// ImagesDir is served under /images for posters referenced by file name.
	ImagesDir string `mapstructure:"images_dir"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               8080,
			MutationsPerMinute: 120,
		},
		Backend: BackendConfig{
			BaseURL: "http://localhost:3001",
			Timeout: 30,
		},
		UI: UIConfig{
			RenderWaitMs:        500,
			NotificationDelayMs: 1700,
			ViewIdleMinutes:     30,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
		Scheduler: SchedulerConfig{
			ViewSweepCron:        "* * * * *",
			BackendHealthCron:    "*/5 * * * *",
			RateLimitCleanupCron: "*/10 * * * *",
		},
		Stub: StubConfig{
			Host:     "0.0.0.0",
			Port:     3001,
			Database: "./data/catalog.db",
			SeedFile: "./configs/seed.yaml",
		},
	}
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > .env file > config file > defaults
func Load(configPath string) (*Config, error) {
	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.movieontip")
	}

	v.SetEnvPrefix("MOVIEONTIP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Backend.BaseURL = strings.TrimRight(cfg.Backend.BaseURL, "/")
	if cfg.Backend.BaseURL == "" {
		return nil, fmt.Errorf("backend.base_url must not be empty")
	}

	return cfg, nil
}

// setDefaults mirrors Default into viper so env vars can override every key.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.mutations_per_minute", d.Server.MutationsPerMinute)

	v.SetDefault("backend.base_url", d.Backend.BaseURL)
	v.SetDefault("backend.timeout", d.Backend.Timeout)

	v.SetDefault("ui.render_wait_ms", d.UI.RenderWaitMs)
	v.SetDefault("ui.notification_delay_ms", d.UI.NotificationDelayMs)
	v.SetDefault("ui.view_idle_minutes", d.UI.ViewIdleMinutes)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.path", d.Logging.Path)
	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", d.Logging.MaxAgeDays)
	v.SetDefault("logging.compress", d.Logging.Compress)

	v.SetDefault("scheduler.view_sweep_cron", d.Scheduler.ViewSweepCron)
	v.SetDefault("scheduler.backend_health_cron", d.Scheduler.BackendHealthCron)
	v.SetDefault("scheduler.rate_limit_cleanup_cron", d.Scheduler.RateLimitCleanupCron)

	v.SetDefault("stub.host", d.Stub.Host)
	v.SetDefault("stub.port", d.Stub.Port)
	v.SetDefault("stub.database", d.Stub.Database)
	v.SetDefault("stub.seed_file", d.Stub.SeedFile)
	v.SetDefault("stub.images_dir", d.Stub.ImagesDir)
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Address returns the stub backend address string.
func (c *StubConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// FindAvailablePort returns the first free port in [start, start+attempts).
func FindAvailablePort(start, attempts int) (int, error) {
	for port := start; port < start+attempts; port++ {
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err != nil {
			continue
		}
		ln.Close()
		return port, nil
	}
	return 0, fmt.Errorf("no available port in range %d-%d", start, start+attempts-1)
}
