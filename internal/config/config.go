package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Monitoring    MonitoringConfig    `mapstructure:"monitoring"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	HealthCheck   HealthCheckConfig   `mapstructure:"health_check"`
	Resources     ResourcesConfig     `mapstructure:"resources"`
	WebSocket     WebSocketConfig     `mapstructure:"websocket"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
	Mode string `mapstructure:"mode"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MonitoringConfig controls the alert engine itself.
type MonitoringConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	RulesPath      string        `mapstructure:"rules_path"`
	MaxHistorySize int           `mapstructure:"max_history_size"`
	StaleThreshold time.Duration `mapstructure:"stale_threshold"`
	SweepInterval  time.Duration `mapstructure:"sweep_interval"`
	ServiceName    string        `mapstructure:"service_name"`
}

// NotificationsConfig holds delivery settings shared by all channels.
type NotificationsConfig struct {
	Timeout           time.Duration           `mapstructure:"timeout"`
	EscalationChannel EscalationChannelConfig `mapstructure:"escalation_channel"`
	SMTP              SMTPConfig              `mapstructure:"smtp"`
}

// EscalationChannelConfig is the single channel escalation notices go to.
// Empty URL disables escalation notifications.
type EscalationChannelConfig struct {
	Type string `mapstructure:"type"`
	URL  string `mapstructure:"url"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type HealthCheckConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	URL      string        `mapstructure:"url"`
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type ResourcesConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

type WebSocketConfig struct {
	PingInterval int `mapstructure:"ping_interval"`
	PongTimeout  int `mapstructure:"pong_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Prefix  string `mapstructure:"prefix"`
}

// Load reads config.yaml plus environment overrides.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()

	viper.BindEnv("server.port", "PORT")
	viper.BindEnv("logging.level", "LOG_LEVEL")
	viper.BindEnv("monitoring.enabled", "VIGIL_MONITORING_ENABLED")
	viper.BindEnv("monitoring.rules_path", "VIGIL_RULES_PATH")
	viper.BindEnv("health_check.url", "VIGIL_HEALTH_CHECK_URL")
	viper.BindEnv("notifications.escalation_channel.url", "VIGIL_ESCALATION_URL")
	viper.BindEnv("notifications.smtp.password", "VIGIL_SMTP_PASSWORD")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine, defaults and env cover everything.
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", 3001)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.mode", "development")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	// Monitoring defaults
	viper.SetDefault("monitoring.enabled", true)
	viper.SetDefault("monitoring.rules_path", "./configs/rules.yaml")
	viper.SetDefault("monitoring.max_history_size", 1000)
	viper.SetDefault("monitoring.stale_threshold", "24h")
	viper.SetDefault("monitoring.sweep_interval", "5m")
	viper.SetDefault("monitoring.service_name", "vigil")

	// Notification defaults
	viper.SetDefault("notifications.timeout", "10s")
	viper.SetDefault("notifications.smtp.port", 587)

	// Health check defaults
	viper.SetDefault("health_check.enabled", true)
	viper.SetDefault("health_check.interval", "1m")
	viper.SetDefault("health_check.timeout", "30s")

	// Resource collector defaults
	viper.SetDefault("resources.enabled", true)
	viper.SetDefault("resources.interval", "30s")

	// WebSocket defaults
	viper.SetDefault("websocket.ping_interval", 30)
	viper.SetDefault("websocket.pong_timeout", 60)
	viper.SetDefault("websocket.write_timeout", 10)

	// Metrics defaults
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.prefix", "vigil")
}
