package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Log        LogConfig
	Monitoring MonitoringConfig
}

// MonitoringConfig holds uptime-monitoring engine configuration.
type MonitoringConfig struct {
	WorkerPoolSize      int    // bounded concurrency for probe dispatch
	DefaultConcurrency  int    // loaded from config; the engine does not read it
	RetryAttempts       int    // additional attempts after a failing probe
	RetentionDays       int    // check/history retention window
	FailureThreshold    int    // consecutive failures required to open an incident
	IncidentLockTTLSecs int    // loaded from config; the engine does not read it (the redis lock TTL is fixed at 5s)
	MonitorsFile        string // path to the YAML monitor-list file consumed by reload
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Debug        bool
	Port         int
	ReadTimeout  int
	WriteTimeout int
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Type            string // Database type: postgres, mysql, sqlite
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
}

// RedisConfig holds Redis connection configuration for the incident
// detector's advisory lock. Host == "" disables Redis; the engine falls
// back to an in-process lock.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string
}

// ConfigFile is the on-disk YAML shape; fields absent from it fall back to
// environment variables via the getEnv* helpers.
type ConfigFile struct {
	Server struct {
		Port         int  `yaml:"port"`
		Debug        bool `yaml:"debug"`
		ReadTimeout  int  `yaml:"read_timeout"`
		WriteTimeout int  `yaml:"write_timeout"`
	} `yaml:"server"`

	Database struct {
		Type     string `yaml:"type"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Database string `yaml:"database"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		SSLMode  string `yaml:"ssl_mode"`
	} `yaml:"database"`

	Redis struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Monitoring struct {
		WorkerPoolSize   int    `yaml:"worker_pool_size"`
		RetryAttempts    int    `yaml:"retry_attempts"`
		RetentionDays    int    `yaml:"retention_days"`
		FailureThreshold int    `yaml:"failure_threshold"`
		MonitorsFile     string `yaml:"monitors_file"`
	} `yaml:"monitoring"`
}

// LoadFromFile loads configuration from a YAML file, falling back to
// environment variables for anything the file leaves unset. A missing file
// is not an error: it falls back to LoadFromEnv entirely.
func LoadFromFile(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return LoadFromEnv(), nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	var cf ConfigFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	cfg := LoadFromEnv()

	if cf.Server.Port != 0 {
		cfg.Server.Port = cf.Server.Port
	}
	cfg.Server.Debug = cf.Server.Debug || cfg.Server.Debug
	if cf.Server.ReadTimeout != 0 {
		cfg.Server.ReadTimeout = cf.Server.ReadTimeout
	}
	if cf.Server.WriteTimeout != 0 {
		cfg.Server.WriteTimeout = cf.Server.WriteTimeout
	}

	if cf.Database.Type != "" {
		cfg.Database.Type = cf.Database.Type
	}
	if cf.Database.Host != "" {
		cfg.Database.Host = cf.Database.Host
	}
	if cf.Database.Port != 0 {
		cfg.Database.Port = cf.Database.Port
	}
	if cf.Database.Username != "" {
		cfg.Database.User = cf.Database.Username
	}
	if cf.Database.Password != "" {
		cfg.Database.Password = cf.Database.Password
	}
	if cf.Database.Database != "" {
		cfg.Database.Name = cf.Database.Database
	}
	if cf.Database.SSLMode != "" {
		cfg.Database.SSLMode = cf.Database.SSLMode
	}

	if cf.Redis.Host != "" {
		cfg.Redis.Host = cf.Redis.Host
		cfg.Redis.Port = cf.Redis.Port
		cfg.Redis.Password = cf.Redis.Password
		cfg.Redis.DB = cf.Redis.DB
	}

	if cf.Monitoring.WorkerPoolSize != 0 {
		cfg.Monitoring.WorkerPoolSize = cf.Monitoring.WorkerPoolSize
	}
	if cf.Monitoring.RetryAttempts != 0 {
		cfg.Monitoring.RetryAttempts = cf.Monitoring.RetryAttempts
	}
	if cf.Monitoring.RetentionDays != 0 {
		cfg.Monitoring.RetentionDays = cf.Monitoring.RetentionDays
	}
	if cf.Monitoring.FailureThreshold != 0 {
		cfg.Monitoring.FailureThreshold = cf.Monitoring.FailureThreshold
	}
	if cf.Monitoring.MonitorsFile != "" {
		cfg.Monitoring.MonitorsFile = cf.Monitoring.MonitorsFile
	}

	return cfg, nil
}

// LoadFromEnv loads configuration entirely from environment variables.
func LoadFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Debug:        getEnvAsBool("DEBUG", false),
			Port:         getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 60),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Type:            getEnv("DB_TYPE", "sqlite"),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", ""),
			Password:        getEnv("DB_PASSWORD", ""),
			Name:            getEnv("DB_NAME", "statusbeacon.db"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getEnvAsInt("DB_CONN_MAX_LIFETIME", 3600),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Monitoring: MonitoringConfig{
			WorkerPoolSize:      getEnvAsInt("MONITORING_WORKER_POOL_SIZE", 10),
			DefaultConcurrency:  getEnvAsInt("MONITORING_DEFAULT_CONCURRENCY", 20),
			RetryAttempts:       getEnvAsInt("MONITORING_RETRY_ATTEMPTS", 1),
			RetentionDays:       getEnvAsInt("MONITORING_RETENTION_DAYS", 90),
			FailureThreshold:    getEnvAsInt("MONITORING_FAILURE_THRESHOLD", 2),
			IncidentLockTTLSecs: getEnvAsInt("MONITORING_INCIDENT_LOCK_TTL_SECONDS", 5),
			MonitorsFile:        getEnv("MONITORING_MONITORS_FILE", "monitors.yaml"),
		},
	}
}

// DSN returns the database connection string for the postgres driver.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// Addr returns the Redis connection address.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate checks for configuration values that would make the engine
// misbehave rather than merely default.
func (c *Config) Validate() error {
	switch c.Database.Type {
	case "sqlite", "postgres", "postgresql", "mysql":
	default:
		return fmt.Errorf("unsupported DB_TYPE %q (supported: sqlite, postgres, mysql)", c.Database.Type)
	}
	if c.Monitoring.FailureThreshold < 1 {
		return fmt.Errorf("MONITORING_FAILURE_THRESHOLD must be >= 1")
	}
	if c.Monitoring.WorkerPoolSize < 1 {
		return fmt.Errorf("MONITORING_WORKER_POOL_SIZE must be >= 1")
	}
	return nil
}

// ValidateOrExit validates the configuration and exits the process if it is
// invalid, matching the teacher's startup-time fail-fast convention.
func (c *Config) ValidateOrExit() {
	if err := c.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

