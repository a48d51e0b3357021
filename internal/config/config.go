package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for both binaries
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	API       APIConfig       `yaml:"api"`
	Dashboard DashboardConfig `yaml:"dashboard"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
	LogLevel string `yaml:"log_level"` // silent, error, warn, info
}

// APIConfig holds settings of the procurement API server
type APIConfig struct {
	Port              string   `yaml:"port"`
	JWTSecret         string   `yaml:"jwt_secret"`
	GinMode           string   `yaml:"gin_mode"`
	CORSOrigins       []string `yaml:"cors_origins"`
	DeadlineSweepCron string   `yaml:"deadline_sweep_cron"` // empty disables the sweeper
	AdminUsername     string   `yaml:"admin_username"`
	AdminPassword     string   `yaml:"admin_password"` // empty skips seeding the admin account
}

// DashboardConfig holds settings of the admin dashboard server
type DashboardConfig struct {
	Port        string        `yaml:"port"`
	APIBaseURL  string        `yaml:"api_base_url"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`
}

// Default returns the development defaults
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     "5432",
			User:     "postgres",
			Password: "postgres",
			Name:     "procurement",
			SSLMode:  "disable",
			LogLevel: "warn",
		},
		API: APIConfig{
			Port:          "8080",
			GinMode:       "debug",
			AdminUsername: "admin",
			CORSOrigins:   []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:8081"},
		},
		Dashboard: DashboardConfig{
			Port:        "8081",
			APIBaseURL:  "http://localhost:8080",
			HTTPTimeout: 15 * time.Second,
			CacheTTL:    30 * time.Second,
		},
	}
}

// Load reads configs/.env, an optional YAML file named by CONFIG_FILE, then
// environment variables. Later sources win.
func Load() (*Config, error) {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnv("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Name = getEnv("DB_NAME", c.Database.Name)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)
	c.Database.LogLevel = getEnv("DB_LOG_LEVEL", c.Database.LogLevel)

	c.API.Port = getEnv("PORT", c.API.Port)
	c.API.JWTSecret = getEnv("JWT_SECRET", c.API.JWTSecret)
	c.API.GinMode = getEnv("GIN_MODE", c.API.GinMode)
	c.API.DeadlineSweepCron = getEnv("DEADLINE_SWEEP_CRON", c.API.DeadlineSweepCron)
	c.API.AdminUsername = getEnv("ADMIN_USERNAME", c.API.AdminUsername)
	c.API.AdminPassword = getEnv("ADMIN_PASSWORD", c.API.AdminPassword)
	if v, ok := os.LookupEnv("CORS_ORIGINS"); ok {
		c.API.CORSOrigins = splitList(v)
	}

	c.Dashboard.Port = getEnv("DASHBOARD_PORT", c.Dashboard.Port)
	c.Dashboard.APIBaseURL = strings.TrimRight(getEnv("API_BASE_URL", c.Dashboard.APIBaseURL), "/")

	var err error
	if c.Dashboard.HTTPTimeout, err = getDuration("HTTP_TIMEOUT", c.Dashboard.HTTPTimeout); err != nil {
		return err
	}
	if c.Dashboard.CacheTTL, err = getDuration("CACHE_TTL", c.Dashboard.CacheTTL); err != nil {
		return err
	}

	if c.API.JWTSecret == "" {
		if c.API.GinMode == "release" {
			return fmt.Errorf("JWT_SECRET environment variable is required in release mode")
		}
		c.API.JWTSecret = "default_super_secret_key" // development fallback only
	}
	return nil
}

// DSN returns the postgres connection URL
func (d DatabaseConfig) DSN() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.Name + "?sslmode=" + d.SSLMode
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getDuration accepts Go duration strings ("30s") or plain seconds ("30").
func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
