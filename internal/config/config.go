package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	APIKey string // static shared secret for /ping, /dashboard, /maintenance

	KeepaliveInterval   time.Duration // interval for the built-in recorder ticker (0 = external cron only)
	MaintenanceInterval time.Duration // interval for the built-in maintenance ticker (0 = external cron only)

	PingBurst        int // rate limit burst for /ping
	PingRefillPerMin int // rate limit refill per IP per minute for /ping

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict maintenance/health endpoints to specific IPs
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
}

// fileConfig is the optional YAML overlay (PULSE_CONFIG_FILE).
// Non-zero fields override the env-derived values.
type fileConfig struct {
	ListenPort          string   `yaml:"listen_port"`
	LogLevel            string   `yaml:"log_level"`
	APIKey              string   `yaml:"api_key"`
	KeepaliveInterval   string   `yaml:"keepalive_interval"`
	MaintenanceInterval string   `yaml:"maintenance_interval"`
	RedisAddr           string   `yaml:"redis_addr"`
	RedisPassword       string   `yaml:"redis_password"`
	AllowedHosts        []string `yaml:"allowed_hosts"`
	AllowedCIDRS        []string `yaml:"allowed_cidrs"`
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("PULSE_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("PULSE_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("PULSE_LOG_LEVEL", "info"),
		PrettyLog: mustBool("PULSE_PRETTY_LOG", false),

		// Auth
		APIKey: requireEnv("PULSE_API_KEY"),

		// Built-in schedulers (0 = disabled, rely on external cron)
		KeepaliveInterval:   mustDuration("PULSE_KEEPALIVE_INTERVAL", 0),
		MaintenanceInterval: mustDuration("PULSE_MAINTENANCE_INTERVAL", 0),

		// Rate limiting for /ping
		PingBurst:        getenvInt("PULSE_PING_BURST", 10),
		PingRefillPerMin: getenvInt("PULSE_PING_REFILL_PER_MIN", 30),

		// Redis settings
		RedisAddr:             requireEnv("PULSE_REDIS_ADDR"),
		RedisPasswordRequired: mustBool("PULSE_REDIS_PASSWORD_REQUIRED", true),
		RedisPassword:         getenv("PULSE_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("PULSE_REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("PULSE_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("PULSE_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("PULSE_TRUST_PROXY", true),
	}

	if path := os.Getenv("PULSE_CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			panic(fmt.Sprintf("❌ FATAL: failed to load config file %s: %v", path, err))
		}
	}

	// Validate Redis password configuration
	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: PULSE_REDIS_PASSWORD is required when PULSE_REDIS_PASSWORD_REQUIRED=true")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		cfgCopy.APIKey = "***REDACTED***"
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// applyFile merges the YAML overlay into cfg. Non-zero file values win.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("invalid yaml: %w", err)
	}

	if fc.ListenPort != "" {
		c.ListenPort = fc.ListenPort
	}
	if fc.LogLevel != "" {
		c.LogLevel = fc.LogLevel
	}
	if fc.APIKey != "" {
		c.APIKey = fc.APIKey
	}
	if fc.KeepaliveInterval != "" {
		d, err := time.ParseDuration(fc.KeepaliveInterval)
		if err != nil {
			return fmt.Errorf("invalid keepalive_interval: %w", err)
		}
		c.KeepaliveInterval = d
	}
	if fc.MaintenanceInterval != "" {
		d, err := time.ParseDuration(fc.MaintenanceInterval)
		if err != nil {
			return fmt.Errorf("invalid maintenance_interval: %w", err)
		}
		c.MaintenanceInterval = d
	}
	if fc.RedisAddr != "" {
		c.RedisAddr = fc.RedisAddr
	}
	if fc.RedisPassword != "" {
		c.RedisPassword = fc.RedisPassword
	}
	if len(fc.AllowedHosts) > 0 {
		c.AllowedHosts = fc.AllowedHosts
	}
	if len(fc.AllowedCIDRS) > 0 {
		c.AllowedCIDRS = fc.AllowedCIDRS
	}

	return nil
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
