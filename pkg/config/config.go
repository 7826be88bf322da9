package config

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the main configuration struct.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Security SecurityConfig `yaml:"security"`
	Logging  LoggingConfig  `yaml:"logging"`
	Notify   NotifyConfig   `yaml:"notify"`
	Digest   DigestConfig   `yaml:"digest"`
}

// ServerConfig holds http listener and engine settings.
type ServerConfig struct {
	Address string    `yaml:"address"`
	Port    int       `yaml:"port"`
	DBPath  string    `yaml:"db_path"`
	Engine  string    `yaml:"engine"` // nethttp (default) or fasthttp
	TLS     TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate configuration.
type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// StorageConfig holds pebble-backed store settings.
type StorageConfig struct {
	// PageSize bounds a single backend query/scan page. Listing operations
	// drain pages transparently, so this only shapes iteration, never the
	// caller-visible result set.
	PageSize int `yaml:"page_size"`
}

// SecurityConfig holds CORS, rate limiting and IP filtering settings.
type SecurityConfig struct {
	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`
	IPWhitelist []string `yaml:"ip_whitelist"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// NotifyConfig selects and configures the notifier capability used for
// per-submission alerts and digests.
type NotifyConfig struct {
	Backend string        `yaml:"backend"` // webhook | smtp | log
	Webhook WebhookConfig `yaml:"webhook"`
	SMTP    SMTPConfig    `yaml:"smtp"`
}

// WebhookConfig configures the HTTP notifier backend.
type WebhookConfig struct {
	URL       string `yaml:"url"`
	Bearer    string `yaml:"bearer"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// SMTPConfig configures the smtp notifier backend.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	From     string `yaml:"from"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// DigestConfig holds configuration for the scheduled submission digest.
type DigestConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cron    string `yaml:"cron"`
}

// Addr returns host:port for the HTTP server.
func (c *Config) Addr() string {
	addr := c.Server.Address
	if addr == "" {
		addr = "0.0.0.0"
	}
	p := c.Server.Port
	if p == 0 {
		p = 8080
	}
	return fmt.Sprintf("%s:%d", addr, p)
}

// Load reads and parses the YAML config file at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseCommandFlags defines and parses command-line flags and returns their
// values along with a map indicating which flags were explicitly set.
func ParseCommandFlags() (addr string, dbPath string, cfgPath string, setFlags map[string]bool) {
	addrPtr := flag.String("addr", ":8080", "HTTP listen address")
	dbPtr := flag.String("db", "./.database", "Pebble DB path")
	cfgPtr := flag.String("config", "./config.yaml", "Path to config file")
	flag.Parse()
	setFlags = map[string]bool{}
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
	return *addrPtr, *dbPtr, *cfgPtr, setFlags
}

// ResolveConfigPath decides the config file path using the flag-provided
// value and the SIMPLIST_CONFIG env var when the flag was not set.
func ResolveConfigPath(flagPath string, flagSet bool) string {
	if flagSet {
		return flagPath
	}
	if p := os.Getenv("SIMPLIST_CONFIG"); p != "" {
		return p
	}
	return flagPath
}

// LoadEnvOverrides applies SIMPLIST_* environment overrides onto cfg and
// reports whether any env var was used.
func LoadEnvOverrides(cfg *Config) bool {
	envUsed := false
	parseList := func(v string) []string {
		if v == "" {
			return nil
		}
		parts := []string{}
		for _, p := range strings.Split(v, ",") {
			if s := strings.TrimSpace(p); s != "" {
				parts = append(parts, s)
			}
		}
		return parts
	}

	if v := os.Getenv("SIMPLIST_ADDR"); v != "" {
		envUsed = true
		if h, p, err := net.SplitHostPort(v); err == nil {
			cfg.Server.Address = h
			if pi, err := strconv.Atoi(p); err == nil {
				cfg.Server.Port = pi
			}
		} else {
			cfg.Server.Address = v
		}
	}
	if v := os.Getenv("SIMPLIST_DB_PATH"); v != "" {
		envUsed = true
		cfg.Server.DBPath = v
	}
	if v := os.Getenv("SIMPLIST_ENGINE"); v != "" {
		envUsed = true
		cfg.Server.Engine = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("SIMPLIST_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envUsed = true
			cfg.Storage.PageSize = n
		}
	}
	if v := os.Getenv("SIMPLIST_CORS_ORIGINS"); v != "" {
		envUsed = true
		cfg.Security.CORS.AllowedOrigins = parseList(v)
	}
	if v := os.Getenv("SIMPLIST_RATE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			envUsed = true
			cfg.Security.RateLimit.RPS = f
		}
	}
	if v := os.Getenv("SIMPLIST_RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envUsed = true
			cfg.Security.RateLimit.Burst = n
		}
	}
	if v := os.Getenv("SIMPLIST_IP_WHITELIST"); v != "" {
		envUsed = true
		cfg.Security.IPWhitelist = parseList(v)
	}
	if v := os.Getenv("SIMPLIST_NOTIFY_BACKEND"); v != "" {
		envUsed = true
		cfg.Notify.Backend = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("SIMPLIST_NOTIFY_WEBHOOK_URL"); v != "" {
		envUsed = true
		cfg.Notify.Webhook.URL = v
	}
	if v := os.Getenv("SIMPLIST_NOTIFY_WEBHOOK_BEARER"); v != "" {
		envUsed = true
		cfg.Notify.Webhook.Bearer = v
	}
	if v := os.Getenv("SIMPLIST_DIGEST_ENABLED"); v != "" {
		envUsed = true
		vl := strings.ToLower(strings.TrimSpace(v))
		cfg.Digest.Enabled = vl == "1" || vl == "true" || vl == "yes"
	}
	if v := os.Getenv("SIMPLIST_DIGEST_CRON"); v != "" {
		envUsed = true
		cfg.Digest.Cron = v
	}
	if c := os.Getenv("SIMPLIST_TLS_CERT"); c != "" {
		envUsed = true
		cfg.Server.TLS.CertFile = c
	}
	if k := os.Getenv("SIMPLIST_TLS_KEY"); k != "" {
		envUsed = true
		cfg.Server.TLS.KeyFile = k
	}
	return envUsed
}

// LoadEffective loads config from the given path and applies environment
// overrides. A missing file is not fatal; env and flags still apply.
func LoadEffective(path string) (*Config, bool, error) {
	cfg, err := Load(path)
	if err != nil {
		cfg = &Config{}
	}
	envUsed := LoadEnvOverrides(cfg)
	return cfg, envUsed, nil
}
