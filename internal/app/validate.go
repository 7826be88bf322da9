package app

import (
	"fmt"
	"os"

	"github.com/adhocore/gronx"

	"simplist/pkg/config"
	"simplist/pkg/httpx"
)

// validateConfig performs quick, fail-fast validation of the effective
// configuration before starting long-running services. Keep checks light
// and focused so callers can surface user-friendly errors.
func validateConfig(cfg *config.Config, dbPath string) error {
	if dbPath == "" {
		return fmt.Errorf("database path is empty: set --db flag, SIMPLIST_DB_PATH env, or server.db_path in config")
	}

	switch cfg.Server.Engine {
	case "", httpx.EngineNetHTTP, httpx.EngineFastHTTP:
	default:
		return fmt.Errorf("unknown server engine %q: use %s or %s", cfg.Server.Engine, httpx.EngineNetHTTP, httpx.EngineFastHTTP)
	}

	if cfg.Storage.PageSize < 0 {
		return fmt.Errorf("storage.page_size must not be negative")
	}

	// TLS cert/key presence check if one is set
	cert := cfg.Server.TLS.CertFile
	key := cfg.Server.TLS.KeyFile
	if (cert != "" && key == "") || (cert == "" && key != "") {
		return fmt.Errorf("incomplete TLS configuration: both server.tls.cert_file and server.tls.key_file must be set")
	}
	if cert != "" {
		if _, err := os.Stat(cert); err != nil {
			return fmt.Errorf("tls cert file not accessible: %w", err)
		}
		if _, err := os.Stat(key); err != nil {
			return fmt.Errorf("tls key file not accessible: %w", err)
		}
	}

	switch cfg.Notify.Backend {
	case "", "log":
	case "webhook":
		if cfg.Notify.Webhook.URL == "" {
			return fmt.Errorf("notify.backend is webhook but notify.webhook.url is empty")
		}
	case "smtp":
		if cfg.Notify.SMTP.Host == "" {
			return fmt.Errorf("notify.backend is smtp but notify.smtp.host is empty")
		}
	default:
		return fmt.Errorf("unknown notify backend %q: use log, webhook or smtp", cfg.Notify.Backend)
	}

	if cfg.Digest.Enabled && cfg.Digest.Cron != "" && !gronx.IsValid(cfg.Digest.Cron) {
		return fmt.Errorf("invalid digest cron expression: %s", cfg.Digest.Cron)
	}

	return nil
}
