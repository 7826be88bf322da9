package banner

import (
	"fmt"

	"simplist/pkg/config"
)

const banner = `
███████╗██╗███╗   ███╗██████╗ ██╗     ██╗███████╗████████╗
██╔════╝██║████╗ ████║██╔══██╗██║     ██║██╔════╝╚══██╔══╝
███████╗██║██╔████╔██║██████╔╝██║     ██║███████╗   ██║
╚════██║██║██║╚██╔╝██║██╔═══╝ ██║     ██║╚════██║   ██║
███████║██║██║ ╚═╝ ██║██║     ███████╗██║███████║   ██║
╚══════╝╚═╝╚═╝     ╚═╝╚═╝     ╚══════╝╚═╝╚══════╝   ╚═╝
`

// Print writes the startup banner with config, endpoint and production
// readiness info to stdout.
func Print(cfg *config.Config, addr, dbPath, sources, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", addr)
	fmt.Printf("DB Path:  %s\n", dbPath)
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	if sources != "" {
		fmt.Printf("Config sources: %s\n", sources)
	}
	engine := "nethttp"
	if cfg != nil && cfg.Server.Engine != "" {
		engine = cfg.Server.Engine
	}
	fmt.Printf("Engine:   %s\n", engine)

	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("POST /v1/submissions - Ingest a form submission (JSON: formId, fields)")
	fmt.Println("GET  /v1/forms - List known forms with submission counts")
	fmt.Println("GET  /v1/forms/{formId}/entries?from=<ts|alltime|yesterday|lastweek>&to=<ts> - List entries")
	fmt.Println("PUT  /v1/forms/{formId}/notify - Set notification recipients (JSON: emails)")

	fmt.Println("\n== Examples ===================================================")
	fmt.Printf("curl -X POST 'http://localhost%s/v1/submissions' -d '{\"formId\":\"contact\",\"fields\":{\"email\":\"a@b.com\"}}'\n", addr)
	fmt.Printf("curl 'http://localhost%s/v1/forms/contact/entries?from=lastweek'\n", addr)

	fmt.Println("\n== Production? =================================================")
	if cfg != nil && cfg.Server.TLS.CertFile != "" && cfg.Server.TLS.KeyFile != "" {
		fmt.Println("- TLS: configured")
	} else {
		fmt.Println("- TLS: unconfigured (set server.tls.cert_file / key_file)")
	}
	if dbPath != "" {
		fmt.Printf("- DB Path: %s\n", dbPath)
	} else {
		fmt.Println("- DB Path: not set (use --db or SIMPLIST_DB_PATH)")
	}
	backend := "log"
	if cfg != nil && cfg.Notify.Backend != "" {
		backend = cfg.Notify.Backend
	}
	if backend == "log" {
		fmt.Println("- Notifications: log only (set notify.backend to webhook or smtp)")
	} else {
		fmt.Printf("- Notifications: %s\n", backend)
	}
	if cfg != nil && cfg.Digest.Enabled {
		cron := cfg.Digest.Cron
		if cron == "" {
			cron = "0 2 * * *"
		}
		fmt.Printf("- Digest: enabled (%s)\n", cron)
	} else {
		fmt.Println("- Digest: disabled")
	}
}
