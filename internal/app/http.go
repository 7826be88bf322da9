package app

import (
	"net/http"

	"simplist/pkg/api"
	"simplist/pkg/banner"
	"simplist/pkg/httpx"
	"simplist/pkg/security"
	"simplist/pkg/telemetry"
)

// printBanner prints the startup banner and build info.
func (a *App) printBanner() {
	verStr := a.version
	if a.commit != "none" && a.commit != "" {
		verStr += " (" + a.commit + ")"
	}
	if a.buildDate != "unknown" && a.buildDate != "" {
		verStr += " @ " + a.buildDate
	}
	banner.Print(a.cfg, a.addr, a.dbPath, a.sources, verStr)
}

// setupHTTPHandlers sets up all HTTP handlers on the provided mux.
func (a *App) setupHTTPHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", healthzHandler)
	mux.HandleFunc("/readyz", a.readyzHandler)
	mux.Handle("/metrics", telemetry.Handler())
	mux.Handle("/", api.Handler(a.svc))
}

// readyzHandler handles the /readyz endpoint.
func (a *App) readyzHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !a.store.Ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("{\"status\":\"not ready\"}"))
		return
	}
	w.WriteHeader(http.StatusOK)
	ver := a.version
	if ver == "" {
		ver = "dev"
	}
	_, _ = w.Write([]byte("{\"status\":\"ok\",\"version\":\"" + ver + "\"}"))
}

// healthzHandler handles the /healthz endpoint.
func healthzHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("{\"status\":\"ok\"}"))
}

// startHTTP builds the handler chain, starts the HTTP server in a goroutine
// and returns a channel that will contain any server error.
func (a *App) startHTTP() (<-chan error, error) {
	mux := http.NewServeMux()
	a.setupHTTPHandlers(mux)

	secCfg := security.Config{
		AllowedOrigins: append([]string{}, a.cfg.Security.CORS.AllowedOrigins...),
		RPS:            a.cfg.Security.RateLimit.RPS,
		Burst:          a.cfg.Security.RateLimit.Burst,
		IPWhitelist:    append([]string{}, a.cfg.Security.IPWhitelist...),
	}

	// security first, then request metrics
	wrapped := security.Middleware(secCfg)(mux)
	wrapped = telemetry.InstrumentHTTP(wrapped)

	srv, err := httpx.NewServer(a.cfg.Server.Engine, a.addr, wrapped)
	if err != nil {
		return nil, err
	}
	a.srv = srv

	errCh := make(chan error, 1)
	go func() {
		cert := a.cfg.Server.TLS.CertFile
		key := a.cfg.Server.TLS.KeyFile
		if cert != "" && key != "" {
			errCh <- srv.ListenAndServeTLS(cert, key)
		} else {
			errCh <- srv.ListenAndServe()
		}
	}()
	return errCh, nil
}
