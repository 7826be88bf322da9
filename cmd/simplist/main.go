package main

import (
	"context"
	"strings"

	"github.com/joho/godotenv"

	"simplist/internal/app"
	"simplist/pkg/config"
	"simplist/pkg/logger"
	"simplist/pkg/shutdown"
)

// build metadata - set via ldflags during build/release
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	_ = godotenv.Load(".env")
	addrVal, dbVal, cfgVal, setFlags := config.ParseCommandFlags()

	// config file flag wins over env
	cfgPath := config.ResolveConfigPath(cfgVal, setFlags["config"])

	cfg, envUsed, err := config.LoadEffective(cfgPath)
	if err != nil {
		shutdown.Abort("config load failed", err, "", 0)
	}

	logger.Init(cfg.Logging.Level)

	// flags explicitly set win over env/config for addr and dbPath
	addr := cfg.Addr()
	if setFlags["addr"] {
		addr = addrVal
	}
	dbPath := dbVal
	if !setFlags["db"] && cfg.Server.DBPath != "" {
		dbPath = cfg.Server.DBPath
	}

	var srcs []string
	if len(setFlags) > 0 {
		srcs = append(srcs, "flags")
	}
	if envUsed {
		srcs = append(srcs, "env")
	}
	if _, err := config.Load(cfgPath); err == nil {
		srcs = append(srcs, "config")
	}

	a, err := app.New(cfg, addr, dbPath, strings.Join(srcs, ", "), version, commit, buildDate)
	if err != nil {
		shutdown.Abort("startup failed", err, dbPath, 0)
	}

	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	defer cancel()

	if err := a.Run(ctx); err != nil {
		shutdown.Abort("server exited", err, dbPath, 0)
	}
}
