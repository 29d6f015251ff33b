package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
)

// runInstall writes a settings.json from flags so later serves pick it up.
func runInstall(args []string) {
	fs := flag.NewFlagSet("install", flag.ExitOnError)
	storeDriver := fs.String("store-driver", "libsql", "snapshot store: libsql, redis, or memory")
	dbPath := fs.String("db-path", "", "database path (default: ~/.formforge/formforge.db)")
	redisAddr := fs.String("redis-addr", "localhost:6379", "redis address (for the redis driver)")
	logLevel := fs.String("log-level", "info", "log level: debug, info, warn, error")
	projectID := fs.String("project-id", "default", "project identifier for events and logs")
	storageKey := fs.String("storage-key", "default", "snapshot storage key")
	historyCap := fs.Int("history-capacity", 50, "undo history window")
	exprEngine := fs.String("expression-engine", "expr", "expression condition engine: expr or cel")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	dir := formforgeDir()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot create %s: %v\n", dir, err)
		os.Exit(1)
	}

	cfg := defaultConfig()
	cfg.StoreDriver = *storeDriver
	cfg.RedisAddr = *redisAddr
	cfg.LogLevel = *logLevel
	cfg.ProjectID = *projectID
	cfg.StorageKey = *storageKey
	cfg.HistoryCapacity = *historyCap
	cfg.ExpressionEngine = *exprEngine
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	} else {
		cfg.DBPath = filepath.Join(dir, "formforge.db")
	}

	data, _ := json.MarshalIndent(cfg, "", "  ")
	path := settingsPath()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot write %s: %v\n", path, err)
		os.Exit(1)
	}
	fmt.Printf("Config written to %s\n", path)
}
