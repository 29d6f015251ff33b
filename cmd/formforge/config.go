package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds all formforge server configuration.
// Priority: env vars > settings.json > defaults.
type Config struct {
	StoreDriver      string `json:"store_driver"` // libsql, redis, memory
	DBPath           string `json:"db_path"`
	RedisAddr        string `json:"redis_addr"`
	RedisPassword    string `json:"redis_password"`
	RedisDB          int    `json:"redis_db"`
	LogLevel         string `json:"log_level"`
	ProjectID        string `json:"project_id"`
	StorageKey       string `json:"storage_key"`
	HistoryCapacity  int    `json:"history_capacity"`
	ExpressionEngine string `json:"expression_engine"` // expr or cel
	AutosaveCron     string `json:"autosave_cron"`
	BackupCron       string `json:"backup_cron"`
	BackupKeep       int    `json:"backup_keep"`
	VacuumCron       string `json:"vacuum_cron"`
}

func defaultConfig() Config {
	return Config{
		StoreDriver:      "libsql",
		DBPath:           filepath.Join(formforgeDir(), "formforge.db"),
		RedisAddr:        "localhost:6379",
		LogLevel:         "info",
		ProjectID:        "default",
		StorageKey:       "default",
		HistoryCapacity:  50,
		ExpressionEngine: "expr",
		AutosaveCron:     "* * * * *",
		BackupCron:       "0 * * * *",
		BackupKeep:       24,
		VacuumCron:       "0 3 * * *",
	}
}

func formforgeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".formforge"
	}
	return filepath.Join(home, ".formforge")
}

func settingsPath() string {
	return filepath.Join(formforgeDir(), "settings.json")
}

func loadConfig() Config {
	cfg := defaultConfig()

	// Layer 2: settings.json (ignore if missing).
	if data, err := os.ReadFile(settingsPath()); err == nil {
		_ = json.Unmarshal(data, &cfg)
	}

	// Layer 3: env vars override.
	if v := os.Getenv("FORMFORGE_STORE_DRIVER"); v != "" {
		cfg.StoreDriver = v
	}
	if v := os.Getenv("FORMFORGE_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("FORMFORGE_REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("FORMFORGE_REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("FORMFORGE_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RedisDB = n
		}
	}
	if v := os.Getenv("FORMFORGE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("FORMFORGE_PROJECT_ID"); v != "" {
		cfg.ProjectID = v
	}
	if v := os.Getenv("FORMFORGE_STORAGE_KEY"); v != "" {
		cfg.StorageKey = v
	}
	if v := os.Getenv("FORMFORGE_HISTORY_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.HistoryCapacity = n
		}
	}
	if v := os.Getenv("FORMFORGE_EXPRESSION_ENGINE"); v != "" {
		cfg.ExpressionEngine = v
	}
	if v := os.Getenv("FORMFORGE_AUTOSAVE_CRON"); v != "" {
		cfg.AutosaveCron = v
	}
	if v := os.Getenv("FORMFORGE_BACKUP_CRON"); v != "" {
		cfg.BackupCron = v
	}
	if v := os.Getenv("FORMFORGE_BACKUP_KEEP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.BackupKeep = n
		}
	}
	if v := os.Getenv("FORMFORGE_VACUUM_CRON"); v != "" {
		cfg.VacuumCron = v
	}

	return cfg
}
