package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(ConfigFileEnv, "")
	t.Setenv("STOCKFISH_PATH", "/usr/bin/stockfish")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OracleDepth != 15 || cfg.OracleBudget != 6 || cfg.OracleThreads != 1 || cfg.OracleHashMB != 64 {
		t.Fatalf("oracle defaults = %+v", cfg)
	}
	if cfg.EvalTimeout != 10*time.Second || cfg.SessionTTL != time.Hour || cfg.CacheTTL != 24*time.Hour {
		t.Fatalf("duration defaults = %+v", cfg)
	}
	if cfg.HistoryLimit != 10 || cfg.RedisURL != "" || cfg.DatabaseURL != "" {
		t.Fatalf("storage defaults = %+v", cfg)
	}
	if cfg.CacheKeyspace() != "d15" {
		t.Fatalf("keyspace = %q", cfg.CacheKeyspace())
	}
	opt := cfg.LogOptions()
	if opt.Level != "info" || opt.Format != "legacy" || !opt.Console || opt.ToFile {
		t.Fatalf("log options = %+v", opt)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv(ConfigFileEnv, "")
	t.Setenv("STOCKFISH_PATH", " /opt/sf ")
	t.Setenv("ORACLE_DEPTH", "0")
	t.Setenv("ORACLE_MOVETIME_MS", "250")
	t.Setenv("ORACLE_BUDGET", "3")
	t.Setenv("EVAL_TIMEOUT", "90s")
	t.Setenv("REDIS_URL", "redis://localhost:6379/2")
	t.Setenv("DB_MIGRATE", "true")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StockfishPath != "/opt/sf" || cfg.OracleMoveTimeMS != 250 || cfg.OracleBudget != 3 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.EvalTimeout != 90*time.Second || !cfg.DBMigrate || cfg.RedisURL != "redis://localhost:6379/2" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.CacheKeyspace() != "mt250" {
		t.Fatalf("keyspace = %q", cfg.CacheKeyspace())
	}
}

func TestLoadFileWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "coach.yaml")
	body := "stockfish_path: /from/file\noracle_budget: 2\ncache_namespace: custom\nhistory_limit: 25\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv(ConfigFileEnv, path)
	t.Setenv("ORACLE_BUDGET", "4")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StockfishPath != "/from/file" || cfg.HistoryLimit != 25 || cfg.CacheKeyspace() != "custom" {
		t.Fatalf("file values = %+v", cfg)
	}
	if cfg.OracleBudget != 4 {
		t.Fatalf("env did not win over file: %d", cfg.OracleBudget)
	}
}

func TestLoadValidation(t *testing.T) {
	t.Setenv(ConfigFileEnv, "")
	t.Setenv("STOCKFISH_PATH", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected missing STOCKFISH_PATH error")
	}
	t.Setenv("STOCKFISH_PATH", "/usr/bin/stockfish")
	t.Setenv("ORACLE_BUDGET", "-1")
	if _, err := Load(); err == nil {
		t.Fatalf("expected negative budget error")
	}
	t.Setenv("ORACLE_BUDGET", "7")
	if _, err := Load(); err == nil {
		t.Fatalf("expected budget above cap error")
	}
	t.Setenv("ORACLE_BUDGET", "6")
	t.Setenv("SESSION_TTL", "0s")
	if _, err := Load(); err == nil {
		t.Fatalf("expected session ttl error")
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
