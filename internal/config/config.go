package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/park285/cheese-coach/internal/obslog"
)

// ConfigFileEnv names an optional YAML/JSON/TOML file read before the
// environment. Environment variables win over the file.
const ConfigFileEnv = "COACH_CONFIG"

// maxOracleBudget bounds extra oracle calls per assessment; it is also the
// default.
const maxOracleBudget = 6

type AppConfig struct {
	StockfishPath    string        `mapstructure:"STOCKFISH_PATH"`
	OracleDepth      int           `mapstructure:"ORACLE_DEPTH"`
	OracleMoveTimeMS int           `mapstructure:"ORACLE_MOVETIME_MS"`
	OracleThreads    int           `mapstructure:"ORACLE_THREADS"`
	OracleHashMB     int           `mapstructure:"ORACLE_HASH_MB"`
	OraclePoolSize   int           `mapstructure:"ORACLE_POOL_SIZE"`
	OracleBudget     int           `mapstructure:"ORACLE_BUDGET"`
	EvalTimeout      time.Duration `mapstructure:"EVAL_TIMEOUT"`

	RedisURL       string        `mapstructure:"REDIS_URL"`
	CacheTTL       time.Duration `mapstructure:"CACHE_TTL"`
	CacheNamespace string        `mapstructure:"CACHE_NAMESPACE"`
	SessionTTL     time.Duration `mapstructure:"SESSION_TTL"`

	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DBMigrate    bool   `mapstructure:"DB_MIGRATE"`
	HistoryLimit int    `mapstructure:"HISTORY_LIMIT"`

	MessagesDir string `mapstructure:"MESSAGES_DIR"`

	LogLevel     string `mapstructure:"LOG_LEVEL"`
	LogFormat    string `mapstructure:"LOG_FORMAT"`
	LogToConsole bool   `mapstructure:"LOG_TO_CONSOLE"`
	LogToFile    bool   `mapstructure:"LOG_TO_FILE"`
	LogFile      string `mapstructure:"LOG_FILE"`
	LogCaller    bool   `mapstructure:"LOG_CALLER"`
}

var defaults = map[string]any{
	"STOCKFISH_PATH":     "",
	"ORACLE_DEPTH":       15,
	"ORACLE_MOVETIME_MS": 0,
	"ORACLE_THREADS":     1,
	"ORACLE_HASH_MB":     64,
	"ORACLE_POOL_SIZE":   0,
	"ORACLE_BUDGET":      maxOracleBudget,
	"EVAL_TIMEOUT":       10 * time.Second,
	"REDIS_URL":          "",
	"CACHE_TTL":          24 * time.Hour,
	"CACHE_NAMESPACE":    "",
	"SESSION_TTL":        time.Hour,
	"DATABASE_URL":       "",
	"DB_MIGRATE":         false,
	"HISTORY_LIMIT":      10,
	"MESSAGES_DIR":       "",
	"LOG_LEVEL":          "info",
	"LOG_FORMAT":         "legacy",
	"LOG_TO_CONSOLE":     true,
	"LOG_TO_FILE":        false,
	"LOG_FILE":           "logs/coach.log",
	"LOG_CALLER":         false,
}

// Load reads the file named by COACH_CONFIG (if any), then the environment.
func Load() (*AppConfig, error) {
	return LoadFile(strings.TrimSpace(os.Getenv(ConfigFileEnv)))
}

func LoadFile(path string) (*AppConfig, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.trim()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) trim() {
	c.StockfishPath = strings.TrimSpace(c.StockfishPath)
	c.RedisURL = strings.TrimSpace(c.RedisURL)
	c.DatabaseURL = strings.TrimSpace(c.DatabaseURL)
	c.CacheNamespace = strings.TrimSpace(c.CacheNamespace)
	c.MessagesDir = strings.TrimSpace(c.MessagesDir)
}

func (c *AppConfig) Validate() error {
	switch {
	case c.StockfishPath == "":
		return errors.New("STOCKFISH_PATH is required")
	case c.OracleDepth <= 0 && c.OracleMoveTimeMS <= 0:
		return errors.New("ORACLE_DEPTH or ORACLE_MOVETIME_MS must be positive")
	case c.OracleBudget < 0:
		return errors.New("ORACLE_BUDGET must not be negative")
	case c.OracleBudget > maxOracleBudget:
		return fmt.Errorf("ORACLE_BUDGET must be at most %d", maxOracleBudget)
	case c.EvalTimeout <= 0:
		return errors.New("EVAL_TIMEOUT must be positive")
	case c.SessionTTL <= 0:
		return errors.New("SESSION_TTL must be positive")
	}
	return nil
}

// CacheKeyspace is the oracle cache namespace; it defaults to the search
// setting so results at different depths never mix.
func (c *AppConfig) CacheKeyspace() string {
	if c.CacheNamespace != "" {
		return c.CacheNamespace
	}
	if c.OracleDepth > 0 {
		return fmt.Sprintf("d%d", c.OracleDepth)
	}
	return fmt.Sprintf("mt%d", c.OracleMoveTimeMS)
}

func (c *AppConfig) LogOptions() obslog.Options {
	return obslog.Options{
		Level:   c.LogLevel,
		Format:  c.LogFormat,
		Console: c.LogToConsole,
		ToFile:  c.LogToFile,
		File:    c.LogFile,
		Caller:  c.LogCaller,
	}
}
