package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr        string // API bind address, e.g. "127.0.0.1:8080" or ":8080" in a container
	LogDir      string
	LogLevel    string
	LogConsole  bool   // also write logs to stderr
	TargetsFile string // YAML site list; empty means the built-in defaults

	CheckTimeout  time.Duration // bound for every single check
	MaxConcurrent int           // 0 means unbounded

	AllowedOrigins []string // CORS; empty allows all
	ScrapeTokens   []string // required on /metrics when non-empty
	StatusRPM      int      // per-client limit on /status; 0 disables
	StatusBurst    int
}

func FromEnv() Config {
	addr := os.Getenv("API_ADDR")
	if addr == "" {
		addr = "127.0.0.1:8080"
	}

	logDir := os.Getenv("LOG_DIR")
	if logDir == "" {
		logDir = "logs"
	}

	level := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	if level == "" {
		level = "info"
	}

	timeout := 10 * time.Second
	if ms := atoiMin("CHECK_TIMEOUT_MS", 0, 1); ms > 0 {
		timeout = time.Duration(ms) * time.Millisecond
	}

	return Config{
		Addr:           addr,
		LogDir:         logDir,
		LogLevel:       level,
		LogConsole:     boolEnv("LOG_CONSOLE"),
		TargetsFile:    strings.TrimSpace(os.Getenv("TARGETS_FILE")),
		CheckTimeout:   timeout,
		MaxConcurrent:  atoiMin("MAX_CONCURRENT_CHECKS", 0, 0),
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),
		ScrapeTokens:   splitList(os.Getenv("SCRAPE_TOKENS")),
		StatusRPM:      atoiMin("STATUS_RPM", 60, 0),
		StatusBurst:    atoiMin("STATUS_BURST", 20, 0),
	}
}

// atoiMin reads an integer env var, falling back to def when unset,
// malformed or below min.
func atoiMin(key string, def, min int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < min {
		return def
	}
	return n
}

func boolEnv(key string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	return err == nil && b
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
