package config

import (
	"testing"
	"time"
)

func TestFromEnv_Parses(t *testing.T) {
	t.Setenv("API_ADDR", ":9090")
	t.Setenv("LOG_DIR", "./_testlogs")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_CONSOLE", "true")
	t.Setenv("TARGETS_FILE", " sites.yaml ")
	t.Setenv("CHECK_TIMEOUT_MS", "1234")
	t.Setenv("MAX_CONCURRENT_CHECKS", "7")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("SCRAPE_TOKENS", "tok_a,,tok_b")
	t.Setenv("STATUS_RPM", "111")
	t.Setenv("STATUS_BURST", "22")

	cfg := FromEnv()

	if cfg.Addr != ":9090" || cfg.LogDir != "./_testlogs" {
		t.Fatalf("addr/logdir wrong: %+v", cfg)
	}
	if cfg.LogLevel != "debug" || !cfg.LogConsole {
		t.Fatalf("log settings wrong: %+v", cfg)
	}
	if cfg.TargetsFile != "sites.yaml" {
		t.Fatalf("targets file = %q", cfg.TargetsFile)
	}
	if cfg.CheckTimeout != 1234*time.Millisecond || cfg.MaxConcurrent != 7 {
		t.Fatalf("check tuning wrong: %+v", cfg)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("origins wrong: %+v", cfg.AllowedOrigins)
	}
	if len(cfg.ScrapeTokens) != 2 || cfg.ScrapeTokens[0] != "tok_a" {
		t.Fatalf("tokens wrong: %+v", cfg.ScrapeTokens)
	}
	if cfg.StatusRPM != 111 || cfg.StatusBurst != 22 {
		t.Fatalf("rate limit wrong: %+v", cfg)
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{
		"API_ADDR", "LOG_DIR", "LOG_LEVEL", "LOG_CONSOLE", "TARGETS_FILE", "CHECK_TIMEOUT_MS",
		"MAX_CONCURRENT_CHECKS", "ALLOWED_ORIGINS", "SCRAPE_TOKENS", "STATUS_RPM", "STATUS_BURST",
	} {
		t.Setenv(k, "")
	}

	cfg := FromEnv()

	if cfg.Addr != "127.0.0.1:8080" || cfg.LogDir != "logs" || cfg.LogLevel != "info" {
		t.Fatalf("defaults wrong: %+v", cfg)
	}
	if cfg.CheckTimeout != 10*time.Second || cfg.MaxConcurrent != 0 {
		t.Fatalf("check defaults wrong: %+v", cfg)
	}
	if cfg.StatusRPM != 60 || cfg.StatusBurst != 20 {
		t.Fatalf("rate defaults wrong: %+v", cfg)
	}
	if cfg.LogConsole || cfg.TargetsFile != "" || cfg.AllowedOrigins != nil || cfg.ScrapeTokens != nil {
		t.Fatalf("unexpected values: %+v", cfg)
	}
}

func TestFromEnv_IgnoresMalformed(t *testing.T) {
	t.Setenv("CHECK_TIMEOUT_MS", "soon")
	t.Setenv("MAX_CONCURRENT_CHECKS", "-4")
	t.Setenv("STATUS_RPM", "x")

	cfg := FromEnv()
	if cfg.CheckTimeout != 10*time.Second || cfg.MaxConcurrent != 0 || cfg.StatusRPM != 60 {
		t.Fatalf("malformed values not ignored: %+v", cfg)
	}
}
