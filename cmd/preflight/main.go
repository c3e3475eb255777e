// cmd/preflight/main.go
package main

import (
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"

	"github.com/hamed0406/sitewatch/internal/config"
)

type report struct {
	out, err io.Writer
	failed   bool
}

func (r *report) fail(msg string) { fmt.Fprintln(r.err, "✖", msg); r.failed = true }
func (r *report) warn(msg string) { fmt.Fprintln(r.err, "⚠", msg) }
func (r *report) ok(msg string)   { fmt.Fprintln(r.out, "✔", msg) }

func main() {
	_ = godotenv.Load() // optional
	r := &report{out: os.Stdout, err: os.Stderr}
	preflight(r, afero.NewOsFs())
	if r.failed {
		os.Exit(1)
	}
	r.ok("preflight passed")
}

func preflight(r *report, fs afero.Fs) {
	cfg := config.FromEnv()

	if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
		r.fail("API_ADDR=" + cfg.Addr + " is not host:port")
	} else {
		r.ok("API_ADDR=" + cfg.Addr)
	}

	for _, name := range []string{"SCRAPE_TOKENS", "ALLOWED_ORIGINS"} {
		if strings.Contains(os.Getenv(name), " ") {
			r.warn(name + " contains spaces; use comma-separated with no spaces, e.g. a,b")
		}
	}
	if len(cfg.ScrapeTokens) == 0 {
		r.warn("SCRAPE_TOKENS empty: /metrics is open to anyone who can reach API_ADDR.")
	} else {
		r.ok(fmt.Sprintf("SCRAPE_TOKENS: %d configured", len(cfg.ScrapeTokens)))
	}
	if len(cfg.AllowedOrigins) == 0 {
		r.warn("ALLOWED_ORIGINS empty: CORS allows every origin.")
	}
	if cfg.StatusRPM == 0 {
		r.warn("STATUS_RPM=0: /status is not rate limited.")
	}

	if cfg.TargetsFile == "" {
		r.warn("TARGETS_FILE empty: the built-in httpbin site will be monitored.")
	}
	file, err := config.LoadTargets(fs, cfg.TargetsFile)
	if err != nil {
		r.fail(err.Error())
		return
	}
	n := 0
	for _, s := range file.Sites {
		n += len(s.Endpoints)
	}
	r.ok(fmt.Sprintf("targets: %d sites, %d endpoints", len(file.Sites), n))
}
