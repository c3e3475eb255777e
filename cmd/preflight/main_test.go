package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func run(t *testing.T, fs afero.Fs) (string, string, bool) {
	t.Helper()
	var out, errOut bytes.Buffer
	r := &report{out: &out, err: &errOut}
	preflight(r, fs)
	return out.String(), errOut.String(), r.failed
}

func TestPreflight_DefaultsPassWithWarnings(t *testing.T) {
	for _, k := range []string{"API_ADDR", "SCRAPE_TOKENS", "ALLOWED_ORIGINS", "TARGETS_FILE", "STATUS_RPM"} {
		t.Setenv(k, "")
	}
	out, errOut, failed := run(t, afero.NewMemMapFs())
	if failed {
		t.Fatalf("unexpected failure:\n%s", errOut)
	}
	if !strings.Contains(out, "targets: 1 sites, 3 endpoints") {
		t.Fatalf("missing targets line:\n%s", out)
	}
	if !strings.Contains(errOut, "SCRAPE_TOKENS empty") {
		t.Fatalf("missing scrape warning:\n%s", errOut)
	}
}

func TestPreflight_BadTargetsFileFails(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/sites.yaml", []byte("sites:\n  - name: a\n    url: ftp://x\n    endpoints: [\"/\"]\n"), 0o644)
	t.Setenv("TARGETS_FILE", "/sites.yaml")
	t.Setenv("API_ADDR", ":8080")

	_, errOut, failed := run(t, fs)
	if !failed {
		t.Fatalf("expected failure")
	}
	if !strings.Contains(errOut, "http_url") {
		t.Fatalf("error not reported:\n%s", errOut)
	}
}

func TestPreflight_BadAddrFails(t *testing.T) {
	t.Setenv("API_ADDR", "8080")
	t.Setenv("TARGETS_FILE", "")
	_, errOut, failed := run(t, afero.NewMemMapFs())
	if !failed {
		t.Fatalf("expected failure for bad addr:\n%s", errOut)
	}
}
