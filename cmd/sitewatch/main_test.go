package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamed0406/sitewatch/internal/metrics"
)

// execute runs the root command against an in-memory fs and returns stdout.
func execute(t *testing.T, fs afero.Fs, args ...string) (string, error) {
	t.Helper()
	old := appFs
	appFs = fs
	t.Cleanup(func() { appFs = old })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, afero.NewMemMapFs(), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "sitewatch dev")
	assert.Contains(t, out, "commit:")
}

func TestValidate_ValidFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "sites.yaml", []byte(`
sites:
  - name: httpbin
    url: https://httpbin.org
    endpoints: ["/get", "/status/200"]
    check_interval: 20
  - name: example
    url: https://example.com
    endpoints: ["/"]
    check_interval: 60
`), 0o644))

	out, err := execute(t, fs, "validate", "-c", "sites.yaml")
	require.NoError(t, err)
	for _, want := range []string{
		"Targets file is valid!",
		"Sites:          2",
		"Endpoints:      3",
		"Cycle interval: 20s",
		"- httpbin https://httpbin.org (2 endpoints, every 20s)",
	} {
		assert.Contains(t, out, want)
	}
}

func TestValidate_InvalidFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "bad.yaml", []byte(`
sites:
  - name: a
    url: not-a-url
    endpoints: ["/"]
`), 0o644))

	_, err := execute(t, fs, "validate", "-c", "bad.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid targets file")
}

func TestStatus_PrintsSites(t *testing.T) {
	up, down := true, false
	days := 40
	last := time.Now().Add(-2 * time.Minute)
	body := statusBody{
		Status: metrics.Status{
			Cycles:    1234,
			LastCycle: &last,
			Sites: []metrics.SiteStatus{{
				Site:          "httpbin",
				URL:           "https://httpbin.org",
				Availability:  map[string]*bool{"/get": &up, "/status/404": &down, "/slow": nil},
				ResponseTime:  map[string]*metrics.ResponseTimeSummary{"/get": {Count: 4, SumSeconds: 0.4, MeanSeconds: 0.1}},
				SSLExpiryDays: &days,
				SSLExpires:    "1 month from now",
			}},
		},
		State: "idle",
	}

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/status" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
	defer api.Close()

	out, err := execute(t, afero.NewMemMapFs(), "status", "--api", api.URL+"/")
	require.NoError(t, err)
	assert.Contains(t, out, "state: idle, cycles: 1,234, last cycle: 2 minutes ago")
	assert.Contains(t, out, "ssl: 40 days (1 month from now)")
	lines := strings.Split(out, "\n")
	var got []string
	for _, l := range lines {
		if strings.HasPrefix(l, "  /") {
			got = append(got, strings.Join(strings.Fields(l), " "))
		}
	}
	assert.Equal(t, []string{
		"/get up avg 100ms over 4",
		"/slow no data",
		"/status/404 DOWN",
	}, got)
}

func TestStatus_APIError(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
	}))
	defer api.Close()

	_, err := execute(t, afero.NewMemMapFs(), "status", "--api", api.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestLoadDotenv(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, ".env", []byte("SITEWATCH_T_A=from_file\nSITEWATCH_T_B=from_file\n"), 0o644))
	old := appFs
	appFs = fs
	defer func() { appFs = old }()

	t.Setenv("SITEWATCH_T_A", "from_env")
	t.Setenv("SITEWATCH_T_B", "")
	require.NoError(t, os.Unsetenv("SITEWATCH_T_B"))

	require.NoError(t, loadDotenv(".env"))
	assert.Equal(t, "from_env", os.Getenv("SITEWATCH_T_A"), "environment wins over .env")
	assert.Equal(t, "from_file", os.Getenv("SITEWATCH_T_B"))

	require.NoError(t, loadDotenv("missing.env"), "absent file is not an error")
}
