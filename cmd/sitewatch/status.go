package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hamed0406/sitewatch/internal/metrics"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the status of a running instance",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().String("api", "http://localhost:8080", "base URL of the sitewatch API")
	statusCmd.Flags().Duration("timeout", 5*time.Second, "request timeout")
}

type statusBody struct {
	metrics.Status
	State string `json:"state"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	api, _ := cmd.Flags().GetString("api")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, strings.TrimRight(api, "/")+"/status", nil)
	if err != nil {
		return err
	}
	resp, err := (&http.Client{Timeout: timeout}).Do(req)
	if err != nil {
		return fmt.Errorf("contact API: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("API returned %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}

	var st statusBody
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return fmt.Errorf("decode status: %w", err)
	}
	printStatus(cmd.OutOrStdout(), st, time.Now())
	return nil
}

func printStatus(w io.Writer, st statusBody, now time.Time) {
	last := "never"
	if st.LastCycle != nil {
		last = humanize.RelTime(*st.LastCycle, now, "ago", "from now")
	}
	fmt.Fprintf(w, "state: %s, cycles: %s, last cycle: %s\n", st.State, humanize.Comma(int64(st.Cycles)), last)

	for _, s := range st.Sites {
		ssl := "unknown"
		if s.SSLExpiryDays != nil {
			ssl = fmt.Sprintf("%d days (%s)", *s.SSLExpiryDays, s.SSLExpires)
		}
		fmt.Fprintf(w, "\n%s  %s  ssl: %s\n", s.Site, s.URL, ssl)

		eps := make([]string, 0, len(s.Availability))
		for ep := range s.Availability {
			eps = append(eps, ep)
		}
		sort.Strings(eps)
		for _, ep := range eps {
			state := "no data"
			if up := s.Availability[ep]; up != nil {
				state = "DOWN"
				if *up {
					state = "up"
				}
			}
			rt := ""
			if r := s.ResponseTime[ep]; r != nil && r.Count > 0 {
				rt = fmt.Sprintf("  avg %s over %d", time.Duration(r.MeanSeconds*float64(time.Second)).Round(time.Millisecond), r.Count)
			}
			fmt.Fprintf(w, "  %-24s %s%s\n", ep, state, rt)
		}
	}
}
