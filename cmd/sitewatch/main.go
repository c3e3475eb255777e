// Command sitewatch monitors external sites and exposes the results as
// Prometheus metrics.
//
//	sitewatch serve                  # run checks and the API
//	sitewatch validate -c sites.yaml # check a targets file
//	sitewatch status --api URL       # print a running instance's status
//	sitewatch version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// set via -ldflags "-X main.version=..."
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// appFs is swapped for an in-memory fs in tests.
var appFs = afero.NewOsFs()

var rootCmd = &cobra.Command{
	Use:   "sitewatch",
	Short: "External health monitor for websites",
	Long: `sitewatch periodically checks HTTP endpoints and TLS certificates of
configured sites and exposes availability, response times, status codes,
failure counts and certificate expiry on /metrics.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "sitewatch %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
