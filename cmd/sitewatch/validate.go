package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hamed0406/sitewatch/internal/config"
	"github.com/hamed0406/sitewatch/internal/repo/memory"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a targets file",
	Long: `Parse and validate a targets file without starting any checks.
Every problem found is reported. Exit code 1 means the file is invalid.

Example:
  sitewatch validate -c sites.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringP("config", "c", "", "path to targets file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	file, err := config.LoadTargets(appFs, path)
	if err != nil {
		return fmt.Errorf("invalid targets file: %w", err)
	}

	reg := memory.New(file.Targets()...)
	out := cmd.OutOrStdout()
	endpoints := 0
	for _, t := range reg.List() {
		endpoints += len(t.Endpoints)
	}
	fmt.Fprintf(out, "Targets file is valid!\n")
	fmt.Fprintf(out, "  Sites:          %d\n", len(file.Sites))
	fmt.Fprintf(out, "  Endpoints:      %d\n", endpoints)
	fmt.Fprintf(out, "  Cycle interval: %s\n", reg.MinInterval())
	for _, t := range reg.List() {
		fmt.Fprintf(out, "  - %s %s (%d endpoints, every %s)\n", t.Name, t.BaseURL, len(t.Endpoints), t.Interval)
	}
	return nil
}
