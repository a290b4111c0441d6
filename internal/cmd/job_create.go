package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kestrelhq/kestrel/pkg/jobs"
	"github.com/kestrelhq/kestrel/pkg/output"
	"github.com/kestrelhq/kestrel/pkg/spl"
)

var jobCreateCmd = &cobra.Command{
	Use:   "create <search>",
	Short: "Create a new search job",
	Long: `Create a new search job and print its sid.

Example:
  kestrel job create "index=main | stats count"
  kestrel job create "index=main error" --earliest -1h --latest now`,
	Args: cobra.ExactArgs(1),
	RunE: runJobCreate,
}

func init() {
	jobCmd.AddCommand(jobCreateCmd)

	jobCreateCmd.Flags().StringP("earliest", "e", "", "Earliest time (default from config)")
	jobCreateCmd.Flags().StringP("latest", "l", "", "Latest time (default from config)")
	jobCreateCmd.Flags().String("exec-mode", "normal", "Execution mode: normal or blocking")
	jobCreateCmd.Flags().String("app", "", "App context for the search")
	jobCreateCmd.Flags().StringP("output", "o", "text", "Output format: text or json")
}

func runJobCreate(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	earliestFlag, _ := cmd.Flags().GetString("earliest")
	latestFlag, _ := cmd.Flags().GetString("latest")
	if earliestFlag == "" {
		earliestFlag = cfg.Search.EarliestTime
	}
	if latestFlag == "" {
		latestFlag = cfg.Search.LatestTime
	}
	earliest, latest, err := spl.TimeBounds(earliestFlag, latestFlag)
	if err != nil {
		return err
	}

	execMode, _ := cmd.Flags().GetString("exec-mode")
	var mode jobs.ExecMode
	switch execMode {
	case "normal", "":
		mode = jobs.ExecModeNormal
	case "blocking":
		mode = jobs.ExecModeBlocking
	default:
		return fmt.Errorf("invalid --exec-mode: %s (want normal or blocking)", execMode)
	}

	query, err := spl.ValidateSearch(args[0])
	if err != nil {
		return err
	}
	search := spl.BuildSearch(query, spl.BuildOptions{
		EarliestTime: earliest,
		LatestTime:   latest,
	})

	app, _ := cmd.Flags().GetString("app")

	// Blocking creation holds the request open for the whole search.
	requestTimeout := cfg.Timeout
	if mode == jobs.ExecModeBlocking {
		requestTimeout = cfg.SearchTimeout
	}
	client, err := newJobClientTimeout(requestTimeout)
	if err != nil {
		return err
	}

	sid, err := client.Create(cmd.Context(), search, jobs.CreateOptions{
		EarliestTime: earliest,
		LatestTime:   latest,
		ExecMode:     mode,
		Namespace:    app,
	})
	if err != nil {
		return err
	}

	if format == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]any{
			"sid":           sid,
			"exec_mode":     string(mode),
			"search":        search,
			"earliest_time": earliest,
			"latest_time":   latest,
		})
	}

	fmt.Printf("Job created: %s\n", sid)
	display := search
	if len(display) > 80 {
		display = display[:80] + "..."
	}
	fmt.Printf("Search: %s\n", display)
	fmt.Printf("Mode: %s\n", mode)
	fmt.Printf("Time range: %s to %s\n", earliest, latest)
	return nil
}
