package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kestrelhq/kestrel/internal/observability"
	"github.com/kestrelhq/kestrel/pkg/jobs"
	"github.com/kestrelhq/kestrel/pkg/output"
	"github.com/kestrelhq/kestrel/pkg/spl"
)

var jobPollCmd = &cobra.Command{
	Use:   "poll <sid>",
	Short: "Wait for a search job to finish",
	Long: `Poll a job's status until it completes, fails, pauses, or the
timeout elapses. Progress is reported on stderr so stdout stays clean
for the final result.`,
	Args: cobra.ExactArgs(1),
	RunE: runJobPoll,
}

func init() {
	jobCmd.AddCommand(jobPollCmd)

	jobPollCmd.Flags().DurationP("timeout", "t", 0, "Poll budget (default from config)")
	jobPollCmd.Flags().Duration("interval", 0, "Delay between polls (default from config)")
	jobPollCmd.Flags().BoolP("quiet", "q", false, "Suppress progress reporting")
	jobPollCmd.Flags().StringP("output", "o", "text", "Output format: text or json")
}

func runJobPoll(cmd *cobra.Command, args []string) error {
	sid, err := spl.ValidateSID(args[0])
	if err != nil {
		return err
	}
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = cfg.PollTimeout
	}
	interval, _ := cmd.Flags().GetDuration("interval")
	if interval == 0 {
		interval = cfg.PollInterval
	}
	quiet, _ := cmd.Flags().GetBool("quiet")

	client, err := newJobClient()
	if err != nil {
		return err
	}

	poller := jobs.NewPoller(client)
	poller.Interval = interval
	poller.Logger = observability.CLILogger

	var progress jobs.ProgressFunc
	if !quiet {
		var lastState jobs.DispatchState
		var lastPct float64
		progress = func(snap *jobs.Snapshot) error {
			pct := snap.ProgressPercent()
			if snap.State == lastState && pct == lastPct {
				return nil
			}
			lastState, lastPct = snap.State, pct
			fmt.Fprintf(os.Stderr, "%s  %s %.0f%% (%d results)\n",
				time.Now().Format("15:04:05"), snap.State, pct, snap.ResultCount)
			return nil
		}
	}

	snap, err := poller.Wait(cmd.Context(), sid, timeout, progress)
	if err != nil {
		return err
	}

	if format == output.FormatJSON {
		return output.JSON(os.Stdout, snap)
	}

	switch {
	case snap.IsPaused || snap.State == jobs.StatePaused:
		fmt.Printf("Job paused: %s\n", snap.SID)
	default:
		fmt.Printf("Job finished: %s\n", snap.SID)
	}
	fmt.Printf("State:    %s\n", snap.State)
	fmt.Printf("Results:  %d\n", snap.ResultCount)
	fmt.Printf("Events:   %d\n", snap.EventCount)
	fmt.Printf("Duration: %.2fs\n", snap.RunDuration)
	return nil
}
