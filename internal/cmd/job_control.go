package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kestrelhq/kestrel/pkg/spl"
)

var jobCancelCmd = &cobra.Command{
	Use:   "cancel <sid>",
	Short: "Cancel a running search job",
	Long: `Cancel a job and discard its artifacts.

Cancelling a job that no longer exists succeeds: the desired end state
is already true.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runControl(cmd, args[0], "cancel", "Job cancelled")
	},
}

var jobPauseCmd = &cobra.Command{
	Use:   "pause <sid>",
	Short: "Pause a running search job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runControl(cmd, args[0], "pause", "Job paused")
	},
}

var jobUnpauseCmd = &cobra.Command{
	Use:   "unpause <sid>",
	Short: "Resume a paused search job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runControl(cmd, args[0], "unpause", "Job resumed")
	},
}

var jobFinalizeCmd = &cobra.Command{
	Use:   "finalize <sid>",
	Short: "Finalize a search job, keeping results found so far",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runControl(cmd, args[0], "finalize", "Job finalized")
	},
}

var jobTouchCmd = &cobra.Command{
	Use:   "touch <sid>",
	Short: "Reset a job's expiration clock",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runControl(cmd, args[0], "touch", "Job touched")
	},
}

var jobDeleteCmd = &cobra.Command{
	Use:   "delete <sid>",
	Short: "Delete a search job and its artifacts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sid, err := spl.ValidateSID(args[0])
		if err != nil {
			return err
		}
		client, err := newJobClient()
		if err != nil {
			return err
		}
		if _, err := client.Delete(cmd.Context(), sid); err != nil {
			return err
		}
		fmt.Printf("Job deleted: %s\n", sid)
		return nil
	},
}

var jobTTLCmd = &cobra.Command{
	Use:   "ttl <sid> <seconds>",
	Short: "Set a job's time-to-live",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sid, err := spl.ValidateSID(args[0])
		if err != nil {
			return err
		}
		ttl, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid ttl %q: %w", args[1], err)
		}
		client, err := newJobClient()
		if err != nil {
			return err
		}
		if _, err := client.SetTTL(cmd.Context(), sid, ttl); err != nil {
			return err
		}
		fmt.Printf("Job TTL set to %ds: %s\n", ttl, sid)
		return nil
	},
}

func init() {
	jobCmd.AddCommand(jobCancelCmd)
	jobCmd.AddCommand(jobPauseCmd)
	jobCmd.AddCommand(jobUnpauseCmd)
	jobCmd.AddCommand(jobFinalizeCmd)
	jobCmd.AddCommand(jobTouchCmd)
	jobCmd.AddCommand(jobDeleteCmd)
	jobCmd.AddCommand(jobTTLCmd)
}

// runControl validates the sid, issues one control action, and prints a
// single confirmation line.
func runControl(cmd *cobra.Command, rawSID, action, confirmation string) error {
	sid, err := spl.ValidateSID(rawSID)
	if err != nil {
		return err
	}
	client, err := newJobClient()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	switch action {
	case "cancel":
		_, err = client.Cancel(ctx, sid)
	case "pause":
		_, err = client.Pause(ctx, sid)
	case "unpause":
		_, err = client.Unpause(ctx, sid)
	case "finalize":
		_, err = client.Finalize(ctx, sid)
	case "touch":
		_, err = client.Touch(ctx, sid)
	default:
		err = fmt.Errorf("unknown control action: %s", action)
	}
	if err != nil {
		return err
	}

	fmt.Printf("%s: %s\n", confirmation, sid)
	return nil
}
