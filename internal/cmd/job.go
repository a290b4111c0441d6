package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kestrelhq/kestrel/pkg/jobs"
	"github.com/kestrelhq/kestrel/pkg/output"
	"github.com/kestrelhq/kestrel/pkg/spl"
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Search job lifecycle management",
	Long: `Create, monitor, control, and clean up search jobs.

A job is identified by its sid, the opaque token returned at creation.`,
}

var jobStatusCmd = &cobra.Command{
	Use:   "status <sid>",
	Short: "Show the status of a search job",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobStatus,
}

var jobListCmd = &cobra.Command{
	Use:   "list",
	Short: "List search jobs",
	RunE:  runJobList,
}

func init() {
	rootCmd.AddCommand(jobCmd)
	jobCmd.AddCommand(jobStatusCmd)
	jobCmd.AddCommand(jobListCmd)

	jobStatusCmd.Flags().StringP("output", "o", "text", "Output format: text or json")

	jobListCmd.Flags().IntP("count", "c", 50, "Maximum jobs to list")
	jobListCmd.Flags().Int("offset", 0, "Number of jobs to skip")
	jobListCmd.Flags().Bool("active", false, "Show only active jobs")
	jobListCmd.Flags().StringP("output", "o", "text", "Output format: text, json, or csv")
}

func runJobStatus(cmd *cobra.Command, args []string) error {
	sid, err := spl.ValidateSID(args[0])
	if err != nil {
		return err
	}
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	client, err := newJobClient()
	if err != nil {
		return err
	}

	snap, err := client.FetchStatus(cmd.Context(), sid)
	if err != nil {
		return err
	}

	if format == output.FormatJSON {
		return output.JSON(os.Stdout, snap)
	}

	fmt.Printf("SID:       %s\n", snap.SID)
	fmt.Printf("State:     %s\n", snap.State)
	fmt.Printf("Progress:  %.0f%%\n", snap.ProgressPercent())
	fmt.Printf("Events:    %d\n", snap.EventCount)
	fmt.Printf("Results:   %d\n", snap.ResultCount)
	fmt.Printf("Scanned:   %d\n", snap.ScanCount)
	fmt.Printf("Duration:  %.2fs\n", snap.RunDuration)
	if msg := snap.ErrorMessage(); msg != "" {
		fmt.Printf("Error:     %s\n", msg)
	}
	return nil
}

func runJobList(cmd *cobra.Command, args []string) error {
	count, _ := cmd.Flags().GetInt("count")
	offset, _ := cmd.Flags().GetInt("offset")
	activeOnly, _ := cmd.Flags().GetBool("active")
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	client, err := newJobClient()
	if err != nil {
		return err
	}

	var list []jobs.JobSummary
	if activeOnly {
		list, err = client.ListActive(cmd.Context(), count, offset)
	} else {
		list, err = client.List(cmd.Context(), count, offset)
	}
	if err != nil {
		return err
	}

	if format == output.FormatText && len(list) == 0 {
		fmt.Println("No jobs found")
		return nil
	}

	columns := []string{"sid", "state", "progress", "results", "duration"}
	rows := make([]output.Row, 0, len(list))
	for _, j := range list {
		rows = append(rows, output.Row{
			"sid":      j.SID,
			"state":    string(j.DispatchState),
			"progress": fmt.Sprintf("%.0f%%", j.DoneProgress*100),
			"results":  strconv.FormatInt(j.ResultCount, 10),
			"duration": fmt.Sprintf("%.1fs", j.RunDuration),
		})
	}

	if err := output.Rows(os.Stdout, format, rows, columns); err != nil {
		return err
	}
	if format == output.FormatText {
		fmt.Printf("\nTotal: %d jobs\n", len(list))
	}
	return nil
}

// outputFormat parses the command's --output flag.
func outputFormat(cmd *cobra.Command) (output.Format, error) {
	v, _ := cmd.Flags().GetString("output")
	return output.ParseFormat(v)
}
