package cmd

import (
	"github.com/spf13/cobra"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List the scheduler queue",
	Long:  `List jobs in the scheduler queue, newest first. Filter with --status (pending, running, completed, failed).`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		jobs, err := newClient().ListJobs(status, limit)
		if err != nil {
			cmd.Printf("%v\n", err)
			return
		}
		if len(jobs) == 0 {
			cmd.Println("No jobs found.")
			return
		}

		counts := map[string]int{}
		for _, j := range jobs {
			counts[j.Status]++
		}
		cmd.Printf("%sQueue%s", colorBold, colorReset)
		for _, s := range []string{"pending", "running", "completed", "failed"} {
			if counts[s] > 0 {
				cmd.Printf("  %s %d", colorizeStatus(s), counts[s])
			}
		}
		cmd.Println()
		cmd.Println("──────────────────────────────")

		for _, j := range jobs {
			cmd.Printf("%s %s  %sattempts %d/%d%s  prompt=%s  %s\n",
				statusIcon(j.Status),
				j.ID,
				colorDim, j.Attempts, j.MaxAttempts, colorReset,
				j.Payload.PromptID,
				relativeTime(j.ScheduledFor),
			)
			if j.Error != "" {
				cmd.Printf("    %s%s%s\n", colorRed, j.Error, colorReset)
			}
		}
	},
}

func init() {
	jobsCmd.Flags().StringP("status", "s", "", "filter by job status")
	jobsCmd.Flags().IntP("limit", "n", 20, "maximum jobs to list")
	rootCmd.AddCommand(jobsCmd)
}
