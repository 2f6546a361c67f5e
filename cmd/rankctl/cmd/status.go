package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status [job_id]",
	Short: "Show one queued job",
	Long:  `Retrieve a single job from the scheduler queue: its state (pending, running, completed, failed), attempt count, lock owner, and the prompt it will run.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		job, err := newClient().GetJob(args[0])
		if err != nil {
			cmd.Printf("%v\n", err)
			return
		}
		printJob(cmd, job)
	},
}

func printJob(cmd *cobra.Command, job *jobView) {
	cmd.Printf("%s %sJob Details%s\n", statusIcon(job.Status), colorBold, colorReset)
	cmd.Println("──────────────────────────────")

	cmd.Printf("%sID:%s           %s\n", colorDim, colorReset, job.ID)
	cmd.Printf("%sType:%s         %s\n", colorDim, colorReset, job.Type)
	cmd.Printf("%sStatus:%s       %s\n", colorDim, colorReset, colorizeStatus(job.Status))
	cmd.Printf("%sAttempts:%s     %d/%d\n", colorDim, colorReset, job.Attempts, job.MaxAttempts)
	cmd.Printf("%sPrompt:%s       %s\n", colorDim, colorReset, job.Payload.PromptID)

	provider := job.Payload.Provider
	if job.Payload.Model != "" {
		provider += " / " + job.Payload.Model
	}
	cmd.Printf("%sProvider:%s     %s\n", colorDim, colorReset, provider)
	cmd.Printf("%sProject:%s      %s\n", colorDim, colorReset, job.ProjectID)
	cmd.Printf("%sScheduled:%s    %s\n", colorDim, colorReset, formatTimeWithRelative(&job.ScheduledFor))

	if job.LockedAt != nil {
		cmd.Printf("%sLocked:%s       %s by %s\n", colorDim, colorReset, formatTimeWithRelative(job.LockedAt), job.LockedBy)
	}
	if job.Error != "" {
		cmd.Printf("%sError:%s        %s%s%s\n", colorDim, colorReset, colorRed, job.Error, colorReset)
	}
	cmd.Printf("%sUpdated:%s      %s\n", colorDim, colorReset, formatTimeWithRelative(&job.UpdatedAt))
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

func statusIcon(status string) string {
	switch status {
	case "completed":
		return colorGreen + "✓" + colorReset
	case "failed":
		return colorRed + "✗" + colorReset
	case "running":
		return colorYellow + "⏳" + colorReset
	case "pending":
		return colorCyan + "◯" + colorReset
	default:
		return "•"
	}
}

func colorizeStatus(status string) string {
	icon := statusIcon(status)
	switch status {
	case "completed":
		return icon + " " + colorGreen + status + colorReset
	case "failed":
		return icon + " " + colorRed + status + colorReset
	case "running":
		return icon + " " + colorYellow + status + colorReset
	case "pending":
		return icon + " " + colorCyan + status + colorReset
	default:
		return status
	}
}

func formatTimeWithRelative(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return fmt.Sprintf("%s %s(%s)%s", t.Local().Format("Mon, 02 Jan 2006 15:04:05 MST"), colorDim, relativeTime(*t), colorReset)
}

func relativeTime(t time.Time) string {
	d := time.Since(t)
	future := d < 0
	if future {
		d = -d
	}

	var span string
	switch {
	case d < time.Minute:
		span = fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		span = fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		span = fmt.Sprintf("%dh", int(d.Hours()))
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			span = "1 day"
		} else {
			span = fmt.Sprintf("%d days", days)
		}
	}
	if future {
		return "in " + span
	}
	return span + " ago"
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
