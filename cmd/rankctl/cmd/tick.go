package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var tickCmd = &cobra.Command{
	Use:   "tick",
	Short: "Force a scheduler cycle",
	Long:  `Trigger one scheduler tick through the cron endpoint: due prompts are enqueued and a batch of pending jobs is drained. Requires the cron secret.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if viper.GetString("cron_secret") == "" {
			cmd.Println("Cron secret not set. Use --cron-secret or GPTRANK_CRON_SECRET; without it the call only works against a dev server.")
		}

		stats, err := newClient().Tick()
		if err != nil {
			cmd.Printf("%v\n", err)
			return
		}

		cmd.Printf("%sTick complete%s\n", colorBold, colorReset)
		cmd.Println("──────────────────────────────")
		cmd.Printf("%sEnqueued:%s             %s%d%s\n", colorDim, colorReset, colorCyan, stats.Enqueued, colorReset)
		cmd.Printf("%sProcessed:%s            %s%d%s\n", colorDim, colorReset, colorGreen, stats.Processed, colorReset)
		cmd.Printf("%sRetried:%s              %s%d%s\n", colorDim, colorReset, colorYellow, stats.Retried, colorReset)
		cmd.Printf("%sFailed:%s               %s%d%s\n", colorDim, colorReset, colorRed, stats.Failed, colorReset)
		cmd.Printf("%sSkipped (budget):%s      %d\n", colorDim, colorReset, stats.SkippedBudget)
		cmd.Printf("%sSkipped (concurrency):%s %d\n", colorDim, colorReset, stats.SkippedConcurrency)
	},
}

func init() {
	rootCmd.AddCommand(tickCmd)
}
