package cmd

import (
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [prompt_id]",
	Short: "Execute a stored prompt now",
	Long:  `Run a stored prompt against an LLM provider immediately, outside its schedule, and print the extracted visibility signals.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		providerName, _ := cmd.Flags().GetString("provider")
		model, _ := cmd.Flags().GetString("model")

		outcome, err := newClient().RunPrompt(args[0], providerName, model)
		if err != nil {
			cmd.Printf("%v\n", err)
			return
		}

		run := outcome.Run
		if !outcome.Success {
			cmd.Printf("%s %sRun failed%s\n", statusIcon("failed"), colorBold, colorReset)
			cmd.Println("──────────────────────────────")
			cmd.Printf("%sRun:%s        %s\n", colorDim, colorReset, run.ID)
			cmd.Printf("%sProvider:%s   %s\n", colorDim, colorReset, run.Provider)
			cmd.Printf("%sError:%s      %s%s%s\n", colorDim, colorReset, colorRed, outcome.Error, colorReset)
			return
		}

		cmd.Printf("%s %sRun completed%s\n", statusIcon("completed"), colorBold, colorReset)
		cmd.Println("──────────────────────────────")
		cmd.Printf("%sRun:%s          %s\n", colorDim, colorReset, run.ID)
		cmd.Printf("%sProvider:%s     %s / %s\n", colorDim, colorReset, run.Provider, run.Model)
		cmd.Printf("%sCost:%s         $%.4f\n", colorDim, colorReset, run.Cost)

		mentions := run.ParsedMentions
		if mentions.BrandMentioned {
			cmd.Printf("%sBrand:%s        %smentioned ×%d%s\n", colorDim, colorReset, colorGreen, mentions.BrandMentionCount, colorReset)
		} else {
			cmd.Printf("%sBrand:%s        %snot mentioned%s\n", colorDim, colorReset, colorRed, colorReset)
		}
		cmd.Printf("%sSentiment:%s    %s\n", colorDim, colorReset, mentions.Sentiment)

		if len(mentions.CompetitorMentions) > 0 {
			cmd.Printf("%sCompetitors:%s\n", colorDim, colorReset)
			for _, comp := range mentions.CompetitorMentions {
				cmd.Printf("    %s ×%d\n", comp.Name, comp.Count)
			}
		}
		if len(mentions.CitedDomains) > 0 {
			cmd.Printf("%sCited domains:%s\n", colorDim, colorReset)
			for _, dom := range mentions.CitedDomains {
				cmd.Printf("    %s ×%d\n", dom.Domain, dom.Count)
			}
		}
	},
}

func init() {
	runCmd.Flags().StringP("provider", "p", "", "provider to run against (default: server default)")
	runCmd.Flags().StringP("model", "m", "", "model override")
	rootCmd.AddCommand(runCmd)
}
