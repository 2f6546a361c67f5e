package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "rankctl",
	Short: "rankctl inspects and drives the brand visibility tracking API",
	Long: `rankctl is the operator CLI for the visibility tracking service.

The service runs stored prompts against LLM providers, extracts brand and
competitor mentions from the answers, and scores how visible each brand is.
A scheduler turns prompt cadences into queued jobs; rankctl talks to the
same HTTP API the dashboard uses.

Common workflows:

  Inspect the job queue:
    rankctl jobs --status pending

  Look at one job:
    rankctl status <job-id>

  Run a prompt right now:
    rankctl run <prompt-id> --provider openai

  Force a scheduler tick (requires the cron secret):
    rankctl tick

Configuration:
  Flags override environment variables, which override ~/.rankctl.yaml:
    GPTRANK_URL          API endpoint (default: http://localhost:8080)
    GPTRANK_API_KEY      API key sent as X-Api-Key
    GPTRANK_CRON_SECRET  shared secret for the tick endpoint`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".rankctl")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("GPTRANK")
	viper.AutomaticEnv()

	// Missing config file is fine; env and flags cover everything.
	_ = viper.ReadInConfig()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.rankctl.yaml)")

	rootCmd.PersistentFlags().String("url", "http://localhost:8080", "API base URL")
	viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))

	rootCmd.PersistentFlags().StringP("api-key", "k", "", "API key for authentication")
	viper.BindPFlag("api_key", rootCmd.PersistentFlags().Lookup("api-key"))

	rootCmd.PersistentFlags().String("cron-secret", "", "shared secret for cron endpoints")
	viper.BindPFlag("cron_secret", rootCmd.PersistentFlags().Lookup("cron-secret"))
}
