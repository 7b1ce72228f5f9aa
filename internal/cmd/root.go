// Package cmd implements the jat command-line interface.
package cmd

import (
	"github.com/jpatrickfarrell/jat/internal/config"
	"github.com/jpatrickfarrell/jat/internal/logging"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "jat",
	Short: "Web dashboard for AI coding agents running in tmux",
	Long: `jat watches the tmux sessions your AI coding agents run in and serves
a web dashboard showing what each agent is doing: its activity state,
how long it has been running, and a merged feed of task, mail, and
signal events.

Agents report their state by POSTing signals to the dashboard or by
appending them to a JSONL file jat tails.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if logLevel != "" {
			logging.SetLevel(logLevel)
		}
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to jat.yml (default: ./jat.yml, then ~/.config/jat/jat.yml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log verbosity: debug, info, warn, error")
}

// loadConfig loads the config named by --config, or the default path.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	logging.SetLevel(cfg.LogLevel)
	return cfg, nil
}
