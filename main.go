package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"go.aimuz.me/gamelingo/config"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// cli holds the global flags shared by every command.
type cli struct {
	configPath string
	verbose    bool
}

func (c *cli) setupLogging() {
	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
	})))
}

func (c *cli) loadConfig() (*config.Config, error) {
	if c.configPath != "" {
		return config.LoadFrom(c.configPath)
	}
	return config.Load()
}

func newRootCommand() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "gamelingo",
		Short:         "Translate on-screen game text",
		Long:          "gamelingo captures screen regions, recognizes their text and shows the translation in a browser overlay.",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			c.setupLogging()
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default is the user config dir)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newRunCommand(c),
		newTranslateCommand(c),
		newDetectCommand(),
		newRegionsCommand(c),
		newMonitorsCommand(),
		newLanguagesCommand(c),
	)
	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		slog.Error("gamelingo", "error", err)
		os.Exit(1)
	}
}
