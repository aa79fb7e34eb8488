package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	app "github.com/rocketscienceinc/tictactoe-rooms/internal"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/config"
)

type flags struct {
	configPath string
	logLevel   string
}

// main - is the entry point of the application. It parses flags, loads the configuration, and runs the application.
func main() {
	if err := newCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func newCmd() *cobra.Command {
	opts := &flags{}

	cmd := &cobra.Command{
		Use:           "tictactoe-rooms",
		Short:         "Authoritative tic-tac-toe room server.",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(_ *cobra.Command, _ []string) error {
			conf, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}

			if opts.logLevel != "" {
				conf.LogLevel = opts.logLevel
			}

			if err = app.RunApp(initLogger(conf), conf); err != nil {
				return fmt.Errorf("app run failed: %w", err)
			}

			return nil
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&opts.configPath, "config", "c", "./config.yml", "path to the yaml config; the environment alone is used when it is missing")
	fs.StringVar(&opts.logLevel, "log-level", "", "overrides log-level from the config (debug, info, warn, error)")

	cmd.CompletionOptions.HiddenDefaultCmd = true

	return cmd
}

// initialize logger.
func initLogger(conf *config.Config) *slog.Logger {
	var level slog.Level

	switch conf.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
