package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	e2e "github.com/networkteam/storefront-e2e"
	"github.com/networkteam/storefront-e2e/browser"
	"github.com/networkteam/storefront-e2e/config"
	"github.com/networkteam/storefront-e2e/runner"
)

var errTestsFailed = errors.New("tests failed")

type flags struct {
	configFile string
	workers    int
	filter     runner.Filter
	headless   bool
	reportDir  string
	debug      bool
	verbose    bool
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	rootCmd := &cobra.Command{
		Use:   "storefront-e2e",
		Short: "End-to-end tests for the storefront",
		Long: `storefront-e2e drives a Chromium browser through the storefront's user journeys
(browsing, cart, checkout, login, signup and contact) and reports the results.`,
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&f.configFile, "config", "", "YAML config file (environment variables override it)")
	pf.Var(&f.filter.Run, "run", "run only tests whose full name matches the regex (repeatable)")
	pf.Var(&f.filter.Skip, "skip", "skip tests whose full name matches the regex (repeatable)")
	pf.StringSliceVar(&f.filter.Tags, "tag", nil, "run only tests with any of the tags, e.g. @priority1")
	pf.BoolVar(&f.debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(newRunCmd(f))
	rootCmd.AddCommand(newListCmd(f))
	rootCmd.AddCommand(newInstallCmd(f))
	return rootCmd
}

func newRunCmd(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the tests",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), f.debug)

			instance, err := e2e.NewWithOptions(e2e.Options{
				Config:    &cfg,
				Filter:    f.filter,
				Logger:    logger,
				Out:       cmd.OutOrStdout(),
				ReportDir: f.reportDir,
				Verbose:   f.verbose,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			results, err := instance.Run(ctx)
			if err != nil {
				return err
			}
			if !results.OK() {
				return errTestsFailed
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "number of parallel workers (default from config)")
	cmd.Flags().BoolVar(&f.headless, "headless", true, "run the browser headless")
	cmd.Flags().StringVar(&f.reportDir, "report-dir", "reports", "directory for results.json and index.html, empty to disable")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "print started tests and steps")
	return cmd
}

func newListCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the tests selected by the filter",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.loadConfig(cmd)
			if err != nil {
				return err
			}
			instance, err := e2e.NewWithOptions(e2e.Options{Config: &cfg, Filter: f.filter})
			if err != nil {
				return err
			}
			for _, test := range instance.Tests() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %v\n", test.FullName(), test.Tags)
			}
			return nil
		},
	}
}

func newInstallCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Install the Playwright driver and Chromium",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd.ErrOrStderr(), f.debug)
			logger.Info("Installing Playwright driver and Chromium")
			return browser.Install()
		},
	}
}

// loadConfig reads the config file and environment and applies flags set on the command line.
func (f *flags) loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(f.configFile)
	if err != nil {
		return cfg, err
	}

	flagSet := cmd.Flags()
	if flagSet.Lookup("workers") != nil && flagSet.Changed("workers") {
		cfg.Workers = f.workers
	}
	if flagSet.Lookup("headless") != nil && flagSet.Changed("headless") {
		cfg.Browser.Headless = f.headless
	}
	return cfg, cfg.Validate()
}

// newLogger returns a slog logger writing leveled console output.
func newLogger(out io.Writer, debug bool) *slog.Logger {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	handler := log.NewWithOptions(out, log.Options{
		Level:           level,
		Prefix:          "e2e",
		TimeFormat:      time.TimeOnly,
		ReportTimestamp: true,
	})
	return slog.New(handler)
}
