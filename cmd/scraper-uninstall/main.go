// Package main is the entry point for the scraper uninstaller.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"scrapersetup/internal/lifecycle"
	"scrapersetup/internal/logger"
	"scrapersetup/internal/prompt"
	"scrapersetup/internal/service"
	"scrapersetup/internal/store"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configDir   string
		secretsDir  string
		unitDir     string
		showVersion bool
	)
	logCfg := logger.DefaultConfig()

	flags := pflag.NewFlagSet("scraper-uninstall", pflag.ContinueOnError)
	flags.StringVar(&configDir, "config-dir", store.DefaultConfigDir, "directory holding config.toml")
	flags.StringVar(&secretsDir, "secrets-dir", store.DefaultSecretsDir, "directory holding secrets.yaml")
	flags.StringVar(&unitDir, "unit-dir", service.DefaultUnitDir, "service manager unit directory")
	flags.StringVar(&logCfg.Level, "log-level", logCfg.Level, "log level (debug, info, warn, error)")
	flags.StringVar(&logCfg.FilePath, "log-file", logCfg.FilePath, "log file path; the failure report is written next to it")
	flags.BoolVar(&logCfg.Console, "log-console", false, "also log to stderr")
	flags.BoolVar(&showVersion, "version", false, "show version information")

	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if showVersion {
		fmt.Printf("scraper-uninstall %s (built %s)\n", version, buildTime)
		return 0
	}

	if err := logger.Init(logCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer logger.Close()

	log := logger.WithComponent("main")
	log.Info().
		Str("version", version).
		Str("config_dir", configDir).
		Str("secrets_dir", secretsDir).
		Str("unit_dir", unitDir).
		Msg("Starting uninstaller")

	fmt.Println("Willhaben Property Scraper Uninstaller")

	registrar := service.NewRegistrar(unitDir, service.NewSystemctl(nil))
	td := lifecycle.NewTeardown(registrar, store.New(configDir, secretsDir), service.DefaultUnit(), filepath.Dir(logCfg.FilePath), os.Stdout)

	res, err := td.Run(context.Background(), prompt.NewTerminal(os.Stdin, os.Stdout))
	if err != nil {
		var aggErr *lifecycle.AggregatedError
		if errors.As(err, &aggErr) {
			log.Warn().Strs("failed_steps", aggErr.Steps()).Str("report", res.ReportPath).Msg("Uninstall incomplete")
			return 1
		}
		log.Error().Err(err).Msg("Uninstall aborted")
		fmt.Fprintf(os.Stderr, "Uninstallation failed: %v\n", err)
		return 1
	}
	if !res.Cancelled {
		log.Info().Msg("Uninstall complete")
	}
	return 0
}
