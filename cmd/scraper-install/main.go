// Package main is the entry point for the scraper installer.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"scrapersetup/internal/config"
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
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Installation failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configDir   string
		secretsDir  string
		unitDir     string
		advanced    bool
		attempts    int
		showVersion bool
	)
	logCfg := logger.DefaultConfig()

	flags := pflag.NewFlagSet("scraper-install", pflag.ContinueOnError)
	flags.StringVar(&configDir, "config-dir", store.DefaultConfigDir, "directory for config.toml")
	flags.StringVar(&secretsDir, "secrets-dir", store.DefaultSecretsDir, "directory for secrets.yaml")
	flags.StringVar(&unitDir, "unit-dir", service.DefaultUnitDir, "service manager unit directory")
	flags.BoolVar(&advanced, "advanced", false, "also prompt for scraper timing and user agent")
	flags.IntVar(&attempts, "attempts", 3, "input rounds allowed after invalid answers")
	flags.StringVar(&logCfg.Level, "log-level", logCfg.Level, "log level (debug, info, warn, error)")
	flags.StringVar(&logCfg.FilePath, "log-file", logCfg.FilePath, "log file path")
	flags.BoolVar(&logCfg.Console, "log-console", false, "also log to stderr")
	flags.BoolVar(&showVersion, "version", false, "show version information")

	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if showVersion {
		fmt.Printf("scraper-install %s (built %s)\n", version, buildTime)
		return nil
	}

	if err := logger.Init(logCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Close()

	log := logger.WithComponent("main")
	log.Info().
		Str("version", version).
		Str("config_dir", configDir).
		Str("secrets_dir", secretsDir).
		Str("unit_dir", unitDir).
		Bool("advanced", advanced).
		Msg("Starting installer")

	fmt.Println("Willhaben Property Scraper Installer")

	term := prompt.NewTerminal(os.Stdin, os.Stdout)
	if !term.Interactive() {
		// Piped answers cannot be corrected, so report the first invalid one.
		attempts = 1
	}

	builder := lifecycle.Retry(config.NewBuilder(config.DefaultConfig(), advanced, os.Stdout), attempts, os.Stdout)
	registrar := service.NewRegistrar(unitDir, service.NewSystemctl(nil))
	inst := lifecycle.NewInstaller(builder, store.New(configDir, secretsDir), registrar, service.DefaultUnit(), os.Stdout)

	if err := inst.Run(context.Background(), term); err != nil {
		log.Error().Err(err).Str("state", inst.State().String()).Msg("Installation failed")
		return err
	}
	log.Info().Msg("Installation complete")
	return nil
}
