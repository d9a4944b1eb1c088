// Package service registers the scraper with the host service manager.
package service

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"scrapersetup/internal/logger"
)

// Manager is the host service manager, driven as an opaque command.
type Manager interface {
	// Enable marks the unit to start at boot.
	Enable(ctx context.Context, unit string) error
	// Stop stops the running unit.
	Stop(ctx context.Context, unit string) error
	// Disable removes the unit from boot.
	Disable(ctx context.Context, unit string) error
	// Reload makes the manager re-read unit files.
	Reload(ctx context.Context) error
}

// ManagerError reports a failed service manager invocation. Status is the
// exit code, or -1 if the command could not be run at all.
type ManagerError struct {
	Verb   string
	Unit   string
	Status int
	Output string
	Err    error
}

func (e *ManagerError) Error() string {
	target := e.Verb
	if e.Unit != "" {
		target += " " + e.Unit
	}
	if e.Status >= 0 {
		return fmt.Sprintf("systemctl %s failed with status %d", target, e.Status)
	}
	return fmt.Sprintf("systemctl %s failed: %v", target, e.Err)
}

func (e *ManagerError) Unwrap() error {
	return e.Err
}

// CommandRunner runs an external command and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec. No timeout is applied.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Systemctl implements Manager with the systemctl command.
type Systemctl struct {
	run CommandRunner
}

// NewSystemctl returns a Systemctl that runs commands through run. A nil
// run means ExecRunner.
func NewSystemctl(run CommandRunner) *Systemctl {
	if run == nil {
		run = ExecRunner
	}
	return &Systemctl{run: run}
}

func (s *Systemctl) Enable(ctx context.Context, unit string) error {
	return s.systemctl(ctx, "enable", unitName(unit))
}

func (s *Systemctl) Stop(ctx context.Context, unit string) error {
	return s.systemctl(ctx, "stop", unitName(unit))
}

func (s *Systemctl) Disable(ctx context.Context, unit string) error {
	return s.systemctl(ctx, "disable", unitName(unit))
}

func (s *Systemctl) Reload(ctx context.Context) error {
	return s.systemctl(ctx, "daemon-reload", "")
}

func (s *Systemctl) systemctl(ctx context.Context, verb, unit string) error {
	log := logger.WithComponent("systemctl")

	args := []string{verb}
	if unit != "" {
		args = append(args, unit)
	}

	output, err := s.run(ctx, "systemctl", args...)
	if err == nil {
		log.Info().Str("verb", verb).Str("unit", unit).Msg("systemctl succeeded")
		return nil
	}

	mErr := &ManagerError{
		Verb:   verb,
		Unit:   unit,
		Status: -1,
		Output: strings.TrimSpace(string(output)),
		Err:    err,
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		mErr.Status = exitErr.ExitCode()
	}

	log.Warn().
		Str("verb", verb).
		Str("unit", unit).
		Int("status", mErr.Status).
		Str("output", mErr.Output).
		Msg("systemctl failed")
	return mErr
}
