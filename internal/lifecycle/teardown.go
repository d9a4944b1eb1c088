package lifecycle

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/benbjohnson/clock"

	"scrapersetup/internal/config"
	"scrapersetup/internal/logger"
	"scrapersetup/internal/service"
)

// LabelConfirmUninstall is the confirmation asked before teardown.
const LabelConfirmUninstall = "Are you sure you want to uninstall the Willhaben Property Scraper?"

// Teardown step names, in execution order.
const (
	StepStop             = "stop"
	StepDisable          = "disable"
	StepRemoveUnit       = "remove-unit"
	StepRemoveConfigDir  = "remove-config-dir"
	StepRemoveSecretsDir = "remove-secrets-dir"
	StepRemoveBinary     = "remove-binary"
	StepReload           = "reload"
)

// ServiceRemover is the registrar side of teardown.
type ServiceRemover interface {
	Stop(ctx context.Context, name string) error
	Disable(ctx context.Context, name string) error
	Remove(name string) error
	RemoveExecutable(path string) error
	ReloadManager(ctx context.Context) error
}

// ArtifactRemover is the store side of teardown.
type ArtifactRemover interface {
	RemoveConfigDir() error
	RemoveSecretsDir() error
}

// StepFailure is a teardown step that did not succeed.
type StepFailure struct {
	Step string
	Err  error
}

// AggregatedError lists every failed teardown step in execution order.
type AggregatedError struct {
	Failed []StepFailure
}

func (e *AggregatedError) Error() string {
	parts := make([]string, len(e.Failed))
	for i, f := range e.Failed {
		parts[i] = fmt.Sprintf("%s: %v", f.Step, f.Err)
	}
	return fmt.Sprintf("%d teardown step(s) failed: %s", len(e.Failed), strings.Join(parts, "; "))
}

// Unwrap exposes the step errors to errors.Is and errors.As.
func (e *AggregatedError) Unwrap() []error {
	errs := make([]error, len(e.Failed))
	for i, f := range e.Failed {
		errs[i] = f.Err
	}
	return errs
}

// Steps returns the names of the failed steps.
func (e *AggregatedError) Steps() []string {
	names := make([]string, len(e.Failed))
	for i, f := range e.Failed {
		names[i] = f.Step
	}
	return names
}

// StepResult is the outcome of one teardown step. Err is nil on success.
type StepResult struct {
	Step string
	Err  error
}

// Result describes a teardown run.
type Result struct {
	Cancelled  bool
	Steps      []StepResult
	ReportPath string
}

type step struct {
	name string
	run  func(ctx context.Context) error
}

// Teardown removes everything the installer created. Every step runs even
// when earlier ones fail.
type Teardown struct {
	registrar ServiceRemover
	store     ArtifactRemover
	unit      service.UnitDescriptor
	logDir    string
	out       io.Writer
	clk       clock.Clock
}

// NewTeardown creates a Teardown for unit. A failure report is written to
// logDir when any step fails. Operator messages go to out; a nil interface
// value discards them.
func NewTeardown(registrar ServiceRemover, store ArtifactRemover, unit service.UnitDescriptor, logDir string, out io.Writer) *Teardown {
	if out == nil {
		out = io.Discard
	}
	return &Teardown{
		registrar: registrar,
		store:     store,
		unit:      unit,
		logDir:    logDir,
		out:       out,
		clk:       clock.New(),
	}
}

func (t *Teardown) steps() []step {
	name := t.unit.Name
	return []step{
		{StepStop, func(ctx context.Context) error { return t.registrar.Stop(ctx, name) }},
		{StepDisable, func(ctx context.Context) error { return t.registrar.Disable(ctx, name) }},
		{StepRemoveUnit, func(context.Context) error { return t.registrar.Remove(name) }},
		{StepRemoveConfigDir, func(context.Context) error { return t.store.RemoveConfigDir() }},
		{StepRemoveSecretsDir, func(context.Context) error { return t.store.RemoveSecretsDir() }},
		{StepRemoveBinary, func(context.Context) error { return t.registrar.RemoveExecutable(t.unit.ExecPath) }},
		{StepReload, func(ctx context.Context) error { return t.registrar.ReloadManager(ctx) }},
	}
}

// Run asks for confirmation and then runs every step. Declining returns a
// cancelled Result and no error. If any step fails the error is an
// *AggregatedError.
func (t *Teardown) Run(ctx context.Context, src config.InputSource) (*Result, error) {
	log := logger.WithComponent("teardown")

	ok, err := src.PromptConfirm(LabelConfirmUninstall)
	if err != nil {
		return nil, fmt.Errorf("failed to read confirmation: %w", err)
	}
	if !ok {
		log.Info().Msg("Uninstall cancelled by operator")
		fmt.Fprintln(t.out, "Uninstallation cancelled.")
		return &Result{Cancelled: true}, nil
	}

	res := &Result{}
	var failed []StepFailure
	for _, s := range t.steps() {
		err := s.run(ctx)
		res.Steps = append(res.Steps, StepResult{Step: s.name, Err: err})
		if err != nil {
			log.Warn().Err(err).Str("step", s.name).Msg("Step failed")
			failed = append(failed, StepFailure{Step: s.name, Err: err})
			continue
		}
		log.Info().Str("step", s.name).Msg("Step completed")
	}

	if len(failed) == 0 {
		fmt.Fprintln(t.out, "Uninstallation complete!")
		return res, nil
	}

	aggErr := &AggregatedError{Failed: failed}
	report := make([]service.FailedStep, len(failed))
	for i, f := range failed {
		report[i] = service.FailedStep{Step: f.Step, Err: f.Err}
	}
	path, err := service.WriteFailureReport(t.logDir, t.clk, report)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to write failure report")
	} else {
		res.ReportPath = path
	}

	fmt.Fprintln(t.out, "Partial uninstallation. Some files may require manual removal.")
	for _, f := range failed {
		fmt.Fprintf(t.out, "  %s: %v\n", f.Step, f.Err)
	}
	if res.ReportPath != "" {
		fmt.Fprintf(t.out, "Details were written to %s\n", res.ReportPath)
	}
	return res, aggErr
}
