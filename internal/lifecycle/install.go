// Package lifecycle orchestrates install and uninstall of the scraper
// service.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"

	"scrapersetup/internal/config"
	"scrapersetup/internal/logger"
	"scrapersetup/internal/service"
)

// State is a step of the install state machine.
type State int

const (
	StateCollectingInput State = iota
	StatePersisting
	StateRegistering
	StateDone
	StateRolledBack
)

func (s State) String() string {
	switch s {
	case StateCollectingInput:
		return "collecting-input"
	case StatePersisting:
		return "persisting"
	case StateRegistering:
		return "registering"
	case StateDone:
		return "done"
	case StateRolledBack:
		return "rolled-back"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ConfigBuilder produces validated artifacts from operator input.
type ConfigBuilder interface {
	Build(src config.InputSource) (*config.Config, *config.Secrets, error)
}

// ArtifactStore persists the config and secrets artifacts.
type ArtifactStore interface {
	Write(cfg *config.Config, secrets *config.Secrets) error
	RemoveConfigArtifact() error
	RemoveSecretsArtifact() error
}

// UnitInstaller registers the service unit.
type UnitInstaller interface {
	Install(ctx context.Context, d service.UnitDescriptor) error
}

// Installer runs one install: collect input, persist artifacts, register
// the unit. A registration failure removes the artifacts it wrote.
type Installer struct {
	builder   ConfigBuilder
	store     ArtifactStore
	registrar UnitInstaller
	unit      service.UnitDescriptor
	out       io.Writer
	state     State
}

// NewInstaller creates an Installer that registers unit. Operator messages
// go to out; a nil interface value discards them.
func NewInstaller(builder ConfigBuilder, store ArtifactStore, registrar UnitInstaller, unit service.UnitDescriptor, out io.Writer) *Installer {
	if out == nil {
		out = io.Discard
	}
	return &Installer{
		builder:   builder,
		store:     store,
		registrar: registrar,
		unit:      unit,
		out:       out,
	}
}

// State returns the state the last Run ended in.
func (i *Installer) State() State {
	return i.state
}

// Run performs the install. The returned error is the one that stopped the
// run, never wrapped.
func (i *Installer) Run(ctx context.Context, src config.InputSource) error {
	log := logger.WithComponent("install")
	i.state = StateCollectingInput

	cfg, secrets, err := i.builder.Build(src)
	if err != nil {
		log.Warn().Err(err).Str("state", i.state.String()).Msg("Input rejected")
		return err
	}

	i.transition(StatePersisting)
	if err := i.store.Write(cfg, secrets); err != nil {
		log.Error().Err(err).Str("state", i.state.String()).Msg("Failed to persist artifacts")
		return err
	}

	i.transition(StateRegistering)
	if err := i.registrar.Install(ctx, i.unit); err != nil {
		log.Error().Err(err).Str("state", i.state.String()).Msg("Failed to register service")
		i.rollback()
		return err
	}

	i.transition(StateDone)
	fmt.Fprintln(i.out, "Installation complete!")
	return nil
}

// rollback removes both artifacts. Failures are logged only.
func (i *Installer) rollback() {
	log := logger.WithComponent("install")

	var result *multierror.Error
	if err := i.store.RemoveConfigArtifact(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := i.store.RemoveSecretsArtifact(); err != nil {
		result = multierror.Append(result, err)
	}

	i.transition(StateRolledBack)
	if err := result.ErrorOrNil(); err != nil {
		log.Warn().Err(err).Msg("Rollback incomplete, artifacts may need manual removal")
		return
	}
	log.Info().Msg("Artifacts removed")
}

func (i *Installer) transition(to State) {
	log := logger.WithComponent("install")
	log.Info().
		Str("from", i.state.String()).
		Str("state", to.String()).
		Msg("State changed")
	i.state = to
}

// Retry wraps b so that a *config.ValidationError restarts collection, up
// to attempts rounds in total. The cause is printed to out before each
// retry. Other errors are returned immediately.
func Retry(b ConfigBuilder, attempts int, out io.Writer) ConfigBuilder {
	if attempts < 1 {
		attempts = 1
	}
	if out == nil {
		out = io.Discard
	}
	return &retryBuilder{inner: b, attempts: attempts, out: out}
}

type retryBuilder struct {
	inner    ConfigBuilder
	attempts int
	out      io.Writer
}

func (r *retryBuilder) Build(src config.InputSource) (*config.Config, *config.Secrets, error) {
	var verr *config.ValidationError
	for n := 1; ; n++ {
		cfg, secrets, err := r.inner.Build(src)
		if err == nil || !errors.As(err, &verr) || n >= r.attempts {
			return cfg, secrets, err
		}
		fmt.Fprintf(r.out, "%v. Please try again (%d of %d).\n", err, n+1, r.attempts)
	}
}
