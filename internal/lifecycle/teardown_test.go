package lifecycle

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scrapersetup/internal/prompt"
	"scrapersetup/internal/service"
)

func (h *hostFixture) installed(t *testing.T) {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, h.installer(&out).Run(context.Background(), defaultAnswers()))
	require.NoError(t, os.MkdirAll(filepath.Dir(h.unit.ExecPath), 0755))
	require.NoError(t, os.WriteFile(h.unit.ExecPath, []byte("#!/bin/sh\n"), 0755))
	h.manager.calls = nil
}

func (h *hostFixture) teardown(out io.Writer) *Teardown {
	td := NewTeardown(h.registrar, h.store, h.unit, filepath.Join(h.root, "log"), out)
	mock := clock.NewMock()
	mock.Set(time.Date(2026, 10, 17, 9, 0, 0, 0, time.Local))
	td.clk = mock
	return td
}

func stepNames(res *Result) []string {
	var names []string
	for _, s := range res.Steps {
		names = append(names, s.Step)
	}
	return names
}

var allSteps = []string{
	StepStop, StepDisable, StepRemoveUnit, StepRemoveConfigDir,
	StepRemoveSecretsDir, StepRemoveBinary, StepReload,
}

func TestTeardown_AllStepsSucceed(t *testing.T) {
	h := newHost(t)
	h.installed(t)
	var out bytes.Buffer

	res, err := h.teardown(&out).Run(context.Background(), prompt.NewScript("y"))

	require.NoError(t, err)
	assert.Equal(t, allSteps, stepNames(res))
	assert.Equal(t, []string{"stop", "disable", "reload"}, h.manager.calls)
	assert.NoDirExists(t, filepath.Dir(h.store.ConfigPath()))
	assert.NoDirExists(t, filepath.Dir(h.store.SecretsPath()))
	assert.NoFileExists(t, h.registrar.UnitPath(h.unit.Name))
	assert.NoFileExists(t, h.unit.ExecPath)
	assert.Empty(t, res.ReportPath)
	assert.Contains(t, out.String(), "Uninstallation complete!")
}

func TestTeardown_DisableFailureDoesNotShortCircuit(t *testing.T) {
	h := newHost(t)
	h.installed(t)
	disableErr := &service.ManagerError{Verb: "disable", Unit: h.unit.UnitName(), Status: 1}
	h.manager.failOn["disable"] = disableErr
	var out bytes.Buffer

	res, err := h.teardown(&out).Run(context.Background(), prompt.NewScript("y"))

	var aggErr *AggregatedError
	require.ErrorAs(t, err, &aggErr)
	assert.Equal(t, []string{StepDisable}, aggErr.Steps())
	assert.ErrorIs(t, err, disableErr)

	assert.Equal(t, allSteps, stepNames(res))
	assert.Equal(t, []string{"stop", "disable", "reload"}, h.manager.calls)
	assert.NoFileExists(t, h.registrar.UnitPath(h.unit.Name))
	assert.NoDirExists(t, filepath.Dir(h.store.ConfigPath()))
	assert.NoDirExists(t, filepath.Dir(h.store.SecretsPath()))
	assert.NoFileExists(t, h.unit.ExecPath)

	require.NotEmpty(t, res.ReportPath)
	report, readErr := os.ReadFile(res.ReportPath)
	require.NoError(t, readErr)
	assert.Contains(t, string(report), "[2026-10-17 09:00:00] TEARDOWN INCOMPLETE")
	assert.Contains(t, string(report), "disable: systemctl disable willhaben-scraper.service failed with status 1")
	assert.Contains(t, out.String(), "Partial uninstallation. Some files may require manual removal.")
}

func TestTeardown_NothingInstalledStillRunsEveryStep(t *testing.T) {
	h := newHost(t)
	notLoaded := &service.ManagerError{Verb: "stop", Unit: h.unit.UnitName(), Status: 5}
	h.manager.failOn["stop"] = notLoaded
	h.manager.failOn["disable"] = &service.ManagerError{Verb: "disable", Unit: h.unit.UnitName(), Status: 1}

	res, err := h.teardown(nil).Run(context.Background(), prompt.NewScript("yes"))

	var aggErr *AggregatedError
	require.ErrorAs(t, err, &aggErr)
	assert.Equal(t, []string{StepStop, StepDisable}, aggErr.Steps())
	assert.Len(t, res.Steps, len(allSteps))
	for _, s := range res.Steps[2:] {
		assert.NoError(t, s.Err, "step %s", s.Step)
	}
}

func TestTeardown_DeclineIsNoOp(t *testing.T) {
	h := newHost(t)
	h.installed(t)
	var out bytes.Buffer

	res, err := h.teardown(&out).Run(context.Background(), prompt.NewScript("n"))

	require.NoError(t, err)
	assert.True(t, res.Cancelled)
	assert.Empty(t, res.Steps)
	assert.Empty(t, h.manager.calls)
	assert.FileExists(t, h.store.ConfigPath())
	assert.FileExists(t, h.unit.ExecPath)
	assert.Contains(t, out.String(), "Uninstallation cancelled.")
}

func TestTeardown_ConfirmationInputError(t *testing.T) {
	h := newHost(t)

	res, err := h.teardown(nil).Run(context.Background(), prompt.NewScript())

	assert.Nil(t, res)
	assert.ErrorIs(t, err, prompt.ErrNoInput)
	assert.Empty(t, h.manager.calls)
}

func TestAggregatedError_Message(t *testing.T) {
	err := &AggregatedError{Failed: []StepFailure{
		{Step: StepStop, Err: errors.New("not loaded")},
		{Step: StepReload, Err: errors.New("bus unavailable")},
	}}

	assert.Equal(t, "2 teardown step(s) failed: stop: not loaded; reload: bus unavailable", err.Error())
	assert.Len(t, err.Unwrap(), 2)
}
