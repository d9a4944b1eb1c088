package service

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"scrapersetup/internal/atomicfile"
	"scrapersetup/internal/logger"
)

// UnitFileMode is the mode of the installed unit file.
const UnitFileMode os.FileMode = 0644

// Registrar installs and removes the unit file and forwards the verb-level
// operations to the Manager. Each method reports its own result.
type Registrar struct {
	unitDir       string
	manager       Manager
	writer        atomicfile.Writer
	checkWritable func(dir string) error
}

// NewRegistrar returns a Registrar that keeps unit files in unitDir.
func NewRegistrar(unitDir string, manager Manager) *Registrar {
	return &Registrar{
		unitDir:       unitDir,
		manager:       manager,
		checkWritable: checkWritable,
	}
}

// UnitPath returns the unit file path for name.
func (r *Registrar) UnitPath(name string) string {
	return filepath.Join(r.unitDir, unitName(name))
}

// Install writes the unit file and, when d.EnableOnBoot is set, reloads the
// manager and enables the unit. The service is not started. If enabling
// fails the unit file written here is removed again.
func (r *Registrar) Install(ctx context.Context, d UnitDescriptor) error {
	log := logger.WithComponent("registrar")
	path := r.UnitPath(d.Name)

	if err := d.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(r.unitDir, 0755); err != nil {
		return &atomicfile.IoError{Op: "mkdir", Path: r.unitDir, Err: err}
	}
	if err := r.checkWritable(r.unitDir); err != nil {
		return &atomicfile.IoError{Op: "access", Path: r.unitDir, Err: err}
	}
	if err := r.writer.Write(path, d.Render(), UnitFileMode); err != nil {
		return &atomicfile.IoError{Op: "write", Path: path, Err: err}
	}
	log.Info().Str("path", path).Msg("Unit file written")

	if !d.EnableOnBoot {
		return nil
	}

	err := r.manager.Reload(ctx)
	if err == nil {
		err = r.manager.Enable(ctx, d.UnitName())
	}
	if err != nil {
		if rmErr := r.Remove(d.Name); rmErr != nil {
			log.Warn().Err(rmErr).Str("path", path).Msg("Failed to remove unit file after enable failure")
		}
		return err
	}

	log.Info().Str("unit", d.UnitName()).Msg("Unit enabled on boot")
	return nil
}

// Remove deletes the unit file. A missing file is not an error.
func (r *Registrar) Remove(name string) error {
	return removeIfExists(r.UnitPath(name))
}

// RemoveExecutable deletes the installed binary. A missing file is not an error.
func (r *Registrar) RemoveExecutable(path string) error {
	return removeIfExists(path)
}

// Stop stops the unit.
func (r *Registrar) Stop(ctx context.Context, name string) error {
	return r.manager.Stop(ctx, unitName(name))
}

// Disable disables the unit.
func (r *Registrar) Disable(ctx context.Context, name string) error {
	return r.manager.Disable(ctx, unitName(name))
}

// ReloadManager makes the service manager re-read unit files.
func (r *Registrar) ReloadManager(ctx context.Context) error {
	return r.manager.Reload(ctx)
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &atomicfile.IoError{Op: "remove", Path: path, Err: err}
	}
	return nil
}
