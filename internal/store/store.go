// Package store persists the configuration and secrets artifacts.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"scrapersetup/internal/atomicfile"
	"scrapersetup/internal/config"
	"scrapersetup/internal/logger"
)

// Fixed artifact names and locations, relative to the working directory.
const (
	DefaultConfigDir  = "config"
	DefaultSecretsDir = "secrets"
	ConfigFileName    = "config.toml"
	SecretsFileName   = "secrets.yaml"
)

// Permission policy. The secrets file mode is a hard contract.
const (
	ConfigDirMode   os.FileMode = 0755
	ConfigFileMode  os.FileMode = 0644
	SecretsDirMode  os.FileMode = 0700
	SecretsFileMode os.FileMode = 0600
)

// IoError reports a failed artifact operation.
type IoError = atomicfile.IoError

// Store reads and writes the two artifacts. Each artifact is replaced
// atomically; the pair is not.
type Store struct {
	configDir  string
	secretsDir string
	writer     atomicfile.Writer
}

// New returns a Store rooted at the given directories.
func New(configDir, secretsDir string) *Store {
	return &Store{configDir: configDir, secretsDir: secretsDir}
}

// ConfigPath returns the configuration artifact path.
func (s *Store) ConfigPath() string {
	return filepath.Join(s.configDir, ConfigFileName)
}

// SecretsPath returns the secrets artifact path.
func (s *Store) SecretsPath() string {
	return filepath.Join(s.secretsDir, SecretsFileName)
}

// Write persists cfg, then secrets. A nil secrets writes an empty
// secrets artifact. If the secrets artifact fails after the config
// artifact was written, the config artifact is left in place and the
// error is returned; cleanup is the caller's decision.
func (s *Store) Write(cfg *config.Config, secrets *config.Secrets) error {
	log := logger.WithComponent("store")

	if secrets == nil {
		secrets = &config.Secrets{}
	}

	cfgData, err := EncodeConfig(cfg)
	if err != nil {
		return &IoError{Op: "encode", Path: s.ConfigPath(), Err: err}
	}
	secretsData, err := EncodeSecrets(secrets)
	if err != nil {
		return &IoError{Op: "encode", Path: s.SecretsPath(), Err: err}
	}

	if err := os.MkdirAll(s.configDir, ConfigDirMode); err != nil {
		return &IoError{Op: "mkdir", Path: s.configDir, Err: err}
	}
	if err := s.writer.Write(s.ConfigPath(), cfgData, ConfigFileMode); err != nil {
		return &IoError{Op: "write", Path: s.ConfigPath(), Err: err}
	}
	log.Info().Str("path", s.ConfigPath()).Msg("Config artifact written")

	if err := os.MkdirAll(s.secretsDir, SecretsDirMode); err != nil {
		return &IoError{Op: "mkdir", Path: s.secretsDir, Err: err}
	}
	if err := s.writer.Write(s.SecretsPath(), secretsData, SecretsFileMode); err != nil {
		return &IoError{Op: "write", Path: s.SecretsPath(), Err: err}
	}
	log.Info().
		Str("path", s.SecretsPath()).
		Bool("notifications", secrets.HasNotifications()).
		Msg("Secrets artifact written")

	return nil
}

// Read loads and validates both artifacts.
func (s *Store) Read() (*config.Config, *config.Secrets, error) {
	data, err := os.ReadFile(s.ConfigPath())
	if err != nil {
		return nil, nil, &IoError{Op: "read", Path: s.ConfigPath(), Err: err}
	}
	cfg, err := DecodeConfig(data)
	if err != nil {
		return nil, nil, &IoError{Op: "decode", Path: s.ConfigPath(), Err: err}
	}

	data, err = os.ReadFile(s.SecretsPath())
	if err != nil {
		return nil, nil, &IoError{Op: "read", Path: s.SecretsPath(), Err: err}
	}
	secrets, err := DecodeSecrets(data)
	if err != nil {
		return nil, nil, &IoError{Op: "decode", Path: s.SecretsPath(), Err: err}
	}

	return cfg, secrets, nil
}

// RemoveConfigArtifact deletes the config file. A missing file is not an error.
func (s *Store) RemoveConfigArtifact() error {
	return removeFile(s.ConfigPath())
}

// RemoveSecretsArtifact deletes the secrets file. A missing file is not an error.
func (s *Store) RemoveSecretsArtifact() error {
	return removeFile(s.SecretsPath())
}

// RemoveConfigDir deletes the config directory and everything in it.
func (s *Store) RemoveConfigDir() error {
	return removeDir(s.configDir)
}

// RemoveSecretsDir deletes the secrets directory and everything in it.
func (s *Store) RemoveSecretsDir() error {
	return removeDir(s.secretsDir)
}

func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &IoError{Op: "remove", Path: path, Err: err}
	}
	return nil
}

func removeDir(path string) error {
	// RemoveAll already treats a missing path as success.
	if err := os.RemoveAll(path); err != nil {
		return &IoError{Op: "remove", Path: path, Err: err}
	}
	return nil
}

// EncodeConfig renders cfg as TOML. Identical input gives identical bytes.
func EncodeConfig(cfg *config.Config) ([]byte, error) {
	return toml.Marshal(cfg)
}

// DecodeConfig parses and validates a TOML config artifact. Unknown keys
// are rejected.
func DecodeConfig(data []byte) (*config.Config, error) {
	var cfg config.Config
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config TOML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// EncodeSecrets renders secrets as YAML.
func EncodeSecrets(secrets *config.Secrets) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(secrets); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeSecrets parses and validates a YAML secrets artifact.
func DecodeSecrets(data []byte) (*config.Secrets, error) {
	var secrets config.Secrets
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&secrets); err != nil {
		return nil, fmt.Errorf("failed to parse secrets YAML: %w", err)
	}
	if err := secrets.Validate(); err != nil {
		return nil, err
	}
	if !secrets.HasNotifications() {
		secrets.Telegram = nil
	}
	return &secrets, nil
}
