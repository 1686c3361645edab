// Package artifacts writes the synthesized build outputs to disk. This is
// part of the Imperative Shell - all filesystem effects live here, the core
// packages stay pure.
package artifacts

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/patel5d2/labctl/internal/core/compose"
)

// =============================================================================
// Errors
// =============================================================================

var (
	ErrOutputDirUnavailable = errors.New("cannot create output directory")
	ErrWriteFailed          = errors.New("cannot write artifact")
)

// Artifact file names inside the output directory.
const (
	ComposeFileName = "docker-compose.yml"
	EnvFileName     = ".env"
	SummaryFileName = "build-summary.txt"
)

// =============================================================================
// Writer
// =============================================================================

// Writer persists build artifacts to an output directory.
type Writer struct {
	OutputDir string
	Logger    *slog.Logger
}

// NewWriter creates a writer for the given output directory.
func NewWriter(outputDir string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{OutputDir: outputDir, Logger: logger}
}

// LoadExistingEnv reads a previous build's environment file, if present.
// A missing file is not an error; it simply means a first build.
func (w *Writer) LoadExistingEnv() (map[string]string, error) {
	path := filepath.Join(w.OutputDir, EnvFileName)
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrWriteFailed, path, err)
	}
	return ParseEnvFile(content), nil
}

// WriteAll writes the compose document, the environment file and the build
// summary. Each artifact is staged to a temp file and renamed into place, so
// a failure mid-write never leaves a truncated artifact behind. An existing
// env file is backed up first since it may hold secrets the new one drops.
func (w *Writer) WriteAll(doc *compose.Document, env map[string]string, summary string) error {
	if err := os.MkdirAll(w.OutputDir, 0o755); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrOutputDirUnavailable, w.OutputDir, err)
	}

	raw, err := doc.Marshal()
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteFailed, ComposeFileName, err)
	}

	if err := w.backupEnvFile(); err != nil {
		return err
	}

	if err := w.writeFile(EnvFileName, EncodeEnvFile(env), 0o600); err != nil {
		return err
	}
	if err := w.writeFile(ComposeFileName, raw, 0o644); err != nil {
		return err
	}
	if err := w.writeFile(SummaryFileName, []byte(summary), 0o644); err != nil {
		return err
	}

	w.Logger.Info("artifacts written",
		"dir", w.OutputDir,
		"services", len(doc.Services),
		"env_entries", len(env))
	return nil
}

func (w *Writer) writeFile(name string, content []byte, mode os.FileMode) error {
	path := filepath.Join(w.OutputDir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, content, mode); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteFailed, name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: %s: %v", ErrWriteFailed, name, err)
	}
	return nil
}

func (w *Writer) backupEnvFile() error {
	path := filepath.Join(w.OutputDir, EnvFileName)
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	backup := fmt.Sprintf("%s.bak.%s", path, time.Now().Format("20060102-150405"))
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteFailed, EnvFileName, err)
	}
	if err := os.WriteFile(backup, content, 0o600); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteFailed, filepath.Base(backup), err)
	}
	w.Logger.Debug("backed up env file", "backup", backup)
	return nil
}
