package gamelog

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// TimestampLayout is the UTC layout of log file names.
const TimestampLayout = "20060102_150405"

// Repository is the interface for persisting game logs.
type Repository interface {
	Save(ctx context.Context, log *GameEvaluationLog) error
}

var nameReplacer = strings.NewReplacer("/", "_", ":", "_", "-", "_")

// SanitizeName turns a public model name into a directory name.
func SanitizeName(name string) string {
	return nameReplacer.Replace(name)
}

// ObjectName returns the relative path of the log:
// <sanitized model name>/<start time>.json.
func ObjectName(log *GameEvaluationLog) string {
	return path.Join(SanitizeName(log.PublicModelName), log.StartTime.UTC().Format(TimestampLayout)+".json")
}

// fallbackName is used when ObjectName is taken by another game started
// within the same second.
func fallbackName(log *GameEvaluationLog) string {
	suffix := log.ID
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return strings.TrimSuffix(ObjectName(log), ".json") + "_" + suffix + ".json"
}

// FileRepository persists logs as JSON files.
type FileRepository struct {
	dir string
}

// NewFileRepository creates a new FileRepository that writes under the given directory.
func NewFileRepository(dir string) *FileRepository {
	return &FileRepository{dir: dir}
}

// Save writes the log to {dir}/{ObjectName}. Existing files are never
// overwritten.
func (r *FileRepository) Save(_ context.Context, log *GameEvaluationLog) error {
	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return goerr.Wrap(err, "failed to marshal game log", goerr.V("id", log.ID))
	}

	dir := filepath.Join(r.dir, SanitizeName(log.PublicModelName))
	if err := os.MkdirAll(dir, 0750); err != nil {
		return goerr.Wrap(err, "failed to create log directory", goerr.V("dir", dir))
	}

	for _, name := range []string{ObjectName(log), fallbackName(log)} {
		filePath := filepath.Join(r.dir, filepath.FromSlash(name))
		err := writeNew(filePath, data)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return goerr.Wrap(err, "failed to write game log", goerr.V("path", filePath))
		}
		return nil
	}

	return goerr.New("game log file already exists", goerr.V("id", log.ID), goerr.V("dir", dir))
}

func writeNew(filePath string, data []byte) error {
	f, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// MultiRepository saves every log to all repositories.
type MultiRepository struct {
	repos []Repository
}

// Multi creates a Repository that forwards to the given repositories.
func Multi(repos ...Repository) *MultiRepository {
	return &MultiRepository{repos: repos}
}

// Save tries every repository and joins their errors.
func (m *MultiRepository) Save(ctx context.Context, log *GameEvaluationLog) error {
	var errs []error
	for _, repo := range m.repos {
		if err := repo.Save(ctx, log); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
