package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wonny/sp500-screener/internal/contracts"
	"github.com/wonny/sp500-screener/pkg/logger"
)

// FileStore writes the report JSON consumed by the dashboard
// ⭐ SSOT: stock_data.json 파일 출력은 여기서만
type FileStore struct {
	paths  []string
	logger *logger.Logger
}

// NewFileStore creates a file store writing to every path; the first path is read back
func NewFileStore(paths []string, log *logger.Logger) *FileStore {
	return &FileStore{
		paths:  paths,
		logger: log.WithField("module", "export"),
	}
}

var _ contracts.ReportStore = (*FileStore)(nil)

// Paths returns the configured output paths
func (s *FileStore) Paths() []string {
	return s.paths
}

// Save writes indented JSON to every path, creating parent directories
func (s *FileStore) Save(ctx context.Context, report *contracts.Report) error {
	if len(s.paths) == 0 {
		return fmt.Errorf("no output paths configured")
	}

	data, err := Encode(report)
	if err != nil {
		return err
	}

	for _, path := range s.paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeFileAtomic(path, data); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		s.logger.WithFields(map[string]interface{}{
			"path":  path,
			"bytes": len(data),
		}).Info("Report written")
	}

	return nil
}

// Latest reads the report back from the first path
func (s *FileStore) Latest(ctx context.Context) (*contracts.Report, error) {
	if len(s.paths) == 0 {
		return nil, contracts.ErrNoReport
	}

	data, err := os.ReadFile(s.paths[0])
	if errors.Is(err, os.ErrNotExist) {
		return nil, contracts.ErrNoReport
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.paths[0], err)
	}

	var report contracts.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.paths[0], err)
	}
	return &report, nil
}

// Encode renders the report as 2-space indented JSON without HTML escaping
func Encode(report *contracts.Report) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return buf.Bytes(), nil
}

// writeFileAtomic writes to a temp file in the same directory and renames it,
// so readers never see a half-written report.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".stock_data-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
