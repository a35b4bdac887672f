package export

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/moses7054/indexer-v2/internal/metrics"
)

// Error is a failure to create the output directory or write the file.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("export %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Exporter struct {
	dir    string
	prefix string
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*Exporter)

// WithClock overrides the time used to name output files.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) {
		e.now = now
	}
}

func New(dir, prefix string, logger *slog.Logger, opts ...Option) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Exporter{
		dir:    dir,
		prefix: prefix,
		now:    time.Now,
		logger: logger.With("component", "exporter"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Export writes rows to a new timestamped file under the output directory,
// creating the directory if needed, and returns the file path.
func (e *Exporter) Export(rows []Row) (string, error) {
	path := filepath.Join(e.dir, Filename(e.prefix, e.now()))

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		metrics.ExportErrors.Inc()
		return "", &Error{Op: "mkdir", Path: e.dir, Err: err}
	}
	if err := os.WriteFile(path, []byte(ToCSV(rows)), 0o644); err != nil {
		metrics.ExportErrors.Inc()
		return "", &Error{Op: "write", Path: path, Err: err}
	}

	metrics.ExportRecordsWritten.Add(float64(len(rows)))
	e.logger.Info("CSV file saved", "path", path, "records", len(rows))
	return path, nil
}
