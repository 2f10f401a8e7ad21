package report

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/xerrors"

	"github.com/winefeed/catalog-sync/pkg/syncer"
)

// Report is the JSON document written after a run.
type Report struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	syncer.Summary
}

func New(summary syncer.Summary, runErr error) Report {
	r := Report{
		Status:  "completed",
		Summary: summary,
	}
	if runErr != nil {
		r.Status = "failed"
		r.Error = runErr.Error()
	} else if summary.HasFailures() {
		r.Status = "completed_with_failures"
	}
	return r
}

// Write saves the report to filePath, creating parent directories.
// A failure to flush the file on close is reported like a write failure.
func Write(filePath string, r Report) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0744); err != nil {
		return xerrors.Errorf("mkdir error: %w", err)
	}

	f, err := os.Create(filePath)
	if err != nil {
		return xerrors.Errorf("unable to open %s: %w", filePath, err)
	}
	if err = encode(f, r); err != nil {
		return xerrors.Errorf("unable to write %s: %w", filePath, err)
	}
	return nil
}

func encode(w io.WriteCloser, r Report) (err error) {
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = xerrors.Errorf("close error: %w", cerr)
		}
	}()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err = enc.Encode(r); err != nil {
		return xerrors.Errorf("unable to encode report: %w", err)
	}
	return nil
}
