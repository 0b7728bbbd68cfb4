package report

import (
	"fmt"
	"path/filepath"

	"github.com/bookqa/bookqa/pkg/fileutil"
)

// SummaryFile is the summary's name inside the results directory.
const SummaryFile = "summary.json"

// WriteSummary writes summary.json atomically.
func WriteSummary(dir string, s *Summary) error {
	if s.Version == "" {
		s.Version = Version
	}
	if !s.EndTime.IsZero() && !s.StartTime.IsZero() {
		s.Duration = s.EndTime.Sub(s.StartTime).Milliseconds()
	}
	if err := fileutil.AtomicWriteJSON(filepath.Join(dir, SummaryFile), s); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// ReadSummary loads summary.json from dir.
func ReadSummary(dir string) (*Summary, error) {
	var s Summary
	if err := fileutil.ReadJSON(filepath.Join(dir, SummaryFile), &s); err != nil {
		return nil, err
	}
	return &s, nil
}
