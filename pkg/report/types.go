// Package report writes scenario results: Allure result files with steps,
// labels and attachments, plus a JSON run summary and an HTML overview.
//
// Layout of a results directory:
//   - <uuid>-result.json: one Allure result per scenario
//   - <uuid>-attachment.<ext>: screenshots, page sources, logs, API exchanges
//   - categories.json, environment.properties, executor.json
//   - summary.json and report.html: run totals for CI and humans
package report

import "time"

// Version is the summary schema version.
const Version = "1.0.0"

// Summary is the run-level result written to summary.json.
type Summary struct {
	Version   string    `json:"version"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Duration  int64     `json:"duration"` // ms
	Driver    string    `json:"driver,omitempty"`
	BaseURL   string    `json:"baseUrl,omitempty"`

	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Broken  int `json:"broken"`
	Skipped int `json:"skipped"`

	Scenarios []ScenarioEntry `json:"scenarios"`
}

// ScenarioEntry is one scenario's line in the summary.
type ScenarioEntry struct {
	Name     string   `json:"name"`
	FullName string   `json:"fullName"`
	Kind     string   `json:"kind"`
	Status   string   `json:"status"` // Allure status: passed, failed, broken, skipped
	Duration int64    `json:"duration"`
	Error    string   `json:"error,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	ResultID string   `json:"resultId,omitempty"`
}

// Add counts e in the totals and appends it.
func (s *Summary) Add(e ScenarioEntry) {
	s.Total++
	switch e.Status {
	case "passed":
		s.Passed++
	case "failed":
		s.Failed++
	case "broken":
		s.Broken++
	case "skipped":
		s.Skipped++
	}
	s.Scenarios = append(s.Scenarios, e)
}

// OK reports whether nothing failed or broke.
func (s *Summary) OK() bool {
	return s.Failed == 0 && s.Broken == 0
}

// PassRate returns passed / executed (skips excluded) as a percentage.
func (s *Summary) PassRate() float64 {
	executed := s.Total - s.Skipped
	if executed <= 0 {
		return 0
	}
	return float64(s.Passed) / float64(executed) * 100
}
