package report

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bookqa/bookqa/pkg/core"
	"github.com/bookqa/bookqa/pkg/logger"
)

// Allure result schema types.

// AllureResult represents a single test result in Allure format.
type AllureResult struct {
	UUID          string              `json:"uuid"`
	HistoryID     string              `json:"historyId"`
	FullName      string              `json:"fullName"`
	Name          string              `json:"name"`
	Description   string              `json:"description,omitempty"`
	Status        string              `json:"status"`
	Stage         string              `json:"stage"`
	Start         int64               `json:"start"`
	Stop          int64               `json:"stop"`
	Labels        []AllureLabel       `json:"labels"`
	Parameters    []AllureParameter   `json:"parameters,omitempty"`
	StatusDetails AllureStatusDetails `json:"statusDetails"`
	Steps         []AllureStep        `json:"steps"`
	Attachments   []AllureAttachment  `json:"attachments"`
}

// AllureStep represents a step within a test result.
type AllureStep struct {
	Name          string              `json:"name"`
	Status        string              `json:"status"`
	Stage         string              `json:"stage"`
	Start         int64               `json:"start"`
	Stop          int64               `json:"stop"`
	StatusDetails AllureStatusDetails `json:"statusDetails"`
	Steps         []AllureStep        `json:"steps"`
	Attachments   []AllureAttachment  `json:"attachments"`
}

// AllureAttachment represents a file attachment.
type AllureAttachment struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Type   string `json:"type"`
}

// AllureLabel represents a label on a test result.
type AllureLabel struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// AllureParameter is one parameter of a parametrised test.
type AllureParameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// AllureStatusDetails holds failure message and trace.
type AllureStatusDetails struct {
	Message string `json:"message"`
	Trace   string `json:"trace"`
}

// AllureCategory defines a failure category with regex matching.
type AllureCategory struct {
	Name            string   `json:"name"`
	MatchedStatuses []string `json:"matchedStatuses"`
	MessageRegex    string   `json:"messageRegex"`
}

// AllureExecutor holds executor info.
type AllureExecutor struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	BuildName  string `json:"buildName,omitempty"`
	ReportURL  string `json:"reportUrl,omitempty"`
	ReportName string `json:"reportName"`
}

// Label builds a label.
func Label(name, value string) AllureLabel {
	return AllureLabel{Name: name, Value: value}
}

// Recorder writes Allure results into one results directory.
type Recorder struct {
	dir string
}

// NewRecorder creates dir if needed.
func NewRecorder(dir string) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create allure dir: %w", err)
	}
	return &Recorder{dir: dir}, nil
}

// Dir returns the results directory.
func (r *Recorder) Dir() string { return r.dir }

// Start opens a test case. fullName should be stable across runs; it seeds
// the history id.
func (r *Recorder) Start(name, fullName string, labels ...AllureLabel) *TestCase {
	if fullName == "" {
		fullName = name
	}
	return &TestCase{
		rec: r,
		result: AllureResult{
			UUID:        uuid.NewString(),
			HistoryID:   fnv32aHash(fullName),
			FullName:    fullName,
			Name:        name,
			Stage:       "running",
			Start:       time.Now().UnixMilli(),
			Labels:      append([]AllureLabel{}, labels...),
			Steps:       []AllureStep{},
			Attachments: []AllureAttachment{},
		},
	}
}

// TestCase accumulates one result. Steps nest: attachments go to the
// innermost open step, or to the test when none is open.
type TestCase struct {
	rec    *Recorder
	mu     sync.Mutex
	result AllureResult
	open   []*AllureStep
	done   bool
}

// UUID returns the result id.
func (tc *TestCase) UUID() string { return tc.result.UUID }

// AddLabel appends a label.
func (tc *TestCase) AddLabel(name, value string) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.result.Labels = append(tc.result.Labels, Label(name, value))
}

// AddParameter records a parameter of a parametrised test. Parameters also
// feed the history id so each variant keeps its own history.
func (tc *TestCase) AddParameter(name, value string) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.result.Parameters = append(tc.result.Parameters, AllureParameter{Name: name, Value: value})
	tc.result.HistoryID = fnv32aHash(tc.result.FullName + paramKey(tc.result.Parameters))
}

func paramKey(params []AllureParameter) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.Name + "=" + p.Value
	}
	sort.Strings(parts)
	return "[" + strings.Join(parts, ",") + "]"
}

// SetDescription sets the result description.
func (tc *TestCase) SetDescription(d string) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.result.Description = d
}

// Step runs fn as a named step and records its outcome. fn's error is returned.
func (tc *TestCase) Step(name string, fn func() error) error {
	tc.startStep(name)
	var err error
	func() {
		defer func() {
			if p := recover(); p != nil {
				tc.endStep(fmt.Errorf("panic: %v", p))
				panic(p)
			}
		}()
		err = fn()
	}()
	tc.endStep(err)
	return err
}

func (tc *TestCase) startStep(name string) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.open = append(tc.open, &AllureStep{
		Name:        name,
		Stage:       "running",
		Start:       time.Now().UnixMilli(),
		Steps:       []AllureStep{},
		Attachments: []AllureAttachment{},
	})
}

func (tc *TestCase) endStep(err error) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	n := len(tc.open)
	if n == 0 {
		return
	}
	step := tc.open[n-1]
	tc.open = tc.open[:n-1]

	step.Stop = time.Now().UnixMilli()
	step.Stage = "finished"
	step.Status = AllureStatus(core.StatusOf(err))
	if err != nil {
		step.StatusDetails.Message = err.Error()
	}
	if n > 1 {
		parent := tc.open[n-2]
		parent.Steps = append(parent.Steps, *step)
	} else {
		tc.result.Steps = append(tc.result.Steps, *step)
	}
}

// Attach implements core.AttachmentSink. The body is written to
// <uuid>-attachment.<ext> next to the results.
func (tc *TestCase) Attach(name, contentType string, body []byte) error {
	source := fmt.Sprintf("%s-attachment.%s", uuid.NewString(), core.ExtensionFor(contentType))
	if err := os.WriteFile(filepath.Join(tc.rec.dir, source), body, 0o644); err != nil {
		return fmt.Errorf("write attachment %s: %w", name, err)
	}

	att := AllureAttachment{Name: name, Source: source, Type: contentType}
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if n := len(tc.open); n > 0 {
		tc.open[n-1].Attachments = append(tc.open[n-1].Attachments, att)
	} else {
		tc.result.Attachments = append(tc.result.Attachments, att)
	}
	return nil
}

// Finish closes any open steps, sets the final status and writes
// <uuid>-result.json. Calling it again is a no-op.
func (tc *TestCase) Finish(status core.StepStatus, err error) (AllureResult, error) {
	for {
		tc.mu.Lock()
		open := len(tc.open)
		tc.mu.Unlock()
		if open == 0 {
			break
		}
		tc.endStep(err)
	}

	tc.mu.Lock()
	defer tc.mu.Unlock()
	if tc.done {
		return tc.result, nil
	}
	tc.done = true

	tc.result.Stop = time.Now().UnixMilli()
	tc.result.Stage = "finished"
	tc.result.Status = AllureStatus(status)
	if err != nil {
		tc.result.StatusDetails.Message = err.Error()
		tc.result.StatusDetails.Trace = fmt.Sprintf("%+v", err)
	}

	data, mErr := json.MarshalIndent(tc.result, "", "  ")
	if mErr != nil {
		return tc.result, fmt.Errorf("marshal result: %w", mErr)
	}
	path := filepath.Join(tc.rec.dir, tc.result.UUID+"-result.json")
	if wErr := os.WriteFile(path, data, 0o644); wErr != nil {
		logger.Warn("failed to write allure result for %s: %v", tc.result.Name, wErr)
		return tc.result, fmt.Errorf("write result: %w", wErr)
	}
	return tc.result, nil
}

// AllureStatus maps a step status to the Allure status string.
// Unexpected errors are "broken", check failures "failed".
func AllureStatus(s core.StepStatus) string {
	switch s {
	case core.StatusPassed, core.StatusWarned:
		return "passed"
	case core.StatusFailed:
		return "failed"
	case core.StatusErrored:
		return "broken"
	case core.StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// fnv32aHash returns a hex-encoded FNV-32a hash of the input string.
func fnv32aHash(s string) string {
	h := fnv.New32a()
	h.Write([]byte(s))
	return fmt.Sprintf("%08x", h.Sum32())
}

// WriteCategories writes categories.json for failure categorization.
func WriteCategories(allureDir string) error {
	categories := []AllureCategory{
		{Name: "Element Not Found", MatchedStatuses: []string{"failed", "broken"}, MessageRegex: "(?s).*element not found.*"},
		{Name: "Wait Timeout", MatchedStatuses: []string{"broken"}, MessageRegex: "(?s).*wait condition timed out.*"},
		{Name: "Page Not Loaded", MatchedStatuses: []string{"broken"}, MessageRegex: "(?s).*did not reach ready state.*"},
		{Name: "Stale Element", MatchedStatuses: []string{"broken"}, MessageRegex: "(?s).*stale.*"},
		{Name: "Element Not Interactable", MatchedStatuses: []string{"broken"}, MessageRegex: "(?s).*not interactable.*"},
		{Name: "Unexpected HTTP Status", MatchedStatuses: []string{"failed"}, MessageRegex: "(?s).*expected status.*"},
		{Name: "Schema Mismatch", MatchedStatuses: []string{"failed"}, MessageRegex: "(?s).*does not match schema.*"},
		{Name: "Check Failed", MatchedStatuses: []string{"failed"}},
		{Name: "Connection Error", MatchedStatuses: []string{"broken"}, MessageRegex: "(?s).*(connect|connection|unreachable|session).*"},
	}

	data, err := json.MarshalIndent(categories, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal categories: %w", err)
	}

	path := filepath.Join(allureDir, "categories.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write categories.json: %w", err)
	}

	return nil
}

// WriteEnvironment writes environment.properties, one key=value per line in
// key order.
func WriteEnvironment(allureDir string, env map[string]string) error {
	keys := make([]string, 0, len(env))
	for k, v := range env {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(fmt.Sprintf("%s=%s\n", k, env[k]))
	}

	path := filepath.Join(allureDir, "environment.properties")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write environment.properties: %w", err)
	}

	return nil
}

// WriteExecutor writes executor.json.
func WriteExecutor(allureDir, buildName string) error {
	executor := AllureExecutor{
		Name:       "bookqa",
		Type:       "bookqa",
		BuildName:  buildName,
		ReportName: "Book store QA",
	}

	data, err := json.MarshalIndent(executor, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal executor: %w", err)
	}

	path := filepath.Join(allureDir, "executor.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write executor.json: %w", err)
	}

	return nil
}
