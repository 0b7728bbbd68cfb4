// Package scenario holds the book store QA suite and the runner that executes
// it: UI scenarios on a browser session, API scenarios on the HTTP client and
// file scenarios on the local file helpers. Every scenario produces one
// Allure result.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind says which collaborators a scenario needs.
type Kind string

const (
	KindUI    Kind = "ui"
	KindAPI   Kind = "api"
	KindFiles Kind = "files"
)

// Severity follows the Allure severity levels.
type Severity string

const (
	SeverityBlocker  Severity = "blocker"
	SeverityCritical Severity = "critical"
	SeverityNormal   Severity = "normal"
	SeverityMinor    Severity = "minor"
)

// Param is one value of a parametrised scenario.
type Param struct {
	Name  string
	Value string
}

// Scenario is one executable test case.
type Scenario struct {
	Name     string
	Epic     string
	Feature  string
	Story    string
	Severity Severity
	Tags     []string
	Kind     Kind
	Params   []Param
	Run      func(ctx context.Context, env *Env) error
}

// FullName is the stable identity used for history: kind, feature and name,
// plus parameter values for parametrised variants.
func (s Scenario) FullName() string {
	var b strings.Builder
	b.WriteString(string(s.Kind))
	b.WriteString(".")
	b.WriteString(s.Feature)
	b.WriteString(".")
	b.WriteString(s.Name)
	if len(s.Params) > 0 {
		vals := make([]string, len(s.Params))
		for i, p := range s.Params {
			vals[i] = p.Name + "=" + p.Value
		}
		b.WriteString("[" + strings.Join(vals, ",") + "]")
	}
	return b.String()
}

// HasTag reports whether the scenario carries tag.
func (s Scenario) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ErrSkip marks a scenario as skipped when returned from Run.
var ErrSkip = errors.New("scenario skipped")

// Skipf returns an error that skips the scenario with a reason.
func Skipf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrSkip, fmt.Sprintf(format, args...))
}

// ShouldInclude applies tag filters: with include tags, at least one must be
// present; any exclude tag drops the scenario.
func ShouldInclude(s Scenario, includeTags, excludeTags []string) bool {
	if len(includeTags) > 0 {
		hasTag := false
		for _, include := range includeTags {
			if s.HasTag(include) {
				hasTag = true
				break
			}
		}
		if !hasTag {
			return false
		}
	}

	for _, exclude := range excludeTags {
		if s.HasTag(exclude) {
			return false
		}
	}

	return true
}

// Filter selects scenarios by kind (empty means all) and tags, keeping order.
func Filter(list []Scenario, kinds []string, includeTags, excludeTags []string) []Scenario {
	wantKind := map[Kind]bool{}
	for _, k := range kinds {
		wantKind[Kind(k)] = true
	}
	var out []Scenario
	for _, s := range list {
		if len(wantKind) > 0 && !wantKind[s.Kind] {
			continue
		}
		if !ShouldInclude(s, includeTags, excludeTags) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// NeedsBrowser reports whether any scenario is a UI scenario.
func NeedsBrowser(list []Scenario) bool {
	for _, s := range list {
		if s.Kind == KindUI {
			return true
		}
	}
	return false
}

// Tags returns the distinct tags of list, sorted.
func Tags(list []Scenario) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range list {
		for _, t := range s.Tags {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	sort.Strings(out)
	return out
}
