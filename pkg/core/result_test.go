package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestOutcomeKind_String(t *testing.T) {
	tests := []struct {
		kind     OutcomeKind
		expected string
	}{
		{OutcomeSuccess, "success"},
		{OutcomeNotFound, "not_found"},
		{OutcomeTimeout, "timeout"},
		{OutcomeStaleElement, "stale_element"},
		{OutcomeNotInteractable, "not_interactable"},
		{OutcomeNavigationTimeout, "navigation_timeout"},
		{OutcomeFailed, "failed"},
		{OutcomeKind(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.expected {
			t.Errorf("OutcomeKind(%d).String() = %q, want %q", tt.kind, got, tt.expected)
		}
	}
}

func TestResult_OK(t *testing.T) {
	if !(Result[int]{Kind: OutcomeSuccess}).OK() {
		t.Error("OK() = false for success")
	}
	if (Result[int]{Kind: OutcomeTimeout}).OK() {
		t.Error("OK() = true for timeout")
	}
}

func TestResult_ValueOr(t *testing.T) {
	ok := Result[string]{Kind: OutcomeSuccess, Value: "Корзина"}
	if got := ok.ValueOr("x"); got != "Корзина" {
		t.Errorf("ValueOr() = %q, want %q", got, "Корзина")
	}

	miss := Result[string]{Kind: OutcomeNotFound, Value: "stale"}
	if got := miss.ValueOr("x"); got != "x" {
		t.Errorf("ValueOr() = %q, want %q", got, "x")
	}
}

func TestResult_ErrNilOnSuccess(t *testing.T) {
	if err := (Result[int]{Kind: OutcomeSuccess}).Err(); err != nil {
		t.Errorf("Err() = %v, want nil", err)
	}
}

func TestResult_ErrMapsKind(t *testing.T) {
	target := NewTarget("logo", CSS("a.logo"))
	tests := []struct {
		kind OutcomeKind
		want *ExecutionError
	}{
		{OutcomeNotFound, ErrElementNotFound},
		{OutcomeTimeout, ErrWaitTimeout},
		{OutcomeStaleElement, ErrStaleElement},
		{OutcomeNotInteractable, ErrElementNotInteractable},
		{OutcomeNavigationTimeout, ErrNavigationTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			err := Result[int]{Kind: tt.kind, Target: target}.Err()
			if !errors.Is(err, tt.want) {
				t.Errorf("Err() = %v, want errors.Is %s", err, tt.want.Code)
			}
		})
	}
}

func TestResult_ErrDiagnostics(t *testing.T) {
	cause := errors.New("connection reset")
	r := Result[int]{
		Kind:      OutcomeTimeout,
		Target:    NewTarget("search input", CSS("input[name='q']"), XPath("//input[@type='search']")),
		Predicate: PredicateVisible,
		Elapsed:   2*time.Second + 3*time.Millisecond,
		Polls:     10,
		Cause:     cause,
	}

	err := r.Err()
	msg := err.Error()
	for _, want := range []string{"search input[css:input[name='q'] | xpath://input[@type='search']]", "predicate=visible", "elapsed=2.003s", "no candidate ever matched"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Err() = %q, should contain %q", msg, want)
		}
	}
	if !errors.Is(err, cause) {
		t.Error("Err() should wrap the cause")
	}

	var ee *ExecutionError
	if !errors.As(err, &ee) {
		t.Fatal("Err() should be an *ExecutionError")
	}
	if ee.Details["predicate"] != "visible" {
		t.Errorf("Details[predicate] = %v, want visible", ee.Details["predicate"])
	}
}

func TestResult_ErrMatchedTimeoutOmitsAbsenceNote(t *testing.T) {
	r := Result[int]{Kind: OutcomeTimeout, Target: NewTarget("btn", CSS("button")), Matched: 2}
	if strings.Contains(r.Err().Error(), "no candidate ever matched") {
		t.Error("Err() reports absence although elements matched")
	}
}

func TestResult_Absent(t *testing.T) {
	tests := []struct {
		r    Result[int]
		want bool
	}{
		{Result[int]{Kind: OutcomeTimeout}, true},
		{Result[int]{Kind: OutcomeNotFound}, true},
		{Result[int]{Kind: OutcomeTimeout, Matched: 1}, false},
		{Result[int]{Kind: OutcomeSuccess}, false},
		{Result[int]{Kind: OutcomeFailed}, false},
	}

	for _, tt := range tests {
		if got := tt.r.Absent(); got != tt.want {
			t.Errorf("Absent(kind=%s, matched=%d) = %v, want %v", tt.r.Kind, tt.r.Matched, got, tt.want)
		}
	}
}

func TestMap(t *testing.T) {
	loc := CSS("h1")
	src := Result[int]{Kind: OutcomeSuccess, Value: 3, Locator: loc, Polls: 2, Elapsed: time.Second}
	got := Map(src, "three")

	if got.Value != "three" {
		t.Errorf("Value = %q, want three", got.Value)
	}
	if got.Kind != OutcomeSuccess || got.Polls != 2 || got.Elapsed != time.Second {
		t.Errorf("Map() lost diagnostics: %+v", got)
	}
	if got.Locator != loc {
		t.Errorf("Locator = %s, want %s", got.Locator, loc)
	}
}
