package core

import (
	"errors"
	"testing"
)

func TestNewLocator(t *testing.T) {
	tests := []struct {
		name     string
		strategy Strategy
		value    string
		wantErr  bool
	}{
		{"css", StrategyCSS, "a[href*='basket']", false},
		{"xpath absolute", StrategyXPath, "//button[contains(., 'Найти')]", false},
		{"xpath grouped", StrategyXPath, "(//article)[1]", false},
		{"xpath relative", StrategyXPath, ".//span", false},
		{"trimmed", StrategyCSS, "  h1  ", false},
		{"empty", StrategyCSS, "", true},
		{"blank", StrategyXPath, "   ", true},
		{"unknown strategy", Strategy(7), "div", true},
		{"unclosed bracket", StrategyCSS, "a[href", true},
		{"unterminated quote", StrategyCSS, "a[title='x]", true},
		{"mismatched", StrategyXPath, "//a[@id=(1])", true},
		{"xpath without root", StrategyXPath, "div/span", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := NewLocator(tt.strategy, tt.value)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NewLocator(%q) = %s, want error", tt.value, loc)
				}
				if !errors.Is(err, ErrInvalidLocator) {
					t.Errorf("error = %v, want ErrInvalidLocator", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewLocator(%q) error = %v", tt.value, err)
			}
			if loc.Strategy() != tt.strategy {
				t.Errorf("Strategy() = %s, want %s", loc.Strategy(), tt.strategy)
			}
		})
	}
}

func TestLocator_String(t *testing.T) {
	if got := CSS(" h1 ").String(); got != "css:h1" {
		t.Errorf("String() = %q, want css:h1", got)
	}
	if got := XPath("//h1").String(); got != "xpath://h1" {
		t.Errorf("String() = %q, want xpath://h1", got)
	}
}

func TestStrategy_W3C(t *testing.T) {
	if got := StrategyCSS.W3C(); got != "css selector" {
		t.Errorf("W3C() = %q, want 'css selector'", got)
	}
	if got := StrategyXPath.W3C(); got != "xpath" {
		t.Errorf("W3C() = %q, want xpath", got)
	}
}

func TestCSS_PanicsOnInvalid(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("CSS(\"\") did not panic")
		}
	}()
	CSS("")
}

func TestNewTarget(t *testing.T) {
	candidates := []Locator{CSS("a"), XPath("//a")}
	target := NewTarget("link", candidates...)
	candidates[0] = CSS("b")

	if target.Candidates[0].Value() != "a" {
		t.Error("NewTarget() shares the caller's slice")
	}
	if got := target.Describe(); got != "link[css:a | xpath://a]" {
		t.Errorf("Describe() = %q", got)
	}
}

func TestNewTarget_PanicsWithoutCandidates(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewTarget() without candidates did not panic")
		}
	}()
	NewTarget("empty")
}

func TestNewTarget_PanicsOnZeroLocator(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewTarget() with zero locator did not panic")
		}
	}()
	NewTarget("zero", Locator{})
}

func TestTarget_FirstMatch(t *testing.T) {
	target := NewTarget("first result", CSS(".art-item:first-child"))
	first := target.FirstMatch()

	if target.First {
		t.Error("FirstMatch() modified the receiver")
	}
	if !first.First {
		t.Error("FirstMatch() did not set First")
	}
	if first.Describe() != target.Describe() {
		t.Errorf("Describe() = %q, want %q", first.Describe(), target.Describe())
	}
}
