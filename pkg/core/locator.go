// Package core provides the interaction model types for bookqa: locators,
// wait policies, interaction results, the driver contract and the error taxonomy.
package core

import (
	"fmt"
	"strings"
)

// Strategy is how a Locator selects elements.
type Strategy int

// Strategy values
const (
	StrategyCSS Strategy = iota + 1
	StrategyXPath
)

// String returns the short strategy name used in descriptions.
func (s Strategy) String() string {
	switch s {
	case StrategyCSS:
		return "css"
	case StrategyXPath:
		return "xpath"
	default:
		return "unknown"
	}
}

// W3C returns the WebDriver "using" value for the strategy.
func (s Strategy) W3C() string {
	switch s {
	case StrategyCSS:
		return "css selector"
	case StrategyXPath:
		return "xpath"
	default:
		return ""
	}
}

// Locator describes how to find an element. The zero value is invalid;
// fields are unexported so a constructed Locator never changes.
type Locator struct {
	strategy Strategy
	value    string
}

// NewLocator validates and builds a Locator.
func NewLocator(strategy Strategy, value string) (Locator, error) {
	value = strings.TrimSpace(value)
	if strategy != StrategyCSS && strategy != StrategyXPath {
		return Locator{}, ErrInvalidLocator.WithMessage(fmt.Sprintf("unknown locator strategy %d", strategy))
	}
	if value == "" {
		return Locator{}, ErrInvalidLocator.WithMessage("empty " + strategy.String() + " selector")
	}
	if err := checkBalanced(value); err != nil {
		return Locator{}, ErrInvalidLocator.WithMessage(fmt.Sprintf("%s selector %q: %v", strategy, value, err))
	}
	if strategy == StrategyXPath {
		switch value[0] {
		case '/', '(', '.':
		default:
			return Locator{}, ErrInvalidLocator.WithMessage(fmt.Sprintf("xpath %q must start with '/', '(' or '.'", value))
		}
	}
	return Locator{strategy: strategy, value: value}, nil
}

// CSS returns a CSS locator and panics if the selector is malformed.
// Intended for package-level locator catalogs.
func CSS(selector string) Locator {
	return mustLocator(StrategyCSS, selector)
}

// XPath returns an XPath locator and panics if the expression is malformed.
func XPath(expr string) Locator {
	return mustLocator(StrategyXPath, expr)
}

func mustLocator(strategy Strategy, value string) Locator {
	l, err := NewLocator(strategy, value)
	if err != nil {
		panic(err)
	}
	return l
}

// Strategy returns the selection strategy.
func (l Locator) Strategy() Strategy { return l.strategy }

// Value returns the selector string.
func (l Locator) Value() string { return l.value }

// IsZero reports whether the locator was never constructed.
func (l Locator) IsZero() bool { return l.strategy == 0 }

// String returns "css:<selector>" or "xpath:<expr>".
func (l Locator) String() string {
	return l.strategy.String() + ":" + l.value
}

// checkBalanced rejects selectors with unbalanced brackets or quotes.
func checkBalanced(s string) error {
	var stack []rune
	var quote rune
	for _, r := range s {
		if quote != 0 {
			if r == quote {
				quote = 0
			}
			continue
		}
		switch r {
		case '\'', '"':
			quote = r
		case '[', '(':
			stack = append(stack, r)
		case ']', ')':
			want := '['
			if r == ')' {
				want = '('
			}
			if len(stack) == 0 || stack[len(stack)-1] != want {
				return fmt.Errorf("unexpected %q", r)
			}
			stack = stack[:len(stack)-1]
		}
	}
	if quote != 0 {
		return fmt.Errorf("unterminated %q", quote)
	}
	if len(stack) > 0 {
		return fmt.Errorf("unclosed %q", stack[len(stack)-1])
	}
	return nil
}

// Target is an ordered fallback chain of locators for one semantic element.
// Candidates are tried in order on every poll.
type Target struct {
	Name       string
	Candidates []Locator
	// First restricts the target to the first element of the first candidate
	// with any matches. Later matches are never acted on, even when the first
	// one fails the predicate.
	First bool
}

// NewTarget builds a Target and panics when no candidates are given.
func NewTarget(name string, candidates ...Locator) Target {
	if len(candidates) == 0 {
		panic(fmt.Sprintf("target %q has no locators", name))
	}
	for _, c := range candidates {
		if c.IsZero() {
			panic(fmt.Sprintf("target %q has a zero locator", name))
		}
	}
	cs := make([]Locator, len(candidates))
	copy(cs, candidates)
	return Target{Name: name, Candidates: cs}
}

// FirstMatch returns a copy of t bound to the first match only.
func (t Target) FirstMatch() Target {
	t.First = true
	return t
}

// Describe renders the target and its chain, e.g. logo[css:a | xpath://b].
func (t Target) Describe() string {
	if len(t.Candidates) == 0 {
		return t.Name
	}
	parts := make([]string, len(t.Candidates))
	for i, c := range t.Candidates {
		parts[i] = c.String()
	}
	name := t.Name
	if name == "" {
		name = "element"
	}
	return name + "[" + strings.Join(parts, " | ") + "]"
}
