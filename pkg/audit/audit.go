// Package audit checks page locator catalogs against saved or fetched HTML,
// so markup drift on the store shows up without starting a browser.
package audit

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/bookqa/bookqa/pkg/core"
	"github.com/bookqa/bookqa/pkg/logger"
)

// CandidateStatus describes how one fallback locator fared.
type CandidateStatus string

// CandidateStatus values
const (
	StatusMatched      CandidateStatus = "matched"
	StatusNoMatch      CandidateStatus = "no_match"
	StatusInvalid      CandidateStatus = "invalid"
	StatusNotEvaluated CandidateStatus = "not_evaluated" // xpath
)

// CandidateReport is the audit of one locator in a fallback chain.
type CandidateReport struct {
	Locator string          `json:"locator"`
	Status  CandidateStatus `json:"status"`
	Count   int             `json:"count"`
	Sample  string          `json:"sample,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// TargetReport is the audit of one target.
type TargetReport struct {
	Page       string            `json:"page"`
	Target     string            `json:"target"`
	Candidates []CandidateReport `json:"candidates"`
	// Winner is the first matching CSS candidate, as a poll would pick it.
	Winner string `json:"winner,omitempty"`
}

// Resolved reports whether any candidate matched.
func (r TargetReport) Resolved() bool { return r.Winner != "" }

// OnlyXPath reports whether every candidate is an unevaluated xpath.
func (r TargetReport) OnlyXPath() bool {
	for _, c := range r.Candidates {
		if c.Status != StatusNotEvaluated {
			return false
		}
	}
	return len(r.Candidates) > 0
}

// Report is the audit of a whole catalog against one document.
type Report struct {
	Source  string         `json:"source"`
	Targets []TargetReport `json:"targets"`
}

// Unresolved returns the targets with no CSS match, excluding xpath-only ones.
func (r Report) Unresolved() []TargetReport {
	var out []TargetReport
	for _, t := range r.Targets {
		if !t.Resolved() && !t.OnlyXPath() {
			out = append(out, t)
		}
	}
	return out
}

// Document parses HTML for auditing.
func Document(r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// Fetch downloads and parses a page.
func Fetch(ctx context.Context, client *http.Client, url string) (*goquery.Document, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (bookqa locator audit)")
	req.Header.Set("Accept", "text/html")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, core.ErrUnexpectedStatus.WithMessage(fmt.Sprintf("fetch %s: HTTP %d", url, resp.StatusCode))
	}
	return Document(resp.Body)
}

// Run audits every target of catalog against doc. Pages are visited in name
// order; targets keep catalog order.
func Run(doc *goquery.Document, source string, catalog map[string][]core.Target) Report {
	pages := make([]string, 0, len(catalog))
	for p := range catalog {
		pages = append(pages, p)
	}
	sort.Strings(pages)

	rep := Report{Source: source}
	for _, page := range pages {
		for _, t := range catalog[page] {
			rep.Targets = append(rep.Targets, auditTarget(doc, page, t))
		}
	}
	logger.Debug("audit %s: %d targets, %d unresolved", source, len(rep.Targets), len(rep.Unresolved()))
	return rep
}

func auditTarget(doc *goquery.Document, page string, t core.Target) TargetReport {
	tr := TargetReport{Page: page, Target: t.Name}
	for _, loc := range t.Candidates {
		cr := auditCandidate(doc, loc)
		if cr.Status == StatusMatched && tr.Winner == "" {
			tr.Winner = cr.Locator
		}
		tr.Candidates = append(tr.Candidates, cr)
	}
	return tr
}

func auditCandidate(doc *goquery.Document, loc core.Locator) CandidateReport {
	cr := CandidateReport{Locator: loc.String()}
	if loc.Strategy() != core.StrategyCSS {
		cr.Status = StatusNotEvaluated
		return cr
	}
	sel, err := cascadia.Compile(loc.Value())
	if err != nil {
		cr.Status = StatusInvalid
		cr.Error = err.Error()
		return cr
	}
	found := doc.FindMatcher(sel)
	cr.Count = found.Length()
	if cr.Count == 0 {
		cr.Status = StatusNoMatch
		return cr
	}
	cr.Status = StatusMatched
	cr.Sample = sample(found.First())
	return cr
}

// sample renders the first match as a short tag summary.
func sample(s *goquery.Selection) string {
	tag := goquery.NodeName(s)
	if id, ok := s.Attr("id"); ok {
		tag += "#" + id
	}
	text := strings.Join(strings.Fields(s.Text()), " ")
	if r := []rune(text); len(r) > 40 {
		text = string(r[:40]) + "…"
	}
	if text == "" {
		return "<" + tag + ">"
	}
	return "<" + tag + "> " + text
}

// Format renders the report as plain text, one line per candidate.
func Format(w io.Writer, rep Report) {
	fmt.Fprintf(w, "Locator audit: %s\n", rep.Source)
	for _, t := range rep.Targets {
		mark := "ok"
		switch {
		case t.OnlyXPath():
			mark = "??"
		case !t.Resolved():
			mark = "!!"
		}
		fmt.Fprintf(w, "[%s] %s/%s\n", mark, t.Page, t.Target)
		for _, c := range t.Candidates {
			line := fmt.Sprintf("     %-14s %s", c.Status, c.Locator)
			if c.Count > 0 {
				line += fmt.Sprintf(" (%d) %s", c.Count, c.Sample)
			}
			if c.Error != "" {
				line += " error: " + c.Error
			}
			fmt.Fprintln(w, line)
		}
	}
	fmt.Fprintf(w, "%d targets, %d unresolved\n", len(rep.Targets), len(rep.Unresolved()))
}
