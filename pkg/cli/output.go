package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bookqa/bookqa/pkg/core"
	"github.com/bookqa/bookqa/pkg/scenario"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// Scenarios slower than this are marked in the progress output.
const slowThreshold = 20 * time.Second

// colorsEnabled determines if ANSI colors should be used
var colorsEnabled = true

func init() {
	// Respect NO_COLOR environment variable
	if os.Getenv("NO_COLOR") != "" {
		colorsEnabled = false
		return
	}
	// Check if stdout is a terminal
	if fileInfo, err := os.Stdout.Stat(); err == nil {
		if (fileInfo.Mode() & os.ModeCharDevice) == 0 {
			colorsEnabled = false
		}
	}
}

// color returns the color code if colors are enabled, empty string otherwise
func color(c string) string {
	if colorsEnabled {
		return c
	}
	return ""
}

// progress prints live scenario progress.
type progress struct {
	w io.Writer
}

func (p progress) onScenarioStart(idx, total int, s scenario.Scenario) {
	fmt.Fprintf(p.w, "  %s[%d/%d]%s %s %s(%s)%s\n",
		color(colorCyan), idx+1, total, color(colorReset),
		s.Name, color(colorGray), s.Kind, color(colorReset))
}

func (p progress) onScenarioEnd(_, _ int, r scenario.ScenarioResult) {
	dur := formatDuration(r.Duration)
	switch r.Status {
	case core.StatusPassed, core.StatusWarned:
		symbol, symbolColor, durColor := "✓", color(colorGreen), ""
		if r.Duration >= slowThreshold {
			symbol, symbolColor, durColor = "⚠", color(colorYellow), color(colorYellow)
		}
		fmt.Fprintf(p.w, "    %s%s%s %s %s(%s)%s\n",
			symbolColor, symbol, color(colorReset), r.Name, durColor, dur, color(colorReset))
	case core.StatusSkipped:
		fmt.Fprintf(p.w, "    %s-%s %s (skipped)\n", color(colorCyan), color(colorReset), r.Name)
	default:
		fmt.Fprintf(p.w, "    %s✗%s %s (%s)\n", color(colorRed), color(colorReset), r.Name, dur)
		if r.Err != nil {
			fmt.Fprintf(p.w, "      %s╰─%s %s\n", color(colorGray), color(colorReset), firstLine(r.Err.Error()))
		}
	}
}

func printSummary(w io.Writer, result *scenario.RunResult) {
	fmt.Fprintln(w)
	if result.Passed > 0 {
		fmt.Fprintf(w, "  %s%d passing%s (%s)\n", color(colorGreen), result.Passed, color(colorReset), formatDuration(result.Duration))
	}
	if result.Failed > 0 {
		fmt.Fprintf(w, "  %s%d failing%s\n", color(colorRed), result.Failed, color(colorReset))
	}
	if result.Broken > 0 {
		fmt.Fprintf(w, "  %s%d broken%s\n", color(colorYellow), result.Broken, color(colorReset))
	}
	if result.Skipped > 0 {
		fmt.Fprintf(w, "  %s%d skipped%s\n", color(colorCyan), result.Skipped, color(colorReset))
	}
	fmt.Fprintln(w)

	tableWidth := 80
	fmt.Fprintln(w, strings.Repeat("═", tableWidth))
	fmt.Fprintf(w, "  %-52s %6s %6s %10s\n", "Scenario", "Kind", "Status", "Duration")
	fmt.Fprintln(w, strings.Repeat("─", tableWidth))

	for _, r := range result.Results {
		var status, statusColor string
		switch r.Status {
		case core.StatusFailed:
			status, statusColor = "✗ FAIL", color(colorRed)
		case core.StatusErrored:
			status, statusColor = "! BRKN", color(colorYellow)
		case core.StatusSkipped:
			status, statusColor = "- SKIP", color(colorCyan)
		default:
			status, statusColor = "✓ PASS", color(colorGreen)
		}
		fmt.Fprintf(w, "  %-52s %6s %s%6s%s %10s\n",
			truncateName(r.Name, 52), r.Kind, statusColor, status, color(colorReset), formatDuration(r.Duration))
	}

	fmt.Fprintln(w, strings.Repeat("─", tableWidth))
	statusStr := fmt.Sprintf("%d/%d", result.Passed, result.Total)
	statusColor := color(colorGreen)
	if !result.OK() {
		statusColor = color(colorRed)
	}
	fmt.Fprintf(w, "  %s%-52s%s %6s %s%6s%s %10s\n",
		color(colorBold), "TOTAL", color(colorReset), "",
		statusColor, statusStr, color(colorReset), formatDuration(result.Duration))
	fmt.Fprintln(w, strings.Repeat("═", tableWidth))
}

// truncateName shortens s to n runes.
func truncateName(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// formatDuration shows milliseconds below one second, seconds below a
// minute, minutes and seconds otherwise.
func formatDuration(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	if ms < 60000 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	mins := ms / 60000
	secs := (ms % 60000) / 1000
	return fmt.Sprintf("%dm %ds", mins, secs)
}
