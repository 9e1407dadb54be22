package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
)

// ═══════════════════════════════════════════════════════════
// Console Tables
// ═══════════════════════════════════════════════════════════

const lineWidth = 60

// Printer renders report tables as fixed-width text
type Printer struct {
	w io.Writer
}

// NewPrinter wraps an output stream
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Header prints a double rule, a centered title and a single rule
func (p *Printer) Header(title string) {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, strings.Repeat("═", lineWidth))
	fmt.Fprintln(p.w, center(" "+title+" ", lineWidth, "─"))
	fmt.Fprintln(p.w, strings.Repeat("═", lineWidth))
}

// Separator prints a single rule
func (p *Printer) Separator() {
	fmt.Fprintln(p.w, strings.Repeat("─", lineWidth))
}

// Portfolio prints the holdings table
func (p *Printer) Portfolio(rows []PortfolioRow) {
	p.Header("PORTFOLIO SUMMARY")
	fmt.Fprintf(p.w, "%-12s | %10s | %8s | %10s | %8s\n", "Bond ID", "Price", "Weight", "Duration", "DV01 %")
	p.Separator()
	for _, r := range rows {
		fmt.Fprintf(p.w, "%-12s | %10.2f | %7.2f%% | %10.4f | %7.2f%%\n",
			r.ID, r.Price, r.Weight*100, r.ModifiedDuration, r.DV01Pct*100)
	}
}

// Risk prints the scenario risk block
func (p *Printer) Risk(m RiskMetrics) {
	p.Header("RISK METRICS")
	fmt.Fprintf(p.w, "%-25s | %20s\n", "Base Value", money(m.BaseValue))
	for _, line := range riskLines(m) {
		fmt.Fprintf(p.w, "%-25s | %20s\n", line.key, money(line.value))
	}

	if m.Check == nil {
		return
	}
	p.Separator()
	if m.Check.Passed {
		fmt.Fprintln(p.w, "✅ Risk limits passed")
		return
	}
	for _, v := range m.Check.Violations {
		fmt.Fprintf(p.w, "⚠️  %s\n", v)
	}
}

// History prints the simulation history
func (p *Printer) History(r *Report) {
	if len(r.History) == 0 {
		return
	}
	p.Header("SIMULATION HISTORY")
	fmt.Fprintf(p.w, "%-5s | %10s | %15s | %12s\n", "Step", "Turnover", "Portfolio Dur", "Bench Yield")
	p.Separator()
	for _, h := range r.History {
		fmt.Fprintf(p.w, "%-5d | %9.4f%% | %15.4f | %11.2f%%\n",
			h.Step, h.Turnover*100, h.PortfolioDuration, h.BenchmarkYield*100)
	}
}

// Print renders every section the report carries
func (p *Printer) Print(r *Report) {
	if len(r.Portfolio) > 0 {
		p.Portfolio(r.Portfolio)
	}
	p.Risk(r.Risk)
	p.History(r)
	fmt.Fprintln(p.w)
}

func money(v float64) string {
	return humanize.CommafWithDigits(v, 2)
}

func center(s string, width int, fill string) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	left := (width - n) / 2
	return strings.Repeat(fill, left) + s + strings.Repeat(fill, width-n-left)
}
