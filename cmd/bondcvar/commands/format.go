package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// Every command prints through these helpers
// ═══════════════════════════════════════════════════════════

// RunMetadata holds run header fields
type RunMetadata struct {
	Title     string
	RunID     string // Optional
	Bonds     int
	Scenarios int // Optional
	Seed      int64
	Curve     string
}

// PrintRunHeader prints a formatted run header
func PrintRunHeader(meta RunMetadata) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", meta.Title)
	PrintSeparator()
	if meta.RunID != "" {
		fmt.Printf("  Run ID    : %s\n", meta.RunID)
	}
	fmt.Printf("  Bonds     : %d\n", meta.Bonds)
	if meta.Scenarios > 0 {
		fmt.Printf("  Scenarios : %s\n", humanize.Comma(int64(meta.Scenarios)))
	}
	fmt.Printf("  Seed      : %d\n", meta.Seed)
	fmt.Printf("  Curve     : %s\n", meta.Curve)
	PrintSeparator()
}

// PrintCompletion prints the run completion line
func PrintCompletion(name string, started time.Time) {
	fmt.Println()
	fmt.Printf("✅ %s completed in %.2fs\n", name, time.Since(started).Seconds())
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println(strings.Repeat("─", 60))
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println(strings.Repeat("═", 60))
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Printf("⚠️  %s\n", message)
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

func pct(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

func money(v float64) string {
	return humanize.CommafWithDigits(v, 2)
}
