package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/verscout/verscout/pkg/detect"
	verrors "github.com/verscout/verscout/pkg/errors"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - links
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleVersion for detected version values.
	StyleVersion = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleLink for URLs.
	StyleLink = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached = lipgloss.NewStyle().Foreground(colorGreen)
	styleFresh  = lipgloss.NewStyle().Foreground(colorGray)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconInfo    = "›"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints an indented detail line.
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// =============================================================================
// Detection Result Output
// =============================================================================

// printResult renders one detection result: a success line with the version
// and provenance, or an error line with the surfaced failure.
func printResult(res detect.DetectionResult) {
	if res.Success {
		origin := styleFresh.Render(iconFresh)
		if res.FromCache {
			origin = styleCached.Render(iconCached)
		}
		printSuccess("%s %s %s",
			StyleValue.Render(res.Software.Name),
			StyleVersion.Render(res.RawVersion),
			StyleDim.Render("· "+res.StrategyID+" · ")+origin)
		if res.DownloadURL != "" {
			printDetail("download: %s", res.DownloadURL)
		}
		if !res.ReleasedAt.IsZero() {
			printDetail("released: %s", res.ReleasedAt.Format("2006-01-02"))
		}
		return
	}

	printError("%s %s",
		StyleValue.Render(res.Software.Name),
		StyleWarning.Render(verrors.UserMessage(res.Err)))
	for _, f := range res.Failures {
		printDetail("%v", f)
	}
}

// printBatchSummary renders the one-line outcome of a batch run.
func printBatchSummary(succeeded, failed int) {
	if failed == 0 {
		printSuccess("Detected %d versions", succeeded)
		return
	}
	printInfo("Detected %d versions, %d failed", succeeded, failed)
}
