package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/flyersmith/pkg/refine"
)

// stdout receives everything the commands print. Logs go to the logger.
var stdout io.Writer = os.Stdout

// =============================================================================
// Palette & Styles
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // primary
	colorGreen  = lipgloss.Color("35")  // success, accepted edits
	colorYellow = lipgloss.Color("220") // warnings, discarded edits
	colorRed    = lipgloss.Color("167") // errors
	colorBlue   = lipgloss.Color("75")  // links and commands
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	// StyleTitle for flyer ids and the TUI header.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleLink for URLs.
	StyleLink = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)

	// StyleDim for secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for counts.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warnings.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleRefined   = lipgloss.NewStyle().Foreground(colorGreen)
	styleUnchanged = lipgloss.NewStyle().Foreground(colorGray)
	styleKey       = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleCommand   = lipgloss.NewStyle().Foreground(colorBlue)
)

const (
	iconSuccess   = "✓"
	iconError     = "✗"
	iconWarning   = "!"
	iconInfo      = "›"
	iconArrow     = "→"
	iconRefined   = "refined"
	iconUnchanged = "as compiled"
)

// =============================================================================
// Messages
// =============================================================================

func printLine(icon string, msg string) {
	fmt.Fprintln(stdout, icon+" "+msg)
}

func printSuccess(format string, args ...any) {
	printLine(styleIconSuccess.Render(iconSuccess), fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	printLine(styleIconError.Render(iconError), fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	printLine(styleIconWarning.Render(iconWarning), StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	printLine(styleIconInfo.Render(iconInfo), fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line under the previous message.
func printDetail(format string, args ...any) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile lists a file a command wrote.
func printFile(path string) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

func printTitle(s string) {
	fmt.Fprintln(stdout, StyleTitle.Render(s))
}

func printKeyValue(key, value string) {
	fmt.Fprintln(stdout, styleKey.Render(key)+" "+StyleValue.Render(value))
}

// printNextStep suggests a follow-up command.
func printNextStep(description, cmd string) {
	fmt.Fprintln(stdout, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

// =============================================================================
// Runs & Critiques
// =============================================================================

// printRunStats prints "2 images · 1 critique rounds · refined" style
// summaries of a run.
func printRunStats(images, rounds int, refined bool) {
	parts := []string{StyleDim.Render(fmt.Sprintf("%d images", images))}
	if rounds > 0 {
		parts = append(parts, StyleDim.Render(fmt.Sprintf("%d critique rounds", rounds)))
	}
	if refined {
		parts = append(parts, styleRefined.Render(iconRefined))
	} else {
		parts = append(parts, styleUnchanged.Render(iconUnchanged))
	}
	fmt.Fprintln(stdout, "  "+strings.Join(parts, StyleDim.Render(" · ")))
}

// printVerdict shows one critique round: the judgment when the edit was
// merged, the rejection reason otherwise, then the feedback items.
func printVerdict(o refine.Outcome) {
	line := fmt.Sprintf("Round %d", o.Iteration)
	if o.Verdict.Score != "" {
		line += " · score " + o.Verdict.Score
	}
	if o.Accepted {
		printSuccess("%s: %s", line, o.Verdict.Judgment)
	} else {
		printWarning("%s: edit discarded (%s)", line, o.Reason)
	}
	for _, f := range o.Verdict.Feedback {
		printDetail("%s", f)
	}
}
