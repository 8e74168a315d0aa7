package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Color palette shared by all command output.
var (
	colorCyan   = lipgloss.Color("36")  // teal - primary actions
	colorGreen  = lipgloss.Color("35")  // green - success
	colorYellow = lipgloss.Color("220") // amber - warnings
	colorRed    = lipgloss.Color("167") // soft red - errors
	colorDim    = lipgloss.Color("240") // dim gray - muted text
)

// Public styles.
var (
	// StyleStatus renders the Cargo-style status verb column.
	StyleStatus = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)

	// StyleHighlight for emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	// StyleError for error prefixes.
	StyleError = lipgloss.NewStyle().Bold(true).Foreground(colorRed)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
)

// status prints a Cargo-style right-aligned status line:
//
//	   Compiling demo v0.1.0 (java 21)
//	    Finished JAR at target/demo.jar
func status(verb, format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", StyleStatus.Render(fmt.Sprintf("%12s", verb)), fmt.Sprintf(format, args...))
}

// warn prints a warning line to stderr.
func warn(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", StyleWarning.Render("warning:"), fmt.Sprintf(format, args...))
}
