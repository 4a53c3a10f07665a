package ui

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/mgutz/ansi"

	"commitscore/pkg/errors"
)

var (
	// Check if output supports colors
	supportsColor = isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())

	// Color functions
	ColorSuccess  = colorFunc(ansi.Green)
	ColorError    = colorFunc(ansi.Red)
	ColorWarning  = colorFunc(ansi.Yellow)
	ColorInfo     = colorFunc(ansi.Cyan)
	ColorProgress = colorFunc(ansi.Blue)
	ColorBold     = colorFunc("default+b")
	ColorDim      = colorFunc("default+h")
)

// colorFunc returns a function that colors text if supported
func colorFunc(color string) func(string) string {
	return func(text string) string {
		if supportsColor {
			return ansi.Color(text, color)
		}
		return text
	}
}

// ShowError writes err to w. Application errors are shown with their code,
// context and suggestions.
func ShowError(w io.Writer, err error) {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		fmt.Fprintf(w, "%s %s\n", ColorError("ERROR:"), err.Error())
		if suggestion := getSuggestion(err.Error()); suggestion != "" {
			fmt.Fprintf(w, "\n  %s %s\n", ColorInfo("TIP:"), ColorInfo(suggestion))
		}
		return
	}

	headline := ColorError
	if appErr.Severity == errors.SeverityWarning {
		headline = ColorWarning
	}

	lines := strings.Split(appErr.Detailed(), "\n")
	fmt.Fprintln(w, headline(lines[0]))
	for _, line := range lines[1:] {
		fmt.Fprintf(w, "  %s\n", ColorDim(line))
	}

	if len(appErr.Suggestions) == 0 {
		if suggestion := getSuggestion(err.Error()); suggestion != "" {
			fmt.Fprintf(w, "\n  %s %s\n", ColorInfo("TIP:"), ColorInfo(suggestion))
		}
	}
}

// ShowSuccess writes a success message
func ShowSuccess(w io.Writer, message string) {
	fmt.Fprintf(w, "%s %s\n", ColorSuccess("SUCCESS:"), message)
}

// ShowWarning writes a warning message
func ShowWarning(w io.Writer, message string) {
	fmt.Fprintf(w, "%s %s\n", ColorWarning("WARNING:"), ColorWarning(message))
}

// ShowInfo writes an info message
func ShowInfo(w io.Writer, message string) {
	fmt.Fprintf(w, "%s %s\n", ColorInfo("INFO:"), message)
}

// getSuggestion returns helpful suggestions based on error messages
func getSuggestion(message string) string {
	lower := strings.ToLower(message)

	switch {
	case strings.Contains(lower, "repository does not exist"):
		return "Pass the path of a directory inside a git working tree"
	case strings.Contains(lower, "connection refused"), strings.Contains(lower, "no such host"):
		return "Verify the scoring endpoint URL and your network connectivity"
	case strings.Contains(lower, "deadline exceeded"), strings.Contains(lower, "timeout"):
		return "Increase --timeout or leave it unset to wait for the service"
	case strings.Contains(lower, "permission denied"):
		return "Check that you can read the repository directory"
	default:
		return ""
	}
}
