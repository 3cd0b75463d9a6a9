package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Out receives everything the ui package prints.
var Out io.Writer = color.Output

var (
	warningColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	successColor = color.New(color.FgGreen)
	infoColor    = color.New(color.FgBlue)
	headerColor  = color.New(color.FgCyan, color.Bold)
)

// PrintWarning displays a warning message with consistent formatting
func PrintWarning(message string) {
	warningColor.Fprintf(Out, "Warning: %s\n", message)
}

// PrintError displays an error message with consistent formatting
func PrintError(message string) {
	errorColor.Fprintf(Out, "Error: %s\n", message)
}

// PrintSuccess displays a success message with consistent formatting
func PrintSuccess(message string) {
	successColor.Fprintf(Out, "%s\n", message)
}

// PrintInfo displays an info message with consistent formatting
func PrintInfo(message string) {
	infoColor.Fprint(Out, message)
}

func PrintHeader(message string) {
	headerColor.Fprintf(Out, "%s\n", message)
}

// ReadString prints prompt and reads one trimmed line. io.EOF is returned
// only when nothing was read.
func ReadString(r *bufio.Reader, prompt string) (string, error) {
	PrintInfo(prompt)
	input, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || input == "") {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.4f", v)
}
