package ui

import (
	"fmt"
	"os"
	"strings"
)

type ConsoleStyle int

const (
	StyleNormal ConsoleStyle = iota
	StyleError
	StyleWarning
	StyleSuccess
	StyleInfo
	StyleStep
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorGreen  = "\033[32m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

// styleColors maps each style to its ANSI prefix. StyleNormal is absent on
// purpose: normal text is never wrapped.
var styleColors = map[ConsoleStyle]string{
	StyleError:   colorRed + colorBold,
	StyleWarning: colorYellow,
	StyleSuccess: colorGreen,
	StyleInfo:    colorBlue,
	StyleStep:    colorCyan + colorBold,
}

// Console renders operator-facing pipeline output. Colors are enabled only
// when stderr is a terminal, so piped output stays clean.
type Console struct {
	useColors bool
}

func NewConsole() *Console {
	return &Console{
		useColors: isTerminal(),
	}
}

func isTerminal() bool {
	stat, _ := os.Stderr.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

func (c *Console) formatMessage(style ConsoleStyle, message string) string {
	if !c.useColors {
		return message
	}
	color, ok := styleColors[style]
	if !ok {
		return message
	}
	return color + message + colorReset
}

func (c *Console) PrintError(message string) {
	fmt.Fprintf(os.Stderr, "%s\n", c.formatMessage(StyleError, "Error: "+message))
}

func (c *Console) PrintWarning(message string) {
	fmt.Fprintf(os.Stderr, "%s\n", c.formatMessage(StyleWarning, "Warning: "+message))
}

func (c *Console) PrintSuccess(message string) {
	fmt.Printf("%s\n", c.formatMessage(StyleSuccess, message))
}

func (c *Console) PrintInfo(message string) {
	fmt.Printf("%s\n", c.formatMessage(StyleInfo, message))
}

// PrintStep renders a pipeline step banner, e.g. "[1/3] install".
func (c *Console) PrintStep(index, total int, name string) {
	fmt.Printf("%s\n", c.formatMessage(StyleStep, fmt.Sprintf("[%d/%d] %s", index, total, name)))
}

// FormatErrorMessage assembles the operator-facing failure block out of the
// error's context, cause, and suggestion lines, skipping empty parts.
func (c *Console) FormatErrorMessage(context, cause, suggestion string) string {
	var parts []string

	if context != "" {
		parts = append(parts, context)
	}
	if cause != "" {
		parts = append(parts, fmt.Sprintf("Cause: %s", cause))
	}
	if suggestion != "" {
		parts = append(parts, fmt.Sprintf("Suggestion: %s", suggestion))
	}

	return strings.Join(parts, "\n")
}
