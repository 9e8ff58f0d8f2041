// Package presenter writes the maintenance commands' console messages and
// renders the plain-text activation report the hook prints to stdout.
package presenter

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Console writes status lines for the rules, cache and state commands.
// Errors go to a separate stream so stdout stays parseable.
type Console struct {
	out io.Writer
	err io.Writer
}

// ColorMode selects whether escape codes are emitted.
type ColorMode int

const (
	// ColorAuto leaves terminal detection to the color package.
	ColorAuto ColorMode = iota
	// ColorAlways emits escape codes even when stdout is not a terminal.
	ColorAlways
	// ColorNever disables escape codes.
	ColorNever
)

// NewConsole creates a Console writing to out and err and applies mode
// globally to the color package.
func NewConsole(out, err io.Writer, mode ColorMode) *Console {
	switch mode {
	case ColorAlways:
		color.NoColor = false
	case ColorNever:
		color.NoColor = true
	}
	return &Console{out: out, err: err}
}

// colorModeFromEnv honours NO_COLOR first and then SKILLGATE_COLOR.
func colorModeFromEnv() ColorMode {
	if os.Getenv("NO_COLOR") != "" {
		return ColorNever
	}
	switch strings.ToLower(os.Getenv("SKILLGATE_COLOR")) {
	case "always", "force":
		return ColorAlways
	case "never", "off":
		return ColorNever
	}
	return ColorAuto
}

var (
	errorStyle   = color.New(color.FgRed, color.Bold)
	successStyle = color.New(color.FgGreen, color.Bold)
	warningStyle = color.New(color.FgYellow, color.Bold)
	headerStyle  = color.New(color.Bold)
	addedStyle   = color.New(color.FgGreen)
	removedStyle = color.New(color.FgRed)
	hunkStyle    = color.New(color.FgCyan)
)

// Error prints err to the error stream, prefixed by what was being done.
func (c *Console) Error(err error, doing string) {
	if err == nil {
		return
	}
	if doing == "" {
		errorStyle.Fprintf(c.err, "[ERROR] %v\n", err)
		return
	}
	errorStyle.Fprintf(c.err, "[ERROR] %s: %v\n", doing, err)
}

func (c *Console) Success(message string) {
	successStyle.Fprintf(c.out, "✓ %s\n", message)
}

func (c *Console) Warning(message string) {
	warningStyle.Fprintf(c.out, "⚠ %s\n", message)
}

func (c *Console) Info(message string) {
	fmt.Fprintln(c.out, message)
}

// Diff prints a unified diff, coloring file headers, hunks and changed lines.
func (c *Console) Diff(diff string) {
	for _, line := range strings.SplitAfter(diff, "\n") {
		var style *color.Color
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			style = headerStyle
		case strings.HasPrefix(line, "+"):
			style = addedStyle
		case strings.HasPrefix(line, "-"):
			style = removedStyle
		case strings.HasPrefix(line, "@@"):
			style = hunkStyle
		}
		if style == nil {
			fmt.Fprint(c.out, line)
			continue
		}
		style.Fprint(c.out, line)
	}
}

var std = NewConsole(os.Stdout, os.Stderr, colorModeFromEnv())

// Error reports err on the default console.
func Error(err error, doing string) { std.Error(err, doing) }

// Success prints a success line on the default console.
func Success(message string) { std.Success(message) }

// Warning prints a warning line on the default console.
func Warning(message string) { std.Warning(message) }

// Info prints a plain line on the default console.
func Info(message string) { std.Info(message) }

// Diff prints a colored unified diff on the default console.
func Diff(diff string) { std.Diff(diff) }
