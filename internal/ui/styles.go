// Package ui renders devsim CLI output with optional ANSI colors.
package ui

import "fmt"

// ANSI256 color codes matching the Ayu palette.
const (
	colorAccent = 74  // blue
	colorCmd    = 250 // light gray
	colorMuted  = 245 // medium gray
	colorOK     = 114 // green
	colorWarn   = 179 // amber
	colorError  = 203 // red
)

var noColor bool

func paint(code int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string { return paint(colorAccent, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return paint(colorMuted, s) }

// RenderCommand returns s styled as a command name (light gray).
func RenderCommand(s string) string { return paint(colorCmd, s) }

// RenderOK returns s in green.
func RenderOK(s string) string { return paint(colorOK, s) }

// RenderWarn returns s in amber.
func RenderWarn(s string) string { return paint(colorWarn, s) }

// RenderError returns s in red.
func RenderError(s string) string { return paint(colorError, s) }

// RenderPhase colors a generator phase name: active is green, finishing
// amber, anything else muted.
func RenderPhase(phase string) string {
	switch phase {
	case "active":
		return RenderOK(phase)
	case "finishing":
		return RenderWarn(phase)
	default:
		return RenderMuted(phase)
	}
}

// RenderStatus colors a health status string.
func RenderStatus(status string) string {
	switch status {
	case "OK", "SERVING":
		return RenderOK(status)
	case "UNKNOWN", "SERVICE_UNKNOWN":
		return RenderWarn(status)
	default:
		return RenderError(status)
	}
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
