// Package ui renders CLI output with ANSI 256 colors.
package ui

import (
	"fmt"

	"github.com/alfredjeanlab/taskdeps/internal/model"
)

const (
	colorAccent  = 74  // blue
	colorMuted   = 245 // medium gray
	colorGreen   = 114
	colorYellow  = 221
	colorRed     = 203
	colorDefault = 250 // light gray
)

var noColor bool

func paint(color int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", color, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string {
	return paint(colorAccent, s)
}

// RenderCommand returns a command name in bold default color.
func RenderCommand(s string) string {
	if noColor {
		return s
	}
	return "\x1b[1m" + paint(colorDefault, s)
}

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string {
	return paint(colorMuted, s)
}

// RenderError returns s in red.
func RenderError(s string) string {
	return paint(colorRed, s)
}

// RenderStatus colors a status by what it means for the task.
func RenderStatus(s model.Status) string {
	switch s {
	case model.StatusCompleted:
		return paint(colorGreen, s.String())
	case model.StatusInProgress:
		return paint(colorAccent, s.String())
	case model.StatusBlocked:
		return paint(colorRed, s.String())
	case model.StatusPending:
		return paint(colorYellow, s.String())
	}
	return paint(colorDefault, s.String())
}

// StatusIcon returns a one-rune marker for tree views.
func StatusIcon(s model.Status) string {
	switch s {
	case model.StatusCompleted:
		return paint(colorGreen, "✓")
	case model.StatusInProgress:
		return paint(colorAccent, "◐")
	case model.StatusBlocked:
		return paint(colorRed, "✗")
	}
	return paint(colorYellow, "○")
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}

// SetColor enables or disables color output globally.
func SetColor(enabled bool) {
	noColor = !enabled
}
