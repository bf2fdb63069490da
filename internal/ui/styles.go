package ui

import (
	"fmt"

	"github.com/botswana-harvard/edc-configuration/internal/convert"
)

// ANSI256 color codes.
const (
	colorAccent  = 74  // blue
	colorMuted   = 245 // medium gray
	colorBoolean = 176 // mauve
	colorNumber  = 215 // orange
	colorTime    = 114 // green
	colorString  = 250 // light gray
	colorError   = 203 // red
)

var noColor bool

func paint(code int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent returns s in the accent (blue) color. Attribute names use it.
func RenderAccent(s string) string { return paint(colorAccent, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return paint(colorMuted, s) }

// RenderCommand returns s styled as a command name (light gray).
func RenderCommand(s string) string { return paint(colorString, s) }

// RenderError returns s in red.
func RenderError(s string) string { return paint(colorError, s) }

// RenderValue colors a stored value by the kind it decodes to.
func RenderValue(kind convert.Kind, s string) string {
	switch kind {
	case convert.KindBoolean, convert.KindNull:
		return paint(colorBoolean, s)
	case convert.KindInteger, convert.KindDecimal:
		return paint(colorNumber, s)
	case convert.KindDate, convert.KindDatetime:
		return paint(colorTime, s)
	}
	return paint(colorString, s)
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
