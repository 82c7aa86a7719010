package ui

import (
	"strings"
	"testing"

	"github.com/alfredjeanlab/taskdeps/internal/model"
)

func TestShouldUseColor_Env(t *testing.T) {
	for _, tc := range []struct {
		name string
		env  map[string]string
		want bool
	}{
		{"NoColor", map[string]string{"NO_COLOR": "1", "CLICOLOR_FORCE": "1"}, false},
		{"Force", map[string]string{"NO_COLOR": "", "CLICOLOR_FORCE": "1"}, true},
		{"ClicolorOff", map[string]string{"NO_COLOR": "", "CLICOLOR_FORCE": "", "CLICOLOR": "0"}, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if got := ShouldUseColor(); got != tc.want {
				t.Errorf("ShouldUseColor() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRenderStatus(t *testing.T) {
	t.Cleanup(func() { SetColor(true) })

	SetColor(true)
	for _, s := range model.Statuses() {
		got := RenderStatus(s)
		if !strings.Contains(got, s.String()) || !strings.HasPrefix(got, "\x1b[38;5;") {
			t.Errorf("RenderStatus(%s) = %q, want colored status", s, got)
		}
	}

	ForceNoColor()
	if got := RenderStatus(model.StatusBlocked); got != "blocked" {
		t.Errorf("RenderStatus without color = %q, want plain", got)
	}
	if got := StatusIcon(model.StatusCompleted); got != "✓" {
		t.Errorf("StatusIcon without color = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	for _, tc := range []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"a longer title", 8, "a longe…"},
		{"héllo wörld", 6, "héllo…"},
		{"abc", 1, "…"},
		{"abc", 0, "abc"},
	} {
		if got := Truncate(tc.in, tc.width); got != tc.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tc.in, tc.width, got, tc.want)
		}
	}
}

func TestTerminalWidth_Fallback(t *testing.T) {
	// go test does not attach stdout to a terminal.
	if got := TerminalWidth(99); got <= 0 {
		t.Errorf("TerminalWidth() = %d, want positive", got)
	}
}
