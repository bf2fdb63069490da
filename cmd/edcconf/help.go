package main

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/botswana-harvard/edc-configuration/internal/ui"
	"github.com/spf13/cobra"
)

// helpStyle colors one part of Cobra's plain-text help. group selects the
// submatch to color; the rest of the match is kept as is.
type helpStyle struct {
	re     *regexp.Regexp
	group  int
	render func(string) string
}

var helpStyles = []helpStyle{
	// Section headers such as "Attributes:" and "Flags:".
	{regexp.MustCompile(`(?m)^([A-Z][^\n]*:)\s*$`), 1, ui.RenderAccent},
	// Command names in the command list.
	{regexp.MustCompile(`(?m)^  (\S+)  `), 1, ui.RenderCommand},
	// Flag types, e.g. "--category string".
	{regexp.MustCompile(`--?\S+\s+(string|int|duration|stringSlice)`), 1, ui.RenderMuted},
	// Defaults, e.g. (default "http").
	{regexp.MustCompile(`(\(default "[^"]*"\))`), 1, ui.RenderMuted},
}

// colorizedHelpFunc returns a Cobra help function that post-processes the
// default help text with ANSI colors when the terminal supports it.
func colorizedHelpFunc() func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		if !ui.ShouldUseColor() {
			_ = cmd.Usage()
			return
		}
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		_ = cmd.Usage()
		cmd.SetOut(out)
		fmt.Fprint(out, colorizeHelpOutput(buf.String()))
	}
}

// colorizeHelpOutput applies ANSI styling to Cobra's plain-text help.
func colorizeHelpOutput(s string) string {
	for _, st := range helpStyles {
		s = st.re.ReplaceAllStringFunc(s, func(match string) string {
			loc := st.re.FindStringSubmatchIndex(match)
			if loc == nil || loc[2*st.group] < 0 {
				return match
			}
			start, end := loc[2*st.group], loc[2*st.group+1]
			return match[:start] + st.render(match[start:end]) + match[end:]
		})
	}
	return s
}
