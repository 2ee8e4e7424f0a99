package main

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/devsim/internal/ui"
)

// helpRule colors every match of re in cobra's help text. If group is
// non-zero only that submatch is colored.
type helpRule struct {
	re     *regexp.Regexp
	group  int
	render func(string) string
}

var helpRules = []helpRule{
	// Section headers such as "Projects:" or "Flags:".
	{regexp.MustCompile(`(?m)^([A-Z][^\n]*:)[ \t]*$`), 1, ui.RenderAccent},
	// Subcommand names in the command list.
	{regexp.MustCompile(`(?m)^  (\S+)  `), 1, ui.RenderCommand},
	// Flag value types.
	{regexp.MustCompile(`--?\S+\s+(string|int|float|duration|stringSlice)\b`), 1, ui.RenderMuted},
	{regexp.MustCompile(`\(default [^)]*\)`), 0, ui.RenderMuted},
}

// colorizedHelpFunc renders cobra's usage text through helpRules when the
// terminal supports color.
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
		fmt.Fprint(out, colorizeHelp(buf.String()))
	}
}

func colorizeHelp(s string) string {
	for _, r := range helpRules {
		s = replaceGroup(r, s)
	}
	return s
}

func replaceGroup(r helpRule, s string) string {
	var out bytes.Buffer
	last := 0
	for _, m := range r.re.FindAllStringSubmatchIndex(s, -1) {
		start, end := m[2*r.group], m[2*r.group+1]
		if start < 0 {
			continue
		}
		out.WriteString(s[last:start])
		out.WriteString(r.render(s[start:end]))
		last = end
	}
	out.WriteString(s[last:])
	return out.String()
}
