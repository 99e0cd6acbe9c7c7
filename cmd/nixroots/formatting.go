package nixroots

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/arthur-debert/nixroots/pkg/types"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by --output
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	nameStyle   = lipgloss.NewStyle().Bold(true)
	labelStyle  = lipgloss.NewStyle().Faint(true)

	stateStyles = map[types.RootState]lipgloss.Style{
		types.RootStateRegistered:   lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		types.RootStateDangling:     lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		types.RootStateUnregistered: lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	}
)

// renderList writes roots in the requested format
func renderList(w io.Writer, list []types.Root, format string) error {
	switch format {
	case formatJSON:
		return writeJSON(w, list)
	case formatYAML:
		return writeYAML(w, list)
	case formatText:
	default:
		return fmt.Errorf(MsgErrOutputFormat, format)
	}

	if len(list) == 0 {
		_, err := fmt.Fprintln(w, MsgNoRoots)
		return err
	}

	nameWidth, stateWidth := len("NAME"), len("STATE")
	for _, root := range list {
		nameWidth = max(nameWidth, len(root.Name))
		stateWidth = max(stateWidth, len(root.State))
	}

	fmt.Fprintf(w, "%s  %s  %s\n",
		pad(headerStyle.Render("NAME"), "NAME", nameWidth),
		pad(headerStyle.Render("STATE"), "STATE", stateWidth),
		headerStyle.Render("STORE PATH"))

	for _, root := range list {
		state := string(root.State)
		fmt.Fprintf(w, "%s  %s  %s\n",
			pad(nameStyle.Render(root.Name), root.Name, nameWidth),
			pad(stateStyles[root.State].Render(state), state, stateWidth),
			root.StorePath)
	}
	return nil
}

// renderStatus writes a single root in the requested format
func renderStatus(w io.Writer, root types.Root, format string) error {
	switch format {
	case formatJSON:
		return writeJSON(w, root)
	case formatYAML:
		return writeYAML(w, root)
	case formatText:
	default:
		return fmt.Errorf(MsgErrOutputFormat, format)
	}

	fields := []struct{ label, value string }{
		{"state", stateStyles[root.State].Render(string(root.State))},
		{"link", root.Path},
		{"store path", root.StorePath},
		{"collector link", root.CollectorLink},
		{"collector target", root.CollectorTarget},
	}

	fmt.Fprintln(w, nameStyle.Render(root.Name))
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render(f.label+":"), f.value)
	}
	return nil
}

// pad right-pads a styled string using the width of its plain text, so
// escape sequences do not throw off alignment
func pad(styled, plain string, width int) string {
	if n := width - len(plain); n > 0 {
		return styled + strings.Repeat(" ", n)
	}
	return styled
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
