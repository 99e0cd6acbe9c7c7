package main

import (
	"fmt"
	"os"

	"github.com/arthur-debert/nixroots/cmd/nixroots"
	"github.com/arthur-debert/nixroots/pkg/logging"
	"github.com/arthur-debert/nixroots/pkg/roots"
	"github.com/charmbracelet/lipgloss"
)

var errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)

func main() {
	// A misconfigured collector environment is not something a command
	// can recover from
	defer func() {
		if r := recover(); r != nil {
			if merr, ok := r.(*roots.MisconfigurationError); ok {
				logging.Must(merr, "Cannot register roots")
			}
			panic(r)
		}
	}()

	rootCmd := nixroots.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("Error: %v", err)))
		os.Exit(1)
	}
}
