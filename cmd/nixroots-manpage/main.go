package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra/doc"

	"github.com/arthur-debert/nixroots/cmd/nixroots"
	"github.com/arthur-debert/nixroots/internal/version"
)

func main() {
	rootCmd := nixroots.NewRootCmd()

	header := &doc.GenManHeader{
		Title:   "NIXROOTS",
		Section: "1",
		Source:  "nixroots " + version.Version,
		Manual:  "nixroots manual",
	}

	if err := doc.GenMan(rootCmd, header, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating man page: %v\n", err)
		os.Exit(1)
	}
}
