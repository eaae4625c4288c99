package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra/doc"

	"github.com/arthur-debert/kiln/cmd/kiln"
	"github.com/arthur-debert/kiln/internal/version"
)

func main() {
	rootCmd := kiln.NewRootCmd()

	header := &doc.GenManHeader{
		Title:   "KILN",
		Section: "1",
		Source:  "kiln " + version.Version,
		Manual:  "kiln manual",
	}

	// One page per command when a directory is given
	if len(os.Args) > 1 {
		if err := doc.GenManTree(rootCmd, header, os.Args[1]); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating man pages: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := doc.GenMan(rootCmd, header, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating man page: %v\n", err)
		os.Exit(1)
	}
}
