package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/arthur-debert/kiln/cmd/kiln"
	"github.com/arthur-debert/kiln/pkg/output/styles"
)

func main() {
	rootCmd := kiln.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		// The report was already rendered
		if errors.Is(err, kiln.ErrFailed) {
			os.Exit(1)
		}

		errorStyle := styles.Build(lipgloss.NewRenderer(os.Stderr)).Get("Error")
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("Error: %v", err)))
		os.Exit(1)
	}
}
