package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/levi616boop/AI-content-gen/internal/cli/cmd"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "autoed",
		Short: "Automated educational video pipeline",
	}

	cmd.RegisterCommands(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
