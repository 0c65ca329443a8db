package cmd

import (
	"github.com/spf13/cobra"
)

// RegisterCommands adds all available commands to the root command
func RegisterCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewHistoryCommand())
	rootCmd.AddCommand(NewLoginCommand())
	rootCmd.AddCommand(NewDoctorCommand())
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "config/main_config.json", "Path to the main configuration file")
	cmd.Flags().StringP("env", "e", ".env", "Path to the credentials env file")
}
