// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gouserhub",
	Short: "GoUserHub is a user-management and application-settings backend",
	Long: `GoUserHub is a user-management and application-settings backend
that provides a JSON API for authentication, two-factor setup, profile
management, admin user administration and typed application settings.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
