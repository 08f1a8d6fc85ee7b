// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "doorkeep",
	Short: "doorkeep is a directory-backed member and door access service",
	Long: `doorkeep manages member accounts in an Active Directory style
directory service, caches resolved directory entries, and answers
RFID tag to resource access queries for door controllers.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
