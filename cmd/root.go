package cmd

import (
	"github.com/spf13/cobra"

	"github.com/morgante/release-please/pkg/version"
)

var rootCmd = &cobra.Command{
	Use:     "release-please",
	Short:   "A CLI tool for managing release pull requests",
	Long:    `release-please keeps a single long-lived release pull request converged with the next release, based on tags, merged pull requests and commit history.`,
	Version: version.Summary(),
}

func Execute() error {
	return rootCmd.Execute()
}
