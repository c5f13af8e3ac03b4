package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/morgante/release-please/internal/repository"
)

// newLatestTagCmd creates the latest-tag command
func newLatestTagCmd() *cobra.Command {
	var (
		tagPrefix    string
		preRelease   bool
		branchPrefix string
	)
	cmd := &cobra.Command{
		Use:   "latest-tag",
		Short: "Resolve the most recently released version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newContainer()
			if err != nil {
				return err
			}
			defer func() { _ = c.log.Sync() }()
			tag, err := c.client.LatestTag(cmd.Context(), repository.LatestTagQuery{
				Prefix:       tagPrefix,
				PreRelease:   preRelease,
				BranchPrefix: branchPrefix,
			})
			if err != nil {
				return err
			}
			if tag == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No release found")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", tag.Name, tag.Version, tag.SHA)
			return nil
		},
	}
	cmd.Flags().StringVar(&tagPrefix, "prefix", "", "Tag prefix to strip before parsing versions")
	cmd.Flags().BoolVar(&preRelease, "pre-release", false, "Consider pre-release versions")
	cmd.Flags().StringVar(&branchPrefix, "branch-prefix", "", "Override the component encoded in release branches")
	return cmd
}
