package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/morgante/release-please/internal/domain"
	"github.com/morgante/release-please/internal/updater"
)

// newReleasePRCmd creates the release-pr command
func newReleasePRCmd() *cobra.Command {
	var (
		releaseVersion   string
		releaseComponent string
		releaseTitle     string
		releaseNotesPath string
		packageJSONPath  string
		versionFilePath  string
		changelogPath    string
		dryRun           bool
	)
	cmd := &cobra.Command{
		Use:   "release-pr",
		Short: "Create or update the release pull request",
		Long: `Create or update the release pull request for the next release.

The command converges the open release pull request to the desired state:
it is created when missing, force-updated when stale and left untouched
when its body already matches. Re-running is always safe.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newContainer()
			if err != nil {
				return err
			}
			defer func() { _ = c.log.Sync() }()
			descriptor, err := buildDescriptor(c, releasePRFlags{
				version:   releaseVersion,
				component: releaseComponent,
				title:     releaseTitle,
				notesPath: releaseNotesPath,
				pkgJSON:   packageJSONPath,
				verFile:   versionFilePath,
				changelog: changelogPath,
			})
			if err != nil {
				return err
			}
			if dryRun {
				c.log.Info("dry run, skipping synchronization",
					zap.String("branch", descriptor.Branch),
					zap.String("version", descriptor.Version.String()),
					zap.Int("updates", len(descriptor.Updates)))
				return nil
			}
			number, err := c.sync.Synchronize(cmd.Context(), descriptor)
			if err != nil {
				return err
			}
			if number == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Release PR is already up to date")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Release PR #%d\n", number)
			return nil
		},
	}
	cmd.Flags().StringVar(&releaseVersion, "release-version", "", "Version to release (required)")
	cmd.Flags().StringVar(&releaseComponent, "component", "", "Package component for monorepo releases")
	cmd.Flags().StringVar(&releaseTitle, "title", "", "Pull request title (defaults to a release chore title)")
	cmd.Flags().StringVar(&releaseNotesPath, "release-notes", "", "Path to a local file holding the release notes body")
	cmd.Flags().StringVar(&packageJSONPath, "package-json", "", "Path of a package.json to bump")
	cmd.Flags().StringVar(&versionFilePath, "version-file", "", "Path of a plain version file to write")
	cmd.Flags().StringVar(&changelogPath, "changelog", "CHANGELOG.md", "Path of the changelog to prepend")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute the change set without touching the repository")
	_ = cmd.MarkFlagRequired("release-version")
	return cmd
}

type releasePRFlags struct {
	version   string
	component string
	title     string
	notesPath string
	pkgJSON   string
	verFile   string
	changelog string
}

// buildDescriptor assembles the desired release pull request state from the
// command flags and the configured repository.
func buildDescriptor(c *container, flags releasePRFlags) (*domain.PullRequestDescriptor, error) {
	version, err := domain.NewVersion(flags.version)
	if err != nil {
		return nil, fmt.Errorf("invalid release version: %w", err)
	}
	branch := domain.ReleaseBranch{Component: flags.component, Version: version}
	title := flags.title
	if title == "" {
		title = fmt.Sprintf("chore: release %s", version.TagName())
	}
	body := fmt.Sprintf("Release %s.", version.TagName())
	var notes string
	if flags.notesPath != "" {
		contents, err := updater.LoadContents(c.fs, flags.notesPath)
		if err != nil {
			return nil, err
		}
		notes = contents.ParsedContent
		body = notes
	}
	var updates []domain.ContentUpdate
	if flags.changelog != "" {
		changelog := &updater.Changelog{Version: version, Entry: notes}
		updates = append(updates, changelog.ContentUpdate(flags.changelog))
	}
	if flags.pkgJSON != "" {
		pkg := &updater.PackageJSON{Version: version}
		updates = append(updates, pkg.ContentUpdate(flags.pkgJSON))
	}
	if flags.verFile != "" {
		vf := &updater.VersionFile{Version: version}
		updates = append(updates, vf.ContentUpdate(flags.verFile))
	}
	return &domain.PullRequestDescriptor{
		Branch:  branch.BranchName(),
		Fork:    c.cfg.Fork,
		Version: version,
		Title:   title,
		Body:    body,
		Updates: updates,
		Labels:  c.cfg.Labels,
	}, nil
}
