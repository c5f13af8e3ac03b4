package orchestrator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/morgante/release-please/internal/domain"
)

// branchNameRegex matches valid git branch names
var branchNameRegex = regexp.MustCompile(`^[a-zA-Z0-9._/-]+$`)

// ValidateBranchName validates a git branch name.
func ValidateBranchName(branch string) error {
	if branch == "" {
		return fmt.Errorf("branch name cannot be empty")
	}
	if len(branch) > 255 {
		return fmt.Errorf("branch name too long: %d characters (max: 255)", len(branch))
	}
	if strings.HasPrefix(branch, "/") || strings.HasSuffix(branch, "/") {
		return fmt.Errorf("branch name cannot start or end with slash: %s", branch)
	}
	if strings.Contains(branch, "..") {
		return fmt.Errorf("branch name cannot contain consecutive dots: %s", branch)
	}
	if strings.HasSuffix(branch, ".lock") {
		return fmt.Errorf("branch name cannot end with .lock: %s", branch)
	}
	if !branchNameRegex.MatchString(branch) {
		return fmt.Errorf("invalid branch name format: %s", branch)
	}
	return nil
}

// ValidateDescriptor checks a desired release pull request state before any
// backend call is made.
func ValidateDescriptor(d *domain.PullRequestDescriptor) error {
	if d == nil {
		return fmt.Errorf("descriptor cannot be nil")
	}
	if err := ValidateBranchName(d.Branch); err != nil {
		return err
	}
	if d.Version == nil {
		return fmt.Errorf("version cannot be nil")
	}
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("title cannot be empty")
	}
	for _, update := range d.Updates {
		if update.Path == "" {
			return fmt.Errorf("content update path cannot be empty")
		}
		if update.Transform == nil {
			return fmt.Errorf("content update for %s has no transform", update.Path)
		}
	}
	return nil
}
