package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bkyoung/lintbot/internal/domain"
	"github.com/bkyoung/lintbot/internal/usecase/review"
)

// ErrShouldReview is returned when no skip marker is found,
// indicating the review should proceed. Use this as a sentinel
// error in CI workflows.
var ErrShouldReview = errors.New("should review")

// checkSkipCommand creates the check-skip subcommand.
// This command checks pull request metadata for skip markers.
//
// Exit codes:
//   - 0: Skip marker found, review should be skipped
//   - 1: No skip marker, review should proceed
func checkSkipCommand() *cobra.Command {
	var title string
	var body string

	cmd := &cobra.Command{
		Use:   "check-skip",
		Short: "Check whether a pull request opts out of review",
		Long: `Check pull request metadata for skip markers.

Supported markers:
  [skip lintbot]
  [lintbot skip]

Markers are case-insensitive and can appear anywhere in the title or body.

Exit codes:
  0 - Skip marker found, review should be skipped
  1 - No skip marker, review should proceed

Example usage in a CI workflow:
  if ./lintbot check-skip --title "${{ github.event.pull_request.title }}"; then
    echo "Skipping lint review"
    exit 0
  fi`,
		RunE: func(cmd *cobra.Command, args []string) error {
			pr := domain.PullRequest{Title: title, Body: body}

			if review.SkipRequested(pr) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "skip: marker found")
				return nil // Exit 0
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "review: no skip marker found")
			return ErrShouldReview // Exit 1
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Pull request title to check")
	cmd.Flags().StringVar(&body, "body", "", "Pull request body to check")

	return cmd
}
