package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"graphharvest/pkg/config"
	"graphharvest/pkg/harvest"
)

var (
	profilePostsIDsFile string
	profilePostsSince   string
	profilePostsUntil   string
	profilePostsLimit   int
	profilePostsOpts    harvest.PostOptions
)

// profilePostsCmd represents the profile-posts command
var profilePostsCmd = &cobra.Command{
	Use:     "profile-posts [page-id...]",
	Aliases: []string{"profiles-posts"},
	Short:   "Collect the posts of each page within a time range",
	Long: `Walk the posts of each page from newest to oldest, stopping once a page of
results reaches --since or -n posts have been collected, whichever comes
first. Only posts created within [since, until] are kept, bounds included.

Timestamps accept RFC 3339 or plain dates; values without an offset are UTC.
--until defaults to collection.default_until (2100-01-01).`,
	Example: `  # January 2020
  graphharvest profile-posts 20531316728 --since 2020-01-01 --until 2020-01-31 -o jan.csv

  # The 50 most recent posts of several pages, with author info
  graphharvest profile-posts 20531316728 155869377766434 --since 2000-01-01 -n 50 --info -o recent.xlsx`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := readIDs(args, profilePostsIDsFile)
		if err != nil {
			return err
		}

		since, err := config.ParseTime(profilePostsSince)
		if err != nil {
			return fmt.Errorf("invalid --since: %w", err)
		}

		return runCollect(cmd, harvest.OpProfilesPosts, ids,
			func(ctx context.Context, svc *harvest.Service, ids []string) (*harvest.Result, error) {
				until, err := resolveUntil(svc)
				if err != nil {
					return nil, err
				}
				return svc.ProfilesPosts(ctx, ids, since, until, profilePostsLimit, profilePostsOpts)
			})
	},
}

// resolveUntil parses --until, falling back to the configured default
func resolveUntil(svc *harvest.Service) (time.Time, error) {
	value := profilePostsUntil
	if value == "" {
		value = svc.DefaultUntil()
	}
	until, err := config.ParseTime(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --until: %w", err)
	}
	return until, nil
}

func init() {
	rootCmd.AddCommand(profilePostsCmd)
	profilePostsCmd.Flags().StringVar(&profilePostsIDsFile, "ids-file", "", "read ids from a file, one per line (- for stdin)")
	profilePostsCmd.Flags().StringVar(&profilePostsSince, "since", "", "oldest creation time to collect (required)")
	profilePostsCmd.Flags().StringVar(&profilePostsUntil, "until", "", "newest creation time to collect")
	profilePostsCmd.Flags().IntVarP(&profilePostsLimit, "limit", "n", 0, "maximum posts per page id (default collection.max_items)")
	profilePostsCmd.MarkFlagRequired("since")
	addPostOptionFlags(profilePostsCmd, &profilePostsOpts)
}
