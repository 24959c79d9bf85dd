package main

import (
	"context"

	"github.com/spf13/cobra"
	"graphharvest/pkg/harvest"
)

var profilesIDsFile string

// profilesCmd represents the profiles command
var profilesCmd = &cobra.Command{
	Use:     "profiles [id...]",
	Aliases: []string{"profiles-info"},
	Short:   "Fetch page info for each id",
	Long: `Fetch the configured profile fields (by default id, fan_count, username,
link and name) for each page id. One row is written per id that resolves.`,
	Example: `  graphharvest profiles 20531316728 --output pages.csv

  # Ids from a file, one per line
  graphharvest profiles --ids-file pages.txt -o pages.xlsx`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := readIDs(args, profilesIDsFile)
		if err != nil {
			return err
		}
		return runCollect(cmd, harvest.OpProfilesInfo, ids,
			func(ctx context.Context, svc *harvest.Service, ids []string) (*harvest.Result, error) {
				return svc.ProfilesInfo(ctx, ids)
			})
	},
}

func init() {
	rootCmd.AddCommand(profilesCmd)
	profilesCmd.Flags().StringVar(&profilesIDsFile, "ids-file", "", "read ids from a file, one per line (- for stdin)")
}
