package main

import (
	"context"

	"github.com/spf13/cobra"
	"graphharvest/pkg/harvest"
)

var (
	commentsIDsFile string
	commentsLimit   int
)

// commentsCmd represents the comments command
var commentsCmd = &cobra.Command{
	Use:     "comments [post-id...]",
	Aliases: []string{"posts-comments"},
	Short:   "Collect the comments under each post",
	Long: `Collect up to -n comments under each post in the order the API returns
them. Each row carries the post id as origin_id.`,
	Example: `  graphharvest comments 20531316728_10158033192366729 -n 500 -o comments.jsonl.gz`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := readIDs(args, commentsIDsFile)
		if err != nil {
			return err
		}
		return runCollect(cmd, harvest.OpPostsComments, ids,
			func(ctx context.Context, svc *harvest.Service, ids []string) (*harvest.Result, error) {
				return svc.PostsComments(ctx, ids, commentsLimit)
			})
	},
}

func init() {
	rootCmd.AddCommand(commentsCmd)
	commentsCmd.Flags().StringVar(&commentsIDsFile, "ids-file", "", "read ids from a file, one per line (- for stdin)")
	commentsCmd.Flags().IntVarP(&commentsLimit, "limit", "n", 0, "maximum comments per post (default collection.max_items)")
}
