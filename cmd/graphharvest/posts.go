package main

import (
	"context"

	"github.com/spf13/cobra"
	"graphharvest/pkg/harvest"
)

var (
	postsIDsFile string
	postsOpts    harvest.PostOptions
)

// postsCmd represents the posts command
var postsCmd = &cobra.Command{
	Use:   "posts [post-id...]",
	Short: "Fetch individual posts by id",
	Long: `Fetch each post by its id and flatten it into one row with counters,
interactions and a permalink.

--comments walks every comment under each post and adds comments_reactions,
the sum of their likes. --info adds profile_ columns describing the author
of each post.`,
	Example: `  graphharvest posts 20531316728_10158033192366729 -o posts.csv

  graphharvest posts --ids-file posts.txt --comments --info -o posts.xlsx`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := readIDs(args, postsIDsFile)
		if err != nil {
			return err
		}
		return runCollect(cmd, harvest.OpPosts, ids,
			func(ctx context.Context, svc *harvest.Service, ids []string) (*harvest.Result, error) {
				return svc.Posts(ctx, ids, postsOpts)
			})
	},
}

func init() {
	rootCmd.AddCommand(postsCmd)
	postsCmd.Flags().StringVar(&postsIDsFile, "ids-file", "", "read ids from a file, one per line (- for stdin)")
	addPostOptionFlags(postsCmd, &postsOpts)
}

// addPostOptionFlags registers the enrichment flags shared by post commands
func addPostOptionFlags(cmd *cobra.Command, opts *harvest.PostOptions) {
	cmd.Flags().BoolVar(&opts.Insights, "insights", false, "request post insights (needs a page admin token)")
	cmd.Flags().BoolVar(&opts.Comments, "comments", false, "add comments_reactions by walking every comment")
	cmd.Flags().BoolVar(&opts.Info, "info", false, "add profile_ columns")
}
