package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/fritter/services/freets/internal/comments"
)

type treeOptions struct {
	Freet      string
	Viewer     string
	Visibility string
}

type treeResult struct {
	FreetID  string          `json:"freet_id" yaml:"freet_id"`
	Viewer   string          `json:"viewer" yaml:"viewer"`
	Count    int             `json:"count" yaml:"count"`
	Comments []comments.Node `json:"comments" yaml:"comments"`
}

// NewTreeCommand creates the tree command.
func NewTreeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &treeOptions{}

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the comment tree of a freet",
		Long: `Print the comment tree of a freet as --viewer sees it.

An empty viewer reads anonymously, so private comments are left out.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rootOpts.DatabaseURL == "" {
				return NewExitError(ExitCommandError, "tree needs --database-url or DATABASE_URL")
			}
			filter, err := comments.ParseFilter(opts.Visibility)
			if err != nil {
				return WrapExitError(ExitCommandError, "visibility", err)
			}
			b, err := rootOpts.open(cmd.Context(), rootOpts.DatabaseURL)
			if err != nil {
				return WrapExitError(ExitCommandError, "connect", err)
			}
			defer b.Close()

			svc := comments.NewService(b.Comments, b.Posts, comments.WithLogger(rootOpts.logger()))
			nodes, err := svc.GetTree(cmd.Context(), opts.Viewer, opts.Freet, filter)
			if err != nil {
				return WrapExitError(ExitFailure, "tree", err)
			}
			return writeOutput(cmd.OutOrStdout(), rootOpts.Format, treeResult{
				FreetID:  opts.Freet,
				Viewer:   opts.Viewer,
				Count:    comments.Count(nodes),
				Comments: nodes,
			})
		},
	}

	cmd.Flags().StringVar(&opts.Freet, "freet", "", "freet id (required)")
	cmd.Flags().StringVar(&opts.Viewer, "viewer", "", "user id to read as")
	cmd.Flags().StringVar(&opts.Visibility, "visibility", "", "restrict root comments to public or private")
	_ = cmd.MarkFlagRequired("freet")

	return cmd
}
