package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/newtuple/dialogtuple/internal/blog"
	"github.com/newtuple/dialogtuple/internal/commands"
)

func (a *app) blogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blog",
		Short: "Inspect the merged blog post collection",
	}
	cmd.AddCommand(
		a.blogListCommand(),
		a.blogShowCommand(),
		a.blogTagsCommand(),
		a.blogStatsCommand(),
		a.blogReloadCommand(),
	)
	return cmd
}

func (a *app) blogListCommand() *cobra.Command {
	var (
		tag      string
		term     string
		page     int
		pageSize int
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List posts newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			container, err := a.container(cmd.Context())
			if err != nil {
				return err
			}
			defer container.Close()

			posts, err := container.BlogService().Posts(cmd.Context())
			if err != nil {
				return err
			}
			if tag != "" {
				posts = blog.FilterByTag(posts, tag)
			}
			if term != "" {
				posts = blog.SearchPosts(posts, term)
			}
			result := blog.Paginate(posts, page, pageSize)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tSLUG\tTITLE\tSOURCE")
			for _, post := range result.Posts {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", post.Date, post.Slug, post.Title, post.Source)
			}
			fmt.Fprintf(tw, "\npage %d of %d, %d posts\n", result.CurrentPage, result.TotalPages, result.TotalPosts)
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&tag, "tag", "", "Only list posts carrying this tag")
	cmd.Flags().StringVarP(&term, "query", "q", "", "Only list posts matching this search term")
	cmd.Flags().IntVar(&page, "page", blog.DefaultPage, "Page number, starting at 1")
	cmd.Flags().IntVar(&pageSize, "page-size", blog.DefaultPageSize, "Posts per page")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the page as JSON")
	return cmd
}

func (a *app) blogShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <slug>",
		Short: "Print a single post as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := a.container(cmd.Context())
			if err != nil {
				return err
			}
			defer container.Close()

			post, err := container.BlogService().PostBySlug(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), post)
		},
	}
}

func (a *app) blogTagsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List every tag in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			container, err := a.container(cmd.Context())
			if err != nil {
				return err
			}
			defer container.Close()

			tags, err := container.BlogService().Tags(cmd.Context())
			if err != nil {
				return err
			}
			if len(tags) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(tags, "\n"))
			}
			return nil
		},
	}
}

func (a *app) blogStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print collection statistics as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			container, err := a.container(cmd.Context())
			if err != nil {
				return err
			}
			defer container.Close()

			stats, err := container.BlogService().Stats(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), stats)
		},
	}
}

// blogReloadCommand refreshes the stored snapshot, which matters when a
// database backs the blog.
func (a *app) blogReloadCommand() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "reload",
		Short: "Rebuild the post collection and refresh the stored snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			container, err := a.container(cmd.Context())
			if err != nil {
				return err
			}
			defer container.Close()

			if err := container.Handlers().ReloadBlog.Execute(cmd.Context(), commands.ReloadBlogCommand{Reason: reason}); err != nil {
				return err
			}
			posts, err := container.BlogService().Posts(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reloaded %d posts\n", len(posts))
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "cli", "Reason recorded in the reload log")
	return cmd
}
