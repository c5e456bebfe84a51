package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func postsCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Read and write the bulletin board",
	}
	cmd.AddCommand(
		postsListCmd(a),
		postsShowCmd(a),
		postsCreateCmd(a),
		postsCommentCmd(a),
	)
	return cmd
}

func postsListCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			posts, err := a.board.ListPosts(cmd.Context())
			if err != nil {
				return err
			}
			if len(posts) == 0 {
				fmt.Fprintln(a.out, "no posts yet")
				return nil
			}
			for _, p := range posts {
				fmt.Fprintf(a.out, "%s  %s  by %s (%s)\n",
					p.ID, p.Title, p.Author, p.CreatedAt.Local().Format(time.RFC822))
			}
			return nil
		},
	}
}

func postsShowCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one post with its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			post, err := a.board.GetPost(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s\nby %s (%s)\n\n%s\n",
				post.Title, post.Author, post.CreatedAt.Local().Format(time.RFC822), post.Body)
			for _, c := range post.Comments {
				fmt.Fprintf(a.out, "\n  %s (%s):\n  %s\n",
					c.Author, c.CreatedAt.Local().Format(time.RFC822), c.Body)
			}
			return nil
		},
	}
}

func postsCreateCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Publish a new post",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			title, err := GetSimpleText(a.in, "Title", a.out)
			if err != nil {
				return err
			}
			body, err := GetMultiline(a.in, "Body", a.out)
			if err != nil {
				return err
			}
			post, err := a.board.CreatePost(cmd.Context(), title, body)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "posted %s\n", post.ID)
			return nil
		},
	}
}

func postsCommentCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "comment <post-id>",
		Short: "Comment on a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := GetMultiline(a.in, "Comment", a.out)
			if err != nil {
				return err
			}
			comment, err := a.board.AddComment(cmd.Context(), args[0], body)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "commented %s\n", comment.ID)
			return nil
		},
	}
}
