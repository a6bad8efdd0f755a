package admin

import (
	"fmt"

	"github.com/UkralStul/yatube/internal/dataloader"

	"github.com/spf13/cobra"
)

func (a *app) commentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "comment",
		Aliases: []string{"comments"},
		Short:   "Inspect comments",
	}

	var postID int64
	list := &cobra.Command{
		Use:   "list",
		Short: "List comments, optionally for one post",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := ctxOf(cmd)
			var filter *int64
			if cmd.Flags().Changed("post") {
				filter = &postID
			}
			comments, err := a.store.ListComments(ctx, filter)
			if err != nil {
				return fmt.Errorf("error listing comments: %w", err)
			}

			ids := make([]int64, 0, len(comments))
			for _, c := range comments {
				ids = append(ids, c.AuthorID)
			}
			authors, err := dataloader.For(ctx, a.store).Users(ctx, ids)
			if err != nil {
				return fmt.Errorf("error loading authors: %w", err)
			}

			table := newTable(cmd.OutOrStdout(), "ID", "Post", "Author", "Text", "Created")
			for _, c := range comments {
				author := emptyValue
				if u, ok := authors[c.AuthorID]; ok {
					author = u.Username
				}
				table.Append([]string{formatID(c.ID), formatID(c.PostID), author, orEmpty(c.String()), formatTime(c.Created)})
			}
			table.Render()
			return nil
		},
	}
	list.Flags().Int64Var(&postID, "post", 0, "Post id")

	cmd.AddCommand(list)
	return cmd
}

func (a *app) followsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "follow",
		Aliases: []string{"follows"},
		Short:   "Inspect follows",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List follow edges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := ctxOf(cmd)
			follows, err := a.store.ListFollows(ctx)
			if err != nil {
				return fmt.Errorf("error listing follows: %w", err)
			}

			ids := make([]int64, 0, 2*len(follows))
			for _, f := range follows {
				ids = append(ids, f.UserID, f.AuthorID)
			}
			users, err := dataloader.For(ctx, a.store).Users(ctx, ids)
			if err != nil {
				return fmt.Errorf("error loading users: %w", err)
			}

			name := func(id int64) string {
				if u, ok := users[id]; ok {
					return u.Username
				}
				return emptyValue
			}
			table := newTable(cmd.OutOrStdout(), "ID", "User", "Author")
			for _, f := range follows {
				table.Append([]string{formatID(f.ID), name(f.UserID), name(f.AuthorID)})
			}
			table.Render()
			return nil
		},
	}

	cmd.AddCommand(list)
	return cmd
}
