package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/UkralStul/yatube/internal/dataloader"
	"github.com/UkralStul/yatube/internal/domain"
	"github.com/UkralStul/yatube/internal/storage"

	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

type postListFlags struct {
	search string
	date   string
	author string
	group  string
	limit  int
}

func (a *app) postsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "post",
		Aliases: []string{"posts"},
		Short:   "Manage posts",
	}

	var lf postListFlags
	list := &cobra.Command{
		Use:   "list",
		Short: "List posts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := ctxOf(cmd)
			filter, err := a.postFilter(ctx, lf)
			if err != nil {
				return err
			}
			posts, err := a.store.ListPosts(ctx, filter, storage.PaginationArgs{Limit: lf.limit})
			if err != nil {
				return fmt.Errorf("error listing posts: %w", err)
			}
			return a.renderPosts(cmd, posts)
		},
	}
	list.Flags().StringVar(&lf.search, "search", "", "Search in post text")
	list.Flags().StringVar(&lf.date, "date", "", "Only posts published on this day (YYYY-MM-DD)")
	list.Flags().StringVar(&lf.author, "author", "", "Author username")
	list.Flags().StringVar(&lf.group, "group", "", "Group slug")
	list.Flags().IntVar(&lf.limit, "limit", 0, "Maximum number of posts (0 for all)")

	var id int64
	var slug string
	setGroup := &cobra.Command{
		Use:   "set-group",
		Short: "Move a post to a group; an empty --slug clears the group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := ctxOf(cmd)
			post, err := a.store.GetPostByID(ctx, id)
			if err != nil {
				return fmt.Errorf("error getting post %d: %w", id, err)
			}
			post.GroupID = nil
			if slug != "" {
				group, err := a.store.GetGroupBySlug(ctx, slug)
				if err != nil {
					return fmt.Errorf("error getting group %q: %w", slug, err)
				}
				post.GroupID = &group.ID
			}
			if _, err := a.store.UpdatePost(ctx, post); err != nil {
				return fmt.Errorf("error updating post: %w", err)
			}
			success(cmd.OutOrStdout(), "Post %d group set to %s", id, orEmpty(slug))
			return nil
		},
	}
	setGroup.Flags().Int64Var(&id, "id", 0, "Post id")
	setGroup.Flags().StringVar(&slug, "slug", "", "Group slug")
	_ = setGroup.MarkFlagRequired("id")

	var deleteID int64
	del := &cobra.Command{
		Use:   "delete",
		Short: "Delete a post with its comments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.DeletePost(ctxOf(cmd), deleteID); err != nil {
				return fmt.Errorf("error deleting post %d: %w", deleteID, err)
			}
			success(cmd.OutOrStdout(), "Deleted post %d", deleteID)
			return nil
		},
	}
	del.Flags().Int64Var(&deleteID, "id", 0, "Post id")
	_ = del.MarkFlagRequired("id")

	cmd.AddCommand(list, setGroup, del)
	return cmd
}

func (a *app) postFilter(ctx context.Context, lf postListFlags) (storage.PostFilter, error) {
	filter := storage.PostFilter{Search: lf.search}
	if lf.author != "" {
		author, err := a.store.GetUserByUsername(ctx, lf.author)
		if err != nil {
			return filter, fmt.Errorf("error getting author %q: %w", lf.author, err)
		}
		filter.AuthorID = &author.ID
	}
	if lf.group != "" {
		group, err := a.store.GetGroupBySlug(ctx, lf.group)
		if err != nil {
			return filter, fmt.Errorf("error getting group %q: %w", lf.group, err)
		}
		filter.GroupID = &group.ID
	}
	if lf.date != "" {
		day, err := time.ParseInLocation(dateLayout, lf.date, time.Local)
		if err != nil {
			return filter, fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", lf.date)
		}
		next := day.AddDate(0, 0, 1)
		filter.PubAfter = &day
		filter.PubBefore = &next
	}
	return filter, nil
}

func (a *app) renderPosts(cmd *cobra.Command, posts []*domain.Post) error {
	ctx := ctxOf(cmd)
	var authorIDs, groupIDs []int64
	for _, p := range posts {
		authorIDs = append(authorIDs, p.AuthorID)
		if p.GroupID != nil {
			groupIDs = append(groupIDs, *p.GroupID)
		}
	}

	loaders := dataloader.For(ctx, a.store)
	authors, err := loaders.Users(ctx, authorIDs)
	if err != nil {
		return fmt.Errorf("error loading authors: %w", err)
	}
	groups, err := loaders.Groups(ctx, groupIDs)
	if err != nil {
		return fmt.Errorf("error loading groups: %w", err)
	}

	table := newTable(cmd.OutOrStdout(), "ID", "Text", "Published", "Author", "Group")
	for _, p := range posts {
		author := emptyValue
		if u, ok := authors[p.AuthorID]; ok {
			author = u.Username
		}
		group := emptyValue
		if p.GroupID != nil {
			if g, ok := groups[*p.GroupID]; ok {
				group = g.Slug
			}
		}
		table.Append([]string{formatID(p.ID), orEmpty(p.String()), formatTime(p.PubDate), author, group})
	}
	table.Render()
	return nil
}
