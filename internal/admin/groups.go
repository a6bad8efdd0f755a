package admin

import (
	"fmt"
	"strings"

	"github.com/UkralStul/yatube/internal/domain"
	"github.com/UkralStul/yatube/internal/forms"

	"github.com/spf13/cobra"
)

func (a *app) groupsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "group",
		Aliases: []string{"groups"},
		Short:   "Manage groups",
	}

	var g domain.Group
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := ctxOf(cmd)
			form := forms.NewGroupForm(g.Title, g.Slug, g.Description)
			ok, err := form.Validate(ctx, a.store)
			if err != nil {
				return fmt.Errorf("error checking group: %w", err)
			}
			if !ok {
				return invalidFlags(form.Errors)
			}
			created, err := a.store.CreateGroup(ctx, form.Group())
			if err != nil {
				return fmt.Errorf("error creating group: %w", err)
			}
			success(cmd.OutOrStdout(), "Created group %s (id %d)", created.Slug, created.ID)
			return nil
		},
	}
	create.Flags().StringVar(&g.Title, "title", "", "Title")
	create.Flags().StringVar(&g.Slug, "slug", "", "Unique slug")
	create.Flags().StringVar(&g.Description, "description", "", "Description")

	var search, title string
	list := &cobra.Command{
		Use:   "list",
		Short: "List groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, err := a.store.ListGroups(ctxOf(cmd), search)
			if err != nil {
				return fmt.Errorf("error listing groups: %w", err)
			}
			table := newTable(cmd.OutOrStdout(), "ID", "Slug", "Title", "Description")
			for _, group := range groups {
				if title != "" && !strings.EqualFold(group.Title, title) {
					continue
				}
				table.Append([]string{formatID(group.ID), group.Slug, group.Title, orEmpty(group.Description)})
			}
			table.Render()
			return nil
		},
	}
	list.Flags().StringVar(&search, "search", "", "Search in title and description")
	list.Flags().StringVar(&title, "title", "", "Only the group with this exact title (case-insensitive)")

	var slug string
	del := &cobra.Command{
		Use:   "delete",
		Short: "Delete a group, keeping its posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := ctxOf(cmd)
			group, err := a.store.GetGroupBySlug(ctx, slug)
			if err != nil {
				return fmt.Errorf("error getting group %q: %w", slug, err)
			}
			if err := a.store.DeleteGroup(ctx, group.ID); err != nil {
				return fmt.Errorf("error deleting group: %w", err)
			}
			success(cmd.OutOrStdout(), "Deleted group %s", slug)
			return nil
		},
	}
	del.Flags().StringVar(&slug, "slug", "", "Group slug")
	_ = del.MarkFlagRequired("slug")

	cmd.AddCommand(create, list, del)
	return cmd
}
