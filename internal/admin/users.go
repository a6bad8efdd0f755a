package admin

import (
	"fmt"
	"strconv"

	"github.com/UkralStul/yatube/internal/auth"
	"github.com/UkralStul/yatube/internal/domain"
	"github.com/UkralStul/yatube/internal/forms"

	"github.com/spf13/cobra"
)

func (a *app) usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "user",
		Aliases: []string{"users"},
		Short:   "Manage users",
	}

	var u domain.User
	var password string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			errs := forms.Errors{}
			if msg := forms.UsernameError(u.Username); msg != "" {
				errs.Add("username", msg)
			}
			if msg := forms.PasswordError(password); msg != "" {
				errs.Add("password", msg)
			}
			if len(errs) > 0 {
				return invalidFlags(errs)
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			user := u
			user.PasswordHash = hash
			created, err := a.store.CreateUser(ctxOf(cmd), &user)
			if err != nil {
				return fmt.Errorf("error creating user: %w", err)
			}
			success(cmd.OutOrStdout(), "Created user %s (id %d)", created.Username, created.ID)
			return nil
		},
	}
	create.Flags().StringVar(&u.Username, "username", "", "Username")
	create.Flags().StringVar(&password, "password", "", "Password")
	create.Flags().StringVar(&u.FirstName, "first-name", "", "First name")
	create.Flags().StringVar(&u.LastName, "last-name", "", "Last name")
	create.Flags().BoolVar(&u.IsStaff, "staff", false, "Grant staff status")

	var search string
	list := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := a.store.ListUsers(ctxOf(cmd), search)
			if err != nil {
				return fmt.Errorf("error listing users: %w", err)
			}
			table := newTable(cmd.OutOrStdout(), "ID", "Username", "Name", "Staff", "Joined")
			for _, user := range users {
				name := user.FirstName
				if user.LastName != "" {
					name += " " + user.LastName
				}
				table.Append([]string{
					formatID(user.ID),
					user.Username,
					orEmpty(name),
					strconv.FormatBool(user.IsStaff),
					formatTime(user.DateJoined),
				})
			}
			table.Render()
			return nil
		},
	}
	list.Flags().StringVar(&search, "search", "", "Filter by username substring")

	cmd.AddCommand(create, list)
	return cmd
}
