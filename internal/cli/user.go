package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/rapport/internal/app"
	"github.com/mesh-intelligence/rapport/pkg/types"
)

func newUserCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	cmd.AddCommand(newUserAddCmd(s))
	cmd.AddCommand(newUserListCmd(s))
	cmd.AddCommand(newUserPasswdCmd(s))
	return cmd
}

func newUserAddCmd(s *session) *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a user",
		Long: `Add creates a user. Without --password the user exists for sharing and
for --as, but cannot log in to the HTTP API.

Example:
  rapport user add --name "Ada Lovelace" --email ada@example.com
  rapport user add --name Bob --email bob@example.com --password s3cret!`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				u, err := svc.Accounts.Register(ctx, name, email, password)
				if err != nil {
					return err
				}
				return s.emit(cmd.OutOrStdout(), redact(u), func(w io.Writer) {
					fmt.Fprintf(w, "Created user %s <%s>: %s\n", u.Name, u.Email, u.UserID)
				})
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name (required)")
	cmd.Flags().StringVar(&email, "email", "", "email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "login password")
	return cmd
}

func newUserListCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				users, err := svc.Accounts.List(ctx)
				if err != nil {
					return err
				}
				out := make([]*types.User, 0, len(users))
				for _, u := range users {
					out = append(out, redact(u))
				}
				return s.emit(cmd.OutOrStdout(), out, func(w io.Writer) {
					fmt.Fprintln(w, "ID\tNAME\tEMAIL")
					for _, u := range users {
						fmt.Fprintf(w, "%s\t%s\t%s\n", u.UserID, u.Name, u.Email)
					}
				})
			})
		},
	}
}

func newUserPasswdCmd(s *session) *cobra.Command {
	var current, next string
	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Set or change the --as user's login password",
		Long: `Passwd replaces the password of the --as user. --current may be omitted
when the user was created without a password.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				me, err := s.caller(ctx, svc)
				if err != nil {
					return err
				}
				if err := svc.Accounts.ChangePassword(ctx, me.UserID, current, next); err != nil {
					return err
				}
				return s.emit(cmd.OutOrStdout(), redact(me), func(w io.Writer) {
					fmt.Fprintf(w, "Password updated for %s\n", me.Email)
				})
			})
		},
	}
	cmd.Flags().StringVar(&current, "current", "", "current password")
	cmd.Flags().StringVar(&next, "new", "", "new password (required)")
	return cmd
}

// nonNil keeps empty JSON listings as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// redact returns a copy of u without its password hash.
func redact(u *types.User) *types.User {
	out := *u
	out.PasswordHash = ""
	return &out
}
