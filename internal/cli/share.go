package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/rapport/internal/app"
	"github.com/mesh-intelligence/rapport/internal/shares"
	"github.com/mesh-intelligence/rapport/pkg/types"
)

func newShareCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "share",
		Short: "Share contacts with other users",
	}
	cmd.AddCommand(newShareCreateCmd(s))
	cmd.AddCommand(newShareUpdateCmd(s))
	cmd.AddCommand(newShareRevokeCmd(s))
	cmd.AddCommand(newShareByMeCmd(s))
	cmd.AddCommand(newShareWithMeCmd(s))
	cmd.AddCommand(newShareShowCmd(s))
	return cmd
}

func newShareCreateCmd(s *session) *cobra.Command {
	var contactID, to, permission, expires, note string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Grant another user access to one of your contacts",
		Long: `Create shares a contact you own with the user registered under --to.
VIEW lets the recipient read the contact and its meetings; VIEW_ADD also lets
them log meetings. A grant with --expires stops working once that instant has passed.

Example:
  rapport --as ada@example.com share create --contact <id> --to bob@example.com --permission VIEW_ADD --expires 2025-12-31`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			expiresAt, err := parseDate("expires", expires)
			if err != nil {
				return err
			}
			return s.withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				me, err := s.caller(ctx, svc)
				if err != nil {
					return err
				}
				v, err := svc.Shares.Create(ctx, me.UserID, shares.CreateRequest{
					ContactID:      contactID,
					RecipientEmail: to,
					Permission:     permission,
					ExpiresAt:      expiresAt,
					Note:           note,
				})
				if err != nil {
					return err
				}
				return s.emit(cmd.OutOrStdout(), v, func(w io.Writer) {
					fmt.Fprintf(w, "Shared %s with %s (%s): %s\n", v.ContactName, v.RecipientEmail, v.Permission, v.ShareID)
				})
			})
		},
	}
	cmd.Flags().StringVar(&contactID, "contact", "", "contact ID (required)")
	cmd.Flags().StringVar(&to, "to", "", "recipient email (required)")
	cmd.Flags().StringVar(&permission, "permission", "", "VIEW or VIEW_ADD (default: VIEW)")
	cmd.Flags().StringVar(&expires, "expires", "", "expiry date or RFC 3339 time")
	cmd.Flags().StringVar(&note, "note", "", "note for the recipient")
	return cmd
}

func newShareUpdateCmd(s *session) *cobra.Command {
	var permission, expires, note string
	var clearExpiry bool
	cmd := &cobra.Command{
		Use:   "update <share-id>",
		Short: "Change the permission, expiry or note of a grant you issued",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req shares.UpdateRequest
			if cmd.Flags().Changed("permission") {
				req.Permission = &permission
			}
			if cmd.Flags().Changed("note") {
				req.Note = &note
			}
			if cmd.Flags().Changed("expires") {
				expiresAt, err := parseDate("expires", expires)
				if err != nil {
					return err
				}
				req.ExpiresAt = expiresAt
				req.ClearExpiry = expiresAt == nil
			}
			if clearExpiry {
				req.ExpiresAt = nil
				req.ClearExpiry = true
			}
			return s.withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				me, err := s.caller(ctx, svc)
				if err != nil {
					return err
				}
				v, err := svc.Shares.Update(ctx, me.UserID, args[0], req)
				if err != nil {
					return err
				}
				return s.emit(cmd.OutOrStdout(), v, func(w io.Writer) {
					fmt.Fprintf(w, "Updated share %s: %s, expires %s\n", v.ShareID, v.Permission, formatDate(v.ExpiresAt))
				})
			})
		},
	}
	cmd.Flags().StringVar(&permission, "permission", "", "VIEW or VIEW_ADD")
	cmd.Flags().StringVar(&expires, "expires", "", "new expiry date or RFC 3339 time")
	cmd.Flags().BoolVar(&clearExpiry, "clear-expiry", false, "remove the expiry")
	cmd.Flags().StringVar(&note, "note", "", "note for the recipient")
	return cmd
}

func newShareRevokeCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <share-id>",
		Short: "Revoke a grant you issued",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				me, err := s.caller(ctx, svc)
				if err != nil {
					return err
				}
				if err := svc.Shares.Revoke(ctx, me.UserID, args[0]); err != nil {
					return err
				}
				return s.emit(cmd.OutOrStdout(), map[string]string{"revoked": args[0]}, func(w io.Writer) {
					fmt.Fprintf(w, "Revoked share %s\n", args[0])
				})
			})
		},
	}
}

func newShareByMeCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "by-me",
		Short: "List the grants you issued, expired ones included",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.listShares(cmd, func(ctx context.Context, svc *app.Services, userID string) ([]*shares.View, error) {
				return svc.Shares.ListSharedByMe(ctx, userID)
			})
		},
	}
}

func newShareWithMeCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "with-me",
		Short: "List the active grants you received",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.listShares(cmd, func(ctx context.Context, svc *app.Services, userID string) ([]*shares.View, error) {
				return svc.Shares.ListSharedWithMe(ctx, userID)
			})
		},
	}
}

func (s *session) listShares(cmd *cobra.Command, fetch func(ctx context.Context, svc *app.Services, userID string) ([]*shares.View, error)) error {
	return s.withServices(cmd, func(ctx context.Context, svc *app.Services) error {
		me, err := s.caller(ctx, svc)
		if err != nil {
			return err
		}
		items, err := fetch(ctx, svc, me.UserID)
		if err != nil {
			return err
		}
		return s.emit(cmd.OutOrStdout(), nonNil(items), func(w io.Writer) {
			fmt.Fprintln(w, "ID\tCONTACT\tOWNER\tRECIPIENT\tPERMISSION\tEXPIRES\tACTIVE")
			for _, v := range items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%t\n",
					v.ShareID, v.ContactName, v.OwnerEmail, v.RecipientEmail, v.Permission, formatDate(v.ExpiresAt), v.Active)
			}
		})
	})
}

// sharedContact is the JSON shape of share show.
type sharedContact struct {
	Contact    *types.Contact `json:"contact"`
	Access     string         `json:"access"`
	Permission string         `json:"permission,omitempty"`
	ExpiresAt  *time.Time     `json:"expires_at,omitempty"`
}

func newShareShowCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "show <contact-id>",
		Short: "Read a contact through the grant you hold",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				me, err := s.caller(ctx, svc)
				if err != nil {
					return err
				}
				a, err := svc.Shares.SharedContact(ctx, me.UserID, args[0])
				if err != nil {
					return err
				}
				out := sharedContact{Contact: a.Contact, Access: a.Level.String(), Permission: a.Permission}
				if a.Share != nil {
					out.ExpiresAt = a.Share.ExpiresAt
				}
				return s.emit(cmd.OutOrStdout(), out, func(w io.Writer) {
					printContact(w, a.Contact)
					fmt.Fprintf(w, "Access:\t%s %s\n", out.Access, out.Permission)
					if out.ExpiresAt != nil {
						fmt.Fprintf(w, "Expires:\t%s\n", out.ExpiresAt.Format(time.RFC3339))
					}
				})
			})
		},
	}
}
