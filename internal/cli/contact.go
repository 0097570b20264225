package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/rapport/internal/app"
	"github.com/mesh-intelligence/rapport/internal/contacts"
	"github.com/mesh-intelligence/rapport/pkg/types"
)

// contactFlags are the editable contact fields shared by add and update.
type contactFlags struct {
	name, company, whatsapp, instagram, address, notes, picture string
	emails, phones, tags                                        string
	birthday, anniversary                                       string
}

func (f *contactFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "contact name")
	cmd.Flags().StringVar(&f.emails, "emails", "", "comma-separated email addresses")
	cmd.Flags().StringVar(&f.phones, "phones", "", "comma-separated phone numbers")
	cmd.Flags().StringVar(&f.whatsapp, "whatsapp", "", "WhatsApp number")
	cmd.Flags().StringVar(&f.instagram, "instagram", "", "Instagram handle")
	cmd.Flags().StringVar(&f.company, "company", "", "company")
	cmd.Flags().StringVar(&f.tags, "tags", "", "comma-separated tags")
	cmd.Flags().StringVar(&f.address, "address", "", "postal address")
	cmd.Flags().StringVar(&f.notes, "notes", "", "free-form notes")
	cmd.Flags().StringVar(&f.birthday, "birthday", "", "birthday (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.anniversary, "anniversary", "", "anniversary (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.picture, "picture", "", "profile picture URL")
}

func newContactCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Manage contacts",
	}
	cmd.AddCommand(newContactAddCmd(s))
	cmd.AddCommand(newContactGetCmd(s))
	cmd.AddCommand(newContactListCmd(s))
	cmd.AddCommand(newContactUpdateCmd(s))
	cmd.AddCommand(newContactDeleteCmd(s))
	return cmd
}

func newContactAddCmd(s *session) *cobra.Command {
	var f contactFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a contact",
		Long: `Add creates a contact owned by the --as user. A birthday or anniversary
schedules a reminder for its next occurrence.

Example:
  rapport --as ada@example.com contact add --name "Grace Hopper" --birthday 1906-12-09
  rapport --as ada@example.com contact add --name Alan --tags math,crypto --json`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			birthday, err := parseDate("birthday", f.birthday)
			if err != nil {
				return err
			}
			anniversary, err := parseDate("anniversary", f.anniversary)
			if err != nil {
				return err
			}
			return s.withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				me, err := s.caller(ctx, svc)
				if err != nil {
					return err
				}
				c, err := svc.Coordinator.CreateContact(ctx, me.UserID, &types.Contact{
					Name:            f.name,
					Emails:          splitList(f.emails),
					Phones:          splitList(f.phones),
					WhatsappNumber:  f.whatsapp,
					InstagramHandle: f.instagram,
					Company:         f.company,
					Tags:            splitList(f.tags),
					Address:         f.address,
					Notes:           f.notes,
					Birthday:        birthday,
					Anniversary:     anniversary,
					ProfilePicture:  f.picture,
				})
				if err != nil {
					return err
				}
				return s.emit(cmd.OutOrStdout(), c, func(w io.Writer) {
					fmt.Fprintf(w, "Created contact %s: %s\n", c.Name, c.ContactID)
				})
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newContactGetCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "get <contact-id>",
		Short: "Show a contact you own or that is shared with you",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				me, err := s.caller(ctx, svc)
				if err != nil {
					return err
				}
				v, err := svc.Contacts.Get(ctx, me.UserID, args[0])
				if err != nil {
					return err
				}
				return s.emit(cmd.OutOrStdout(), v, func(w io.Writer) {
					printContact(w, &v.Contact)
					fmt.Fprintf(w, "Access:\t%s %s\n", v.Access, v.Permission)
				})
			})
		},
	}
}

func newContactListCmd(s *session) *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your contacts",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				me, err := s.caller(ctx, svc)
				if err != nil {
					return err
				}
				items, err := svc.Contacts.Search(ctx, me.UserID, query)
				if err != nil {
					return err
				}
				return s.emit(cmd.OutOrStdout(), nonNil(items), func(w io.Writer) {
					fmt.Fprintln(w, "ID\tNAME\tCOMPANY\tLAST CONTACTED")
					for _, c := range items {
						fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ContactID, c.Name, c.Company, formatDate(c.LastContactedAt))
					}
				})
			})
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "only contacts whose name contains this text")
	return cmd
}

func newContactUpdateCmd(s *session) *cobra.Command {
	var f contactFlags
	cmd := &cobra.Command{
		Use:   "update <contact-id>",
		Short: "Edit a contact you own",
		Long: `Update changes only the fields whose flags are given. An empty
--birthday or --anniversary clears the date.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := f.updateRequest(cmd)
			if err != nil {
				return err
			}
			return s.withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				me, err := s.caller(ctx, svc)
				if err != nil {
					return err
				}
				c, err := svc.Contacts.Update(ctx, me.UserID, args[0], req)
				if err != nil {
					return err
				}
				return s.emit(cmd.OutOrStdout(), c, func(w io.Writer) {
					fmt.Fprintf(w, "Updated contact %s: %s\n", c.Name, c.ContactID)
				})
			})
		},
	}
	f.register(cmd)
	return cmd
}

// updateRequest builds an UpdateRequest from the flags the user set.
func (f *contactFlags) updateRequest(cmd *cobra.Command) (contacts.UpdateRequest, error) {
	var req contacts.UpdateRequest
	changed := cmd.Flags().Changed
	str := func(flag, value string) *string {
		if !changed(flag) {
			return nil
		}
		return &value
	}
	list := func(flag, value string) *[]string {
		if !changed(flag) {
			return nil
		}
		items := splitList(value)
		return &items
	}

	req.Name = str("name", f.name)
	req.WhatsappNumber = str("whatsapp", f.whatsapp)
	req.InstagramHandle = str("instagram", f.instagram)
	req.Company = str("company", f.company)
	req.Address = str("address", f.address)
	req.Notes = str("notes", f.notes)
	req.ProfilePicture = str("picture", f.picture)
	req.Emails = list("emails", f.emails)
	req.Phones = list("phones", f.phones)
	req.Tags = list("tags", f.tags)

	var err error
	if changed("birthday") {
		if req.Birthday, err = parseDate("birthday", f.birthday); err != nil {
			return req, err
		}
		req.ClearBirthday = req.Birthday == nil
	}
	if changed("anniversary") {
		if req.Anniversary, err = parseDate("anniversary", f.anniversary); err != nil {
			return req, err
		}
		req.ClearAnniversary = req.Anniversary == nil
	}
	return req, nil
}

func newContactDeleteCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <contact-id>",
		Short: "Delete a contact with its meetings, reminders and shares",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				me, err := s.caller(ctx, svc)
				if err != nil {
					return err
				}
				if err := svc.Coordinator.DeleteContact(ctx, me.UserID, args[0]); err != nil {
					return err
				}
				return s.emit(cmd.OutOrStdout(), map[string]string{"deleted": args[0]}, func(w io.Writer) {
					fmt.Fprintf(w, "Deleted contact %s\n", args[0])
				})
			})
		},
	}
}

func printContact(w io.Writer, c *types.Contact) {
	fmt.Fprintf(w, "ID:\t%s\n", c.ContactID)
	fmt.Fprintf(w, "Name:\t%s\n", c.Name)
	if c.Company != "" {
		fmt.Fprintf(w, "Company:\t%s\n", c.Company)
	}
	if len(c.Emails) > 0 {
		fmt.Fprintf(w, "Emails:\t%s\n", strings.Join(c.Emails, ", "))
	}
	if len(c.Phones) > 0 {
		fmt.Fprintf(w, "Phones:\t%s\n", strings.Join(c.Phones, ", "))
	}
	if len(c.Tags) > 0 {
		fmt.Fprintf(w, "Tags:\t%s\n", strings.Join(c.Tags, ", "))
	}
	fmt.Fprintf(w, "Birthday:\t%s\n", formatDate(c.Birthday))
	fmt.Fprintf(w, "Anniversary:\t%s\n", formatDate(c.Anniversary))
	fmt.Fprintf(w, "Last contacted:\t%s\n", formatDate(c.LastContactedAt))
	if c.Notes != "" {
		fmt.Fprintf(w, "Notes:\t%s\n", c.Notes)
	}
}
