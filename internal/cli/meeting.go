package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/rapport/internal/app"
	"github.com/mesh-intelligence/rapport/pkg/types"
)

func newMeetingCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meeting",
		Short: "Log and list meetings",
	}
	cmd.AddCommand(newMeetingAddCmd(s))
	cmd.AddCommand(newMeetingListCmd(s))
	cmd.AddCommand(newMeetingDeleteCmd(s))
	return cmd
}

func newMeetingAddCmd(s *session) *cobra.Command {
	var contactID, date, medium, notes, outcome, followup string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Log a meeting with a contact",
		Long: `Add logs a meeting with a contact you own or that is shared with you
under VIEW_ADD. The contact's last-contacted date moves to the meeting date,
and --followup schedules a follow-up reminder for the contact's owner.

Mediums: phone_call, whatsapp, email, sms, in_person, video_call,
instagram_dm, other.

Example:
  rapport --as ada@example.com meeting add --contact <id> --medium in_person --followup 2025-07-01`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			meetingDate, err := parseDate("date", date)
			if err != nil {
				return err
			}
			followupDate, err := parseDate("followup", followup)
			if err != nil {
				return err
			}
			m := &types.Meeting{
				ContactID:    contactID,
				Medium:       medium,
				Notes:        notes,
				Outcome:      outcome,
				FollowupDate: followupDate,
			}
			if meetingDate != nil {
				m.MeetingDate = *meetingDate
			}
			return s.withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				me, err := s.caller(ctx, svc)
				if err != nil {
					return err
				}
				created, err := svc.Coordinator.CreateMeeting(ctx, me.UserID, m)
				if err != nil {
					return err
				}
				return s.emit(cmd.OutOrStdout(), created, func(w io.Writer) {
					fmt.Fprintf(w, "Logged meeting %s on %s\n", created.MeetingID, created.MeetingDate.Format(dateLayout))
				})
			})
		},
	}
	cmd.Flags().StringVar(&contactID, "contact", "", "contact ID (required)")
	cmd.Flags().StringVar(&date, "date", "", "meeting date (default: now)")
	cmd.Flags().StringVar(&medium, "medium", "", "how you met (default: other)")
	cmd.Flags().StringVar(&notes, "notes", "", "notes")
	cmd.Flags().StringVar(&outcome, "outcome", "", "outcome")
	cmd.Flags().StringVar(&followup, "followup", "", "follow-up date")
	return cmd
}

func newMeetingListCmd(s *session) *cobra.Command {
	var contactID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your meetings, or every meeting with one contact",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				me, err := s.caller(ctx, svc)
				if err != nil {
					return err
				}
				var items []*types.Meeting
				if contactID != "" {
					items, err = svc.Meetings.ListByContact(ctx, me.UserID, contactID)
				} else {
					items, err = svc.Meetings.ListMine(ctx, me.UserID)
				}
				if err != nil {
					return err
				}
				return s.emit(cmd.OutOrStdout(), nonNil(items), func(w io.Writer) {
					fmt.Fprintln(w, "ID\tCONTACT\tDATE\tMEDIUM\tFOLLOW-UP")
					for _, m := range items {
						fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", m.MeetingID, m.ContactID, m.MeetingDate.Format(dateLayout), m.Medium, formatDate(m.FollowupDate))
					}
				})
			})
		},
	}
	cmd.Flags().StringVar(&contactID, "contact", "", "list the meetings of this contact")
	return cmd
}

func newMeetingDeleteCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <meeting-id>",
		Short: "Delete a meeting and its follow-up reminder",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				me, err := s.caller(ctx, svc)
				if err != nil {
					return err
				}
				if err := svc.Coordinator.DeleteMeeting(ctx, me.UserID, args[0]); err != nil {
					return err
				}
				return s.emit(cmd.OutOrStdout(), map[string]string{"deleted": args[0]}, func(w io.Writer) {
					fmt.Fprintf(w, "Deleted meeting %s\n", args[0])
				})
			})
		},
	}
}
