package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/rapport/internal/app"
)

func newReminderCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reminder",
		Short: "List and dismiss reminders",
	}
	cmd.AddCommand(newReminderListCmd(s))
	cmd.AddCommand(newReminderDismissCmd(s))
	cmd.AddCommand(newReminderUpcomingCmd(s))
	return cmd
}

func newReminderListCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your pending reminders",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				me, err := s.caller(ctx, svc)
				if err != nil {
					return err
				}
				items, err := svc.Reminders.ListPending(ctx, me.UserID)
				if err != nil {
					return err
				}
				return s.emit(cmd.OutOrStdout(), nonNil(items), func(w io.Writer) {
					fmt.Fprintln(w, "ID\tKIND\tSCHEDULED\tMESSAGE")
					for _, r := range items {
						fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ReminderID, r.Kind, r.ScheduledAt.Format(dateLayout), r.Message)
					}
				})
			})
		},
	}
}

func newReminderDismissCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss <reminder-id>",
		Short: "Dismiss one of your reminders",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				me, err := s.caller(ctx, svc)
				if err != nil {
					return err
				}
				r, err := svc.Reminders.Dismiss(ctx, me.UserID, args[0])
				if err != nil {
					return err
				}
				return s.emit(cmd.OutOrStdout(), r, func(w io.Writer) {
					fmt.Fprintf(w, "Dismissed reminder %s\n", r.ReminderID)
				})
			})
		},
	}
}

func newReminderUpcomingCmd(s *session) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "List birthdays, anniversaries and follow-ups in the next days",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("days") {
				days = s.cfg.Reminders.UpcomingDays
			}
			return s.withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				me, err := s.caller(ctx, svc)
				if err != nil {
					return err
				}
				items, err := svc.Reminders.Upcoming(ctx, me.UserID, days)
				if err != nil {
					return err
				}
				return s.emit(cmd.OutOrStdout(), nonNil(items), func(w io.Writer) {
					fmt.Fprintln(w, "DATE\tIN DAYS\tKIND\tMESSAGE")
					for _, o := range items {
						fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", o.Date.Format(dateLayout), o.DaysUntil, o.Kind, o.Message)
					}
				})
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "window in days (default: reminders.upcoming_days from config)")
	return cmd
}
