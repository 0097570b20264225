package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/rapport/internal/app"
)

func newDashboardCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show counts, upcoming birthdays and who needs attention",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				me, err := s.caller(ctx, svc)
				if err != nil {
					return err
				}
				sum, err := svc.Dashboard.Summary(ctx, me.UserID)
				if err != nil {
					return err
				}
				return s.emit(cmd.OutOrStdout(), sum, func(w io.Writer) {
					t := sum.Totals
					fmt.Fprintf(w, "Contacts:\t%d\n", t.Contacts)
					fmt.Fprintf(w, "Meetings this month:\t%d\n", t.MeetingsThisMonth)
					fmt.Fprintf(w, "Pending reminders:\t%d\n", t.PendingReminders)
					fmt.Fprintf(w, "Shared with me:\t%d\n", t.SharedWithMe)
					for _, b := range sum.UpcomingBirthdays {
						fmt.Fprintf(w, "Birthday:\t%s on %s (in %d days)\n", b.Name, b.Date.Format(dateLayout), b.DaysUntil)
					}
					for _, c := range sum.NeedsAttention {
						fmt.Fprintf(w, "Needs attention:\t%s (last contacted %s)\n", c.Name, formatDate(c.LastContactedAt))
					}
				})
			})
		},
	}
}
