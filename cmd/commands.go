package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/slotkeeper/internal/booking"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <time>",
		Short: "Check whether a slot is free",
		Long: `Check whether the default-length slot starting at the given time is free.
The time can be natural language or ISO, for example "July 3 at 3pm",
"tomorrow 10am" or "2025-07-03 15:00".`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cmd, booking.CheckAvailability{TimeText: strings.Join(args, " ")})
		},
	}
}

func newBookCmd() *cobra.Command {
	var (
		summary string
		end     string
	)

	cmd := &cobra.Command{
		Use:   "book <start>",
		Short: "Book an event if the slot is free",
		Long: `Book an event starting at the given time. Without --end the event lasts
one slot. Nothing is written when the slot overlaps an existing event.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cmd, booking.BookEvent{
				Summary:   summary,
				StartText: strings.Join(args, " "),
				EndText:   end,
			})
		},
	}

	cmd.Flags().StringVarP(&summary, "summary", "s", "", "Event title (required)")
	cmd.Flags().StringVarP(&end, "end", "e", "", "End time (default: start plus one slot)")
	_ = cmd.MarkFlagRequired("summary")

	return cmd
}

func newFreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "free [day]",
		Short: "List the free slots of a day",
		Long:  `List the free slots within working hours on a day (default: today).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			day := strings.Join(args, " ")
			if day == "" {
				day = "today"
			}
			return runCommand(cmd, booking.FreeSlotsForDay{DayText: day})
		},
	}
}

func newTodayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Print today's date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cmd, booking.TodayDate{})
		},
	}
}

// runCommand executes one command and prints the answer. The process exits
// non-zero when a booking was not created or the outcome carries an error.
func runCommand(cmd *cobra.Command, command booking.Command) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := newLogger(cmd.ErrOrStderr())

	a, err := newApp(ctx, cmd.Flags(), logger, nil)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	out := a.orchestrator.Run(ctx, command)
	fmt.Fprintln(cmd.OutOrStdout(), booking.Format(out))

	if b, ok := out.(booking.BookOutcome); ok {
		if b.State != booking.StateBooked {
			return fmt.Errorf("booking not created: %s", b.State)
		}
	}
	return booking.OutcomeError(out)
}
