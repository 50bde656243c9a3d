package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/movienight/internal/app"
	"github.com/mesh-intelligence/movienight/internal/calendar"
)

// accessTimeout bounds how long a command waits for calendar access,
// including a terminal prompt.
const accessTimeout = 2 * time.Minute

func newScheduleCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Schedule movie nights on the calendar",
	}
	cmd.AddCommand(newScheduleCreateCmd(o), newScheduleUpcomingCmd(o), newScheduleNextCmd(o))
	return cmd
}

// requireCalendar waits for calendar access and checks that a default
// calendar is configured.
func requireCalendar(cmd *cobra.Command, a *app.App) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), accessTimeout)
	defer cancel()
	if state := a.AwaitCalendarAccess(ctx); state != calendar.PermissionGranted {
		return userError("calendar access %s (set calendar.access in config.yaml)", state)
	}
	if _, ok := a.Calendars.DefaultCalendar(); !ok {
		return userError("%v (set calendar.default in config.yaml)", calendar.ErrNoDefaultCalendar)
	}
	return nil
}

func newScheduleCreateCmd(o *options) *cobra.Command {
	var (
		at    string
		weeks int
	)
	cmd := &cobra.Command{
		Use:   "create <movie-id>",
		Short: "Put a movie night on the calendar",
		Long: `Put a two-hour movie night on the default calendar with a reminder
thirty minutes before. Without --at the next night from movie_night.schedule
is used. --weeks repeats the night weekly.

Example:
  movienight schedule create 0195f3a2 --at "2026-10-23 18:30"
  movienight schedule create 0195f3a2 --weeks 4`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if weeks < 1 {
				return userError("--weeks must be at least 1")
			}
			a, err := o.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			movie, err := findMovie(a.Movies.GetAllMovies(), args[0])
			if err != nil {
				return err
			}
			var start time.Time
			if at != "" {
				if start, err = parseTime("at", at); err != nil {
					return err
				}
			} else if start, err = a.Scheduler.NextMovieNight(time.Now()); err != nil {
				if errors.Is(err, calendar.ErrNoSchedule) {
					return userError("--at is required when movie_night.schedule is not set")
				}
				return sysError(err)
			}

			if err := requireCalendar(cmd, a); err != nil {
				return err
			}
			var ok bool
			if weeks == 1 {
				ok = a.Scheduler.CreateEvent(movie, start)
			} else {
				ok = a.Scheduler.CreateRecurringEvent(movie, start, weeks)
			}
			if !ok {
				return sysError(fmt.Errorf("movie night could not be saved to the calendar"))
			}

			ev := calendar.NewMovieNightEvent(movie, start)
			if o.jsonMode {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"movie_id": movie.ID,
					"summary":  ev.Summary,
					"start":    ev.Start,
					"end":      ev.End,
					"weeks":    weeks,
					"calendar": a.Calendars.Path(defaultCalendarID(a)),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Scheduled %q on %s", ev.Summary, ev.Start.Local().Format("Mon Jan 2 2006 15:04"))
			if weeks > 1 {
				fmt.Fprintf(cmd.OutOrStdout(), ", weekly for %d weeks", weeks)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "start time (default: next scheduled movie night)")
	cmd.Flags().IntVar(&weeks, "weeks", 1, "number of weekly occurrences")
	return cmd
}

func defaultCalendarID(a *app.App) string {
	id, _ := a.Calendars.DefaultCalendar()
	return id
}

func newScheduleUpcomingCmd(o *options) *cobra.Command {
	var (
		from string
		days int
	)
	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "List upcoming movie nights",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 1 {
				return userError("--days must be at least 1")
			}
			start := time.Now()
			if from != "" {
				t, err := parseTime("from", from)
				if err != nil {
					return err
				}
				start = t
			}

			a, err := o.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := requireCalendar(cmd, a); err != nil {
				return err
			}

			nights := a.Scheduler.UpcomingNights(start, start.AddDate(0, 0, days))
			if o.jsonMode {
				return printJSON(cmd.OutOrStdout(), nights)
			}
			out := cmd.OutOrStdout()
			if len(nights) == 0 {
				fmt.Fprintln(out, "No movie nights scheduled.")
				return nil
			}
			rows := make([][]string, 0, len(nights))
			for _, n := range nights {
				rows = append(rows, []string{
					n.Start.Local().Format("Mon 2006-01-02 15:04"),
					n.End.Local().Format("15:04"),
					n.Summary,
				})
			}
			printTable(out, []string{"START", "END", "EVENT"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "start of the window (default: now)")
	cmd.Flags().IntVar(&days, "days", 30, "length of the window in days")
	return cmd
}

func newScheduleNextCmd(o *options) *cobra.Command {
	var after string
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show when the next regular movie night is",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t := time.Now()
			if after != "" {
				parsed, err := parseTime("after", after)
				if err != nil {
					return err
				}
				t = parsed
			}

			a, err := o.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			next, err := a.Scheduler.NextMovieNight(t)
			if errors.Is(err, calendar.ErrNoSchedule) {
				return userError("%v (set movie_night.schedule in config.yaml)", err)
			}
			if err != nil {
				return sysError(err)
			}
			if o.jsonMode {
				return printJSON(cmd.OutOrStdout(), map[string]time.Time{"next": next})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Next movie night: %s\n", next.Local().Format("Mon Jan 2 2006 15:04"))
			return nil
		},
	}
	cmd.Flags().StringVar(&after, "after", "", "find the first night after this time (default: now)")
	return cmd
}
