package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/movienight/pkg/types"
)

func newMovieCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "movie",
		Short: "Browse and extend the movie catalog",
	}
	cmd.AddCommand(newMovieListCmd(o), newMovieShowCmd(o), newMovieAddCmd(o))
	return cmd
}

func newMovieListCmd(o *options) *cobra.Command {
	var (
		ageGroup string
		age      int
		search   string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List movies",
		Long: `List the catalog, youngest age group first.

Use --age-group or --age to keep movies suitable for a viewer, and --search
to match title, genre, or synopsis.

Example:
  movienight movie list
  movienight movie list --age 6
  movienight movie list --age-group bigKids --search adventure --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var group types.AgeGroup
			switch {
			case ageGroup != "" && cmd.Flags().Changed("age"):
				return userError("use either --age-group or --age")
			case ageGroup != "":
				g, err := types.ParseAgeGroup(ageGroup)
				if err != nil {
					return userError("--age-group: %v", err)
				}
				group = g
			case cmd.Flags().Changed("age"):
				g, ok := types.AgeGroupForAge(age)
				if !ok {
					return userError("--age: no age group covers age %d", age)
				}
				group = g
			}

			a, err := o.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			movies := a.Movies.SearchMovies(search)
			if group != "" {
				suitable := movies[:0]
				for _, m := range movies {
					if m.SuitableFor(group) {
						suitable = append(suitable, m)
					}
				}
				movies = suitable
			}

			if o.jsonMode {
				return printJSON(cmd.OutOrStdout(), movies)
			}
			printMovieTable(cmd, movies)
			return nil
		},
	}
	cmd.Flags().StringVar(&ageGroup, "age-group", "", "viewer age group (preschoolers, littleKids, bigKids, tweens)")
	cmd.Flags().IntVar(&age, "age", 0, "viewer age in years")
	cmd.Flags().StringVar(&search, "search", "", "text to match in title, genre, or synopsis")
	return cmd
}

func printMovieTable(cmd *cobra.Command, movies []types.Movie) {
	out := cmd.OutOrStdout()
	if len(movies) == 0 {
		fmt.Fprintln(out, "No movies found.")
		return
	}
	rows := make([][]string, 0, len(movies))
	for _, m := range movies {
		year := ""
		if m.Year > 0 {
			year = strconv.Itoa(m.Year)
		}
		rows = append(rows, []string{shortID(m.ID), truncate(m.Title, 40), m.AgeGroup.DisplayName(), m.Genre, year})
	}
	printTable(out, []string{"ID", "TITLE", "AGE GROUP", "GENRE", "YEAR"}, rows)
	fmt.Fprintf(out, "Total: %d movie(s)\n", len(movies))
}

// findMovie resolves a full ID or a unique ID prefix as printed by list.
func findMovie(movies []types.Movie, ref string) (types.Movie, error) {
	var match *types.Movie
	for i := range movies {
		if movies[i].ID == ref {
			return movies[i], nil
		}
		if len(ref) >= 4 && strings.HasPrefix(movies[i].ID, ref) {
			if match != nil {
				return types.Movie{}, userError("movie %q is ambiguous", ref)
			}
			match = &movies[i]
		}
	}
	if match == nil {
		return types.Movie{}, userError("movie %q not found", ref)
	}
	return *match, nil
}

func newMovieShowCmd(o *options) *cobra.Command {
	var childAge int
	cmd := &cobra.Command{
		Use:   "show <movie-id>",
		Short: "Show a movie with its discussion questions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			m, err := findMovie(a.Movies.GetAllMovies(), args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("child-age") {
				m.DiscussionQuestions = a.Movies.GetDiscussionQuestions(m.ID, childAge)
			}

			if o.jsonMode {
				return printJSON(cmd.OutOrStdout(), m)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s", m.Title)
			if m.Year > 0 {
				fmt.Fprintf(out, " (%d)", m.Year)
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "ID:         %s\n", m.ID)
			fmt.Fprintf(out, "Age group:  %s\n", m.AgeGroup.DisplayName())
			fmt.Fprintf(out, "Genre:      %s\n", m.Genre)
			if m.RuntimeMinutes > 0 {
				fmt.Fprintf(out, "Runtime:    %d min\n", m.RuntimeMinutes)
			}
			fmt.Fprintf(out, "Streaming:  %s\n", m.StreamingAvailability())
			if m.Synopsis != "" {
				fmt.Fprintf(out, "\n%s\n", m.Synopsis)
			}
			if len(m.DiscussionQuestions) > 0 {
				fmt.Fprintln(out, "\nDiscussion questions:")
				for _, q := range m.DiscussionQuestions {
					fmt.Fprintf(out, "  [%s] %s\n", q.ID, q.Text)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&childAge, "child-age", 0, "only show questions suitable for this age")
	return cmd
}

func newMovieAddCmd(o *options) *cobra.Command {
	var (
		m         types.Movie
		ageGroup  string
		questions []string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a movie to the catalog",
		Long: `Add a movie to the catalog.

Example:
  movienight movie add --title "The Iron Giant" --age-group bigKids --genre Animation \
    --year 1999 --streaming Max --question "Why did the giant choose not to be a weapon?"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			group, err := types.ParseAgeGroup(ageGroup)
			if err != nil {
				return userError("--age-group: %v", err)
			}
			movie := types.NewMovie(m.Title, group, m.Genre)
			movie.Year = m.Year
			movie.RuntimeMinutes = m.RuntimeMinutes
			movie.StreamingServices = m.StreamingServices
			movie.Synopsis = m.Synopsis
			for i, text := range questions {
				movie.DiscussionQuestions = append(movie.DiscussionQuestions, types.DiscussionQuestion{
					ID:   fmt.Sprintf("q%d", i+1),
					Text: text,
				})
			}
			if err := movie.Validate(); err != nil {
				return userError("%v", err)
			}

			a, err := o.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if !a.Movies.AddMovie(movie) {
				return sysError(fmt.Errorf("movie %q could not be saved", movie.Title))
			}
			if o.jsonMode {
				return printJSON(cmd.OutOrStdout(), movie)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added movie %s (%s)\n", movie.Title, movie.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&m.Title, "title", "", "movie title (required)")
	cmd.Flags().StringVar(&ageGroup, "age-group", "", "age group (required)")
	cmd.Flags().StringVar(&m.Genre, "genre", "", "genre")
	cmd.Flags().IntVar(&m.Year, "year", 0, "release year")
	cmd.Flags().IntVar(&m.RuntimeMinutes, "runtime", 0, "runtime in minutes")
	cmd.Flags().StringSliceVar(&m.StreamingServices, "streaming", nil, "streaming services (repeatable or comma-separated)")
	cmd.Flags().StringVar(&m.Synopsis, "synopsis", "", "short synopsis")
	cmd.Flags().StringArrayVar(&questions, "question", nil, "discussion question (repeatable)")
	cmd.MarkFlagRequired("title")
	cmd.MarkFlagRequired("age-group")
	return cmd
}
