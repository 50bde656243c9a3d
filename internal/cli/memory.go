package cli

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/movienight/internal/app"
	"github.com/mesh-intelligence/movienight/internal/memory"
	"github.com/mesh-intelligence/movienight/pkg/types"
)

func newMemoryCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Record and browse movie-night memories",
	}
	cmd.AddCommand(
		newMemoryCreateCmd(o),
		newMemoryListCmd(o),
		newMemoryShowCmd(o),
		newMemoryDeleteCmd(o),
		newMemorySearchCmd(o),
		newMemoryStatsCmd(o),
	)
	return cmd
}

// parseAnswer reads "question-id:age:response".
func parseAnswer(s string) (types.DiscussionAnswer, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return types.DiscussionAnswer{}, userError("--answer %q: want question-id:age:response", s)
	}
	age, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return types.DiscussionAnswer{}, userError("--answer %q: age must be a number", s)
	}
	return types.NewDiscussionAnswer(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[2]), age), nil
}

// readPhoto loads a photo file, sniffing its content type.
func readPhoto(path string) (types.Photo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Photo{}, userError("--photo: %v", err)
	}
	return types.Photo{
		ID:          types.NewID(),
		Filename:    filepath.Base(path),
		ContentType: http.DetectContentType(data),
		Data:        data,
	}, nil
}

func newMemoryCreateCmd(o *options) *cobra.Command {
	var (
		movieRef    string
		rating      int
		date        string
		notes       string
		answers     []string
		photos      []string
		location    string
		weather     string
		temperature float64
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Record a memory of a watched movie",
		Long: `Record a memory of a watched movie.

Answers use the form question-id:age:response.

Example:
  movienight memory create --movie 0195f3a2 --rating 5 --notes "Everyone cried" \
    --answer "q1:7:Because he missed his friend" --photo couch.jpg --location "Grandma's"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			watched := time.Now()
			if date != "" {
				t, err := parseTime("date", date)
				if err != nil {
					return err
				}
				watched = t
			}

			var opts []types.MemoryOption
			if notes != "" {
				opts = append(opts, types.WithNotes(notes))
			}
			if len(answers) > 0 {
				parsed := make([]types.DiscussionAnswer, 0, len(answers))
				for _, s := range answers {
					a, err := parseAnswer(s)
					if err != nil {
						return err
					}
					parsed = append(parsed, a)
				}
				opts = append(opts, types.WithAnswers(parsed...))
			}
			if len(photos) > 0 {
				loaded := make([]types.Photo, 0, len(photos))
				for _, path := range photos {
					p, err := readPhoto(path)
					if err != nil {
						return err
					}
					loaded = append(loaded, p)
				}
				opts = append(opts, types.WithPhotos(loaded...))
			}
			if location != "" {
				opts = append(opts, types.WithLocation(types.Location{Name: location}))
			}
			if weather != "" {
				opts = append(opts, types.WithWeather(types.WeatherContext{Condition: weather, TemperatureC: temperature}))
			}

			a, err := o.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			movie, err := findMovie(a.Movies.GetAllMovies(), movieRef)
			if err != nil {
				return err
			}
			m := types.NewMemory(movie.ID, watched, rating, opts...)
			if err := m.Validate(); err != nil {
				return userError("%v", err)
			}
			if !a.Memories.CreateMemory(m) {
				return sysError(fmt.Errorf("memory could not be saved"))
			}
			created, _ := a.Memories.GetMemory(m.ID)
			if o.jsonMode {
				return printJSON(cmd.OutOrStdout(), created)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded memory %s for %s\n", created.ID, movie.Title)
			return nil
		},
	}
	cmd.Flags().StringVar(&movieRef, "movie", "", "movie ID or ID prefix (required)")
	cmd.Flags().IntVar(&rating, "rating", 0, "rating from 1 to 5 (required)")
	cmd.Flags().StringVar(&date, "date", "", "when the movie was watched (default: now)")
	cmd.Flags().StringVar(&notes, "notes", "", "free-text notes")
	cmd.Flags().StringArrayVar(&answers, "answer", nil, "discussion answer question-id:age:response (repeatable)")
	cmd.Flags().StringArrayVar(&photos, "photo", nil, "photo file to attach (repeatable)")
	cmd.Flags().StringVar(&location, "location", "", "where the movie was watched")
	cmd.Flags().StringVar(&weather, "weather", "", "weather condition")
	cmd.Flags().Float64Var(&temperature, "temperature", 0, "temperature in Celsius (with --weather)")
	cmd.MarkFlagRequired("movie")
	cmd.MarkFlagRequired("rating")
	return cmd
}

func newMemoryListCmd(o *options) *cobra.Command {
	var (
		sortBy  string
		movieID string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List memories",
		Long: `List memories, newest first by default.

Example:
  movienight memory list --sort rating
  movienight memory list --sort title --movie 0195f3a2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, err := memory.ParseSortCriteria(sortBy)
			if err != nil {
				return userError("--sort: %v", err)
			}
			a, err := o.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			memories := a.Memories.GetMemoriesSorted(criteria)
			if movieID != "" {
				movie, err := findMovie(a.Movies.GetAllMovies(), movieID)
				if err != nil {
					return err
				}
				filtered := memories[:0]
				for _, m := range memories {
					if m.MovieID == movie.ID {
						filtered = append(filtered, m)
					}
				}
				memories = filtered
			}
			return o.printMemories(cmd, a, memories)
		},
	}
	cmd.Flags().StringVar(&sortBy, "sort", "date", "sort by date, rating, or title")
	cmd.Flags().StringVar(&movieID, "movie", "", "only memories of this movie")
	return cmd
}

func newMemorySearchCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search memories by notes, movie title, or location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			return o.printMemories(cmd, a, a.Memories.SearchMemories(args[0]))
		},
	}
}

func (o *options) printMemories(cmd *cobra.Command, a *app.App, memories []types.Memory) error {
	if o.jsonMode {
		return printJSON(cmd.OutOrStdout(), memories)
	}
	out := cmd.OutOrStdout()
	if len(memories) == 0 {
		fmt.Fprintln(out, "No memories found.")
		return nil
	}
	rows := make([][]string, 0, len(memories))
	for _, m := range memories {
		title := m.MovieID
		if movie, ok := a.Movies.GetMovie(m.MovieID); ok {
			title = movie.Title
		}
		rows = append(rows, []string{
			shortID(m.ID),
			m.WatchDate.Local().Format("2006-01-02"),
			truncate(title, 32),
			stars(m.Rating),
			truncate(m.Notes, 40),
		})
	}
	printTable(out, []string{"ID", "WATCHED", "MOVIE", "RATING", "NOTES"}, rows)
	fmt.Fprintf(out, "Total: %d memory(ies)\n", len(memories))
	return nil
}

// findMemory resolves a full ID or a unique ID prefix.
func findMemory(a *app.App, ref string) (types.Memory, error) {
	if m, ok := a.Memories.GetMemory(ref); ok {
		return m, nil
	}
	var match *types.Memory
	if len(ref) >= 4 {
		all := a.Memories.GetAllMemories()
		for i := range all {
			if strings.HasPrefix(all[i].ID, ref) {
				if match != nil {
					return types.Memory{}, userError("memory %q is ambiguous", ref)
				}
				match = &all[i]
			}
		}
	}
	if match == nil {
		return types.Memory{}, userError("memory %q not found", ref)
	}
	return *match, nil
}

func newMemoryShowCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <memory-id>",
		Short: "Show a memory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			m, err := findMemory(a, args[0])
			if err != nil {
				return err
			}
			if o.jsonMode {
				return printJSON(cmd.OutOrStdout(), m)
			}

			out := cmd.OutOrStdout()
			title := m.MovieID
			if movie, ok := a.Movies.GetMovie(m.MovieID); ok {
				title = movie.Title
			}
			fmt.Fprintf(out, "%s\n", title)
			fmt.Fprintf(out, "ID:       %s\n", m.ID)
			fmt.Fprintf(out, "Watched:  %s\n", m.WatchDate.Local().Format("2006-01-02 15:04"))
			fmt.Fprintf(out, "Rating:   %s (%d/5)\n", stars(m.Rating), m.Rating)
			if m.Notes != "" {
				fmt.Fprintf(out, "Notes:    %s\n", m.Notes)
			}
			if m.Location != nil {
				fmt.Fprintf(out, "Where:    %s\n", m.Location.Name)
			}
			if m.WeatherContext != nil {
				fmt.Fprintf(out, "Weather:  %s, %.1f°C\n", m.WeatherContext.Condition, m.WeatherContext.TemperatureC)
			}
			for _, p := range m.Photos {
				fmt.Fprintf(out, "Photo:    %s (%s, %d bytes)\n", p.Filename, p.ContentType, len(p.Data))
			}
			if len(m.DiscussionAnswers) > 0 {
				fmt.Fprintln(out, "\nDiscussion:")
				for _, ans := range m.DiscussionAnswers {
					fmt.Fprintf(out, "  [%s] age %d: %s\n", ans.QuestionID, ans.ChildAge, ans.Response)
				}
			}
			return nil
		},
	}
}

func newMemoryDeleteCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <memory-id>",
		Short: "Delete a memory and its discussion answers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			m, err := findMemory(a, args[0])
			if err != nil {
				return err
			}
			if !a.Memories.DeleteMemory(m.ID) {
				return sysError(fmt.Errorf("memory %s could not be deleted", m.ID))
			}
			if o.jsonMode {
				return printJSON(cmd.OutOrStdout(), map[string]string{"deleted": m.ID})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted memory %s\n", m.ID)
			return nil
		},
	}
}

type memoryStats struct {
	Count         int                 `json:"count"`
	AverageRating float64             `json:"average_rating"`
	Histogram     map[int]int         `json:"histogram"`
	MostWatched   []memory.MovieCount `json:"most_watched"`
}

func newMemoryStatsCmd(o *options) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show rating statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			stats := memoryStats{
				Count:         a.Memories.GetMemoryCount(),
				AverageRating: a.Memories.GetAverageRating(),
				Histogram:     a.Memories.GetRatingHistogram(),
				MostWatched:   a.Memories.GetMostWatchedMovies(top),
			}
			if o.jsonMode {
				return printJSON(cmd.OutOrStdout(), stats)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Memories:        %d\n", stats.Count)
			fmt.Fprintf(out, "Average rating:  %.2f\n", stats.AverageRating)
			for r := types.MaxRating; r >= types.MinRating; r-- {
				fmt.Fprintf(out, "  %-5s %d\n", stars(r), stats.Histogram[r])
			}
			if len(stats.MostWatched) > 0 {
				fmt.Fprintln(out, "\nMost watched:")
				for _, mc := range stats.MostWatched {
					fmt.Fprintf(out, "  %dx %s\n", mc.Count, mc.Title)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&top, "top", 5, "number of most-watched movies to show")
	return cmd
}
