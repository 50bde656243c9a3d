package memory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mesh-intelligence/movienight/pkg/types"
)

// SortCriteria selects the key for GetMemoriesSorted.
type SortCriteria string

// Sort keys. Dates sort newest first, ratings highest first, titles A to Z
// ignoring case.
const (
	SortByDate       SortCriteria = "date"
	SortByRating     SortCriteria = "rating"
	SortByMovieTitle SortCriteria = "movieTitle"
)

// ParseSortCriteria accepts "date", "rating", "movieTitle" or "title",
// ignoring case.
func ParseSortCriteria(s string) (SortCriteria, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "date", "":
		return SortByDate, nil
	case "rating":
		return SortByRating, nil
	case "movietitle", "title":
		return SortByMovieTitle, nil
	}
	return "", fmt.Errorf("unknown sort criteria %q", s)
}

// sortMemories sorts in place with a stable sort; title resolves a movie ID
// to its title. Memories whose movie has no title sort last under
// SortByMovieTitle.
func sortMemories(memories []types.Memory, criteria SortCriteria, title func(string) string) {
	switch criteria {
	case SortByRating:
		sort.SliceStable(memories, func(i, j int) bool {
			return memories[i].Rating > memories[j].Rating
		})
	case SortByMovieTitle:
		keys := make(map[string]string, len(memories))
		for _, m := range memories {
			if _, ok := keys[m.MovieID]; !ok {
				keys[m.MovieID] = strings.ToLower(title(m.MovieID))
			}
		}
		sort.SliceStable(memories, func(i, j int) bool {
			ti, tj := keys[memories[i].MovieID], keys[memories[j].MovieID]
			if ti == "" || tj == "" {
				return ti != "" && tj == ""
			}
			return ti < tj
		})
	default:
		sort.SliceStable(memories, func(i, j int) bool {
			return memories[i].WatchDate.After(memories[j].WatchDate)
		})
	}
}
