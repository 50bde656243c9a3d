// Package catalog holds the starter movie catalog seeded into an empty
// backend on first attach.
package catalog

import "github.com/mesh-intelligence/movienight/pkg/types"

// starterMovie describes a movie to seed. IDs are generated at seed time.
type starterMovie struct {
	title     string
	group     types.AgeGroup
	genre     string
	year      int
	runtime   int
	streaming []string
	synopsis  string
	questions []starterQuestion
}

type starterQuestion struct {
	text   string
	minAge int
}

var starterMovies = []starterMovie{
	{
		title:     "My Neighbor Totoro",
		group:     types.AgeGroupPreschoolers,
		genre:     "Fantasy",
		year:      1988,
		runtime:   86,
		streaming: []string{"Max"},
		synopsis:  "Two sisters move to the countryside and befriend a gentle forest spirit.",
		questions: []starterQuestion{
			{"What would you say to Totoro at the bus stop?", 0},
			{"How did Satsuki take care of Mei when she was worried?", 5},
		},
	},
	{
		title:     "Winnie the Pooh",
		group:     types.AgeGroupPreschoolers,
		genre:     "Animation",
		year:      2011,
		runtime:   63,
		streaming: []string{"Disney+"},
		synopsis:  "Pooh and friends set out to rescue Christopher Robin from the Backson.",
		questions: []starterQuestion{
			{"Which friend from the Hundred Acre Wood are you most like?", 0},
		},
	},
	{
		title:     "Paddington",
		group:     types.AgeGroupLittleKids,
		genre:     "Comedy",
		year:      2014,
		runtime:   95,
		streaming: []string{"Netflix", "Prime Video"},
		synopsis:  "A polite bear from Peru finds a new family in London.",
		questions: []starterQuestion{
			{"Why do you think the Browns decided to help Paddington?", 5},
			{"What does it feel like to be new somewhere?", 5},
		},
	},
	{
		title:     "Moana",
		group:     types.AgeGroupLittleKids,
		genre:     "Adventure",
		year:      2016,
		runtime:   107,
		streaming: []string{"Disney+"},
		synopsis:  "A chief's daughter sails across the ocean to save her island.",
		questions: []starterQuestion{
			{"What made Moana brave enough to leave her island?", 5},
			{"Was Maui a good friend at the start? What changed?", 7},
		},
	},
	{
		title:     "How to Train Your Dragon",
		group:     types.AgeGroupBigKids,
		genre:     "Adventure",
		year:      2010,
		runtime:   98,
		streaming: []string{"Peacock"},
		synopsis:  "A young Viking befriends the dragon he was supposed to defeat.",
		questions: []starterQuestion{
			{"Why did Hiccup decide not to hurt Toothless?", 0},
			{"How did Hiccup change his father's mind?", 8},
		},
	},
	{
		title:     "Coco",
		group:     types.AgeGroupBigKids,
		genre:     "Fantasy",
		year:      2017,
		runtime:   105,
		streaming: []string{"Disney+"},
		synopsis:  "A boy who dreams of music journeys to the Land of the Dead.",
		questions: []starterQuestion{
			{"Why is remembering our family important?", 8},
		},
	},
	{
		title:     "Spider-Man: Into the Spider-Verse",
		group:     types.AgeGroupTweens,
		genre:     "Action",
		year:      2018,
		runtime:   117,
		streaming: []string{"Netflix"},
		synopsis:  "Miles Morales becomes Spider-Man and meets heroes from other dimensions.",
		questions: []starterQuestion{
			{"What does 'anyone can wear the mask' mean to you?", 10},
			{"How did Miles learn to trust himself?", 10},
		},
	},
	{
		title:     "The Mitchells vs. the Machines",
		group:     types.AgeGroupTweens,
		genre:     "Comedy",
		year:      2021,
		runtime:   114,
		streaming: []string{"Netflix"},
		synopsis:  "A quirky family road trip collides with a robot uprising.",
		questions: []starterQuestion{
			{"What did Katie and her dad learn about each other?", 10},
		},
	},
}

// Starter returns the starter catalog with freshly generated IDs.
func Starter() []types.Movie {
	out := make([]types.Movie, 0, len(starterMovies))
	for _, sm := range starterMovies {
		m := types.NewMovie(sm.title, sm.group, sm.genre)
		m.Year = sm.year
		m.RuntimeMinutes = sm.runtime
		m.StreamingServices = append([]string(nil), sm.streaming...)
		m.Synopsis = sm.synopsis
		for _, q := range sm.questions {
			m.DiscussionQuestions = append(m.DiscussionQuestions, types.DiscussionQuestion{
				ID:     types.NewID(),
				Text:   q.text,
				MinAge: q.minAge,
			})
		}
		out = append(out, m)
	}
	return out
}
