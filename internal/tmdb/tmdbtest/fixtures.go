package tmdbtest

import (
	"fmt"

	"github.com/lepinkainen/bmn/internal/tmdb"
)

// FightClubID is the TMDB ID of Fight Club.
const FightClubID = 550

// FightClub returns Fight Club with castSize billed actors. Its crew
// reduces to two directors and one writer; the first director is credited
// twice and one credit is neither directing nor writing.
func FightClub(castSize int) (*tmdb.MovieDetails, *tmdb.Credits) {
	details := &tmdb.MovieDetails{
		ID:            FightClubID,
		IMDbID:        "tt0137523",
		Title:         "Fight Club",
		OriginalTitle: "Fight Club",
		Overview:      "A ticking-time-bomb insomniac and a slippery soap salesman channel primal male aggression.",
		Tagline:       "Mischief. Mayhem. Soap.",
		ReleaseDate:   "1999-10-15",
		Runtime:       139,
		Budget:        63000000,
		Revenue:       100853753,
		VoteAverage:   8.4,
		VoteCount:     26280,
		PosterPath:    "/pB8BM7pdSp6B6Ih7QZ4DrQ3PmJK.jpg",
		BackdropPath:  "/hZkgoQYus5vegHoetLkCJzb17zJ.jpg",
		Genres:        []tmdb.Genre{{ID: 18, Name: "Drama"}, {ID: 53, Name: "Thriller"}},
		ProductionCompanies: []tmdb.ProductionCompany{
			{ID: 508, Name: "Regency Enterprises", LogoPath: "/7cxRWzi4LsVm4Utfpr1hfARNurT.png", OriginCountry: "US"},
			{ID: 711, Name: "Fox 2000 Pictures", OriginCountry: "US"},
		},
		ProductionCountries: []tmdb.ProductionCountry{{ISO3166: "US", Name: "United States of America"}},
		SpokenLanguages:     []tmdb.SpokenLanguage{{ISO639: "en", Name: "English", EnglishName: "English"}},
	}

	credits := &tmdb.Credits{ID: FightClubID}
	for i := 0; i < castSize; i++ {
		credits.Cast = append(credits.Cast, tmdb.CastMember{
			ID:          1000 + i,
			Name:        fmt.Sprintf("Actor %d", i+1),
			Character:   fmt.Sprintf("Character %d", i+1),
			ProfilePath: fmt.Sprintf("/actor%d.jpg", i+1),
			Order:       i,
		})
	}
	credits.Crew = []tmdb.CrewMember{
		{ID: 7467, Name: "David Fincher", Job: "Director", Department: "Directing", ProfilePath: "/fincher.jpg"},
		{ID: 7467, Name: "David Fincher", Job: "Director", Department: "Directing", ProfilePath: "/fincher.jpg"},
		{ID: 7468, Name: "Second Unit", Job: "Director", Department: "Directing"},
		{ID: 7469, Name: "Jim Uhls", Job: "Screenplay", Department: "Writing"},
		{ID: 7470, Name: "Alex McDowell", Job: "Production Design", Department: "Art"},
	}
	return details, credits
}

// Movie returns a minimal movie with one actor and one director, whose
// person IDs are derived from id.
func Movie(id int, title, releaseDate string) (*tmdb.MovieDetails, *tmdb.Credits) {
	details := &tmdb.MovieDetails{
		ID:            id,
		Title:         title,
		OriginalTitle: title,
		ReleaseDate:   releaseDate,
		Genres:        []tmdb.Genre{{ID: 35, Name: "Comedy"}},
	}
	credits := &tmdb.Credits{
		ID:   id,
		Cast: []tmdb.CastMember{{ID: id * 10, Name: title + " Lead", Character: "Lead"}},
		Crew: []tmdb.CrewMember{{ID: id*10 + 1, Name: title + " Director", Job: "Director", Department: "Directing"}},
	}
	return details, credits
}
