package catalog

import (
	"context"
	"strconv"
	"strings"

	"github.com/mediaporter/mediaporter/pkg/catalog/tmdb"
	"github.com/mediaporter/mediaporter/pkg/media"
)

// MovieSource resolves drafts against the movie catalog.
type MovieSource struct {
	client *tmdb.Client
}

func NewMovieSource(client *tmdb.Client) *MovieSource {
	return &MovieSource{client: client}
}

var _ Query = (*MovieSource)(nil)

// Query looks the draft up by, in order of precedence, an explicit movie id
// override, a title plus year search, then a title-only search when the
// previous level returned nothing. Candidates whose normalized title equals
// the queried title are exact matches; the rest are kept as fuzzy matches
// when token overlap gives them a positive score. Later precedence levels
// are skipped once an exact match is found.
func (s *MovieSource) Query(ctx context.Context, draft *media.Draft) media.MatchSet {
	log := logFor(ctx, "movie-catalog")
	set := media.MatchSet{}

	if draft == nil {
		log.Error("query aborted, draft is nil")
		return set
	}

	log.Info("starting movie catalog query")
	defer log.Info("finished movie catalog query")

	if draft.MovieID != "" {
		movie, err := s.client.GetMovie(ctx, draft.MovieID)
		if err != nil {
			log.Warnw("movie id override lookup failed", "movieID", draft.MovieID, "error", err)
		} else {
			set.AddExact(movieMatch(*movie))
			return set
		}
	}

	if draft.Title == "" {
		log.Error("query aborted, draft has no title")
		return set
	}

	results := s.search(ctx, draft.Title, draft.Year)
	if len(results) == 0 && draft.Year != "" {
		results = s.search(ctx, draft.Title, "")
	}

	s.classify(ctx, &set, draft, results)
	return set
}

func (s *MovieSource) search(ctx context.Context, title, year string) []tmdb.Movie {
	log := logFor(ctx, "movie-catalog")

	results, err := s.client.SearchMovies(ctx, title, year)
	if err != nil {
		log.Warnw("movie search failed", "title", title, "year", year, "error", err)
		return nil
	}

	log.Debugw("movie search results", "title", title, "year", year, "count", len(results))
	return results
}

// classify splits candidates into exact and fuzzy matches against the
// queried draft.
func (s *MovieSource) classify(ctx context.Context, set *media.MatchSet, draft *media.Draft, candidates []tmdb.Movie) {
	log := logFor(ctx, "movie-catalog")

	searchTokens := Tokenize(strings.Join([]string{draft.Title, tokenText(draft, "group"), tokenText(draft, "excess")}, " "))

	for _, movie := range candidates {
		if TitlesEqual(movie.Title, draft.Title) {
			set.AddExact(movieMatch(movie))
			continue
		}

		if len(searchTokens) == 0 {
			// nothing to score against, degrade to no match
			continue
		}

		score := OverlapScore(searchTokens, movie.Title, movie.ReleaseDate)
		if score <= 0 {
			continue
		}

		match := movieMatch(movie)
		match.FuzzyScore = score
		set.AddFuzzy(match)
		log.Debugw("fuzzy movie match", "title", movie.Title, "score", score)
	}
}

func movieMatch(movie tmdb.Movie) media.QueryMatch {
	id := media.NewIdentity(media.TypeMovie)
	id.Title = movie.Title
	id.Year = movie.Year()
	id.MovieID = strconv.Itoa(movie.ID)
	id.AddGenres(movie.GenreTagIDs()...)

	return media.QueryMatch{
		Identity: id,
		SourceID: strconv.Itoa(movie.ID),
	}
}

func tokenText(draft *media.Draft, key string) string {
	if draft.RawTokens == nil {
		return ""
	}
	return draft.RawTokens[key]
}
