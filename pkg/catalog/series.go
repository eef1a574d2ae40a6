package catalog

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/mediaporter/mediaporter/pkg/catalog/tvdb"
	"github.com/mediaporter/mediaporter/pkg/media"
)

// DefaultMaxSeriesWorkers bounds concurrent episode sub-queries so a draft
// matching many candidate series doesn't flood the catalog.
const DefaultMaxSeriesWorkers = 30

// SeriesSource resolves drafts against the series catalog in two phases:
// first the candidate series records, then the episode within each
// candidate.
type SeriesSource struct {
	client     *tvdb.Client
	maxWorkers int
}

func NewSeriesSource(client *tvdb.Client) *SeriesSource {
	return &SeriesSource{client: client, maxWorkers: DefaultMaxSeriesWorkers}
}

var _ Query = (*SeriesSource)(nil)

func (s *SeriesSource) Query(ctx context.Context, draft *media.Draft) media.MatchSet {
	log := logFor(ctx, "series-catalog")
	set := media.MatchSet{}

	if draft == nil {
		log.Error("query aborted, draft is nil")
		return set
	}

	log.Info("starting series catalog query")
	defer log.Info("finished series catalog query")

	candidates, exactCandidates := s.collectSeries(ctx, draft)
	if len(candidates) == 0 {
		log.Debug("no candidate series found")
		return set
	}

	// prefer candidates whose name matched the draft exactly; fall back to
	// the full set only when none of them yields an episode
	for _, list := range [][]tvdb.Series{exactCandidates, candidates} {
		if len(list) == 0 {
			continue
		}

		collector := newMatchCollector()
		if draft.Season != "" && draft.Episode != "" {
			s.fanOut(list, func(series tvdb.Series) {
				s.episodesByNumber(ctx, series, draft, collector)
			})
		}

		if len(collector.set.ExactMatches) == 0 {
			searchTokens := freeTextTokens(draft)
			s.fanOut(list, func(series tvdb.Series) {
				s.episodesByTitle(ctx, series, searchTokens, collector)
			})
		}

		if collector.set.HasMatches() {
			set = collector.set
			break
		}
	}

	return set
}

// collectSeries gathers distinct candidate series records for the draft.
// A candidate is an exact series candidate when its catalog name equals the
// draft's title or the parent draft's title, ignoring case.
func (s *SeriesSource) collectSeries(ctx context.Context, draft *media.Draft) (candidates, exact []tvdb.Series) {
	log := logFor(ctx, "series-catalog")

	if draft.SeriesID != "" {
		series, err := s.client.GetSeries(ctx, draft.SeriesID)
		if err != nil {
			log.Warnw("series id override lookup failed", "seriesID", draft.SeriesID, "error", err)
		} else {
			log.Debugw("found series for id override", "series", series.SeriesName)
			candidates = appendSeries(candidates, *series)
		}
	}

	titles := []struct{ title, year string }{{draft.Title, draft.Year}}
	if draft.Parent != nil {
		titles = append(titles, struct{ title, year string }{draft.Parent.Title, draft.Parent.Year})
	}

	if len(candidates) == 0 {
		for _, t := range titles {
			var results []tvdb.Series
			if t.title != "" && t.year != "" {
				results = s.search(ctx, t.title+" "+t.year)
				candidates = appendSeries(candidates, results...)
			}
			if t.title != "" && len(results) == 0 {
				candidates = appendSeries(candidates, s.search(ctx, t.title)...)
			}
		}
	}

	for _, series := range candidates {
		for _, t := range titles {
			if t.title != "" && strings.EqualFold(series.SeriesName, t.title) {
				exact = appendSeries(exact, series)
				break
			}
		}
	}

	log.Debugw("candidate series collected", "total", len(candidates), "exact", len(exact))
	return candidates, exact
}

func (s *SeriesSource) search(ctx context.Context, name string) []tvdb.Series {
	log := logFor(ctx, "series-catalog")

	results, err := s.client.SearchSeries(ctx, name)
	if err != nil {
		log.Debugw("series search returned nothing", "name", name, "error", err)
		return nil
	}

	log.Debugw("series search results", "name", name, "count", len(results))
	return results
}

// episodesByNumber queries one candidate series for the draft's exact
// (season, episode) pair; every record it returns is an exact match.
func (s *SeriesSource) episodesByNumber(ctx context.Context, series tvdb.Series, draft *media.Draft, collector *matchCollector) {
	log := logFor(ctx, "series-catalog")

	episodes, err := s.client.QueryEpisodes(ctx, series.ID, draft.Season, draft.Episode)
	if err != nil {
		log.Debugw("episode number query returned nothing",
			"series", series.SeriesName, "season", draft.Season, "episode", draft.Episode, "error", err)
		return
	}

	for _, episode := range episodes {
		collector.addExact(episodeMatch(series, episode, -1))
	}
}

// episodesByTitle scores every episode of one candidate series against the
// draft's free text tokens.
func (s *SeriesSource) episodesByTitle(ctx context.Context, series tvdb.Series, searchTokens []string, collector *matchCollector) {
	log := logFor(ctx, "series-catalog")

	if len(searchTokens) == 0 {
		return
	}

	episodes, err := s.client.AllEpisodes(ctx, series.ID)
	if err != nil {
		log.Debugw("episode list fetch failed", "series", series.SeriesName, "error", err)
		return
	}

	for _, episode := range episodes {
		if episode.EpisodeName == "" {
			continue
		}

		score := OverlapScore(searchTokens, episode.EpisodeName, episode.FirstAired)
		if score <= 0 {
			continue
		}

		log.Debugw("fuzzy episode match",
			"series", series.SeriesName, "episode", episode.EpisodeName, "score", score)
		collector.addFuzzy(episodeMatch(series, episode, score))
	}
}

// fanOut runs fn once per series on a bounded worker pool and joins before
// returning.
func (s *SeriesSource) fanOut(list []tvdb.Series, fn func(tvdb.Series)) {
	workers := s.maxWorkers
	if workers <= 0 {
		workers = DefaultMaxSeriesWorkers
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for _, series := range list {
		wg.Add(1)
		sem <- struct{}{}
		go func(series tvdb.Series) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(series)
		}(series)
	}
	wg.Wait()
}

// matchCollector serializes concurrent additions from pool workers; dedup
// by source record id happens inside the MatchSet under the lock.
type matchCollector struct {
	mu  sync.Mutex
	set media.MatchSet
}

func newMatchCollector() *matchCollector {
	return &matchCollector{}
}

func (c *matchCollector) addExact(m media.QueryMatch) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set.AddExact(m)
}

func (c *matchCollector) addFuzzy(m media.QueryMatch) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set.AddFuzzy(m)
}

func episodeMatch(series tvdb.Series, episode tvdb.Episode, score int) media.QueryMatch {
	id := media.NewIdentity(media.TypeSeries)
	id.Title = series.SeriesName
	id.SeriesID = strconv.Itoa(series.ID)
	id.Network = series.Network
	id.Season = strconv.Itoa(episode.AiredSeason)
	id.Episode = strconv.Itoa(episode.AiredEpisodeNumber)
	id.EpisodeName = episode.EpisodeName
	id.FirstAired = episode.FirstAired
	id.FuzzyScore = score

	return media.QueryMatch{
		Identity: id,
		SourceID: strconv.Itoa(episode.ID),
	}
}

// freeTextTokens gathers the draft fields that may carry episode title
// fragments: the parsed title, episode name and the tokenizer's group and
// excess leftovers.
func freeTextTokens(draft *media.Draft) []string {
	parts := []string{draft.Title, draft.EpisodeName, tokenText(draft, "group"), tokenText(draft, "excess")}
	return Tokenize(strings.Join(parts, " "))
}

func appendSeries(existing []tvdb.Series, incoming ...tvdb.Series) []tvdb.Series {
	for _, s := range incoming {
		found := false
		for _, e := range existing {
			if e.ID == s.ID {
				found = true
				break
			}
		}
		if !found {
			existing = append(existing, s)
		}
	}
	return existing
}
