package resolve

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediaporter/mediaporter/pkg/media"
)

func scriptedConsole(input string) (*ConsolePrompter, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return newConsolePrompter(strings.NewReader(input), out), out
}

// stubQuery returns a canned match set and counts how often it was asked.
type stubQuery struct {
	set   media.MatchSet
	calls int
}

func (s *stubQuery) Query(_ context.Context, _ *media.Draft) media.MatchSet {
	s.calls++
	return s.set
}

// scriptedPrompter replays canned answers in order.
type scriptedPrompter struct {
	decisions []Decision
	edits     []scriptedEdit
	series    int
}

type scriptedEdit struct {
	draft   *media.Draft
	requery bool
}

func (p *scriptedPrompter) ChooseMatch(_ context.Context, _ *media.File, _ []media.QueryMatch) (Decision, error) {
	d := p.decisions[0]
	p.decisions = p.decisions[1:]
	return d, nil
}

func (p *scriptedPrompter) EditDraft(_ context.Context, _ *media.Draft) (*media.Draft, bool, error) {
	e := p.edits[0]
	p.edits = p.edits[1:]
	return e.draft, e.requery, nil
}

func (p *scriptedPrompter) ChooseSeries(_ context.Context, _ string, _ []media.Identity) (int, error) {
	return p.series, nil
}

func movieMatchFor(t *testing.T, title, year, id string) media.QueryMatch {
	t.Helper()
	identity := media.NewIdentity(media.TypeMovie)
	identity.Title = title
	identity.Year = year
	identity.MovieID = id
	return media.QueryMatch{Identity: identity, SourceID: id}
}

func episodeMatchFor(t *testing.T, seriesID, title, season, episode string, score int) media.QueryMatch {
	t.Helper()
	identity := media.NewIdentity(media.TypeSeries)
	identity.Title = title
	identity.SeriesID = seriesID
	identity.Season = season
	identity.Episode = episode
	identity.FuzzyScore = score
	return media.QueryMatch{Identity: identity, SourceID: seriesID + "/" + season + "/" + episode}
}

func fileWithMatches(typ media.Type, set media.MatchSet) *media.File {
	f := &media.File{Filepath: "/in/some.file.mkv"}
	f.SetDraft(&media.Draft{Identity: media.NewIdentity(typ)})
	f.Matches = set
	return f
}

func TestIdentifyPrecedence(t *testing.T) {
	ctx := context.Background()
	exact := media.MatchSet{}
	exact.AddExact(movieMatchFor(t, "Dune", "2021", "1"))

	t.Run("movie drafts ask the movie catalog first", func(t *testing.T) {
		movies := &stubQuery{set: exact}
		series := &stubQuery{}
		r := New(movies, series)

		f := fileWithMatches(media.TypeMovie, media.MatchSet{})
		r.Identify(ctx, f)

		assert.Equal(t, 1, movies.calls)
		assert.Equal(t, 0, series.calls)
		assert.True(t, f.Matches.HasMatches())
	})

	t.Run("series drafts ask the series catalog first", func(t *testing.T) {
		movies := &stubQuery{}
		series := &stubQuery{set: exact}
		r := New(movies, series)

		f := fileWithMatches(media.TypeSeries, media.MatchSet{})
		r.Identify(ctx, f)

		assert.Equal(t, 0, movies.calls)
		assert.Equal(t, 1, series.calls)
	})

	t.Run("falls through to the other catalog when the primary is empty", func(t *testing.T) {
		movies := &stubQuery{}
		series := &stubQuery{set: exact}
		r := New(movies, series)

		f := fileWithMatches(media.TypeMovie, media.MatchSet{})
		r.Identify(ctx, f)

		assert.Equal(t, 1, movies.calls)
		assert.Equal(t, 1, series.calls)
		assert.True(t, f.Matches.HasMatches())
	})

	t.Run("file without a draft gets an empty set", func(t *testing.T) {
		movies := &stubQuery{set: exact}
		r := New(movies, &stubQuery{})

		f := &media.File{Filepath: "/in/x.mkv"}
		r.Identify(ctx, f)

		assert.Equal(t, 0, movies.calls)
		assert.False(t, f.Matches.HasMatches())
	})
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("single exact match resolves without prompting", func(t *testing.T) {
		set := media.MatchSet{}
		set.AddExact(movieMatchFor(t, "Dune", "2021", "1"))
		f := fileWithMatches(media.TypeMovie, set)

		r := New(&stubQuery{}, &stubQuery{})
		require.NoError(t, r.Resolve(ctx, f))

		require.NotNil(t, f.Chosen())
		assert.Equal(t, "Dune", f.Chosen().Title)
	})

	t.Run("ambiguity without a prompter fails the file", func(t *testing.T) {
		set := media.MatchSet{}
		set.AddExact(movieMatchFor(t, "Dune", "2021", "1"))
		set.AddExact(movieMatchFor(t, "Dune", "1984", "2"))
		f := fileWithMatches(media.TypeMovie, set)

		r := New(&stubQuery{}, &stubQuery{})
		require.NoError(t, r.Resolve(ctx, f))

		assert.Nil(t, f.Chosen())
		assert.False(t, f.Success)
		assert.Equal(t, media.ErrInsufficientIdentity.Error(), f.FailureReason)
	})

	t.Run("user picks one of the ranked matches", func(t *testing.T) {
		set := media.MatchSet{}
		set.AddExact(movieMatchFor(t, "Dune", "2021", "1"))
		set.AddExact(movieMatchFor(t, "Dune", "1984", "2"))
		f := fileWithMatches(media.TypeMovie, set)

		p := &scriptedPrompter{decisions: []Decision{{Action: ActionChoose, Choice: 1}}}
		r := New(&stubQuery{}, &stubQuery{}, WithPrompter(p))
		require.NoError(t, r.Resolve(ctx, f))

		require.NotNil(t, f.Chosen())
		assert.Equal(t, "1984", f.Chosen().Year)
	})

	t.Run("out of range choice prompts again", func(t *testing.T) {
		set := media.MatchSet{}
		set.AddExact(movieMatchFor(t, "Dune", "2021", "1"))
		set.AddExact(movieMatchFor(t, "Dune", "1984", "2"))
		f := fileWithMatches(media.TypeMovie, set)

		p := &scriptedPrompter{decisions: []Decision{
			{Action: ActionChoose, Choice: 7},
			{Action: ActionChoose, Choice: 0},
		}}
		r := New(&stubQuery{}, &stubQuery{}, WithPrompter(p))
		require.NoError(t, r.Resolve(ctx, f))

		require.NotNil(t, f.Chosen())
		assert.Equal(t, "2021", f.Chosen().Year)
		assert.Empty(t, p.decisions)
	})

	t.Run("skip marks the file skipped", func(t *testing.T) {
		f := fileWithMatches(media.TypeMovie, media.MatchSet{})

		p := &scriptedPrompter{decisions: []Decision{{Action: ActionSkip}}}
		r := New(&stubQuery{}, &stubQuery{}, WithPrompter(p))
		require.NoError(t, r.Resolve(ctx, f))

		assert.True(t, f.Skip)
		assert.Equal(t, "skipped by user", f.FailureReason)
	})

	t.Run("abort surfaces the sentinel", func(t *testing.T) {
		f := fileWithMatches(media.TypeMovie, media.MatchSet{})

		p := &scriptedPrompter{decisions: []Decision{{Action: ActionAbort}}}
		r := New(&stubQuery{}, &stubQuery{}, WithPrompter(p))
		assert.ErrorIs(t, r.Resolve(ctx, f), media.ErrAborted)
	})

	t.Run("manual entry accepted directly", func(t *testing.T) {
		f := fileWithMatches(media.TypeMovie, media.MatchSet{})

		edited := &media.Draft{Identity: media.NewIdentity(media.TypeMovie)}
		edited.Title = "Stalker"
		edited.Year = "1979"

		p := &scriptedPrompter{
			decisions: []Decision{{Action: ActionManual}},
			edits:     []scriptedEdit{{draft: edited, requery: false}},
		}
		r := New(&stubQuery{}, &stubQuery{}, WithPrompter(p))
		require.NoError(t, r.Resolve(ctx, f))

		require.NotNil(t, f.Chosen())
		assert.Equal(t, "Stalker", f.Chosen().Title)
		assert.Equal(t, "1979", f.Chosen().Year)
	})

	t.Run("manual entry with requery resolves from the new matches", func(t *testing.T) {
		f := fileWithMatches(media.TypeMovie, media.MatchSet{})

		set := media.MatchSet{}
		set.AddExact(movieMatchFor(t, "Stalker", "1979", "9"))
		movies := &stubQuery{set: set}

		edited := &media.Draft{Identity: media.NewIdentity(media.TypeMovie)}
		edited.Title = "Stalker"

		p := &scriptedPrompter{
			decisions: []Decision{{Action: ActionManual}},
			edits:     []scriptedEdit{{draft: edited, requery: true}},
		}
		r := New(movies, &stubQuery{}, WithPrompter(p))
		require.NoError(t, r.Resolve(ctx, f))

		require.NotNil(t, f.Chosen())
		assert.Equal(t, "9", f.Chosen().MovieID)
		assert.Equal(t, 1, movies.calls)
	})

	t.Run("cancelled edit returns to the match list", func(t *testing.T) {
		set := media.MatchSet{}
		set.AddExact(movieMatchFor(t, "Dune", "2021", "1"))
		set.AddExact(movieMatchFor(t, "Dune", "1984", "2"))
		f := fileWithMatches(media.TypeMovie, set)

		p := &scriptedPrompter{
			decisions: []Decision{{Action: ActionManual}, {Action: ActionChoose, Choice: 0}},
			edits:     []scriptedEdit{{draft: nil}},
		}
		r := New(&stubQuery{}, &stubQuery{}, WithPrompter(p))
		require.NoError(t, r.Resolve(ctx, f))

		require.NotNil(t, f.Chosen())
		assert.Equal(t, "2021", f.Chosen().Year)
	})
}

func TestRankedMatches(t *testing.T) {
	set := media.MatchSet{}
	set.AddFuzzy(episodeMatchFor(t, "1", "Show", "1", "2", 1))
	set.AddFuzzy(episodeMatchFor(t, "1", "Show", "1", "3", 4))
	set.AddExact(episodeMatchFor(t, "1", "Show", "2", "5", -1))

	ranked := RankedMatches(set)
	require.Len(t, ranked, 3)
	assert.Equal(t, "2", ranked[0].Season)
	assert.Equal(t, 4, ranked[1].FuzzyScore)
	assert.Equal(t, 1, ranked[2].FuzzyScore)
}

func TestPreemptSeries(t *testing.T) {
	ctx := context.Background()

	groupFiles := func() []*media.File {
		setA := media.MatchSet{}
		setA.AddExact(episodeMatchFor(t, "10", "Taboo", "1", "1", -1))
		setA.AddExact(episodeMatchFor(t, "20", "Taboo Tales", "1", "1", -1))

		setB := media.MatchSet{}
		setB.AddExact(episodeMatchFor(t, "10", "Taboo", "1", "2", -1))
		setB.AddExact(episodeMatchFor(t, "20", "Taboo Tales", "1", "2", -1))

		return []*media.File{
			fileWithMatches(media.TypeSeries, setA),
			fileWithMatches(media.TypeSeries, setB),
		}
	}

	t.Run("pushes the chosen series into every member draft", func(t *testing.T) {
		files := groupFiles()
		narrowed := media.MatchSet{}
		narrowed.AddExact(episodeMatchFor(t, "10", "Taboo", "1", "1", -1))
		series := &stubQuery{set: narrowed}

		p := &scriptedPrompter{series: 0}
		r := New(&stubQuery{}, series, WithPrompter(p))
		require.NoError(t, r.PreemptSeries(ctx, "Taboo.S01", files))

		assert.Equal(t, 2, series.calls)
		for _, f := range files {
			assert.Equal(t, "10", f.Draft().SeriesID)
			assert.Equal(t, "Taboo", f.Draft().Title)
			require.NotNil(t, f.Chosen())
		}
	})

	t.Run("no preference leaves the drafts alone", func(t *testing.T) {
		files := groupFiles()
		series := &stubQuery{}

		p := &scriptedPrompter{series: -1}
		r := New(&stubQuery{}, series, WithPrompter(p))
		require.NoError(t, r.PreemptSeries(ctx, "Taboo.S01", files))

		assert.Equal(t, 0, series.calls)
		assert.Empty(t, files[0].Draft().SeriesID)
	})

	t.Run("single series needs no prompt", func(t *testing.T) {
		set := media.MatchSet{}
		set.AddExact(episodeMatchFor(t, "10", "Taboo", "1", "1", -1))
		files := []*media.File{fileWithMatches(media.TypeSeries, set)}

		series := &stubQuery{}
		r := New(&stubQuery{}, series, WithPrompter(&scriptedPrompter{series: 0}))
		require.NoError(t, r.PreemptSeries(ctx, "Taboo.S01", files))
		assert.Equal(t, 0, series.calls)
	})

	t.Run("non-interactive preemption is a no-op", func(t *testing.T) {
		files := groupFiles()
		r := New(&stubQuery{}, &stubQuery{})
		require.NoError(t, r.PreemptSeries(ctx, "Taboo.S01", files))
		assert.Empty(t, files[0].Draft().SeriesID)
	})
}

func TestConsolePrompter(t *testing.T) {
	ctx := context.Background()

	t.Run("numbered answer chooses a match", func(t *testing.T) {
		p, out := scriptedConsole("2\n")
		set := media.MatchSet{}
		set.AddExact(movieMatchFor(t, "Dune", "2021", "1"))
		set.AddExact(movieMatchFor(t, "Dune", "1984", "2"))
		f := fileWithMatches(media.TypeMovie, set)

		d, err := p.ChooseMatch(ctx, f, RankedMatches(set))
		require.NoError(t, err)
		assert.Equal(t, Decision{Action: ActionChoose, Choice: 1}, d)
		assert.Contains(t, out.String(), "Dune")
	})

	t.Run("letters map to actions after a retry", func(t *testing.T) {
		p, _ := scriptedConsole("bogus\ns\n")
		d, err := p.ChooseMatch(ctx, &media.File{}, nil)
		require.NoError(t, err)
		assert.Equal(t, ActionSkip, d.Action)
	})

	t.Run("edit keeps blank fields and flips the type", func(t *testing.T) {
		p, _ := scriptedConsole("The Wire\n\n3\n4\n\n\n")
		draft := &media.Draft{Identity: media.NewIdentity(media.TypeMovie)}
		draft.Year = "2004"

		edited, requery, err := p.EditDraft(ctx, draft)
		require.NoError(t, err)
		assert.True(t, requery)
		assert.Equal(t, "The Wire", edited.Title)
		assert.Equal(t, "2004", edited.Year)
		assert.Equal(t, "3", edited.Season)
		assert.Equal(t, "4", edited.Episode)
		assert.Equal(t, media.TypeSeries, edited.Type)
	})

	t.Run("empty series answer means no preference", func(t *testing.T) {
		p, _ := scriptedConsole("\n")
		idx, err := p.ChooseSeries(ctx, "group", nil)
		require.NoError(t, err)
		assert.Equal(t, -1, idx)
	})
}
