package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentityPredicates(t *testing.T) {
	t.Run("documentary", func(t *testing.T) {
		id := NewIdentity(TypeMovie)
		assert.False(t, id.IsDocumentary())

		id.AddGenres(GenreDocumentary)
		assert.True(t, id.IsDocumentary())
		assert.False(t, id.IsComedy())
	})

	t.Run("comedy requires both tags", func(t *testing.T) {
		id := NewIdentity(TypeMovie)
		id.AddGenres(GenreComedy)
		assert.False(t, id.IsComedy())

		id.AddGenres(GenreDocumentary)
		assert.True(t, id.IsComedy())
	})
}

func TestIdentitySame(t *testing.T) {
	movie := NewIdentity(TypeMovie)
	movie.Title = "Dune"
	movie.Year = "2021"

	other := NewIdentity(TypeMovie)
	other.Title = "Dune"
	other.Year = "1984"
	assert.False(t, movie.Same(other))

	other.Year = "2021"
	assert.True(t, movie.Same(other))

	episode := NewIdentity(TypeSeries)
	episode.Title = "Dune"
	episode.Year = "2021"
	assert.False(t, movie.Same(episode), "type mismatch is never equal")

	sameEp := NewIdentity(TypeSeries)
	for _, id := range []*Identity{&episode, &sameEp} {
		id.Title = "The Expanse"
		id.Season = "2"
		id.Episode = "5"
		id.EpisodeName = "Home"
	}
	assert.True(t, episode.Same(sameEp))

	sameEp.EpisodeName = "Away"
	assert.False(t, episode.Same(sameEp))
}

func TestIdentityString(t *testing.T) {
	id := NewIdentity(TypeSeries)
	id.Title = "The Expanse"
	id.Season = "2"
	id.Episode = "5"
	id.EpisodeName = "Home"
	assert.Equal(t, "(Series) The Expanse - S02E05: Home", id.String())

	id.FuzzyScore = 3
	assert.Equal(t, "(Series) The Expanse - S02E05: Home (score 3)", id.String())

	m := NewIdentity(TypeMovie)
	m.Title = "Dune"
	m.Year = "2021"
	assert.Equal(t, "(Movie) Dune (2021)", m.String())

	pack := NewIdentity(TypeSeries)
	pack.Title = "The Wire"
	pack.Season = "3"
	assert.Equal(t, "(Series) The Wire - S03", pack.String())
}

func TestMatchSetDedup(t *testing.T) {
	set := MatchSet{}

	a := QueryMatch{Identity: NewIdentity(TypeMovie), SourceID: "1"}
	b := QueryMatch{Identity: NewIdentity(TypeMovie), SourceID: "2"}

	set.AddExact(a, b)
	set.AddExact(a)
	set.AddExact(b, a)
	assert.Len(t, set.ExactMatches, 2)

	mutated := a
	mutated.Title = "changed"
	set.AddExact(mutated)
	assert.Equal(t, "", set.ExactMatches[0].Title, "existing match must not be mutated")

	set.AddFuzzy(a)
	set.AddFuzzy(a, b)
	assert.Len(t, set.FuzzyMatches, 2)
}

func TestMatchSetSortedFuzzy(t *testing.T) {
	mk := func(id string, score int, season, episode string) QueryMatch {
		m := QueryMatch{Identity: NewIdentity(TypeSeries), SourceID: id}
		m.FuzzyScore = score
		m.Season = season
		m.Episode = episode
		return m
	}

	set := MatchSet{}
	set.AddFuzzy(
		mk("a", 1, "1", "2"),
		mk("b", 3, "2", "1"),
		mk("c", 3, "2", "4"),
		mk("d", 2, "9", "9"),
	)

	sorted := set.SortedFuzzy()
	got := make([]string, 0, len(sorted))
	for _, m := range sorted {
		got = append(got, m.SourceID)
	}
	assert.Equal(t, []string{"c", "b", "d", "a"}, got)
}

func TestFileChosen(t *testing.T) {
	exact := QueryMatch{Identity: NewIdentity(TypeMovie), SourceID: "10"}
	exact.Title = "Dune"

	t.Run("single exact wins regardless of fuzzy", func(t *testing.T) {
		f := &File{}
		f.Matches.AddExact(exact)
		fuzzy := QueryMatch{Identity: NewIdentity(TypeMovie), SourceID: "11"}
		fuzzy.FuzzyScore = 9
		f.Matches.AddFuzzy(fuzzy)

		chosen := f.Chosen()
		assert.NotNil(t, chosen)
		assert.Equal(t, "Dune", chosen.Title)
	})

	t.Run("two exacts stay unresolved", func(t *testing.T) {
		f := &File{}
		second := exact
		second.SourceID = "12"
		f.Matches.AddExact(exact, second)
		assert.Nil(t, f.Chosen())
	})

	t.Run("unique max fuzzy wins", func(t *testing.T) {
		f := &File{}
		low := QueryMatch{Identity: NewIdentity(TypeSeries), SourceID: "1"}
		low.FuzzyScore = 1
		high := QueryMatch{Identity: NewIdentity(TypeSeries), SourceID: "2"}
		high.FuzzyScore = 4
		high.Title = "winner"
		f.Matches.AddFuzzy(low, high)

		chosen := f.Chosen()
		assert.NotNil(t, chosen)
		assert.Equal(t, "winner", chosen.Title)
	})

	t.Run("tied max fuzzy stays unresolved", func(t *testing.T) {
		f := &File{}
		a := QueryMatch{Identity: NewIdentity(TypeSeries), SourceID: "1"}
		a.FuzzyScore = 4
		b := QueryMatch{Identity: NewIdentity(TypeSeries), SourceID: "2"}
		b.FuzzyScore = 4
		f.Matches.AddFuzzy(a, b)
		assert.Nil(t, f.Chosen())
	})

	t.Run("replacing the draft resets the choice", func(t *testing.T) {
		f := &File{}
		f.Matches.AddExact(exact)
		assert.NotNil(t, f.Chosen())

		f.SetDraft(&Draft{Identity: NewIdentity(TypeMovie)})
		f.Matches = MatchSet{}
		assert.Nil(t, f.Chosen())
	})
}
