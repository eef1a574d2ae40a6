package media

import (
	"sort"
	"strconv"
)

// MatchSet accumulates the exact and fuzzy matches one catalog produced for
// a single file. The same source record id never appears twice within
// either list; later additions with a known id are ignored rather than
// merged so an already accumulated match is never mutated.
type MatchSet struct {
	ExactMatches []QueryMatch
	FuzzyMatches []QueryMatch
}

// AddExact appends matches not already present by source id.
func (s *MatchSet) AddExact(matches ...QueryMatch) {
	s.ExactMatches = appendUnique(s.ExactMatches, matches)
}

// AddFuzzy appends matches not already present by source id.
func (s *MatchSet) AddFuzzy(matches ...QueryMatch) {
	s.FuzzyMatches = appendUnique(s.FuzzyMatches, matches)
}

func appendUnique(existing []QueryMatch, incoming []QueryMatch) []QueryMatch {
	for _, m := range incoming {
		if containsID(existing, m.SourceID) {
			continue
		}
		existing = append(existing, m)
	}
	return existing
}

func containsID(matches []QueryMatch, id string) bool {
	for _, m := range matches {
		if m.SourceID == id {
			return true
		}
	}
	return false
}

// HasMatches reports whether any match of either kind was found.
func (s *MatchSet) HasMatches() bool {
	return len(s.ExactMatches) > 0 || len(s.FuzzyMatches) > 0
}

// SortedFuzzy returns the fuzzy matches ordered for display, descending by
// score then season then episode.
func (s *MatchSet) SortedFuzzy() []QueryMatch {
	sorted := make([]QueryMatch, len(s.FuzzyMatches))
	copy(sorted, s.FuzzyMatches)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.FuzzyScore != b.FuzzyScore {
			return a.FuzzyScore > b.FuzzyScore
		}
		if as, bs := numValue(a.Season), numValue(b.Season); as != bs {
			return as > bs
		}
		return numValue(a.Episode) > numValue(b.Episode)
	})
	return sorted
}

// MaxFuzzy returns the fuzzy matches holding the maximum score.
func (s *MatchSet) MaxFuzzy() []QueryMatch {
	max := -1
	for _, m := range s.FuzzyMatches {
		if m.FuzzyScore > max {
			max = m.FuzzyScore
		}
	}

	var top []QueryMatch
	for _, m := range s.FuzzyMatches {
		if m.FuzzyScore == max {
			top = append(top, m)
		}
	}
	return top
}

func numValue(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return -1
	}
	return n
}
