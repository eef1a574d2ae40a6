// Package media holds the canonical identity model shared by filename
// parsing and catalog query results.
package media

import (
	"fmt"
	"strconv"
	"strings"
)

// Type discriminates movie identities from series identities.
type Type int

const (
	TypeMovie Type = iota + 1
	TypeSeries
)

func (t Type) String() string {
	switch t {
	case TypeMovie:
		return "movie"
	case TypeSeries:
		return "series"
	default:
		return "unknown"
	}
}

// Genre tag ids as used by the movie catalog.
const (
	GenreComedy      = 35
	GenreDocumentary = 99
)

// Identity is one identified movie or episode. Season and Episode are kept
// as strings so an absent value is distinguishable from zero; they are only
// converted to numbers when a destination filename is built.
type Identity struct {
	Type        Type
	Title       string
	Year        string
	Season      string
	Episode     string
	EpisodeName string
	Network     string
	FirstAired  string
	SeriesID    string
	MovieID     string
	GenreTags   map[int]struct{}
	// FuzzyScore is negative for exact or unscored identities.
	FuzzyScore int
}

// NewIdentity returns an unscored identity of the given type.
func NewIdentity(t Type) Identity {
	return Identity{
		Type:       t,
		GenreTags:  map[int]struct{}{},
		FuzzyScore: -1,
	}
}

// AddGenres records catalog genre tags on the identity.
func (i *Identity) AddGenres(tags ...int) {
	if i.GenreTags == nil {
		i.GenreTags = map[int]struct{}{}
	}
	for _, t := range tags {
		i.GenreTags[t] = struct{}{}
	}
}

// IsDocumentary reports whether the documentary genre tag is present.
func (i Identity) IsDocumentary() bool {
	_, ok := i.GenreTags[GenreDocumentary]
	return ok
}

// IsComedy reports whether the identity is tagged as stand-up comedy,
// which the catalogs express as comedy plus documentary.
func (i Identity) IsComedy() bool {
	_, comedy := i.GenreTags[GenreComedy]
	_, doc := i.GenreTags[GenreDocumentary]
	return comedy && doc
}

// Same reports identity equality. Two series identities are equal iff
// title, season, episode and episode name all match; two movie identities
// are equal iff title and year match.
func (i Identity) Same(other Identity) bool {
	if i.Type != other.Type {
		return false
	}
	if i.Title != other.Title {
		return false
	}
	if i.Type == TypeSeries {
		return i.Season == other.Season &&
			i.Episode == other.Episode &&
			i.EpisodeName == other.EpisodeName
	}
	return i.Year == other.Year
}

// PadNumber renders a season or episode value as a two digit number when it
// is numeric, otherwise returns it untouched.
func PadNumber(v string) string {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return v
	}
	return fmt.Sprintf("%02d", n)
}

func (i Identity) String() string {
	var b strings.Builder
	if i.Type == TypeSeries {
		b.WriteString("(Series) ")
		b.WriteString(i.Title)
		if i.Network != "" {
			fmt.Fprintf(&b, " (%s)", i.Network)
		}
		switch {
		case i.Season != "" && i.Episode != "":
			fmt.Fprintf(&b, " - S%sE%s", PadNumber(i.Season), PadNumber(i.Episode))
		case i.Season != "":
			fmt.Fprintf(&b, " - S%s", PadNumber(i.Season))
		}
		if i.EpisodeName != "" {
			fmt.Fprintf(&b, ": %s", i.EpisodeName)
		}
	} else {
		b.WriteString("(Movie) ")
		b.WriteString(i.Title)
		if i.Year != "" {
			fmt.Fprintf(&b, " (%s)", i.Year)
		}
	}
	if i.FuzzyScore >= 0 {
		fmt.Fprintf(&b, " (score %d)", i.FuzzyScore)
	}
	return b.String()
}

// Draft is an identity extracted purely from filename and path text,
// unverified against any catalog. Parent carries one level of context
// parsed from the containing directory name; it never nests further.
type Draft struct {
	Identity
	Parent *Draft
	// RawTokens passes through tokenizer output that has no first-class
	// field, keyed by the tokenizer's name for it.
	RawTokens map[string]string
}

// QueryMatch is an identity produced by a catalog lookup. SourceID is the
// backing record id, unique within one source's result set.
type QueryMatch struct {
	Identity
	SourceID string
}
