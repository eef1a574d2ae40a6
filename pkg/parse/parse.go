// Package parse turns a media filename plus its directory context into a
// draft identity ready for catalog lookup.
package parse

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/cehbz/torrentname"

	"github.com/mediaporter/mediaporter/pkg/logger"
	"github.com/mediaporter/mediaporter/pkg/media"
)

// subtitleDirs are directory names that carry no title context; the
// interpreter looks one level further up when it meets one.
var subtitleDirs = map[string]struct{}{
	"subs":      {},
	"subtitles": {},
	"subtitle":  {},
}

// seriesOverrides pins titles whose name-based catalog lookup is known to
// be unreliable to a fixed series record.
var seriesOverrides = map[string]string{
	"the daily show": "71256",
}

// Parse interprets the file at path into a draft identity.
//
// The filename itself is tokenized first. If the immediate parent directory
// is named "season <N>" that number fills a season the filename lacked and
// the grandparent directory supplies the title context; subtitle
// directories are skipped the same way. The draft is a series iff a season
// was resolved from either place.
func Parse(ctx context.Context, path string) *media.Draft {
	log := logger.FromCtx(ctx, "file", filepath.Base(path))

	tokens := tokenize(path, filepath.Base(path))

	contextDir := filepath.Base(filepath.Dir(path))
	parentDir := filepath.Base(filepath.Dir(filepath.Dir(path)))

	if season, ok := seasonFromDir(contextDir); ok {
		if tokens.season == 0 {
			tokens.season = season
		}
		contextDir = parentDir
	} else if _, noise := subtitleDirs[strings.ToLower(contextDir)]; noise {
		contextDir = parentDir
	}

	mediaType := media.TypeMovie
	if tokens.season != 0 {
		mediaType = media.TypeSeries
	}

	draft := tokens.draft(ctx, mediaType)
	if contextDir != "" && contextDir != "." && contextDir != string(filepath.Separator) {
		parent := tokenize(path, contextDir).draft(ctx, mediaType)
		draft.Parent = parent
	}

	applyOverrides(draft)

	log.Debugw("parsed filename", "draft", draft.Identity.String(), "type", mediaType.String())
	return draft
}

// seasonFromDir extracts a season number from directory names like
// "Season 3". Trailing non-digit characters are tolerated; anything the
// remainder can't parse as a number silently disables the heuristic.
func seasonFromDir(dir string) (int, bool) {
	if len(dir) < 6 || !strings.EqualFold(dir[:6], "season") {
		return 0, false
	}

	suffix := strings.TrimSpace(dir[6:])
	suffix = strings.TrimRightFunc(suffix, func(r rune) bool {
		return !unicode.IsDigit(r)
	})

	season, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, false
	}
	return season, true
}

func applyOverrides(draft *media.Draft) {
	for title, seriesID := range seriesOverrides {
		if strings.Contains(strings.ToLower(draft.Title), title) {
			draft.SeriesID = seriesID
		}
	}
}

// tokens is the tokenizer output split into the fields the identity model
// owns and the pass-through remainder.
type tokens struct {
	title   string
	year    int
	season  int
	episode int
	extra   map[string]string
}

// tokenize runs the external release-name tokenizer over one name.
func tokenize(path, name string) tokens {
	info := torrentname.Parse(name)
	if info == nil {
		return tokens{extra: map[string]string{}}
	}

	t := tokens{
		title:  strings.TrimSpace(info.Title),
		year:   info.Year,
		season: info.Season,
		extra:  map[string]string{},
	}
	if len(info.Episodes) > 0 {
		t.episode = info.Episodes[0]
	}

	for key, value := range map[string]string{
		"resolution": info.Resolution,
		"source":     info.Source,
		"codec":      info.Codec,
		"audio":      info.Audio,
		"group":      info.ReleaseGroup,
		"container":  info.Container,
		"language":   info.Language,
		"excess":     info.Unparsed,
	} {
		if value != "" {
			t.extra[key] = value
		}
	}

	return t
}

func (t tokens) draft(ctx context.Context, mediaType media.Type) *media.Draft {
	draft := &media.Draft{
		Identity:  media.NewIdentity(mediaType),
		RawTokens: t.extra,
	}
	draft.Title = t.title
	if t.year != 0 {
		draft.Year = strconv.Itoa(t.year)
	}
	if t.season != 0 {
		draft.Season = strconv.Itoa(t.season)
	}
	if t.episode != 0 {
		draft.Episode = strconv.Itoa(t.episode)
	}

	if len(t.extra) > 0 {
		logger.FromCtx(ctx).Debugw("tokenizer extras retained", "tokens", t.extra)
	}

	return draft
}
