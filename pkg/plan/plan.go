// Package plan derives the library destination of a resolved identity: which
// root it files under, the directory inside that root and the final filename.
package plan

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mediaporter/mediaporter/pkg/logger"
	"github.com/mediaporter/mediaporter/pkg/media"
	"github.com/mediaporter/mediaporter/pkg/sanitize"
)

// Roots are the library roots destinations are planned under. Comedies and
// documentaries file separately from the general movie and TV roots.
type Roots struct {
	Movies             string `mapstructure:"movies" validate:"required"`
	Comedies           string `mapstructure:"comedies" validate:"required"`
	DocumentarySingles string `mapstructure:"documentary_singles" validate:"required"`
	TV                 string `mapstructure:"tv" validate:"required"`
	DocumentarySeries  string `mapstructure:"documentary_series" validate:"required"`
}

type Planner struct {
	roots Roots
}

func New(roots Roots) *Planner {
	return &Planner{roots: roots}
}

// Destination is a fully planned target path.
type Destination struct {
	Dir      string
	Filename string
}

func (d Destination) Path() string {
	return filepath.Join(d.Dir, d.Filename)
}

// Plan builds the destination for an identity. originalName is the source
// file's name, used for the movie filename and the extension. It returns
// false when the identity is missing a field the destination needs.
func (p *Planner) Plan(ctx context.Context, id media.Identity, originalName string) (Destination, bool) {
	log := logger.FromCtx(ctx, "component", "planner")

	var dest Destination
	var ok bool
	switch id.Type {
	case media.TypeMovie:
		dest, ok = p.movieDestination(id, originalName)
	case media.TypeSeries:
		dest, ok = p.seriesDestination(id, originalName)
	}

	if !ok {
		log.Warnw("identity not plannable", "identity", id.String())
		return Destination{}, false
	}

	log.Debugw("planned destination", "identity", id.String(), "path", dest.Path())
	return dest, true
}

func (p *Planner) movieDestination(id media.Identity, originalName string) (Destination, bool) {
	if id.Title == "" || id.Year == "" {
		return Destination{}, false
	}

	root := p.roots.Movies
	switch {
	case id.IsComedy():
		root = p.roots.Comedies
	case id.IsDocumentary():
		root = p.roots.DocumentarySingles
	}

	return Destination{
		Dir:      filepath.Join(root, sanitize.Clean(fmt.Sprintf("%s (%s)", id.Title, id.Year))),
		Filename: sanitize.Clean(filepath.Base(originalName)),
	}, true
}

func (p *Planner) seriesDestination(id media.Identity, originalName string) (Destination, bool) {
	if id.Title == "" || id.EpisodeName == "" {
		return Destination{}, false
	}
	season, err := strconv.Atoi(id.Season)
	if err != nil {
		return Destination{}, false
	}
	if _, err := strconv.Atoi(id.Episode); err != nil {
		return Destination{}, false
	}

	root := p.roots.TV
	if id.IsDocumentary() {
		root = p.roots.DocumentarySeries
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	filename := fmt.Sprintf("%s - S%sE%s - %s%s",
		id.Title, media.PadNumber(id.Season), media.PadNumber(id.Episode), id.EpisodeName, ext)

	return Destination{
		Dir: filepath.Join(root,
			sanitize.Clean(id.Title),
			sanitize.Clean(fmt.Sprintf("Season %d", season))),
		Filename: sanitize.Clean(filename),
	}, true
}
