// Package resolve turns the match sets gathered for a file into a single
// chosen identity. Unambiguous files resolve automatically; the rest walk an
// interactive state machine when a prompter is available and fail otherwise.
package resolve

import (
	"context"

	"github.com/mediaporter/mediaporter/pkg/catalog"
	"github.com/mediaporter/mediaporter/pkg/logger"
	"github.com/mediaporter/mediaporter/pkg/machine"
	"github.com/mediaporter/mediaporter/pkg/media"
)

// State names one step of the interactive resolution flow.
type State string

const (
	StateAwaitingChoice State = "awaiting-choice"
	StateManualEntry    State = "manual-entry"
	StateResolved       State = "resolved"
	StateSkipped        State = "skipped"
	StateAborted        State = "aborted"
)

// Action is what the user asked to do with the file being resolved.
type Action string

const (
	// ActionChoose picks one of the presented matches.
	ActionChoose Action = "choose"
	// ActionManual opens the draft for editing.
	ActionManual Action = "manual"
	// ActionSkip leaves the file alone for this run.
	ActionSkip Action = "skip"
	// ActionAbort stops resolving the remaining files.
	ActionAbort Action = "abort"
)

// Decision is one answer from the prompter.
type Decision struct {
	Action Action
	// Choice indexes the presented options when Action is ActionChoose.
	Choice int
}

// Prompter supplies the human decisions the resolver cannot make itself.
type Prompter interface {
	// ChooseMatch presents the ranked matches for a file and returns the
	// user's decision.
	ChooseMatch(ctx context.Context, file *media.File, options []media.QueryMatch) (Decision, error)
	// EditDraft lets the user adjust the parsed draft. It returns the
	// edited draft (nil when the edit was cancelled) and whether the
	// catalogs should be queried again with it; when requery is false the
	// edited identity is accepted as-is.
	EditDraft(ctx context.Context, draft *media.Draft) (edited *media.Draft, requery bool, err error)
	// ChooseSeries picks one series for a whole file group. A negative
	// index means no preference.
	ChooseSeries(ctx context.Context, group string, options []media.Identity) (int, error)
}

// Resolver identifies files against the catalogs and drives ambiguous ones
// through the interactive flow.
type Resolver struct {
	movies   catalog.Query
	series   catalog.Query
	prompter Prompter
}

type Option func(*Resolver)

// WithPrompter makes the resolver interactive. Without it every ambiguous
// file fails with an insufficient-identity reason.
func WithPrompter(p Prompter) Option {
	return func(r *Resolver) { r.prompter = p }
}

func New(movies, series catalog.Query, opts ...Option) *Resolver {
	r := &Resolver{movies: movies, series: series}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Identify queries the catalogs for the file's draft and stores the result
// on the file. The draft's type picks the primary source; the other source
// is consulted only when the primary finds nothing.
func (r *Resolver) Identify(ctx context.Context, file *media.File) {
	log := logger.FromCtx(ctx, "component", "resolver")

	draft := file.Draft()
	if draft == nil {
		log.Warnw("cannot identify file without a draft", "file", file.Filepath)
		file.Matches = media.MatchSet{}
		return
	}

	primary, secondary := r.movies, r.series
	if draft.Type == media.TypeSeries {
		primary, secondary = r.series, r.movies
	}

	file.Matches = primary.Query(ctx, draft)
	if !file.Matches.HasMatches() {
		log.Debugw("primary catalog found nothing, trying the other one", "file", file.Filepath)
		file.Matches = secondary.Query(ctx, draft)
	}
}

// Resolve drives one file to a terminal state. It returns media.ErrAborted
// when the user aborted; every other outcome is recorded on the file.
func (r *Resolver) Resolve(ctx context.Context, file *media.File) error {
	log := logger.FromCtx(ctx, "component", "resolver")

	if chosen := file.Chosen(); chosen != nil {
		log.Infow("resolved automatically", "file", file.Filepath, "identity", chosen.String())
		return nil
	}

	if r.prompter == nil {
		log.Warnw("ambiguous identity and no prompter",
			"file", file.Filepath,
			"exact", len(file.Matches.ExactMatches),
			"fuzzy", len(file.Matches.FuzzyMatches))
		file.Fail(media.ErrInsufficientIdentity.Error())
		return nil
	}

	m := machine.New(StateAwaitingChoice,
		machine.From(StateAwaitingChoice).To(StateManualEntry, StateResolved, StateSkipped, StateAborted),
		machine.From(StateManualEntry).To(StateAwaitingChoice, StateResolved, StateSkipped, StateAborted),
	)

	for {
		switch m.Current() {
		case StateAwaitingChoice:
			if err := r.awaitChoice(ctx, file, m); err != nil {
				return err
			}
		case StateManualEntry:
			if err := r.manualEntry(ctx, file, m); err != nil {
				return err
			}
		case StateResolved:
			log.Infow("resolved by user", "file", file.Filepath, "identity", file.Chosen().String())
			return nil
		case StateSkipped:
			file.Skip = true
			file.Fail("skipped by user")
			return nil
		case StateAborted:
			return media.ErrAborted
		}
	}
}

func (r *Resolver) awaitChoice(ctx context.Context, file *media.File, m *machine.StateMachine[State]) error {
	options := RankedMatches(file.Matches)

	decision, err := r.prompter.ChooseMatch(ctx, file, options)
	if err != nil {
		return err
	}

	switch decision.Action {
	case ActionChoose:
		if decision.Choice < 0 || decision.Choice >= len(options) {
			// out-of-range answers just re-prompt
			return nil
		}
		file.Choose(options[decision.Choice].Identity)
		return m.Transition(StateResolved)
	case ActionManual:
		return m.Transition(StateManualEntry)
	case ActionSkip:
		return m.Transition(StateSkipped)
	case ActionAbort:
		return m.Transition(StateAborted)
	}
	return nil
}

func (r *Resolver) manualEntry(ctx context.Context, file *media.File, m *machine.StateMachine[State]) error {
	edited, requery, err := r.prompter.EditDraft(ctx, file.Draft())
	if err != nil {
		return err
	}
	if edited == nil {
		return m.Transition(StateAwaitingChoice)
	}

	file.SetDraft(edited)
	if !requery {
		file.Choose(edited.Identity)
		return m.Transition(StateResolved)
	}

	r.Identify(ctx, file)
	if file.Chosen() != nil {
		return m.Transition(StateResolved)
	}
	return m.Transition(StateAwaitingChoice)
}

// PreemptSeries settles which series a whole file group belongs to before
// the files are resolved one by one. When the group's matches span more
// than one distinct series the user picks once; the choice is pushed into
// every unresolved member draft and the members are identified again.
func (r *Resolver) PreemptSeries(ctx context.Context, group string, files []*media.File) error {
	if r.prompter == nil {
		return nil
	}

	log := logger.FromCtx(ctx, "component", "resolver")

	candidates := distinctSeries(files)
	if len(candidates) <= 1 {
		return nil
	}

	log.Infow("file group matches multiple series", "group", group, "series", len(candidates))
	idx, err := r.prompter.ChooseSeries(ctx, group, candidates)
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(candidates) {
		return nil
	}
	chosen := candidates[idx]

	for _, file := range files {
		draft := file.Draft()
		if draft == nil || draft.Type != media.TypeSeries {
			continue
		}
		draft.SeriesID = chosen.SeriesID
		draft.Title = chosen.Title
		file.SetDraft(draft)
		r.Identify(ctx, file)
	}
	return nil
}

// RankedMatches orders a match set for display: exact matches first, then
// fuzzy matches by descending score.
func RankedMatches(set media.MatchSet) []media.QueryMatch {
	options := make([]media.QueryMatch, 0, len(set.ExactMatches)+len(set.FuzzyMatches))
	options = append(options, set.ExactMatches...)
	options = append(options, set.SortedFuzzy()...)
	return options
}

// distinctSeries returns one identity per distinct series id across every
// match of every file, in first-seen order.
func distinctSeries(files []*media.File) []media.Identity {
	var series []media.Identity
	seen := map[string]struct{}{}

	add := func(matches []media.QueryMatch) {
		for _, match := range matches {
			if match.Type != media.TypeSeries || match.SeriesID == "" {
				continue
			}
			if _, ok := seen[match.SeriesID]; ok {
				continue
			}
			seen[match.SeriesID] = struct{}{}
			series = append(series, match.Identity)
		}
	}

	for _, file := range files {
		add(file.Matches.ExactMatches)
		add(file.Matches.FuzzyMatches)
	}
	return series
}
