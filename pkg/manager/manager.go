// Package manager drives a run end to end: scan the inputs, identify and
// resolve every file, deliver the resolved ones and settle the torrent
// bookkeeping afterwards.
package manager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/google/uuid"

	"github.com/mediaporter/mediaporter/pkg/logger"
	"github.com/mediaporter/mediaporter/pkg/media"
	"github.com/mediaporter/mediaporter/pkg/notify"
	"github.com/mediaporter/mediaporter/pkg/plan"
	"github.com/mediaporter/mediaporter/pkg/torrents"
	"github.com/mediaporter/mediaporter/pkg/transfer"
)

// Scanner finds the files to process under the input paths.
type Scanner interface {
	Scan(ctx context.Context, inputs ...string) ([]*media.File, error)
}

// ParseFunc interprets one filename into a draft identity.
type ParseFunc func(ctx context.Context, path string) *media.Draft

// Resolver identifies files against the catalogs and settles ambiguity.
type Resolver interface {
	Identify(ctx context.Context, file *media.File)
	Resolve(ctx context.Context, file *media.File) error
	PreemptSeries(ctx context.Context, group string, files []*media.File) error
}

// Planner derives the destination of a resolved identity.
type Planner interface {
	Plan(ctx context.Context, id media.Identity, originalName string) (plan.Destination, bool)
}

// Notifier mails the run summary after non-interactive runs.
type Notifier interface {
	SendSummaries(ctx context.Context, runID string, groups []notify.GroupSummary) error
}

// Options tune a run. The category lists refer to the categories torrents
// had before the run touched them.
type Options struct {
	Interactive bool
	ForceDelete bool

	DeleteAfterUpload []string
	SkipUpdate        []string
	SkipUpload        []string

	CompletedDir string
	ErroredDir   string
}

type Manager struct {
	scanner  Scanner
	parse    ParseFunc
	resolver Resolver
	planner  Planner
	sender   transfer.Sender

	coordinator torrents.Coordinator
	notifier    Notifier

	opts Options
}

type Option func(*Manager)

// WithCoordinator enables torrent mode: files are mapped to the torrents
// that own them and the torrents are recategorized as the run progresses.
func WithCoordinator(c torrents.Coordinator) Option {
	return func(m *Manager) { m.coordinator = c }
}

// WithNotifier enables the mailed run summary for non-interactive runs.
func WithNotifier(n Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

func New(scanner Scanner, parse ParseFunc, resolver Resolver, planner Planner, sender transfer.Sender, opts Options, options ...Option) *Manager {
	m := &Manager{
		scanner:  scanner,
		parse:    parse,
		resolver: resolver,
		planner:  planner,
		sender:   sender,
		opts:     opts,
	}
	for _, o := range options {
		o(m)
	}
	return m
}

// group is the unit of preemption, finalization and notification: the files
// of one torrent, or of one directory for files no torrent owns.
type group struct {
	name    string
	torrent *torrents.Torrent
	files   []*media.File
}

// Run processes every admissible file under the inputs. Per-file failures
// are recorded and do not stop the run; it returns an error when the scan
// fails or when any file ends up failed.
func (m *Manager) Run(ctx context.Context, inputs ...string) error {
	runID := uuid.NewString()
	log := logger.Get().With("run", runID)
	ctx = logger.WithCtx(ctx, log)

	files, err := m.scanner.Scan(ctx, inputs...)
	if err != nil {
		return err
	}

	var torrentList []torrents.Torrent
	if m.coordinator != nil {
		torrentList, err = m.coordinator.List(ctx)
		if err != nil {
			return fmt.Errorf("listing torrents: %w", err)
		}
	}

	files = m.admit(ctx, files, torrentList)
	if len(files) == 0 {
		return media.ErrNoMediaFiles
	}

	groups := groupFiles(files)
	m.markTransiting(ctx, files)

	aborted := false
	for _, g := range groups {
		if aborted {
			abortFiles(g.files)
			continue
		}
		aborted = m.processGroup(ctx, g)
	}

	m.finalize(ctx, groups)

	if !m.opts.Interactive && m.notifier != nil {
		if err := m.notifier.SendSummaries(ctx, runID, summaries(groups)); err != nil {
			log.Errorw("failed to send run summaries", "error", err)
		}
	}

	log.Info("run finished\n" + Report(groups))

	if failed := failedCount(files); failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	return nil
}

// admit attaches torrent bookkeeping to the scanned files and drops the
// ones this run must not touch.
func (m *Manager) admit(ctx context.Context, files []*media.File, torrentList []torrents.Torrent) []*media.File {
	log := logger.FromCtx(ctx)

	if m.coordinator == nil {
		return files
	}

	admitted := files[:0]
	for _, f := range files {
		t, ok := torrents.FindForPath(torrentList, f.Filepath)
		if !ok {
			admitted = append(admitted, f)
			continue
		}

		if t.Category == torrents.CategoryTransiting {
			log.Infow("skipping file already in transit", "file", f.Filepath, "torrent", t.Name)
			continue
		}
		if !m.opts.Interactive && slices.Contains(m.opts.SkipUpload, t.Category) {
			log.Infow("skipping file in a skip-upload category", "file", f.Filepath, "category", t.Category)
			continue
		}

		f.TorrentHash = t.Hash
		f.TorrentName = t.Name
		f.OriginalCategory = t.Category
		admitted = append(admitted, f)
	}
	return admitted
}

func groupFiles(files []*media.File) []*group {
	var groups []*group
	index := map[string]*group{}

	for _, f := range files {
		key, name := f.TorrentHash, f.TorrentName
		if key == "" {
			key = "dir:" + filepath.Dir(f.Filepath)
			name = filepath.Base(filepath.Dir(f.Filepath))
		}

		g, ok := index[key]
		if !ok {
			g = &group{name: name}
			index[key] = g
			groups = append(groups, g)
		}
		g.files = append(g.files, f)
	}

	for _, g := range groups {
		if hash := g.files[0].TorrentHash; hash != "" {
			g.torrent = &torrents.Torrent{
				Hash:     hash,
				Name:     g.files[0].TorrentName,
				Category: g.files[0].OriginalCategory,
			}
		}
	}
	return groups
}

// markTransiting parks every involved torrent in the transiting category so
// concurrent runs leave it alone. Skip-update torrents are never touched.
func (m *Manager) markTransiting(ctx context.Context, files []*media.File) {
	if m.coordinator == nil {
		return
	}
	log := logger.FromCtx(ctx)

	var hashes []string
	for _, f := range files {
		if f.TorrentHash == "" || slices.Contains(m.opts.SkipUpdate, f.OriginalCategory) {
			continue
		}
		if !slices.Contains(hashes, f.TorrentHash) {
			hashes = append(hashes, f.TorrentHash)
		}
	}

	if err := m.coordinator.SetCategory(ctx, torrents.CategoryTransiting, hashes...); err != nil {
		log.Errorw("failed to mark torrents transiting", "error", err)
	}
}

// processGroup runs one group through identification, resolution and
// delivery. It reports whether the user aborted.
func (m *Manager) processGroup(ctx context.Context, g *group) bool {
	for _, f := range g.files {
		f.SetDraft(m.parse(ctx, f.Filepath))
		m.resolver.Identify(ctx, f)
	}

	if m.opts.Interactive {
		if err := m.resolver.PreemptSeries(ctx, g.name, g.files); err != nil {
			abortFiles(g.files)
			return true
		}
	}

	aborted := false
	for _, f := range g.files {
		if aborted {
			abortFile(f)
			continue
		}
		if err := m.resolver.Resolve(ctx, f); err != nil {
			if !errors.Is(err, media.ErrAborted) {
				f.Fail(err.Error())
				continue
			}
			aborted = true
			abortFile(f)
			continue
		}
		if f.Skip || f.FailureReason != "" {
			continue
		}
		m.deliver(ctx, f)
	}
	return aborted
}

func (m *Manager) deliver(ctx context.Context, f *media.File) {
	chosen := f.Chosen()
	if chosen == nil {
		f.Fail(media.ErrInsufficientIdentity.Error())
		return
	}

	dest, ok := m.planner.Plan(ctx, *chosen, filepath.Base(f.Filepath))
	if !ok {
		f.Fail(media.ErrPlanningFailure.Error())
		return
	}

	if err := m.sender.Send(ctx, f.Filepath, dest); err != nil {
		f.Fail(err.Error())
		return
	}

	f.Success = true
	f.Destination = dest.Path()
}

// finalize settles each torrent with the client based on how its files
// fared. Torrents whose files were all skipped get their original category
// back.
func (m *Manager) finalize(ctx context.Context, groups []*group) {
	if m.coordinator == nil {
		return
	}
	log := logger.FromCtx(ctx)

	for _, g := range groups {
		if g.torrent == nil || slices.Contains(m.opts.SkipUpdate, g.torrent.Category) {
			continue
		}
		hash := g.torrent.Hash

		var err error
		switch {
		case allSkipped(g.files):
			err = m.coordinator.SetCategory(ctx, g.torrent.Category, hash)
		case succeeded(g.files):
			if m.opts.ForceDelete || slices.Contains(m.opts.DeleteAfterUpload, g.torrent.Category) {
				err = m.coordinator.Delete(ctx, true, hash)
				break
			}
			if err = m.coordinator.SetCategory(ctx, torrents.CategoryUploaded, hash); err != nil {
				break
			}
			if m.opts.CompletedDir != "" {
				err = m.coordinator.SetLocation(ctx, m.opts.CompletedDir, hash)
			}
		default:
			if err = m.coordinator.SetCategory(ctx, torrents.CategoryErrored, hash); err != nil {
				break
			}
			if m.opts.ErroredDir != "" {
				err = m.coordinator.SetLocation(ctx, m.opts.ErroredDir, hash)
			}
		}
		if err != nil {
			log.Errorw("failed to finalize torrent", "torrent", g.torrent.Name, "error", err)
		}
	}
}

func summaries(groups []*group) []notify.GroupSummary {
	out := make([]notify.GroupSummary, 0, len(groups))
	for _, g := range groups {
		summary := notify.GroupSummary{Name: g.name}
		for _, f := range g.files {
			outcome := notify.FileOutcome{
				Path:        f.Filepath,
				Destination: f.Destination,
				Success:     f.Success,
				Skipped:     f.Skip,
				Reason:      f.FailureReason,
			}
			if info, err := os.Stat(f.Filepath); err == nil {
				outcome.Size = info.Size()
			}
			summary.Files = append(summary.Files, outcome)
		}
		out = append(out, summary)
	}
	return out
}

func abortFiles(files []*media.File) {
	for _, f := range files {
		abortFile(f)
	}
}

func abortFile(f *media.File) {
	if f.Success || f.Skip || f.FailureReason != "" {
		return
	}
	f.Skip = true
	f.Fail("aborted by user")
}

func allSkipped(files []*media.File) bool {
	for _, f := range files {
		if !f.Skip {
			return false
		}
	}
	return true
}

// succeeded reports whether every non-skipped file in the group delivered.
func succeeded(files []*media.File) bool {
	for _, f := range files {
		if !f.Skip && !f.Success {
			return false
		}
	}
	return true
}

func failedCount(files []*media.File) int {
	n := 0
	for _, f := range files {
		if !f.Success && !f.Skip {
			n++
		}
	}
	return n
}
