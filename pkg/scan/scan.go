// Package scan finds the media files to process under the run's input paths.
package scan

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mediaporter/mediaporter/pkg/logger"
	"github.com/mediaporter/mediaporter/pkg/media"
)

var videoExtensions = map[string]struct{}{
	".avi":  {},
	".m2ts": {},
	".m4v":  {},
	".mkv":  {},
	".mov":  {},
	".mp4":  {},
	".mpeg": {},
	".mpg":  {},
	".ts":   {},
	".webm": {},
	".wmv":  {},
}

var subtitleExtensions = map[string]struct{}{
	".ass": {},
	".idx": {},
	".srt": {},
	".ssa": {},
	".sub": {},
}

// minSubtitleSize filters out the tiny junk subtitle files release groups
// ship alongside the real ones.
const minSubtitleSize = 10 * 1024

// Scanner walks input paths and admits the files worth processing: videos,
// plus subtitles big enough to be real.
type Scanner struct {
	fsys fs.FS
	root string
}

// New returns a scanner over the host filesystem.
func New() *Scanner {
	return NewWithFS(os.DirFS("/"), "/")
}

// NewWithFS returns a scanner over fsys; root is prepended to the paths the
// scanner reports and stripped from the inputs it is given.
func NewWithFS(fsys fs.FS, root string) *Scanner {
	return &Scanner{fsys: fsys, root: root}
}

// Scan walks each input, descending into directories, and returns one file
// per admitted path. It returns media.ErrNoMediaFiles when nothing under the
// inputs is admissible.
func (s *Scanner) Scan(ctx context.Context, inputs ...string) ([]*media.File, error) {
	log := logger.FromCtx(ctx, "component", "scanner")

	var files []*media.File
	for _, input := range inputs {
		rel := s.rel(input)

		info, err := fs.Stat(s.fsys, rel)
		if err != nil {
			return nil, fmt.Errorf("scanning input %q: %w", input, err)
		}

		if !info.IsDir() {
			if s.admissible(rel, info.Size()) {
				files = append(files, &media.File{Filepath: s.abs(rel)})
			}
			continue
		}

		err = fs.WalkDir(s.fsys, rel, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				return err
			}
			if s.admissible(path, info.Size()) {
				files = append(files, &media.File{Filepath: s.abs(path)})
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking input %q: %w", input, err)
		}
	}

	if len(files) == 0 {
		return nil, media.ErrNoMediaFiles
	}

	log.Infow("scan finished", "inputs", len(inputs), "files", len(files))
	return files, nil
}

func (s *Scanner) admissible(path string, size int64) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := videoExtensions[ext]; ok {
		return true
	}
	if _, ok := subtitleExtensions[ext]; ok {
		return size >= minSubtitleSize
	}
	return false
}

func (s *Scanner) rel(path string) string {
	if s.root == "" {
		return path
	}
	if rel, err := filepath.Rel(s.root, path); err == nil {
		return rel
	}
	return path
}

func (s *Scanner) abs(path string) string {
	if s.root == "" {
		return path
	}
	return filepath.Join(s.root, path)
}
