// Package torrents coordinates the run with the torrent client: which
// torrent owns a file, and the category bookkeeping that marks torrents as
// in-flight, uploaded or errored.
package torrents

import (
	"context"
	"path/filepath"
	"strings"
)

// Categories the pipeline assigns. A torrent sits in CategoryTransiting
// while its files are being processed and lands in one of the others when
// the run finalizes it.
const (
	CategoryTransiting = "transiting"
	CategoryUploaded   = "uploaded"
	CategoryErrored    = "errored"
)

// Torrent is one entry in the client's torrent list.
type Torrent struct {
	Hash        string  `json:"hash"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	SavePath    string  `json:"save_path"`
	ContentPath string  `json:"content_path"`
	State       string  `json:"state"`
	Size        int64   `json:"size"`
	Progress    float64 `json:"progress"`
}

// Coordinator is the torrent client surface the pipeline needs.
type Coordinator interface {
	List(ctx context.Context) ([]Torrent, error)
	SetCategory(ctx context.Context, category string, hashes ...string) error
	SetLocation(ctx context.Context, location string, hashes ...string) error
	Delete(ctx context.Context, deleteFiles bool, hashes ...string) error
}

// FindForPath matches a file path to the torrent that owns it by walking
// the path elements from the innermost out against the torrent names. The
// element is compared with and without its extension since single-file
// torrents are named after the file.
func FindForPath(list []Torrent, path string) (Torrent, bool) {
	for part := path; part != "." && part != string(filepath.Separator); part = filepath.Dir(part) {
		base := filepath.Base(part)
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		for _, t := range list {
			if t.Name == base || t.Name == stem {
				return t, true
			}
		}
	}
	return Torrent{}, false
}
