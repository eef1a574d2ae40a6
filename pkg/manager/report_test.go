package manager

import (
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/mediaporter/mediaporter/pkg/media"
)

func TestReport(t *testing.T) {
	groups := []*group{
		{
			name: "Dune.2021.1080p",
			files: []*media.File{
				{
					Filepath:    "/dl/Dune.2021.1080p/dune.mkv",
					Success:     true,
					Destination: "/library/movies/Dune (2021)/dune.mkv",
				},
			},
		},
		{
			name: "The.Wire.S03",
			files: []*media.File{
				{
					Filepath:    "/dl/The.Wire.S03/e04.mkv",
					Success:     true,
					Destination: "/library/tv/The Wire/Season 3/The Wire - S03E04 - Amsterdam.mkv",
				},
				{
					Filepath:      "/dl/The.Wire.S03/e05.mkv",
					FailureReason: "insufficient information to identify media",
				},
				{
					Filepath:      "/dl/The.Wire.S03/e06.mkv",
					Skip:          true,
					FailureReason: "skipped by user",
				},
			},
		},
		{
			name: "Private.Release",
			files: []*media.File{
				{
					Filepath:      "/dl/Private.Release/p.mkv",
					Skip:          true,
					FailureReason: "aborted by user",
				},
			},
		},
	}

	snaps.MatchSnapshot(t, Report(groups))
}
