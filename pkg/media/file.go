package media

// File tracks one media file through the pipeline. All state lives for the
// duration of a single run; nothing is persisted.
type File struct {
	Filepath string

	// TorrentHash and TorrentName are set when the file was admitted as
	// part of a torrent, used to group files and update the client later.
	TorrentHash string
	TorrentName string
	// OriginalCategory is the torrent category before the run marked it
	// transiting, restored if processing does not finish cleanly.
	OriginalCategory string

	draft   *Draft
	Matches MatchSet
	chosen  *Identity

	Success       bool
	Skip          bool
	FailureReason string
	// Destination is where the file was delivered when Success is set.
	Destination string
}

// Draft returns the parsed draft identity, or nil before interpretation.
func (f *File) Draft() *Draft {
	return f.draft
}

// SetDraft replaces the draft and invalidates any previously chosen
// identity, since it was derived from the old draft's matches.
func (f *File) SetDraft(d *Draft) {
	f.chosen = nil
	f.draft = d
}

// Choose records the resolved identity for the file.
func (f *File) Choose(id Identity) {
	chosen := id
	f.chosen = &chosen
}

// Chosen returns the resolved identity. When none was set explicitly it
// applies the automatic resolution rule: a single exact match wins, else a
// unique fuzzy match holding the maximum score wins, else nothing.
func (f *File) Chosen() *Identity {
	if f.chosen != nil {
		return f.chosen
	}

	if len(f.Matches.ExactMatches) == 1 {
		f.Choose(f.Matches.ExactMatches[0].Identity)
		return f.chosen
	}

	if top := f.Matches.MaxFuzzy(); len(top) == 1 {
		f.Choose(top[0].Identity)
		return f.chosen
	}

	return nil
}

// Fail marks the file unsuccessful with a reason for the run summary.
func (f *File) Fail(reason string) {
	f.Success = false
	f.FailureReason = reason
}
