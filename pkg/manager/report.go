package manager

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Report renders the run outcome as text, one block per group.
func Report(groups []*group) string {
	var b strings.Builder
	for i, g := range groups {
		if i > 0 {
			b.WriteString("\n")
		}

		verdict := "ok"
		switch {
		case allSkipped(g.files):
			verdict = "skipped"
		case !succeeded(g.files):
			verdict = "failed"
		}
		fmt.Fprintf(&b, "%s [%s]\n", g.name, verdict)

		for _, f := range g.files {
			switch {
			case f.Success:
				fmt.Fprintf(&b, "  ok      %s -> %s\n", filepath.Base(f.Filepath), f.Destination)
			case f.Skip:
				fmt.Fprintf(&b, "  skipped %s (%s)\n", filepath.Base(f.Filepath), f.FailureReason)
			default:
				fmt.Fprintf(&b, "  failed  %s (%s)\n", filepath.Base(f.Filepath), f.FailureReason)
			}
		}
	}
	return b.String()
}
