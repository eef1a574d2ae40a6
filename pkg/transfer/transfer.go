// Package transfer delivers processed files to their planned destinations,
// either on the local filesystem or to a remote library host over rsync.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/mediaporter/mediaporter/pkg/logger"
	"github.com/mediaporter/mediaporter/pkg/media"
	"github.com/mediaporter/mediaporter/pkg/plan"
)

var commandContext = exec.CommandContext

// Sender delivers one source file to its planned destination.
type Sender interface {
	Send(ctx context.Context, source string, dest plan.Destination) error
}

// New picks the sender for the configured library host. An empty host means
// the library roots are mounted locally.
func New(remoteHost string) Sender {
	if remoteHost == "" {
		return &LocalSender{}
	}
	return &RsyncSender{host: remoteHost}
}

// RsyncSender ships files with rsync. The destination directory is created
// on the remote side by prefixing the remote rsync invocation with mkdir.
type RsyncSender struct {
	host string
}

func (s *RsyncSender) Send(ctx context.Context, source string, dest plan.Destination) error {
	log := logger.FromCtx(ctx, "component", "transfer")

	target := fmt.Sprintf("%s:%s", s.host, dest.Path())
	args := []string{
		"--archive",
		"--partial",
		"--rsync-path", fmt.Sprintf("mkdir -p %q && rsync", dest.Dir),
		source,
		target,
	}

	log.Infow("sending file", "source", source, "target", target)
	cmd := commandContext(ctx, "rsync", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: rsync: %v: %s", media.ErrTransferFailure, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// LocalSender copies files into a locally mounted library. Existing
// destination files are never overwritten.
type LocalSender struct{}

func (s *LocalSender) Send(ctx context.Context, source string, dest plan.Destination) error {
	log := logger.FromCtx(ctx, "component", "transfer")

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", media.ErrTransferFailure, err)
	}

	if err := os.MkdirAll(dest.Dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating destination: %v", media.ErrTransferFailure, err)
	}

	log.Infow("copying file", "source", source, "target", dest.Path())
	if err := copyNoClobber(source, dest.Path()); err != nil {
		return fmt.Errorf("%w: %v", media.ErrTransferFailure, err)
	}
	return nil
}

func copyNoClobber(source, target string) error {
	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("destination already exists: %s", target)
		}
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(target)
		return err
	}
	return out.Close()
}
