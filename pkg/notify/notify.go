// Package notify mails a summary of a finished run, one message per file
// group, for runs nobody was watching interactively.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/mediaporter/mediaporter/pkg/logger"
)

// Config holds the SMTP settings for the summary mail.
type Config struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	To       string `mapstructure:"to"`
}

func (c Config) Enabled() bool {
	return c.Host != "" && c.To != ""
}

// FileOutcome is one processed file in the summary.
type FileOutcome struct {
	Path        string
	Destination string
	Size        int64
	Success     bool
	Skipped     bool
	Reason      string
}

// GroupSummary is the outcome of one file group, usually a torrent.
type GroupSummary struct {
	Name  string
	Files []FileOutcome
}

// Succeeded reports whether every non-skipped file in the group made it.
func (g GroupSummary) Succeeded() bool {
	for _, f := range g.Files {
		if !f.Skipped && !f.Success {
			return false
		}
	}
	return true
}

// Mailer sends run summaries over SMTP.
type Mailer struct {
	cfg      Config
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func New(cfg Config) *Mailer {
	return &Mailer{cfg: cfg, sendMail: smtp.SendMail}
}

// SendSummaries mails one message per group. Groups that fail to send are
// logged and skipped; the first send error is returned after all groups
// were attempted.
func (m *Mailer) SendSummaries(ctx context.Context, runID string, groups []GroupSummary) error {
	log := logger.FromCtx(ctx, "component", "notify")

	if !m.cfg.Enabled() {
		log.Debug("notifications not configured, skipping run summary")
		return nil
	}

	var firstErr error
	for _, group := range groups {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg := m.message(runID, group)
		addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

		var auth smtp.Auth
		if m.cfg.Username != "" {
			auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		}

		if err := m.sendMail(addr, auth, m.cfg.From, []string{m.cfg.To}, msg); err != nil {
			log.Errorw("failed to send run summary", "group", group.Name, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		log.Infow("sent run summary", "group", group.Name, "files", len(group.Files))
	}
	return firstErr
}

func (m *Mailer) message(runID string, group GroupSummary) []byte {
	verdict := "uploaded"
	if !group.Succeeded() {
		verdict = "failed"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", m.cfg.To)
	fmt.Fprintf(&b, "Subject: %s %s\r\n", group.Name, verdict)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "run %s\r\n\r\n", runID)
	for _, f := range group.Files {
		fmt.Fprintf(&b, "%-7s %s (%s)\r\n", statusWord(f), filepath.Base(f.Path), humanize.Bytes(uint64(f.Size)))
		switch {
		case f.Success && f.Destination != "":
			fmt.Fprintf(&b, "        -> %s\r\n", f.Destination)
		case f.Reason != "":
			fmt.Fprintf(&b, "        %s\r\n", f.Reason)
		}
	}
	return []byte(b.String())
}

func statusWord(f FileOutcome) string {
	switch {
	case f.Skipped:
		return "skipped"
	case f.Success:
		return "ok"
	default:
		return "failed"
	}
}
