package resolve

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mediaporter/mediaporter/pkg/media"
)

// ConsolePrompter asks resolution questions on the terminal.
type ConsolePrompter struct {
	in  *bufio.Scanner
	out io.Writer
}

var _ Prompter = (*ConsolePrompter)(nil)

func NewConsolePrompter() *ConsolePrompter {
	return newConsolePrompter(os.Stdin, os.Stdout)
}

func newConsolePrompter(in io.Reader, out io.Writer) *ConsolePrompter {
	return &ConsolePrompter{in: bufio.NewScanner(in), out: out}
}

func (p *ConsolePrompter) ChooseMatch(ctx context.Context, file *media.File, options []media.QueryMatch) (Decision, error) {
	fmt.Fprintf(p.out, "\n%s\n", file.Filepath)
	if draft := file.Draft(); draft != nil {
		fmt.Fprintf(p.out, "  parsed as %s\n", draft.String())
	}
	for i, option := range options {
		fmt.Fprintf(p.out, "  %2d) %s\n", i+1, option.String())
	}
	fmt.Fprintf(p.out, "  (m)anual entry, (s)kip, (a)bort\n")

	for {
		answer, err := p.ask(ctx, "choice")
		if err != nil {
			return Decision{}, err
		}

		switch strings.ToLower(answer) {
		case "m":
			return Decision{Action: ActionManual}, nil
		case "s":
			return Decision{Action: ActionSkip}, nil
		case "a":
			return Decision{Action: ActionAbort}, nil
		}

		if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(options) {
			return Decision{Action: ActionChoose, Choice: n - 1}, nil
		}
		fmt.Fprintf(p.out, "  unrecognized answer %q\n", answer)
	}
}

func (p *ConsolePrompter) EditDraft(ctx context.Context, draft *media.Draft) (*media.Draft, bool, error) {
	edited := &media.Draft{}
	if draft != nil {
		*edited = *draft
	}

	fmt.Fprintf(p.out, "  empty answers keep the current value\n")

	fields := []struct {
		label string
		value *string
	}{
		{"title", &edited.Title},
		{"year", &edited.Year},
		{"season", &edited.Season},
		{"episode", &edited.Episode},
		{"episode name", &edited.EpisodeName},
	}
	for _, field := range fields {
		answer, err := p.ask(ctx, fmt.Sprintf("%s [%s]", field.label, *field.value))
		if err != nil {
			return nil, false, err
		}
		if answer != "" {
			*field.value = answer
		}
	}

	if edited.Season != "" || edited.Episode != "" {
		edited.Type = media.TypeSeries
	} else {
		edited.Type = media.TypeMovie
	}

	answer, err := p.ask(ctx, "query catalogs again? [Y/n]")
	if err != nil {
		return nil, false, err
	}
	return edited, !strings.EqualFold(answer, "n"), nil
}

func (p *ConsolePrompter) ChooseSeries(ctx context.Context, group string, options []media.Identity) (int, error) {
	fmt.Fprintf(p.out, "\n%s matches several series:\n", filepath.Base(group))
	for i, option := range options {
		fmt.Fprintf(p.out, "  %2d) %s\n", i+1, option.Title)
	}

	for {
		answer, err := p.ask(ctx, "series (empty for no preference)")
		if err != nil {
			return -1, err
		}
		if answer == "" {
			return -1, nil
		}
		if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(options) {
			return n - 1, nil
		}
		fmt.Fprintf(p.out, "  unrecognized answer %q\n", answer)
	}
}

func (p *ConsolePrompter) ask(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fmt.Fprintf(p.out, "%s> ", prompt)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(p.in.Text()), nil
}
