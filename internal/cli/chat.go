package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/teller"
	"github.com/aretw0/teller/internal/presentation/tui"
	"github.com/aretw0/teller/pkg/domain"
	"github.com/aretw0/teller/pkg/input"
	"github.com/dustin/go-humanize/english"
	"github.com/google/uuid"
	"golang.org/x/term"
)

const greeting = "Hello! I can check balances and transactions, block or activate cards, " +
	"help with loans and credit limits, and answer banking questions. How can I help?"

// ChatOptions configures an interactive session.
type ChatOptions struct {
	UserID    string
	SessionID string // generated when empty
	Plain     bool   // no banner, no markdown rendering
	In        io.Reader
	Out       io.Writer
	Logger    *slog.Logger
}

// RunChat reads customer messages line by line until EOF, "exit" or a
// signal, printing one reply per message.
func RunChat(ctx context.Context, assistant *teller.Assistant, opts ChatOptions) error {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.SessionID == "" {
		opts.SessionID = uuid.NewString()
	}

	render := tui.Renderer(tui.Plain)
	if !opts.Plain && isTerminal(opts.Out) {
		tui.PrintBanner(opts.Out, teller.Version)
		width := 0
		if f, ok := opts.Out.(*os.File); ok {
			if w, _, err := term.GetSize(int(f.Fd())); err == nil {
				width = w - 4
			}
		}
		if r, err := tui.NewRenderer(width); err == nil {
			render = r
		} else if opts.Logger != nil {
			opts.Logger.Warn("Markdown renderer unavailable", "err", err)
		}
	}

	existing, _, err := assistant.History(ctx, opts.SessionID)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if len(existing) > 0 {
		printSystemMessage(opts.Out, "Resuming session '%s' (%s).", opts.SessionID, pluralTurns(len(existing)))
	} else {
		printSystemMessage(opts.Out, "Session '%s' active.", opts.SessionID)
		show(opts.Out, render, greeting)
	}

	scanner := bufio.NewScanner(NewInterruptibleReader(opts.In, ctx.Done()))
	for {
		fmt.Fprint(opts.Out, "> ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				fmt.Fprintln(opts.Out)
				return handleExecutionError(err)
			}
			fmt.Fprintln(opts.Out)
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			printSystemMessage(opts.Out, "Goodbye!")
			return nil
		case "/history":
			if err := printMemory(ctx, opts.Out, assistant, opts.SessionID); err != nil {
				return err
			}
			continue
		}

		message, err := input.Sanitize(line)
		if err != nil {
			printSystemMessage(opts.Out, "Invalid input: %v", err)
			continue
		}

		resp, err := assistant.ProcessTurn(ctx, opts.UserID, opts.SessionID, message)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("error processing message: %w", err)
		}
		show(opts.Out, render, resp.Response)
		if resp.RequiresSelection {
			printOptions(opts.Out, resp.Options)
		}
	}
}

func show(w io.Writer, render tui.Renderer, text string) {
	out, err := render(text)
	if err != nil {
		out = text + "\n"
	}
	fmt.Fprint(w, out)
}

func printOptions(w io.Writer, options []domain.Option) {
	for i, o := range options {
		fmt.Fprintf(w, "  %d. %s [%s]\n", i+1, o.Text, o.ID)
	}
}

func printMemory(ctx context.Context, w io.Writer, assistant *teller.Assistant, sessionID string) error {
	turns, mem, err := assistant.History(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	printSystemMessage(w, "%s so far.", pluralTurns(len(turns)))
	if len(mem.TopicsDiscussed) > 0 {
		printSystemMessage(w, "Topics: %s", strings.Join(mem.TopicsDiscussed, ", "))
	}
	if len(mem.TasksCompleted) > 0 {
		printSystemMessage(w, "Completed: %s", strings.Join(mem.TasksCompleted, ", "))
	}
	return nil
}

func pluralTurns(n int) string {
	return english.Plural(n, "turn", "")
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
