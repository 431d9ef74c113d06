package viewer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/nfrund/chaosarena/internal/match"
)

// ErrQuit is returned by Exec for the quit command.
var ErrQuit = errors.New("quit")

const consoleHelp = `commands:
  buy <item>              spend on a spawn or a buff
  bet <win|lose> <amount> wager on the current match
  items                   list the catalog
  status                  print the match summary
  quit                    leave the room`

// Console is a line-oriented front end for a Session.
type Console struct {
	session *Session
	out     io.Writer
	p       *message.Printer
}

func NewConsole(s *Session, out io.Writer) *Console {
	return &Console{session: s, out: out, p: message.NewPrinter(language.English)}
}

// Run reads commands from in and prints a summary every interval until the
// session ends, ctx is cancelled or the user quits. Host loss is returned.
func (c *Console) Run(ctx context.Context, in io.Reader, interval time.Duration) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	fmt.Fprintln(c.out, consoleHelp)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.session.Done():
			err := c.session.Err()
			if err != nil {
				fmt.Fprintf(c.out, "disconnected from host: %v\n", err)
			}
			return err
		case <-ticker.C:
			fmt.Fprintln(c.out, c.Summary())
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			reply, err := c.Exec(ctx, line)
			if errors.Is(err, ErrQuit) {
				return nil
			}
			if err != nil {
				fmt.Fprintf(c.out, "error: %v\n", err)
				continue
			}
			if reply != "" {
				fmt.Fprintln(c.out, reply)
			}
		}
	}
}

// Exec runs one command line and returns what to print.
func (c *Console) Exec(ctx context.Context, line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	switch strings.ToLower(fields[0]) {
	case "buy":
		if len(fields) != 2 {
			return "", errors.New("usage: buy <item>")
		}
		if err := c.session.Buy(ctx, fields[1]); err != nil {
			return "", err
		}
		return "purchase sent: " + fields[1], nil

	case "bet":
		if len(fields) != 3 {
			return "", errors.New("usage: bet <win|lose> <amount>")
		}
		amount, err := strconv.Atoi(fields[2])
		if err != nil {
			return "", fmt.Errorf("amount %q is not a number", fields[2])
		}
		side := match.BetSide(strings.ToUpper(fields[1]))
		if err := c.session.Bet(ctx, side, amount); err != nil {
			return "", err
		}
		return c.p.Sprintf("bet sent: $%d on %s", amount, side), nil

	case "items":
		var b strings.Builder
		for _, it := range c.session.Items() {
			b.WriteString(c.p.Sprintf("%-12s %-16s $%5d %s\n", it.ID, it.Name, it.Cost, it.Category))
		}
		return strings.TrimRight(b.String(), "\n"), nil

	case "status":
		return c.Summary(), nil

	case "quit", "exit":
		return "", ErrQuit

	case "help":
		return consoleHelp, nil
	}
	return "", fmt.Errorf("unknown command %q, try help", fields[0])
}

// Summary renders the one-line view of the match.
func (c *Console) Summary() string {
	state, ok := c.session.State()
	if !ok {
		return "waiting for the host..."
	}
	line := c.p.Sprintf("[%s] score %d | hp %d%% | t %.0fs | hostiles %d | viewers %d",
		state.Status, state.Score, state.Avatar.HPPercent(), state.TimeElapsed, len(state.Hostiles), len(state.Viewers))

	me, ok := state.FindViewer(c.session.ID)
	if !ok {
		return line + " | joining..."
	}
	line += c.p.Sprintf(" | you: $%d", me.Balance)
	if me.HasBet() {
		line += c.p.Sprintf(" (bet %s $%d)", me.BetOn, me.BetAmount)
	}
	return line
}
