// Package console is the terminal front end: it renders encounters as ANSI
// text and reads the player's choices line by line.
package console

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
)

const help = "Enter a move number, w to wait, f to flee, ? for help."

// Console is a combat.Presenter and combat.PlayerStrategy over a line-oriented
// terminal. Input is pumped on a background goroutine so a blocked read never
// outlives a cancelled context.
type Console struct {
	out    io.Writer
	color  bool
	logger *zap.Logger

	mu    sync.Mutex
	lines chan string
	// inErr is set before lines is closed.
	inErr error
}

// New creates a Console reading from in and writing to out. With color false
// every ANSI sequence is stripped before writing.
//
// Precondition: in, out and logger must be non-nil.
func New(in io.Reader, out io.Writer, color bool, logger *zap.Logger) *Console {
	c := &Console{
		out:    out,
		color:  color,
		logger: logger,
		lines:  make(chan string),
	}
	go c.pump(in)
	return c
}

func (c *Console) pump(in io.Reader) {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		c.lines <- strings.TrimSpace(sc.Text())
	}
	err := sc.Err()
	if err == nil {
		err = io.EOF
	}
	c.inErr = err
	close(c.lines)
}

func (c *Console) write(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.color {
		text = StripANSI(text)
	}
	if _, err := io.WriteString(c.out, text); err != nil {
		c.logger.Debug("console write failed", zap.Error(err))
	}
}

// Render implements combat.Presenter.
func (c *Console) Render(snap combat.Snapshot) {
	c.write(RenderSnapshot(snap))
}

// Narrate implements combat.Presenter.
func (c *Console) Narrate(msg string) {
	c.write(Colorize(White, msg) + "\r\n")
}

// Reject implements combat.PlayerStrategy.
func (c *Console) Reject(err error) {
	c.write(Colorize(Red, err.Error()) + "\r\n")
}

// readLine prompts and waits for the next line, ctx cancellation, or end of input.
func (c *Console) readLine(ctx context.Context, prompt string) (string, error) {
	c.write(Colorize(BrightCyan, prompt))
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-c.lines:
		if !ok {
			return "", c.inErr
		}
		return line, nil
	}
}

// ChooseMove implements combat.PlayerStrategy. Unparseable input re-prompts
// without involving the session.
func (c *Console) ChooseMove(ctx context.Context, snap combat.Snapshot) (combat.Choice, error) {
	for {
		line, err := c.readLine(ctx, "> ")
		if err != nil {
			return combat.Choice{}, err
		}
		choice, ok := ParseChoice(line)
		if ok {
			return choice, nil
		}
		if line == "?" || line == "help" {
			c.write(Colorize(Dim, help) + "\r\n")
			continue
		}
		c.write(Colorf(Red, "Unrecognised input %q.", line) + " " + Colorize(Dim, help) + "\r\n")
	}
}

// ChooseTarget implements combat.PlayerStrategy. "b" backs out, which the
// session reports as a rejected selection.
func (c *Console) ChooseTarget(ctx context.Context, _ combat.Snapshot, opts []combat.TargetOption) (int, error) {
	c.write(RenderTargets(opts))
	for {
		line, err := c.readLine(ctx, "target> ")
		if err != nil {
			return 0, err
		}
		if line == "b" || line == "back" {
			return -1, nil
		}
		n, err := strconv.Atoi(line)
		if err == nil && n >= 1 && n <= len(opts) {
			return n - 1, nil
		}
		c.write(Colorf(Red, "Pick a target between 1 and %d, or b to go back.", len(opts)) + "\r\n")
	}
}

// ParseChoice maps one input line to a Choice. Move numbers are 1-based.
//
// Postcondition: ok is false for any line that names no action.
func ParseChoice(line string) (combat.Choice, bool) {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "w", "wait":
		return combat.Choice{Action: combat.ActionWait}, true
	case "f", "flee":
		return combat.Choice{Action: combat.ActionFlee}, true
	}
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || n < 1 {
		return combat.Choice{}, false
	}
	return combat.Choice{Action: combat.ActionCast, Move: n - 1}, true
}

// Banner formats the encounter opening line.
func Banner(player string, enemies []string) string {
	return Colorf(BrightYellow, "%s faces %s!", player, strings.Join(enemies, ", ")) + "\r\n" +
		Colorize(Dim, help) + "\r\n"
}

// Summary formats a finished encounter.
func Summary(res combat.Result) string {
	color := BrightGreen
	switch res.Outcome {
	case combat.OutcomeDefeat:
		color = BrightRed
	case combat.OutcomeFlee:
		color = Yellow
	}
	return Colorf(color, "Encounter over: %s after %d beats (heat x%.2f, %d exp).",
		res.Outcome, res.Beats, res.Heat, res.Experience) + "\r\n"
}

// Print writes preformatted text, stripping color when disabled.
func (c *Console) Print(text string) {
	c.write(text)
}
