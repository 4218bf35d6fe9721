// Package console is a line-oriented transport for local use.
//
// Plain lines are text events. A line starting with "!" presses a button,
// either by action id ("!create", "!edit_phone") or by its number in the
// last shown keyboard ("!2"). "/quit" ends the session.
package console

import (
	"bufio"
	"context"
	"fmt"
	"html"
	"io"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/card"
	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/chat"
	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/engine"
)

// QuitCommand ends Run.
const QuitCommand = "/quit"

const buttonPrefix = "!"

var tagPattern = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)

// Dispatcher handles one event synchronously.
// Implemented by *engine.Dispatcher.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev chat.Event) (chat.Reply, error)
}

// Console reads events from in and renders replies to out for one user.
type Console struct {
	in   io.Reader
	out  io.Writer
	user card.UserID

	mu   sync.Mutex
	last chat.Keyboard
}

// New creates a console session for user.
func New(in io.Reader, out io.Writer, user card.UserID) *Console {
	return &Console{in: in, out: out, user: user}
}

// Run reads lines until EOF, QuitCommand or ctx cancellation. It returns
// the dispatcher's error once the dispatcher has stopped.
func (c *Console) Run(ctx context.Context, d Dispatcher) error {
	sc := bufio.NewScanner(c.in)
	c.prompt()
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := sc.Text()
		if strings.TrimSpace(line) == QuitCommand {
			return nil
		}

		ev, err := c.Parse(line)
		if err != nil {
			fmt.Fprintf(c.out, "! %v\n", err)
			c.prompt()
			continue
		}

		// Handler errors come with a failure notice to show; a stopped
		// dispatcher has no reply at all.
		reply, err := d.Dispatch(ctx, ev)
		if engine.IsStopped(err) {
			return err
		}
		if err := c.Deliver(ctx, ev, reply); err != nil {
			return err
		}
		c.prompt()
	}
	return sc.Err()
}

// Parse turns an input line into an event.
func (c *Console) Parse(line string) (chat.Event, error) {
	raw, ok := strings.CutPrefix(strings.TrimSpace(line), buttonPrefix)
	if !ok {
		return chat.TextEvent(c.user, line), nil
	}
	if raw == "" {
		return chat.Event{}, fmt.Errorf("missing button after %q", buttonPrefix)
	}

	if n, err := strconv.Atoi(raw); err == nil {
		b, ok := c.button(n)
		if !ok {
			return chat.Event{}, fmt.Errorf("no button %d on screen", n)
		}
		if b.URL != "" {
			return chat.Event{}, fmt.Errorf("button %d opens %s", n, b.URL)
		}
		raw = b.Action
	}
	return chat.Event{Kind: chat.EventButton, UserID: c.user, Action: raw}, nil
}

// Deliver renders reply. Implements engine.Sender.
func (c *Console) Deliver(_ context.Context, _ chat.Event, reply chat.Reply) error {
	var b strings.Builder
	switch reply.Kind {
	case chat.ReplyNotice:
		if reply.Urgent {
			b.WriteString("[!] ")
		} else {
			b.WriteString("[i] ")
		}
		b.WriteString(PlainText(reply.Text))
		b.WriteString("\n")
	default:
		b.WriteString(PlainText(reply.Text))
		b.WriteString("\n")
		n := 0
		for _, row := range reply.Keyboard {
			for _, btn := range row {
				n++
				target := btn.Action
				if btn.URL != "" {
					target = btn.URL
				}
				fmt.Fprintf(&b, "  [%d] %s -> %s\n", n, btn.Label, target)
			}
		}
		c.mu.Lock()
		c.last = reply.Keyboard
		c.mu.Unlock()
	}

	_, err := io.WriteString(c.out, b.String())
	return err
}

func (c *Console) button(n int) (chat.Button, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := 0
	for _, row := range c.last {
		for _, b := range row {
			i++
			if i == n {
				return b, true
			}
		}
	}
	return chat.Button{}, false
}

func (c *Console) prompt() {
	fmt.Fprint(c.out, "> ")
}

// PlainText strips the HTML subset used in replies and unescapes entities.
func PlainText(s string) string {
	return html.UnescapeString(tagPattern.ReplaceAllString(s, ""))
}
