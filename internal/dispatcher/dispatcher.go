// Package dispatcher turns incoming chat messages into command invocations.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/keshon/commando/internal/argument"
	"github.com/keshon/commando/internal/chat"
	"github.com/keshon/commando/internal/command"
)

// Inhibitor may stop a message before its command runs. A blocked message
// publishes commandBlocked with reason and replies response when it is not empty.
type Inhibitor func(m *command.Message) (reason command.BlockReason, response string, blocked bool)

type Options struct {
	// CommandEditableDuration is how long an edited trigger re-runs its command.
	// Zero disables edit handling.
	CommandEditableDuration time.Duration
	// NonCommandEditable lets messages that were not commands become one when edited.
	NonCommandEditable bool
	// UnknownCommandResponse replies to prefixed words that are not commands.
	UnknownCommandResponse bool
	GuildBlacklist         []string
}

type result struct {
	msg     *command.Message
	expires time.Time
}

// Dispatcher parses messages, runs the matching command and remembers the
// invocation so an edit of the trigger updates its responses.
type Dispatcher struct {
	backend command.Backend
	reg     *command.Registry
	opts    Options
	now     func() time.Time

	mu         sync.Mutex
	inhibitors []Inhibitor
	patterns   map[string]*regexp.Regexp
	results    map[string]result
}

func New(backend command.Backend, reg *command.Registry, opts Options) *Dispatcher {
	return &Dispatcher{
		backend:  backend,
		reg:      reg,
		opts:     opts,
		now:      time.Now,
		patterns: make(map[string]*regexp.Regexp),
		results:  make(map[string]result),
	}
}

// AddInhibitor registers fn and returns a func that removes it.
func (d *Dispatcher) AddInhibitor(fn Inhibitor) (remove func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.inhibitors = append(d.inhibitors, fn)
	idx := len(d.inhibitors) - 1
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if idx < len(d.inhibitors) {
			d.inhibitors[idx] = nil
		}
	}
}

// HandleMessage processes a new message, or an edit when old is the previous
// version of msg.
func (d *Dispatcher) HandleMessage(ctx context.Context, msg, old *chat.Message) error {
	if !d.shouldHandle(msg, old) {
		return nil
	}

	var prev *command.Message
	if old != nil {
		prev = d.cached(msg.ID)
		if prev == nil && !d.opts.NonCommandEditable {
			return nil
		}
	}

	m := d.parse(ctx, msg)
	if m == nil {
		if prev != nil {
			prev.Finalize(ctx, nil)
			if !d.opts.NonCommandEditable {
				d.forget(msg.ID)
			}
		}
		return nil
	}
	if prev != nil {
		m.Inherit(prev)
	}

	var err error
	if reason, response, blocked := d.inhibit(m); blocked {
		d.backend.Events().Publish(command.Event{Type: command.EventCommandBlocked, Message: m, Reason: reason})
		if response != "" {
			_, err = m.Reply(ctx, response)
		}
	} else if m.Command == nil {
		d.backend.Events().Publish(command.Event{Type: command.EventUnknownCommand, Message: m})
		if d.opts.UnknownCommandResponse {
			_, err = m.Reply(ctx, fmt.Sprintf("Unknown command. Use %s to view the list of all commands.", d.helpUsage(m)))
		}
	} else {
		err = m.Run(ctx)
	}

	m.Finalize(ctx, m.Produced())
	d.remember(msg.ID, m)
	if err != nil {
		return fmt.Errorf("dispatch %s: %w", msg.ID, err)
	}
	return nil
}

func (d *Dispatcher) shouldHandle(msg, old *chat.Message) bool {
	if msg.Author.Bot || msg.Author.ID == d.backend.Chat().Self().ID {
		return false
	}
	if msg.GuildID != "" && slices.Contains(d.opts.GuildBlacklist, msg.GuildID) {
		return false
	}
	key := argument.Key{AuthorID: msg.Author.ID, ChannelID: msg.ChannelID}
	if aw := d.backend.Awaiting(); aw.Has(key) {
		if old == nil {
			aw.Deliver(key, msg.Content)
		}
		return false
	}
	return old == nil || old.Content != msg.Content
}

func (d *Dispatcher) inhibit(m *command.Message) (command.BlockReason, string, bool) {
	d.mu.Lock()
	inhibitors := slices.Clone(d.inhibitors)
	d.mu.Unlock()
	for _, fn := range inhibitors {
		if fn == nil {
			continue
		}
		if reason, response, blocked := fn(m); blocked {
			return reason, response, true
		}
	}
	return "", "", false
}

func (d *Dispatcher) helpUsage(m *command.Message) string {
	if m.Channel.IsDM() {
		return command.AnyUsage("help", "", nil)
	}
	return m.AnyUsage("help")
}

// parse returns the invocation msg triggers, a Message without command for an
// unknown prefixed word, or nil when msg is not aimed at the bot.
func (d *Dispatcher) parse(ctx context.Context, msg *chat.Message) *command.Message {
	channel, err := d.backend.Chat().Channel(ctx, msg.ChannelID)
	if err != nil && !errors.Is(err, chat.ErrNotFound) {
		log.Warnf("[Dispatcher] resolve channel %s: %v", msg.ChannelID, err)
	}

	for _, c := range d.reg.Commands() {
		for _, p := range c.Info().Patterns {
			if matches := p.FindStringSubmatch(msg.Content); matches != nil {
				return command.NewMessage(d.backend, msg, channel, c, "", matches)
			}
		}
	}

	if m := d.matchDefault(msg, channel, d.commandPattern(d.backend.Prefix(msg.GuildID)), false); m != nil {
		return m
	}
	if msg.GuildID == "" {
		return d.matchDefault(msg, channel, bareWord, true)
	}
	return nil
}

var bareWord = regexp.MustCompile(`^(\s*)(\S+)`)

func (d *Dispatcher) matchDefault(msg *chat.Message, channel *chat.Channel, pattern *regexp.Regexp, prefixless bool) *command.Message {
	loc := pattern.FindStringSubmatchIndex(msg.Content)
	if loc == nil {
		return nil
	}
	name := msg.Content[loc[4]:loc[5]]
	found := d.reg.FindCommands(name, true)
	if len(found) != 1 || found[0].Info().NoDefaultHandling {
		if prefixless {
			return nil
		}
		return command.NewMessage(d.backend, msg, channel, nil, msg.Content[loc[4]:], nil)
	}
	return command.NewMessage(d.backend, msg, channel, found[0], msg.Content[loc[5]:], nil)
}

// commandPattern matches a leading mention or prefix followed by the command
// name. An empty prefix accepts mentions only.
func (d *Dispatcher) commandPattern(prefix string) *regexp.Regexp {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.patterns[prefix]; ok {
		return p
	}

	self := regexp.QuoteMeta(d.backend.Chat().Self().ID)
	var p *regexp.Regexp
	if prefix != "" {
		escaped := regexp.QuoteMeta(prefix)
		p = regexp.MustCompile(`(?i)^(<@!?` + self + `>\s+(?:` + escaped + `\s*)?|` + escaped + `\s*)(\S+)`)
	} else {
		p = regexp.MustCompile(`(?i)^(<@!?` + self + `>\s+)(\S+)`)
	}
	d.patterns[prefix] = p
	return p
}

func (d *Dispatcher) cached(id string) *command.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.results[id]
	if !ok || !d.now().Before(r.expires) {
		delete(d.results, id)
		return nil
	}
	return r.msg
}

func (d *Dispatcher) remember(id string, m *command.Message) {
	if d.opts.CommandEditableDuration <= 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if r, ok := d.results[id]; ok && d.now().Before(r.expires) {
		r.msg = m
		d.results[id] = r
		return
	}
	d.results[id] = result{msg: m, expires: d.now().Add(d.opts.CommandEditableDuration)}
}

func (d *Dispatcher) forget(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.results, id)
}

// Sweep drops cached invocations whose edit window has passed.
func (d *Dispatcher) Sweep() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	removed := 0
	for id, r := range d.results {
		if !now.Before(r.expires) {
			delete(d.results, id)
			removed++
		}
	}
	return removed
}

// Cached returns how many invocations can still be edited.
func (d *Dispatcher) Cached() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.results)
}
