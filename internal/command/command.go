// Package command holds the chat command model: commands and groups, the
// registry, and the per-invocation Message that runs a command and tracks
// its responses.
package command

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/keshon/commando/internal/argument"
	"github.com/keshon/commando/internal/chat"
	"github.com/keshon/commando/pkg/cmd"
)

// Handler runs a command once its gates passed and its arguments were collected.
type Handler func(ctx context.Context, m *Message, args Args) error

// Args is what a handler receives.
type Args struct {
	// Values holds collected arguments for commands that declare them.
	Values *argument.Values
	// Raw is the argument string for ArgsSingle commands without declared arguments.
	Raw string
	// List is the split argument string for ArgsMultiple commands.
	List []string
	// Matches holds the submatches when a pattern triggered the command.
	Matches     []string
	FromPattern bool
}

type ArgsType int

const (
	ArgsSingle ArgsType = iota
	ArgsMultiple
)

// Throttling allows Usages runs per user within Duration.
type Throttling struct {
	Usages   int
	Duration time.Duration
}

// Info declares a command.
type Info struct {
	Name        string
	Aliases     []string
	Group       string
	MemberName  string
	Description string
	Format      string
	Details     string
	Examples    []string

	GuildOnly bool
	OwnerOnly bool
	NSFW      bool
	Guarded   bool
	Hidden    bool
	// NoDefaultHandling keeps the command from being triggered by prefix or mention.
	NoDefaultHandling bool

	UserPermissions   []int64
	ClientPermissions []int64
	Throttling        *Throttling

	Args            []*argument.Argument
	ArgsPromptLimit int
	ArgsType        ArgsType
	ArgsCount       int
	// NoSingleQuotes stops single quotes from grouping arguments.
	NoSingleQuotes bool

	Patterns []*regexp.Regexp

	// Permission overrides the default owner/user-permission check. It returns
	// false with an optional message to block the run.
	Permission func(m *Message) (bool, string)

	Run Handler
}

// Command is a registered chat command. It implements cmd.Command; its Run is
// the innermost step of the middleware chain.
type Command struct {
	info      Info
	collector *argument.Collector
	throttles *Throttles

	mu            sync.RWMutex
	group         *Group
	events        *Bus
	middlewares   []cmd.Middleware
	globalEnabled bool
	guildEnabled  map[string]bool
}

var nameRe = regexp.MustCompile(`^[^\sA-Z]+$`)

// New validates info and builds a command.
func New(info Info) (*Command, error) {
	if !nameRe.MatchString(info.Name) {
		return nil, fmt.Errorf("%w: name %q must be lowercase without whitespace", ErrInvalidInfo, info.Name)
	}
	for _, alias := range info.Aliases {
		if !nameRe.MatchString(alias) {
			return nil, fmt.Errorf("%w: alias %q of %s must be lowercase without whitespace", ErrInvalidInfo, alias, info.Name)
		}
	}
	if info.Group == "" {
		return nil, fmt.Errorf("%w: %s has no group", ErrInvalidInfo, info.Name)
	}
	if info.Description == "" {
		return nil, fmt.Errorf("%w: %s has no description", ErrInvalidInfo, info.Name)
	}
	if info.Run == nil {
		return nil, fmt.Errorf("%w: %s has no handler", ErrInvalidInfo, info.Name)
	}
	if info.MemberName == "" {
		info.MemberName = info.Name
	}
	if t := info.Throttling; t != nil && (t.Usages < 1 || t.Duration <= 0) {
		return nil, fmt.Errorf("%w: %s throttling needs positive usages and duration", ErrInvalidInfo, info.Name)
	}

	c := &Command{info: info, globalEnabled: true, guildEnabled: map[string]bool{}}
	if len(info.Args) > 0 {
		collector, err := argument.NewCollector(info.Args, info.ArgsPromptLimit)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", info.Name, err)
		}
		c.collector = collector
		if c.info.Format == "" {
			c.info.Format = formatFromArgs(info.Args)
		}
	}
	if info.Throttling != nil {
		c.throttles = NewThrottles(*info.Throttling)
	}
	return c, nil
}

// MustNew is New for package-level command definitions.
func MustNew(info Info) *Command {
	c, err := New(info)
	if err != nil {
		panic(err)
	}
	return c
}

func formatFromArgs(args []*argument.Argument) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		label := a.DisplayLabel()
		if a.Infinite {
			label += "..."
		}
		if a.Default != nil {
			parts = append(parts, "["+label+"]")
		} else {
			parts = append(parts, "<"+label+">")
		}
	}
	return strings.Join(parts, " ")
}

func (c *Command) Name() string        { return c.info.Name }
func (c *Command) Description() string { return c.info.Description }

// Info returns a copy of the command definition.
func (c *Command) Info() Info { return c.info }

func (c *Command) GroupID() string { return c.info.Group }

// Group returns the group the command is registered in, or nil.
func (c *Command) Group() *Group {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.group
}

// Collector returns the argument collector, nil when no arguments are declared.
func (c *Command) Collector() *argument.Collector { return c.collector }

// Use appends middlewares. The first one added runs first.
func (c *Command) Use(mws ...cmd.Middleware) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.middlewares = append(c.middlewares, mws...)
}

// Chain returns the command wrapped in its middlewares.
func (c *Command) Chain() cmd.Command {
	c.mu.RLock()
	mws := append([]cmd.Middleware(nil), c.middlewares...)
	c.mu.RUnlock()
	return cmd.Apply(c, mws...)
}

// IsEnabledIn reports whether the command may run in guildID ("" for global).
func (c *Command) IsEnabledIn(guildID string) bool {
	if c.info.Guarded {
		return true
	}
	c.mu.RLock()
	enabled, ok := c.guildEnabled[guildID]
	if guildID == "" || !ok {
		enabled = c.globalEnabled
	}
	group := c.group
	c.mu.RUnlock()
	return enabled && (group == nil || group.IsEnabledIn(guildID))
}

// SetEnabledIn enables or disables the command in guildID ("" for global) and
// publishes commandStatusChange.
func (c *Command) SetEnabledIn(guildID string, enabled bool) error {
	if c.info.Guarded {
		return fmt.Errorf("%s: %w", c.info.Name, ErrGuarded)
	}
	c.LoadEnabled(guildID, enabled)
	c.mu.RLock()
	events := c.events
	c.mu.RUnlock()
	events.Publish(Event{Type: EventCommandStatusChange, Command: c, GuildID: guildID, Enabled: enabled})
	return nil
}

// LoadEnabled sets the enabled state without publishing an event.
func (c *Command) LoadEnabled(guildID string, enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if guildID == "" {
		c.globalEnabled = enabled
		return
	}
	c.guildEnabled[guildID] = enabled
}

// Usage renders the command with argString for prefix and/or a mention of bot.
func (c *Command) Usage(argString, prefix string, bot *chat.User) string {
	text := c.info.Name
	if argString != "" {
		text += " " + argString
	}
	return AnyUsage(text, prefix, bot)
}

// Throttle records one use by userID. It reports false and the time left in
// the window when the limit is already reached.
func (c *Command) Throttle(userID string) (bool, time.Duration) {
	if c.throttles == nil {
		return true, 0
	}
	return c.throttles.Take(userID)
}

// Throttles returns the usage tracker, nil when the command is not throttled.
func (c *Command) Throttles() *Throttles { return c.throttles }

// Run collects arguments and calls the handler. inv.Data must be the *Message.
func (c *Command) Run(ctx context.Context, inv *cmd.Invocation) error {
	m, ok := inv.Data.(*Message)
	if !ok {
		return fmt.Errorf("command %s: unexpected invocation data %T", c.info.Name, inv.Data)
	}

	args := Args{Matches: m.PatternMatches, FromPattern: m.PatternMatches != nil}
	switch {
	case args.FromPattern:
	case c.collector != nil:
		count := len(c.collector.Args())
		if c.collector.Args()[count-1].Infinite {
			count = 0
		}
		provided := ParseArgs(m.ArgString, count, !c.info.NoSingleQuotes)
		inv.Args = provided

		res, err := c.collector.WithAwaiting(m.backend.Awaiting()).Obtain(ctx, m, provided)
		if err != nil {
			return fmt.Errorf("obtain arguments: %w", err)
		}
		if res.Cancelled != "" {
			if len(res.Prompts) == 0 {
				return m.formatError()
			}
			return Friendly("Cancelled command.")
		}
		args.Values = res.Values
	default:
		args.Raw, args.List = m.ParseCommandArgs()
		inv.Args = args.List
	}

	m.backend.Events().Publish(Event{Type: EventCommandRun, Command: c, Message: m})
	return c.info.Run(ctx, m, args)
}
