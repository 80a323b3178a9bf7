// Package client ties the registry, dispatcher and settings together into the
// bot a chat transport feeds messages to.
package client

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/keshon/commando/internal/argument"
	"github.com/keshon/commando/internal/chat"
	"github.com/keshon/commando/internal/command"
	"github.com/keshon/commando/internal/dispatcher"
	"github.com/keshon/commando/internal/middleware"
	"github.com/keshon/commando/internal/storage"
	"github.com/keshon/commando/pkg/util"
)

// ownerLookups bounds concurrent owner lookups.
const ownerLookups = 4

// ErrEmptyPrefix is returned when a prefix setter receives "". Use the
// mention-only setters instead.
var ErrEmptyPrefix = errors.New("client: prefix must not be empty")

type Options struct {
	// Owners are user ids allowed past every permission check.
	Owners []string
	// CommandPrefix is the default prefix. Empty means mentions only.
	CommandPrefix string
	Invite        string

	CommandEditableDuration         time.Duration
	NonCommandEditable              bool
	UnknownCommandResponse          bool
	CommandBlockedMessagePattern    bool
	CommandThrottlingMessagePattern bool
	GuildBlacklist                  []string

	// SweepInterval is how often expired throttles and edit caches are dropped.
	SweepInterval time.Duration
}

func DefaultOptions() Options {
	return Options{
		CommandPrefix:                   "!",
		CommandEditableDuration:         30 * time.Second,
		NonCommandEditable:              true,
		UnknownCommandResponse:          true,
		CommandBlockedMessagePattern:    true,
		CommandThrottlingMessagePattern: true,
		SweepInterval:                   time.Minute,
	}
}

// Client is a command.Backend. Attach a chat.Client before handling messages.
type Client struct {
	opts     Options
	bus      *command.Bus
	reg      *command.Registry
	awaiting *argument.Awaiting
	disp     *dispatcher.Dispatcher

	mu            sync.RWMutex
	chat          chat.Client
	prefix        string
	guildPrefixes map[string]string
	owners        map[string]chat.User
	provider      storage.Provider
	unbind        func()
}

func New(opts Options) *Client {
	bus := command.NewBus()
	c := &Client{
		opts:          opts,
		bus:           bus,
		reg:           command.NewRegistry(bus),
		awaiting:      argument.NewAwaiting(),
		prefix:        opts.CommandPrefix,
		guildPrefixes: make(map[string]string),
		owners:        make(map[string]chat.User),
	}
	c.disp = dispatcher.New(c, c.reg, dispatcher.Options{
		CommandEditableDuration: opts.CommandEditableDuration,
		NonCommandEditable:      opts.NonCommandEditable,
		UnknownCommandResponse:  opts.UnknownCommandResponse,
		GuildBlacklist:          opts.GuildBlacklist,
	})
	command.RegisterArgumentTypes(c.reg)
	return c
}

func (c *Client) Events() *command.Bus               { return c.bus }
func (c *Client) Registry() *command.Registry        { return c.reg }
func (c *Client) Awaiting() *argument.Awaiting       { return c.awaiting }
func (c *Client) Dispatcher() *dispatcher.Dispatcher { return c.disp }

func (c *Client) Options() command.Options {
	return command.Options{
		Invite:                          c.opts.Invite,
		CommandBlockedMessagePattern:    c.opts.CommandBlockedMessagePattern,
		CommandThrottlingMessagePattern: c.opts.CommandThrottlingMessagePattern,
	}
}

// Attach sets the chat transport.
func (c *Client) Attach(cl chat.Client) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chat = cl
}

func (c *Client) Chat() chat.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.chat
}

// RegisterGroups adds command groups.
func (c *Client) RegisterGroups(groups ...*command.Group) error {
	return c.reg.RegisterGroups(groups...)
}

// Register puts each command behind the default gates and adds it.
func (c *Client) Register(cmds ...*command.Command) error {
	for _, cmd := range cmds {
		cmd.Use(middleware.Gates()...)
	}
	return c.reg.Register(cmds...)
}

// HandleMessage dispatches a new message, or an edit when old is set.
func (c *Client) HandleMessage(ctx context.Context, msg, old *chat.Message) error {
	if c.Chat() == nil {
		return errors.New("client: no chat transport attached")
	}
	return c.disp.HandleMessage(ctx, msg, old)
}

// AddInhibitor registers fn with the dispatcher.
func (c *Client) AddInhibitor(fn dispatcher.Inhibitor) (remove func()) {
	return c.disp.AddInhibitor(fn)
}

func (c *Client) IsOwner(userID string) bool {
	return slices.Contains(c.opts.Owners, userID)
}

// Owners resolves the owner ids through the chat transport. Ids that cannot be
// resolved are logged and skipped.
func (c *Client) Owners(ctx context.Context) []chat.User {
	c.mu.RLock()
	var missing []string
	for _, id := range c.opts.Owners {
		if _, ok := c.owners[id]; !ok {
			missing = append(missing, id)
		}
	}
	c.mu.RUnlock()

	if cl := c.Chat(); cl != nil && len(missing) > 0 {
		_ = util.Parallel(ctx, missing, ownerLookups, func(ctx context.Context, id string) error {
			u, err := cl.User(ctx, id)
			if err != nil {
				log.WithField("user", id).Warnf("[Client] unable to fetch owner: %v", err)
				return nil
			}
			c.mu.Lock()
			c.owners[id] = *u
			c.mu.Unlock()
			return nil
		})
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]chat.User, 0, len(c.opts.Owners))
	for _, id := range c.opts.Owners {
		if u, ok := c.owners[id]; ok {
			out = append(out, u)
		}
	}
	return out
}

// Run sweeps expired throttles and edit caches until ctx is done.
func (c *Client) Run(ctx context.Context) {
	every := c.opts.SweepInterval
	if every <= 0 {
		every = time.Minute
	}
	go command.RunThrottleSweeper(ctx, c.reg, every)

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.disp.Sweep(); n > 0 {
				log.Debugf("[Client] dropped %d expired edit caches", n)
			}
		}
	}
}

// SetProvider binds p, replacing the previous provider. The previous provider
// is left open.
func (c *Client) SetProvider(p storage.Provider) {
	c.mu.Lock()
	if c.unbind != nil {
		c.unbind()
	}
	c.provider = p
	c.mu.Unlock()

	unbind := storage.Bind(p, c.reg, c)

	c.mu.Lock()
	c.unbind = unbind
	c.mu.Unlock()
}

func (c *Client) Provider() storage.Provider {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.provider
}

// Close unbinds and closes the settings provider.
func (c *Client) Close() error {
	c.mu.Lock()
	p, unbind := c.provider, c.unbind
	c.provider, c.unbind = nil, nil
	c.mu.Unlock()

	if unbind != nil {
		unbind()
	}
	if p != nil {
		return p.Close()
	}
	return nil
}
