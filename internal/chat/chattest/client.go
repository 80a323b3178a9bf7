// Package chattest provides an in-memory chat.Client for tests.
package chattest

import (
	"context"
	"fmt"
	"sync"

	"github.com/keshon/commando/internal/chat"
)

// Op is one recorded call against the fake.
type Op struct {
	Kind      string // send, edit, delete
	ChannelID string
	MessageID string
	Content   string
}

// Client is a concurrency-safe fake chat service.
type Client struct {
	mu       sync.Mutex
	self     chat.User
	users    map[string]*chat.User
	channels map[string]*chat.Channel
	guilds   map[string]*chat.Guild
	perms    map[string]chat.Permissions // channelID/userID
	messages map[string]*chat.Message
	ops      []Op
	nextID   int

	// FailSend makes Send return this error when set.
	FailSend error
}

// New returns a fake whose bot account is self.
func New(self chat.User) *Client {
	return &Client{
		self:     self,
		users:    map[string]*chat.User{self.ID: &self},
		channels: map[string]*chat.Channel{},
		guilds:   map[string]*chat.Guild{},
		perms:    map[string]chat.Permissions{},
		messages: map[string]*chat.Message{},
	}
}

func (c *Client) AddUser(u chat.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users[u.ID] = &u
}

// AddGuild registers g and its channels.
func (c *Client) AddGuild(g *chat.Guild) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.guilds[g.ID] = g
	for _, ch := range g.Channels {
		ch.GuildID = g.ID
		c.channels[ch.ID] = ch
	}
}

func (c *Client) AddChannel(ch *chat.Channel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.channels[ch.ID] = ch
}

// SetPermissions sets the effective permissions of userID in channelID.
func (c *Client) SetPermissions(channelID, userID string, p chat.Permissions) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.perms[channelID+"/"+userID] = p
}

// Ops returns a copy of every recorded call.
func (c *Client) Ops() []Op {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Op(nil), c.ops...)
}

// Sent returns the contents of every Send call, in order.
func (c *Client) Sent() []string {
	var out []string
	for _, op := range c.Ops() {
		if op.Kind == "send" {
			out = append(out, op.Content)
		}
	}
	return out
}

// Live returns the messages that were sent and not deleted, keyed by id.
func (c *Client) Live() map[string]chat.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]chat.Message, len(c.messages))
	for id, m := range c.messages {
		out[id] = *m
	}
	return out
}

func (c *Client) Self() chat.User { return c.self }

func (c *Client) Channel(_ context.Context, channelID string) (*chat.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.channels[channelID]
	if !ok {
		return nil, fmt.Errorf("channel %s: %w", channelID, chat.ErrNotFound)
	}
	return ch, nil
}

func (c *Client) Guild(_ context.Context, guildID string) (*chat.Guild, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.guilds[guildID]
	if !ok {
		return nil, fmt.Errorf("guild %s: %w", guildID, chat.ErrNotFound)
	}
	return g, nil
}

func (c *Client) User(_ context.Context, userID string) (*chat.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := c.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, chat.ErrNotFound)
	}
	return u, nil
}

// Permissions defaults to everything when nothing was set for the pair.
func (c *Client) Permissions(_ context.Context, channelID, userID string) (chat.Permissions, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.perms[channelID+"/"+userID]
	if !ok {
		return chat.Permissions(^int64(0)), nil
	}
	return p, nil
}

func (c *Client) Send(_ context.Context, channelID, content string) (*chat.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FailSend != nil {
		return nil, c.FailSend
	}
	c.nextID++
	m := &chat.Message{
		ID:        fmt.Sprintf("m%d", c.nextID),
		ChannelID: channelID,
		Author:    c.self,
		Content:   content,
	}
	if ch, ok := c.channels[channelID]; ok {
		m.GuildID = ch.GuildID
	}
	c.messages[m.ID] = m
	c.ops = append(c.ops, Op{Kind: "send", ChannelID: channelID, MessageID: m.ID, Content: content})
	copied := *m
	return &copied, nil
}

func (c *Client) Edit(_ context.Context, channelID, messageID, content string) (*chat.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.messages[messageID]
	if !ok {
		return nil, fmt.Errorf("message %s: %w", messageID, chat.ErrNotFound)
	}
	m.Content = content
	c.ops = append(c.ops, Op{Kind: "edit", ChannelID: channelID, MessageID: messageID, Content: content})
	copied := *m
	return &copied, nil
}

func (c *Client) Delete(_ context.Context, channelID, messageID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.messages[messageID]; !ok {
		return fmt.Errorf("message %s: %w", messageID, chat.ErrNotFound)
	}
	delete(c.messages, messageID)
	c.ops = append(c.ops, Op{Kind: "delete", ChannelID: channelID, MessageID: messageID})
	return nil
}

// DirectChannel returns a DM channel with id "dm-<userID>".
func (c *Client) DirectChannel(_ context.Context, userID string) (*chat.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := "dm-" + userID
	ch, ok := c.channels[id]
	if !ok {
		ch = &chat.Channel{ID: id, Type: chat.ChannelDM}
		c.channels[id] = ch
	}
	return ch, nil
}
