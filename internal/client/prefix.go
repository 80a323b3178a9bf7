package client

import (
	"github.com/keshon/commando/internal/command"
)

// Prefix returns the prefix used in guildID, falling back to the default.
// Empty means the bot only answers mentions there.
func (c *Client) Prefix(guildID string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if guildID != "" {
		if p, ok := c.guildPrefixes[guildID]; ok {
			return p
		}
	}
	return c.prefix
}

// GuildPrefix reports the prefix set for guildID, if any.
func (c *Client) GuildPrefix(guildID string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.guildPrefixes[guildID]
	return p, ok
}

func (c *Client) SetCommandPrefix(prefix string) error {
	if prefix == "" {
		return ErrEmptyPrefix
	}
	c.setPrefix("", prefix)
	return nil
}

// ResetCommandPrefix restores the configured default prefix.
func (c *Client) ResetCommandPrefix() {
	c.LoadPrefix("", c.opts.CommandPrefix)
	c.bus.Publish(command.Event{Type: command.EventCommandPrefixChange, Reset: true})
}

// DefaultPrefix is the configured prefix, before any change at runtime.
func (c *Client) DefaultPrefix() string { return c.opts.CommandPrefix }

// SetMentionOnly makes mentions the only default trigger.
func (c *Client) SetMentionOnly() { c.setPrefix("", "") }

func (c *Client) SetGuildPrefix(guildID, prefix string) error {
	if prefix == "" {
		return ErrEmptyPrefix
	}
	c.setPrefix(guildID, prefix)
	return nil
}

// SetGuildMentionOnly disables the prefix in guildID.
func (c *Client) SetGuildMentionOnly(guildID string) { c.setPrefix(guildID, "") }

// ResetGuildPrefix makes guildID use the default prefix again.
func (c *Client) ResetGuildPrefix(guildID string) {
	c.mu.Lock()
	delete(c.guildPrefixes, guildID)
	c.mu.Unlock()
	c.bus.Publish(command.Event{Type: command.EventCommandPrefixChange, GuildID: guildID, Reset: true})
}

// LoadPrefix sets a stored prefix without publishing an event.
func (c *Client) LoadPrefix(guildID, prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if guildID == "" {
		c.prefix = prefix
		return
	}
	c.guildPrefixes[guildID] = prefix
}

func (c *Client) setPrefix(guildID, prefix string) {
	c.LoadPrefix(guildID, prefix)
	c.bus.Publish(command.Event{Type: command.EventCommandPrefixChange, GuildID: guildID, Prefix: prefix})
}
