// Package chat is the narrow view of the chat service the command framework works
// against. The Discord adapter implements Client; tests use chattest.
package chat

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Client lookups for unknown ids.
var ErrNotFound = errors.New("chat: not found")

// User is a chat account.
type User struct {
	ID            string
	Username      string
	Discriminator string
	Bot           bool
}

// Tag returns the username with its discriminator when the account still has one.
func (u User) Tag() string {
	if u.Discriminator == "" || u.Discriminator == "0" {
		return u.Username
	}
	return u.Username + "#" + u.Discriminator
}

// Mention returns the mention markup for the user.
func (u User) Mention() string {
	return "<@" + u.ID + ">"
}

type ChannelType int

const (
	ChannelGuildText ChannelType = iota
	ChannelDM
	ChannelGroupDM
	ChannelGuildVoice
	ChannelGuildCategory
	ChannelGuildNews
	ChannelGuildThread
)

// Channel is a text-capable channel. GuildID is empty for direct messages.
type Channel struct {
	ID      string
	GuildID string
	Name    string
	Type    ChannelType
	NSFW    bool
}

// IsDM reports whether the channel is a direct or group DM.
func (c *Channel) IsDM() bool {
	return c == nil || c.GuildID == "" || c.Type == ChannelDM || c.Type == ChannelGroupDM
}

// Guild is a server with its text channels.
type Guild struct {
	ID       string
	Name     string
	OwnerID  string
	Channels []*Channel
}

// Message is a posted chat message.
type Message struct {
	ID        string
	ChannelID string
	GuildID   string
	Author    User
	Content   string
	WebhookID string
	Timestamp time.Time
}

// InGuild reports whether the message was posted in a guild channel.
func (m *Message) InGuild() bool { return m.GuildID != "" }

// Client is everything the framework needs from the chat service.
type Client interface {
	Self() User
	Channel(ctx context.Context, channelID string) (*Channel, error)
	Guild(ctx context.Context, guildID string) (*Guild, error)
	User(ctx context.Context, userID string) (*User, error)
	// Permissions returns the effective permissions of userID in channelID.
	Permissions(ctx context.Context, channelID, userID string) (Permissions, error)
	Send(ctx context.Context, channelID, content string) (*Message, error)
	Edit(ctx context.Context, channelID, messageID, content string) (*Message, error)
	Delete(ctx context.Context, channelID, messageID string) error
	// DirectChannel opens (or returns) the DM channel with userID.
	DirectChannel(ctx context.Context, userID string) (*Channel, error)
}
