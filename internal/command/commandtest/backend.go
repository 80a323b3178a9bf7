// Package commandtest provides a command.Backend over chattest for tests outside
// the command package.
package commandtest

import (
	"context"
	"sync"

	"github.com/keshon/commando/internal/argument"
	"github.com/keshon/commando/internal/chat"
	"github.com/keshon/commando/internal/chat/chattest"
	"github.com/keshon/commando/internal/command"
)

// Backend is a minimal command.Backend. Guild "g1" has the text channel "c1"
// and the NSFW channel "c2". The author is "u1" and the bot is "bot".
type Backend struct {
	Client      *chattest.Client
	Bus         *command.Bus
	Wait        *argument.Awaiting
	OwnerUsers  []chat.User
	GuildPrefix string
	ClientOpts  command.Options

	mu     sync.Mutex
	events []command.Event
}

func New() *Backend {
	client := chattest.New(chat.User{ID: "bot", Username: "Commando", Discriminator: "0001", Bot: true})
	client.AddGuild(&chat.Guild{ID: "g1", Name: "Guild", Channels: []*chat.Channel{
		{ID: "c1", Name: "general", Type: chat.ChannelGuildText},
		{ID: "c2", Name: "lewd", Type: chat.ChannelGuildText, NSFW: true},
	}})
	client.AddUser(chat.User{ID: "u1", Username: "alice"})

	b := &Backend{
		Client:      client,
		Bus:         command.NewBus(),
		Wait:        argument.NewAwaiting(),
		GuildPrefix: "!",
		ClientOpts:  command.Options{CommandBlockedMessagePattern: true, CommandThrottlingMessagePattern: true},
	}
	b.Bus.Subscribe(func(ev command.Event) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.events = append(b.events, ev)
	})
	return b
}

func (b *Backend) Chat() chat.Client                  { return b.Client }
func (b *Backend) Events() *command.Bus               { return b.Bus }
func (b *Backend) Options() command.Options           { return b.ClientOpts }
func (b *Backend) Prefix(string) string               { return b.GuildPrefix }
func (b *Backend) Awaiting() *argument.Awaiting       { return b.Wait }
func (b *Backend) Owners(context.Context) []chat.User { return b.OwnerUsers }

func (b *Backend) IsOwner(userID string) bool {
	for _, o := range b.OwnerUsers {
		if o.ID == userID {
			return true
		}
	}
	return false
}

// Recorded returns the events of type t published so far.
func (b *Backend) Recorded(t command.EventType) []command.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []command.Event
	for _, ev := range b.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// Channel returns the fake's channel with id, panicking when it is unknown.
func (b *Backend) Channel(id string) *chat.Channel {
	ch, err := b.Client.Channel(context.Background(), id)
	if err != nil {
		panic(err)
	}
	return ch
}

// Message builds an invocation of c by "u1" in channel.
func (b *Backend) Message(c *command.Command, channel *chat.Channel, argString string) *command.Message {
	trigger := &chat.Message{
		ID:        "t1",
		ChannelID: channel.ID,
		GuildID:   channel.GuildID,
		Author:    chat.User{ID: "u1", Username: "alice"},
		Content:   b.GuildPrefix + c.Name() + " " + argString,
	}
	return command.NewMessage(b, trigger, channel, c, argString, nil)
}
