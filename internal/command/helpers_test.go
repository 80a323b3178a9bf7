package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/keshon/commando/internal/argument"
	"github.com/keshon/commando/internal/chat"
	"github.com/keshon/commando/internal/chat/chattest"
)

type testBackend struct {
	client *chattest.Client
	bus    *Bus
	aw     *argument.Awaiting
	owners []chat.User
	prefix string
	opts   Options
}

func newTestBackend() *testBackend {
	client := chattest.New(chat.User{ID: "bot", Username: "Commando", Discriminator: "0001", Bot: true})
	client.AddGuild(&chat.Guild{ID: "g1", Name: "Guild", Channels: []*chat.Channel{
		{ID: "c1", Name: "general", Type: chat.ChannelGuildText},
	}})
	client.AddUser(chat.User{ID: "u1", Username: "alice"})
	return &testBackend{client: client, bus: NewBus(), aw: argument.NewAwaiting(), prefix: "!"}
}

func (b *testBackend) Chat() chat.Client                  { return b.client }
func (b *testBackend) Events() *Bus                       { return b.bus }
func (b *testBackend) Options() Options                   { return b.opts }
func (b *testBackend) Prefix(string) string               { return b.prefix }
func (b *testBackend) Awaiting() *argument.Awaiting       { return b.aw }
func (b *testBackend) Owners(context.Context) []chat.User { return b.owners }

func (b *testBackend) IsOwner(userID string) bool {
	for _, o := range b.owners {
		if o.ID == userID {
			return true
		}
	}
	return false
}

// record collects every published event of the given types.
func (b *testBackend) record(types ...EventType) *[]Event {
	var got []Event
	b.bus.Subscribe(func(ev Event) {
		for _, t := range types {
			if ev.Type == t {
				got = append(got, ev)
			}
		}
	})
	return &got
}

func guildChannel() *chat.Channel {
	return &chat.Channel{ID: "c1", GuildID: "g1", Name: "general", Type: chat.ChannelGuildText}
}

func dmChannel() *chat.Channel {
	return &chat.Channel{ID: "d1", Type: chat.ChannelDM}
}

func newTestMessage(b *testBackend, c *Command, channel *chat.Channel, argString string) *Message {
	trigger := &chat.Message{
		ID:        "t1",
		ChannelID: channel.ID,
		GuildID:   channel.GuildID,
		Author:    chat.User{ID: "u1", Username: "alice"},
		Content:   "!" + c.Name() + " " + argString,
	}
	return NewMessage(b, trigger, channel, c, argString, nil)
}

func mustCommand(t *testing.T, info Info) *Command {
	t.Helper()
	if info.Group == "" {
		info.Group = "util"
	}
	if info.Description == "" {
		info.Description = "test command"
	}
	if info.Run == nil {
		info.Run = func(context.Context, *Message, Args) error { return nil }
	}
	c, err := New(info)
	require.NoError(t, err)
	return c
}
