package dispatcher

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/commando/internal/argument"
	"github.com/keshon/commando/internal/chat"
	"github.com/keshon/commando/internal/command"
	"github.com/keshon/commando/internal/command/commandtest"
)

type fixture struct {
	b    *commandtest.Backend
	reg  *command.Registry
	d    *Dispatcher
	seen []command.Args
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := &fixture{b: commandtest.New()}
	f.reg = command.NewRegistry(f.b.Bus)
	require.NoError(t, f.reg.RegisterGroups(command.NewGroup("util", "Utility", false)))

	echo, err := command.New(command.Info{
		Name:        "echo",
		Group:       "util",
		Description: "Repeats the text.",
		Run: func(ctx context.Context, m *command.Message, args command.Args) error {
			f.seen = append(f.seen, args)
			_, err := m.Say(ctx, args.Raw)
			return err
		},
	})
	require.NoError(t, err)
	greet, err := command.New(command.Info{
		Name:              "greet",
		Group:             "util",
		Description:       "Answers greetings.",
		NoDefaultHandling: true,
		Patterns:          []*regexp.Regexp{regexp.MustCompile(`(?i)^hello (\w+)`)},
		Run: func(ctx context.Context, m *command.Message, args command.Args) error {
			f.seen = append(f.seen, args)
			_, err := m.Say(ctx, "hi "+args.Matches[1])
			return err
		},
	})
	require.NoError(t, err)
	require.NoError(t, f.reg.Register(echo, greet))

	f.d = New(f.b, f.reg, opts)
	return f
}

func guildMessage(id, content string) *chat.Message {
	return &chat.Message{ID: id, ChannelID: "c1", GuildID: "g1", Author: chat.User{ID: "u1", Username: "alice"}, Content: content}
}

func TestHandleMessageTriggers(t *testing.T) {
	tests := []struct {
		name    string
		msg     *chat.Message
		wantRaw string
	}{
		{name: "prefix", msg: guildMessage("t1", "!echo hi there"), wantRaw: "hi there"},
		{name: "prefix with space", msg: guildMessage("t1", "! echo hi"), wantRaw: "hi"},
		{name: "mention", msg: guildMessage("t1", "<@bot> echo hi"), wantRaw: "hi"},
		{name: "nick mention and prefix", msg: guildMessage("t1", "<@!bot> !ECHO hi"), wantRaw: "hi"},
		{name: "bare word in direct message", msg: &chat.Message{ID: "t1", ChannelID: "d1", Author: chat.User{ID: "u1"}, Content: "echo hi"}, wantRaw: "hi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Options{})
			require.NoError(t, f.d.HandleMessage(context.Background(), tt.msg, nil))
			require.Len(t, f.seen, 1)
			assert.Equal(t, tt.wantRaw, f.seen[0].Raw)
			assert.Equal(t, []string{tt.wantRaw}, f.b.Client.Sent())
		})
	}
}

func TestHandleMessageIgnores(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		msg  *chat.Message
	}{
		{name: "plain chat", msg: guildMessage("t1", "echo hi")},
		{name: "bot author", msg: &chat.Message{ID: "t1", ChannelID: "c1", GuildID: "g1", Author: chat.User{ID: "u2", Bot: true}, Content: "!echo hi"}},
		{name: "self", msg: &chat.Message{ID: "t1", ChannelID: "c1", GuildID: "g1", Author: chat.User{ID: "bot"}, Content: "!echo hi"}},
		{name: "blacklisted guild", opts: Options{GuildBlacklist: []string{"g1"}}, msg: guildMessage("t1", "!echo hi")},
		{name: "unknown word in direct message", msg: &chat.Message{ID: "t1", ChannelID: "d1", Author: chat.User{ID: "u1"}, Content: "what's up"}},
		{name: "default handling disabled", msg: guildMessage("t1", "!greet")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.opts)
			require.NoError(t, f.d.HandleMessage(context.Background(), tt.msg, nil))
			assert.Empty(t, f.seen)
			assert.Empty(t, f.b.Client.Sent())
		})
	}
}

func TestHandleMessagePattern(t *testing.T) {
	f := newFixture(t, Options{})
	require.NoError(t, f.d.HandleMessage(context.Background(), guildMessage("t1", "Hello bob"), nil))

	require.Len(t, f.seen, 1)
	assert.True(t, f.seen[0].FromPattern)
	assert.Equal(t, []string{"hi bob"}, f.b.Client.Sent())
}

func TestHandleMessageUnknownCommand(t *testing.T) {
	f := newFixture(t, Options{UnknownCommandResponse: true})
	require.NoError(t, f.d.HandleMessage(context.Background(), guildMessage("t1", "!nope"), nil))

	assert.Len(t, f.b.Recorded(command.EventUnknownCommand), 1)
	assert.Equal(t, []string{
		"<@u1>, Unknown command. Use `!help` or `@Commando#0001\u00a0help` to view the list of all commands.",
	}, f.b.Client.Sent())

	quiet := newFixture(t, Options{})
	require.NoError(t, quiet.d.HandleMessage(context.Background(), guildMessage("t1", "!nope"), nil))
	assert.Len(t, quiet.b.Recorded(command.EventUnknownCommand), 1)
	assert.Empty(t, quiet.b.Client.Sent())
}

func TestHandleMessageDeliversToAwaitingAuthor(t *testing.T) {
	f := newFixture(t, Options{})
	key := argument.Key{AuthorID: "u1", ChannelID: "c1"}
	release := f.b.Wait.Acquire(key)
	defer release()
	f.b.Wait.Expect(key)

	require.NoError(t, f.d.HandleMessage(context.Background(), guildMessage("t2", "!echo answer"), nil))
	assert.Empty(t, f.seen)

	reply, ok, err := f.b.Wait.Wait(context.Background(), key, time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "!echo answer", reply)
}

func TestHandleMessageInhibitor(t *testing.T) {
	f := newFixture(t, Options{})
	remove := f.d.AddInhibitor(func(m *command.Message) (command.BlockReason, string, bool) {
		return "maintenance", "Come back later.", m.GuildID() == "g1"
	})

	require.NoError(t, f.d.HandleMessage(context.Background(), guildMessage("t1", "!echo hi"), nil))
	assert.Empty(t, f.seen)
	assert.Equal(t, []string{"<@u1>, Come back later."}, f.b.Client.Sent())
	blocked := f.b.Recorded(command.EventCommandBlocked)
	require.Len(t, blocked, 1)
	assert.Equal(t, command.BlockReason("maintenance"), blocked[0].Reason)

	remove()
	require.NoError(t, f.d.HandleMessage(context.Background(), guildMessage("t2", "!echo hi"), nil))
	assert.Len(t, f.seen, 1)
}

func TestHandleMessageEdits(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{CommandEditableDuration: time.Minute})

	first := guildMessage("t1", "!echo one")
	require.NoError(t, f.d.HandleMessage(ctx, first, nil))
	assert.Equal(t, 1, f.d.Cached())

	second := guildMessage("t1", "!echo two")
	require.NoError(t, f.d.HandleMessage(ctx, second, first))
	live := f.b.Client.Live()
	require.Len(t, live, 1)
	assert.Equal(t, "two", live["m1"].Content)

	require.NoError(t, f.d.HandleMessage(ctx, guildMessage("t1", "!echo two"), second), "unchanged content is ignored")
	assert.Len(t, f.seen, 2)

	require.NoError(t, f.d.HandleMessage(ctx, guildMessage("t1", "never mind"), second))
	assert.Empty(t, f.b.Client.Live())
	assert.Zero(t, f.d.Cached())
}

func TestHandleMessageEditOutsideWindow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{CommandEditableDuration: time.Minute})
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f.d.now = func() time.Time { return now }

	first := guildMessage("t1", "!echo one")
	require.NoError(t, f.d.HandleMessage(ctx, first, nil))
	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, f.d.Sweep())

	require.NoError(t, f.d.HandleMessage(ctx, guildMessage("t1", "!echo two"), first))
	assert.Len(t, f.seen, 1)
	assert.Equal(t, []string{"one"}, f.b.Client.Sent())
}

func TestHandleMessageNonCommandEditable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{CommandEditableDuration: time.Minute, NonCommandEditable: true})

	old := guildMessage("t1", "echo")
	require.NoError(t, f.d.HandleMessage(ctx, old, nil))
	require.NoError(t, f.d.HandleMessage(ctx, guildMessage("t1", "!echo late"), old))
	assert.Equal(t, []string{"late"}, f.b.Client.Sent())
}
