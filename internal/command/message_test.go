package command

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/commando/internal/argument"
	"github.com/keshon/commando/internal/chat"
)

func TestMessageRunFriendlyError(t *testing.T) {
	b := newTestBackend()
	errs := b.record(EventCommandError)
	c := mustCommand(t, Info{Name: "nope", Run: func(context.Context, *Message, Args) error {
		return Friendly("Not today, %s.", "alice")
	}})

	require.NoError(t, newTestMessage(b, c, guildChannel(), "").Run(context.Background()))
	assert.Equal(t, []string{"<@u1>, Not today, alice."}, b.client.Sent())
	assert.Empty(t, *errs)
}

func TestMessageRunErrorReport(t *testing.T) {
	boom := errors.New("boom `x`")
	c := mustCommand(t, Info{Name: "fail", Run: func(context.Context, *Message, Args) error {
		return boom
	}})

	t.Run("no owners", func(t *testing.T) {
		b := newTestBackend()
		errs := b.record(EventCommandError)
		require.NoError(t, newTestMessage(b, c, guildChannel(), "").Run(context.Background()))

		require.Len(t, b.client.Sent(), 1)
		assert.Equal(t, "<@u1>, An error occurred while running the command: `*errors.errorString: boom x`\n"+
			"You shouldn't ever receive an error like this.\nPlease contact the bot owner.", b.client.Sent()[0])
		require.Len(t, *errs, 1)
		assert.ErrorIs(t, (*errs)[0].Err, boom)
	})

	t.Run("owners and invite", func(t *testing.T) {
		b := newTestBackend()
		b.owners = []chat.User{{ID: "o1", Username: "ann_a"}, {ID: "o2", Username: "bob"}}
		b.opts.Invite = "https://discord.gg/x"
		require.NoError(t, newTestMessage(b, c, guildChannel(), "").Run(context.Background()))

		require.Len(t, b.client.Sent(), 1)
		assert.True(t, strings.HasSuffix(b.client.Sent()[0], `Please contact ann\_a or bob in this server: https://discord.gg/x`))
	})
}

func TestOwnerList(t *testing.T) {
	users := func(names ...string) []chat.User {
		var out []chat.User
		for _, n := range names {
			out = append(out, chat.User{Username: n})
		}
		return out
	}
	assert.Equal(t, "a", ownerList(users("a")))
	assert.Equal(t, "a or b", ownerList(users("a", "b")))
	assert.Equal(t, "a, b, or c", ownerList(users("a", "b", "c")))
}

func echoCommand(t *testing.T, limit int, got **argument.Values) *Command {
	return mustCommand(t, Info{
		Name:            "echo",
		ArgsPromptLimit: limit,
		Args: []*argument.Argument{
			{Key: "text", Prompt: "What text?", Type: argument.String},
		},
		Run: func(ctx context.Context, m *Message, args Args) error {
			*got = args.Values
			_, err := m.Say(ctx, args.Values.String("text"))
			return err
		},
	})
}

func TestCommandRunCollectsProvidedArguments(t *testing.T) {
	b := newTestBackend()
	runs := b.record(EventCommandRun)
	var got *argument.Values
	c := echoCommand(t, 0, &got)

	require.NoError(t, newTestMessage(b, c, guildChannel(), "  hello there  ").Run(context.Background()))
	assert.Equal(t, "hello there", got.String("text"))
	assert.Equal(t, []string{"hello there"}, b.client.Sent())
	assert.Len(t, *runs, 1)
	assert.Zero(t, b.aw.Len())
}

func TestCommandRunFormatErrorWithoutPrompts(t *testing.T) {
	b := newTestBackend()
	var got *argument.Values
	c := echoCommand(t, argument.NoPrompts, &got)
	assert.Equal(t, "<text>", c.Info().Format)

	require.NoError(t, newTestMessage(b, c, guildChannel(), "").Run(context.Background()))
	assert.Equal(t, []string{
		"<@u1>, Invalid command usage. The `echo` command's accepted format is: `!echo\u00a0<text>`. Use `!help\u00a0echo` for more information.",
	}, b.client.Sent())
}

func TestCommandRunCancelledByAuthor(t *testing.T) {
	b := newTestBackend()
	runs := b.record(EventCommandRun)
	var got *argument.Values
	c := echoCommand(t, 0, &got)
	key := argument.Key{AuthorID: "u1", ChannelID: "c1"}

	go func() {
		for len(b.client.Sent()) == 0 {
			time.Sleep(time.Millisecond)
		}
		b.aw.Deliver(key, "cancel")
	}()

	require.NoError(t, newTestMessage(b, c, guildChannel(), "").Run(context.Background()))
	sent := b.client.Sent()
	require.Len(t, sent, 2)
	assert.True(t, strings.HasPrefix(sent[0], "<@u1>, What text?\nRespond with `cancel` to cancel the command."))
	assert.Equal(t, "<@u1>, Cancelled command.", sent[1])
	assert.Empty(t, *runs)
	assert.False(t, b.aw.Has(key))
}

func TestHasPermission(t *testing.T) {
	b := newTestBackend()
	b.owners = []chat.User{{ID: "o1", Username: "owner"}}
	ctx := context.Background()

	owner := mustCommand(t, Info{Name: "eval", OwnerOnly: true})
	ok, msg, err := newTestMessage(b, owner, guildChannel(), "").HasPermission(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "The `eval` command can only be used by the bot owner.", msg)

	kick := mustCommand(t, Info{Name: "kick", UserPermissions: []int64{discordgo.PermissionKickMembers, discordgo.PermissionBanMembers}})
	b.client.SetPermissions("c1", "u1", chat.Permissions(discordgo.PermissionKickMembers))
	ok, msg, err = newTestMessage(b, kick, guildChannel(), "").HasPermission(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "The `kick` command requires you to have the \"Ban Members\" permission.", msg)

	ok, _, err = newTestMessage(b, kick, dmChannel(), "").HasPermission(ctx)
	require.NoError(t, err)
	assert.True(t, ok, "user permissions are not checked in direct messages")
}
