package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/commando/internal/command"
	"github.com/keshon/commando/pkg/datastore"
)

type opener func(t *testing.T, path string) Provider

var providers = map[string]opener{
	"datastore": func(t *testing.T, path string) Provider {
		s, err := New(path + ".json")
		require.NoError(t, err)
		return s
	},
	"sqlite": func(t *testing.T, path string) Provider {
		s, err := OpenSQLite(path + ".db")
		require.NoError(t, err)
		return s
	},
}

func TestProviders(t *testing.T) {
	for name, open := range providers {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "settings")
			p := open(t, path)

			assert.Equal(t, "def", p.Get("g1", KeyPrefix, "def"))
			require.NoError(t, p.Set("g1", KeyPrefix, "?"))
			require.NoError(t, p.Set("g1", CommandKey("roll"), false))
			require.NoError(t, p.Set("", KeyPrefix, "!"))
			assert.Equal(t, "?", p.Get("g1", KeyPrefix, nil))
			assert.Equal(t, "!", p.Get(Global, KeyPrefix, nil))
			assert.Equal(t, []string{"g1", Global}, p.Guilds())

			old, err := p.Remove("g1", KeyPrefix)
			require.NoError(t, err)
			assert.Equal(t, "?", old)
			old, err = p.Remove("g1", KeyPrefix)
			require.NoError(t, err)
			assert.Nil(t, old)

			require.NoError(t, p.Close())

			p = open(t, path)
			defer p.Close()
			assert.Equal(t, false, p.Get("g1", CommandKey("roll"), true))
			assert.Nil(t, p.Get("g1", KeyPrefix, nil))
			assert.Equal(t, "!", p.Get("", KeyPrefix, nil))

			require.NoError(t, p.Clear("g1"))
			assert.Equal(t, []string{Global}, p.Guilds())
		})
	}
}

func TestStorageWritesAfterClose(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "settings.json"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Set("g1", KeyPrefix, "?"), datastore.ErrClosed)
	_, err = s.Remove("g1", KeyPrefix)
	assert.ErrorIs(t, err, datastore.ErrClosed)
	assert.ErrorIs(t, s.Clear("g1"), datastore.ErrClosed)
}

func TestGuildKey(t *testing.T) {
	assert.Equal(t, Global, GuildKey(""))
	assert.Equal(t, "123", GuildKey("123"))
	assert.Equal(t, "", guildID(Global))
}

type prefixes map[string]string

func (p prefixes) LoadPrefix(guildID, prefix string) { p[guildID] = prefix }

func newRegistry(t *testing.T) *command.Registry {
	t.Helper()
	reg := command.NewRegistry(command.NewBus())
	require.NoError(t, reg.RegisterGroups(command.NewGroup("fun", "Fun", false)))
	require.NoError(t, reg.Register(newCommand(t, "roll")))
	return reg
}

func newCommand(t *testing.T, name string) *command.Command {
	t.Helper()
	c, err := command.New(command.Info{
		Name:        name,
		Group:       "fun",
		Description: "test command",
		Run:         func(context.Context, *command.Message, command.Args) error { return nil },
	})
	require.NoError(t, err)
	return c
}

func TestBind(t *testing.T) {
	p, err := New(filepath.Join(t.TempDir(), "settings.json"))
	require.NoError(t, err)
	defer p.Close()
	require.NoError(t, p.Set("", KeyPrefix, "$"))
	require.NoError(t, p.Set("g1", CommandKey("roll"), false))
	require.NoError(t, p.Set("g2", GroupKey("fun"), false))
	require.NoError(t, p.Set("g1", CommandKey("flip"), false))

	reg := newRegistry(t)
	loaded := prefixes{}
	unbind := Bind(p, reg, loaded)
	defer unbind()

	assert.Equal(t, prefixes{"": "$"}, loaded)
	roll := reg.Command("roll")
	assert.False(t, roll.IsEnabledIn("g1"))
	assert.False(t, roll.IsEnabledIn("g2"))
	assert.True(t, roll.IsEnabledIn("g3"))

	flip := newCommand(t, "flip")
	require.NoError(t, reg.Register(flip))
	assert.False(t, flip.IsEnabledIn("g1"), "state applies to commands registered later")

	require.NoError(t, roll.SetEnabledIn("g1", true))
	assert.Equal(t, true, p.Get("g1", CommandKey("roll"), nil))
	require.NoError(t, reg.Group("fun").SetEnabledIn("g2", true))
	assert.Equal(t, true, p.Get("g2", GroupKey("fun"), nil))

	reg.Events().Publish(command.Event{Type: command.EventCommandPrefixChange, GuildID: "g1", Prefix: "?"})
	assert.Equal(t, "?", p.Get("g1", KeyPrefix, nil))
	reg.Events().Publish(command.Event{Type: command.EventCommandPrefixChange, GuildID: "g1", Reset: true})
	assert.Nil(t, p.Get("g1", KeyPrefix, nil))
}
