package status

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/commando/internal/command"
)

func newServer(t *testing.T) (*Server, *command.Registry) {
	t.Helper()
	reg := command.NewRegistry(command.NewBus())
	require.NoError(t, reg.RegisterGroups(command.NewGroup("util", "Utility", false)))
	noop := func(context.Context, *command.Message, command.Args) error { return nil }
	require.NoError(t, reg.Register(
		command.MustNew(command.Info{Name: "ping", Group: "util", Description: "Pong.", Run: noop}),
		command.MustNew(command.Info{
			Name: "purge", Aliases: []string{"prune"}, Group: "util", Description: "Deletes messages.", GuildOnly: true,
			ClientPermissions: []int64{discordgo.PermissionManageMessages}, Run: noop,
		}),
		command.MustNew(command.Info{Name: "secret", Group: "util", Description: "Hidden.", Hidden: true, Run: noop}),
	))
	stats, unsubscribe := NewStats(reg.Events())
	t.Cleanup(unsubscribe)
	return New(reg, stats), reg
}

func get(t *testing.T, s *Server, path string, out any) int {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec.Code
}

func TestHealth(t *testing.T) {
	s, _ := newServer(t)
	var body map[string]string
	assert.Equal(t, http.StatusOK, get(t, s, "/healthz", &body))
	assert.Equal(t, "ok", body["status"])
}

func TestCommands(t *testing.T) {
	s, reg := newServer(t)
	require.NoError(t, reg.Command("ping").SetEnabledIn("", false))

	var views []commandView
	assert.Equal(t, http.StatusOK, get(t, s, "/commands", &views))
	require.Len(t, views, 2)
	assert.Equal(t, "ping", views[0].Name)
	assert.False(t, views[0].Enabled)
	assert.Equal(t, commandView{
		Name: "purge", Aliases: []string{"prune"}, Group: "util", Description: "Deletes messages.",
		GuildOnly: true, Enabled: true, ClientPermissions: []string{"Manage Messages"},
	}, views[1])

	var one commandView
	assert.Equal(t, http.StatusOK, get(t, s, "/commands/prune", &one))
	assert.Equal(t, "purge", one.Name)
	assert.Equal(t, http.StatusNotFound, get(t, s, "/commands/nope", nil))
}

func TestStats(t *testing.T) {
	s, reg := newServer(t)
	bus := reg.Events()
	ping := reg.Command("ping")
	bus.Publish(command.Event{Type: command.EventCommandRun, Command: ping})
	bus.Publish(command.Event{Type: command.EventCommandRun, Command: ping})
	bus.Publish(command.Event{Type: command.EventCommandBlocked, Command: ping, Reason: command.BlockThrottling})
	bus.Publish(command.Event{Type: command.EventUnknownCommand})

	var snap Snapshot
	assert.Equal(t, http.StatusOK, get(t, s, "/stats", &snap))
	assert.Equal(t, 2, snap.Events[command.EventCommandRun])
	assert.Equal(t, 1, snap.Events[command.EventUnknownCommand])
	assert.Equal(t, 1, snap.Blocked[command.BlockThrottling])
	assert.Equal(t, map[string]int{"ping": 2}, snap.Commands)
}

func TestMethodNotAllowed(t *testing.T) {
	s, _ := newServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/commands", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
