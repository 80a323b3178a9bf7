// Package core holds the built-in commands every bot gets: help, ping, prefix
// and the command management commands.
package core

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/commando/internal/client"
	"github.com/keshon/commando/internal/command"
)

// Group ids used by the built-ins.
const (
	GroupCommands = "commands"
	GroupUtil     = "util"
)

// Groups returns the groups the built-ins live in. The commands group is
// guarded so it can never be switched off.
func Groups() []*command.Group {
	return []*command.Group{
		command.NewGroup(GroupCommands, "Commands", true),
		command.NewGroup(GroupUtil, "Utility", false),
	}
}

// Register adds the built-in groups and commands to c.
func Register(c *client.Client) error {
	if err := c.RegisterGroups(Groups()...); err != nil {
		return fmt.Errorf("register core groups: %w", err)
	}
	reg := c.Registry()
	cmds := []*command.Command{
		Help(reg),
		Ping(),
		Prefix(c),
		Enable(reg),
		Disable(reg),
		ListGroups(reg),
		Unload(reg),
	}
	if err := c.Register(cmds...); err != nil {
		return fmt.Errorf("register core commands: %w", err)
	}
	return nil
}

// canManage reports whether the author may change settings where m was sent:
// owners anywhere, administrators in their guild.
func canManage(ctx context.Context, m *command.Message) (bool, error) {
	if m.Backend().IsOwner(m.AuthorID()) {
		return true, nil
	}
	if m.Channel.IsDM() {
		return false, nil
	}
	perms, err := m.Chat().Permissions(ctx, m.ChannelID(), m.AuthorID())
	if err != nil {
		return false, fmt.Errorf("author permissions: %w", err)
	}
	return perms.Has(discordgo.PermissionAdministrator), nil
}

func requireManager(ctx context.Context, m *command.Message) error {
	ok, err := canManage(ctx, m)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if m.Channel.IsDM() {
		return command.Friendly("Only the bot owner may change global settings.")
	}
	return command.Friendly("Only administrators may use the `%s` command.", m.Command.Name())
}
