package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/keshon/commando/internal/argument"
	"github.com/keshon/commando/internal/command"
)

// Enable turns a command or group back on in the current guild, or globally
// in a DM.
func Enable(reg *command.Registry) *command.Command {
	return command.MustNew(command.Info{
		Name:        "enable",
		Aliases:     []string{"enable-command", "cmd-on", "command-on"},
		Group:       GroupCommands,
		Description: "Enables a command or command group.",
		Details: "The argument must be the name/ID (partial or whole) of a command or command group. " +
			"Only administrators may use this command.",
		Examples: []string{"enable util", "enable utility", "enable prefix"},
		Guarded:  true,
		Args: []*argument.Argument{{
			Key:    "cmdOrGrp",
			Label:  "command/group",
			Prompt: "Which command or group would you like to enable?",
			Type:   command.NewCommandOrGroupType(reg),
		}},
		Run: func(ctx context.Context, m *command.Message, args command.Args) error {
			return toggle(ctx, m, args, true)
		},
	})
}

// Disable turns a command or group off in the current guild, or globally in a DM.
func Disable(reg *command.Registry) *command.Command {
	return command.MustNew(command.Info{
		Name:        "disable",
		Aliases:     []string{"disable-command", "cmd-off", "command-off"},
		Group:       GroupCommands,
		Description: "Disables a command or command group.",
		Details: "The argument must be the name/ID (partial or whole) of a command or command group. " +
			"Only administrators may use this command.",
		Examples: []string{"disable util", "disable utility", "disable prefix"},
		Guarded:  true,
		Args: []*argument.Argument{{
			Key:    "cmdOrGrp",
			Label:  "command/group",
			Prompt: "Which command or group would you like to disable?",
			Type:   command.NewCommandOrGroupType(reg),
		}},
		Run: func(ctx context.Context, m *command.Message, args command.Args) error {
			return toggle(ctx, m, args, false)
		},
	})
}

// toggleable is what enable and disable switch.
type toggleable interface {
	IsEnabledIn(guildID string) bool
	SetEnabledIn(guildID string, enabled bool) error
}

func toggle(ctx context.Context, m *command.Message, args command.Args, enable bool) error {
	if err := requireManager(ctx, m); err != nil {
		return err
	}

	value, _ := args.Values.Get("cmdOrGrp")
	var (
		target     toggleable
		name, kind string
		group      *command.Group
	)
	switch v := value.(type) {
	case *command.Command:
		target, name, kind, group = v, v.Name(), "command", v.Group()
	case *command.Group:
		target, name, kind = v, v.Name, "group"
	default:
		return fmt.Errorf("toggle: unexpected value %T", value)
	}

	guildID := m.GuildID()
	state := "disabled"
	if enable {
		state = "enabled"
	}
	groupOff := ""
	if group != nil && !group.IsEnabledIn(guildID) {
		groupOff = fmt.Sprintf(", but the `%s` group is disabled, so it still can't be used", group.Name)
	}

	if target.IsEnabledIn(guildID) == enable {
		_, err := m.Reply(ctx, fmt.Sprintf("The `%s` %s is already %s%s.", name, kind, state, groupOff))
		return err
	}
	if err := target.SetEnabledIn(guildID, enable); err != nil {
		if errors.Is(err, command.ErrGuarded) {
			return command.Friendly("You cannot disable the `%s` %s.", name, kind)
		}
		return err
	}

	verb := "Disabled"
	if enable {
		verb = "Enabled"
	}
	_, err := m.Reply(ctx, fmt.Sprintf("%s the `%s` %s%s.", verb, name, kind, groupOff))
	return err
}
