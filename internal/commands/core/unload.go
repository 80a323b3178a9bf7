package core

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/keshon/commando/internal/argument"
	"github.com/keshon/commando/internal/command"
)

// Unload removes a command from the registry until the bot restarts.
func Unload(reg *command.Registry) *command.Command {
	return command.MustNew(command.Info{
		Name:        "unload",
		Aliases:     []string{"unload-command"},
		Group:       GroupCommands,
		Description: "Unloads a command.",
		Details:     "The argument must be the name/ID (partial or whole) of a command. Only the bot owner may use this command.",
		Examples:    []string{"unload some-command"},
		OwnerOnly:   true,
		Guarded:     true,
		Args: []*argument.Argument{{
			Key:    "command",
			Prompt: "Which command would you like to unload?",
			Type:   command.NewCommandType(reg),
		}},
		Run: func(ctx context.Context, m *command.Message, args command.Args) error {
			value, _ := args.Values.Get("command")
			target, ok := value.(*command.Command)
			if !ok {
				return fmt.Errorf("unload: unexpected value %T", value)
			}
			if err := reg.Unregister(target); err != nil {
				return fmt.Errorf("unload %s: %w", target.Name(), err)
			}
			log.WithField("user", m.AuthorID()).Infof("[Core] unloaded command %s", target.Name())
			_, err := m.Reply(ctx, fmt.Sprintf("Unloaded the command `%s`.", target.Name()))
			return err
		},
	})
}
