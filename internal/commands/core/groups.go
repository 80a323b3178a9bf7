package core

import (
	"context"
	"strings"

	"github.com/keshon/commando/internal/command"
)

// ListGroups shows every group and whether it is enabled here.
func ListGroups(reg *command.Registry) *command.Command {
	return command.MustNew(command.Info{
		Name:        "groups",
		Aliases:     []string{"list-groups", "show-groups"},
		Group:       GroupCommands,
		Description: "Lists all command groups.",
		Details:     "Only administrators may use this command.",
		Guarded:     true,
		Run: func(ctx context.Context, m *command.Message, _ command.Args) error {
			if err := requireManager(ctx, m); err != nil {
				return err
			}
			lines := []string{"__**Groups**__"}
			for _, g := range reg.Groups() {
				state := "Disabled"
				if g.IsEnabledIn(m.GuildID()) {
					state = "Enabled"
				}
				lines = append(lines, "**"+g.Name+":** "+state)
			}
			_, err := m.Reply(ctx, strings.Join(lines, "\n"))
			return err
		},
	})
}
