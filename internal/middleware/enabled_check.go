package middleware

import (
	"context"
	"fmt"

	"github.com/keshon/commando/pkg/cmd"
)

// WithEnabledCheck refuses commands disabled in the guild, directly or through their group.
func WithEnabledCheck() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			m, ok := message(inv)
			if !ok || m.Command.IsEnabledIn(m.GuildID()) {
				return c.Run(ctx, inv)
			}
			_, err := m.Reply(ctx, fmt.Sprintf("The `%s` command is disabled.", m.Command.Name()))
			return err
		})
	}
}
