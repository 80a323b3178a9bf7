package middleware

import (
	"context"
	"fmt"

	"github.com/keshon/commando/internal/command"
	"github.com/keshon/commando/pkg/cmd"
)

// WithGuildOnly blocks guild-only commands outside of a server channel.
func WithGuildOnly() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			m, ok := message(inv)
			if !ok || !m.Command.Info().GuildOnly || !m.Channel.IsDM() {
				return c.Run(ctx, inv)
			}
			return m.Block(ctx, command.BlockGuildOnly,
				fmt.Sprintf("The `%s` command must be used in a server channel.", m.Command.Name()), false)
		})
	}
}

// WithNSFW blocks NSFW commands in channels not marked NSFW.
func WithNSFW() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			m, ok := message(inv)
			if !ok || !m.Command.Info().NSFW || m.Channel.NSFW {
				return c.Run(ctx, inv)
			}
			return m.Block(ctx, command.BlockNSFW,
				fmt.Sprintf("The `%s` command must be used in NSFW channels.", m.Command.Name()), false)
		})
	}
}
