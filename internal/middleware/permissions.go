package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/keshon/commando/internal/chat"
	"github.com/keshon/commando/internal/command"
	"github.com/keshon/commando/pkg/cmd"
)

// WithUserPermissionCheck runs Message.HasPermission and blocks when it fails.
func WithUserPermissionCheck() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			m, ok := message(inv)
			if !ok {
				return c.Run(ctx, inv)
			}

			allowed, msg, err := m.HasPermission(ctx)
			if err != nil {
				return fmt.Errorf("permission check: %w", err)
			}
			if allowed {
				return c.Run(ctx, inv)
			}
			if msg == "" {
				msg = fmt.Sprintf("You do not have permission to use the `%s` command.", m.Command.Name())
			}
			silent := silenced(m, m.Backend().Options().CommandBlockedMessagePattern)
			return m.Block(ctx, command.BlockPermission, msg, silent)
		})
	}
}

// WithClientPermissionCheck blocks when the bot lacks the command's client
// permissions in a guild channel.
func WithClientPermissionCheck() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			m, ok := message(inv)
			if !ok || m.Channel.IsDM() || len(m.Command.Info().ClientPermissions) == 0 {
				return c.Run(ctx, inv)
			}

			client := m.Chat()
			perms, err := client.Permissions(ctx, m.Channel.ID, client.Self().ID)
			if err != nil {
				return fmt.Errorf("client permissions: %w", err)
			}
			missing := perms.Missing(m.Command.Info().ClientPermissions...)
			if len(missing) == 0 {
				return c.Run(ctx, inv)
			}

			var msg string
			if len(missing) == 1 {
				msg = fmt.Sprintf("I need the `%s` permission for the `%s` command to work.",
					chat.PermissionName(missing[0]), m.Command.Name())
			} else {
				names := chat.PermissionList(missing)
				for i, n := range names {
					names[i] = "`" + n + "`"
				}
				msg = fmt.Sprintf("I need the following permissions for the `%s` command to work:\n%s",
					m.Command.Name(), strings.Join(names, ", "))
			}
			silent := silenced(m, m.Backend().Options().CommandBlockedMessagePattern)
			return m.Block(ctx, command.BlockClientPermissions, msg, silent)
		})
	}
}
