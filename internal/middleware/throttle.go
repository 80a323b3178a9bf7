package middleware

import (
	"context"
	"fmt"
	"math"

	"github.com/keshon/commando/internal/command"
	"github.com/keshon/commando/pkg/cmd"
)

// WithThrottling enforces the command's per-user usage limit. Owners are exempt.
func WithThrottling() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			m, ok := message(inv)
			if !ok || m.Backend().IsOwner(m.AuthorID()) {
				return c.Run(ctx, inv)
			}

			allowed, remaining := m.Command.Throttle(m.AuthorID())
			if allowed {
				return c.Run(ctx, inv)
			}
			seconds := int(math.Ceil(remaining.Seconds()))
			silent := silenced(m, m.Backend().Options().CommandThrottlingMessagePattern)
			return m.Block(ctx, command.BlockThrottling,
				fmt.Sprintf("You may not use the `%s` command again for another %d seconds.", m.Command.Name(), seconds), silent)
		})
	}
}
