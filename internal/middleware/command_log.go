package middleware

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/keshon/commando/pkg/cmd"
)

// WithCommandLogger logs each invocation once it finished.
func WithCommandLogger() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			m, ok := message(inv)
			if !ok {
				return c.Run(ctx, inv)
			}

			start := time.Now()
			err := c.Run(ctx, inv)
			entry := log.WithFields(log.Fields{
				"invocation": inv.ID,
				"command":    m.Command.Name(),
				"guild":      m.GuildID(),
				"channel":    m.ChannelID(),
				"user":       m.AuthorID(),
				"pattern":    m.FromPattern(),
				"took":       time.Since(start).Round(time.Millisecond),
			})
			if err != nil {
				entry.Warnf("[Command] %s returned: %v", m.Command.Name(), err)
			} else {
				entry.Debugf("[Command] %s handled", m.Command.Name())
			}
			return err
		})
	}
}
