package core

import (
	"context"
	"fmt"
	"time"

	"github.com/keshon/commando/internal/command"
)

// heartbeater is implemented by transports that know their gateway latency.
type heartbeater interface {
	HeartbeatLatency() time.Duration
}

// Ping measures the message round trip and, when known, the gateway heartbeat.
func Ping() *command.Command {
	return command.MustNew(command.Info{
		Name:        "ping",
		Group:       GroupUtil,
		Description: "Checks the bot's ping to the Discord server.",
		Throttling:  &command.Throttling{Usages: 5, Duration: 10 * time.Second},
		Run: func(ctx context.Context, m *command.Message, _ command.Args) error {
			start := time.Now()
			resp, err := m.Reply(ctx, "Pinging...")
			if err != nil {
				return err
			}
			text := fmt.Sprintf("Pong! The message round-trip took %dms.", time.Since(start).Milliseconds())
			if hb, ok := m.Chat().(heartbeater); ok {
				text += fmt.Sprintf(" The heartbeat ping is %dms.", hb.HeartbeatLatency().Milliseconds())
			}
			_, err = m.EditResponse(ctx, resp, text)
			return err
		},
	})
}
