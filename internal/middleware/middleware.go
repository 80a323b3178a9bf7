// Package middleware holds the gates every chat command passes before its
// arguments are collected.
package middleware

import (
	"github.com/keshon/commando/internal/command"
	"github.com/keshon/commando/pkg/cmd"
)

// Gates returns the default middlewares in the order they run.
func Gates() []cmd.Middleware {
	return []cmd.Middleware{
		WithCommandLogger(),
		WithEnabledCheck(),
		WithGuildOnly(),
		WithNSFW(),
		WithUserPermissionCheck(),
		WithClientPermissionCheck(),
		WithThrottling(),
	}
}

func message(inv *cmd.Invocation) (*command.Message, bool) {
	m, ok := inv.Data.(*command.Message)
	return m, ok && m.Command != nil
}

// silenced reports whether a block reply should be skipped for pattern triggers.
func silenced(m *command.Message, replyOnPattern bool) bool {
	return m.FromPattern() && !replyOnPattern
}
