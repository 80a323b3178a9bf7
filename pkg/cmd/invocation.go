// Package cmd is the transport-agnostic command core: a command has a name, a
// description and Run(ctx, invocation). Registration and dispatch live in the
// adapters that wrap it.
package cmd

import (
	"context"

	"github.com/google/uuid"
)

// Invocation is one execution of a command. Data carries the adapter's context
// (for chat commands, the *command.Message being handled).
type Invocation struct {
	ID   string
	Args []string
	Data any
}

// NewInvocation returns an invocation with a fresh ID.
func NewInvocation(args []string, data any) *Invocation {
	return &Invocation{ID: uuid.NewString(), Args: args, Data: data}
}

// Command is identity plus execution. Permissions, gating and arguments stay in adapters.
type Command interface {
	Name() string
	Description() string
	Run(ctx context.Context, inv *Invocation) error
}
