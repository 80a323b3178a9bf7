package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type named string

func (n named) Name() string        { return string(n) }
func (n named) Description() string { return "test command" }

func (n named) Run(_ context.Context, inv *Invocation) error {
	inv.Args = append(inv.Args, "run")
	return nil
}

func tag(label string) Middleware {
	return func(c Command) Command {
		return Wrap(c, func(ctx context.Context, inv *Invocation) error {
			inv.Args = append(inv.Args, label)
			return c.Run(ctx, inv)
		})
	}
}

func TestApplyOrder(t *testing.T) {
	c := Apply(named("ping"), tag("first"), tag("second"))
	inv := NewInvocation(nil, nil)
	require.NoError(t, c.Run(context.Background(), inv))
	assert.Equal(t, []string{"first", "second", "run"}, inv.Args)
	assert.NotEmpty(t, inv.ID)
}

func TestRootAndDelegation(t *testing.T) {
	c := Apply(named("ping"), tag("a"), tag("b"))
	assert.Equal(t, "ping", c.Name())
	assert.Equal(t, "test command", c.Description())
	assert.Equal(t, named("ping"), Root(c))
}
