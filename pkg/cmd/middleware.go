package cmd

// Middleware wraps a command (gates, logging, metrics). The result is still a Command.
type Middleware func(Command) Command

// Apply wraps c so that mws run in order: the first middleware is the outermost
// and sees the invocation first.
func Apply(c Command, mws ...Middleware) Command {
	for i := len(mws) - 1; i >= 0; i-- {
		c = mws[i](c)
	}
	return c
}
