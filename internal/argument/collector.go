package argument

import (
	"context"
	"errors"
	"fmt"
	"math"
)

const (
	// NoLimit disables the prompt limit.
	NoLimit = math.MaxInt
	// NoPrompts makes a collector cancel instead of prompting.
	NoPrompts = -1
)

var (
	ErrInfiniteNotLast    = errors.New("argument: no other argument may come after an infinite argument")
	ErrRequiredAfterOpt   = errors.New("argument: required arguments may not come after optional arguments")
	ErrDuplicateKey       = errors.New("argument: duplicate key")
	ErrInvalidPromptLimit = errors.New("argument: prompt limit must not be negative")
)

// Result is the outcome of Collector.Obtain. Values is nil when Cancelled is set.
// Prompts and Answers hold every prompt sent and every reply read, in order.
type Result struct {
	Values    *Values
	Cancelled CancelReason
	Prompts   []string
	Answers   []string
}

// Collector obtains an ordered list of arguments.
type Collector struct {
	args        []*Argument
	promptLimit int
	awaiting    *Awaiting
}

// NewCollector validates args and returns a collector. A promptLimit of 0
// means NoLimit; a negative one never prompts.
func NewCollector(args []*Argument, promptLimit int) (*Collector, error) {
	switch {
	case promptLimit == 0:
		promptLimit = NoLimit
	case promptLimit < 0:
		promptLimit = 0
	}
	seen := make(map[string]bool, len(args))
	hasInfinite, hasOptional := false, false
	for i, arg := range args {
		if err := arg.Check(); err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		if seen[arg.Key] {
			return nil, fmt.Errorf("%q: %w", arg.Key, ErrDuplicateKey)
		}
		seen[arg.Key] = true
		if hasInfinite {
			return nil, fmt.Errorf("%q: %w", arg.Key, ErrInfiniteNotLast)
		}
		if arg.Default != nil {
			hasOptional = true
		} else if hasOptional {
			return nil, fmt.Errorf("%q: %w", arg.Key, ErrRequiredAfterOpt)
		}
		if arg.Infinite {
			hasInfinite = true
		}
	}
	return &Collector{args: args, promptLimit: promptLimit, awaiting: DefaultAwaiting}, nil
}

// WithAwaiting returns a copy of the collector that registers with and reads
// replies from aw.
func (c *Collector) WithAwaiting(aw *Awaiting) *Collector {
	cp := *c
	cp.awaiting = aw
	return &cp
}

// Args returns the declared arguments.
func (c *Collector) Args() []*Argument { return c.args }

// PromptLimit returns the configured limit.
func (c *Collector) PromptLimit() int { return c.promptLimit }

// Obtain collects every argument with the collector's prompt limit.
func (c *Collector) Obtain(ctx context.Context, conv Conversation, provided []string) (*Result, error) {
	return c.ObtainWithLimit(ctx, conv, provided, c.promptLimit)
}

// ObtainWithLimit collects every argument in declaration order. provided[i]
// feeds argument i; an infinite argument receives the rest. The author and
// channel are marked as awaiting for the whole call.
func (c *Collector) ObtainWithLimit(ctx context.Context, conv Conversation, provided []string, promptLimit int) (*Result, error) {
	if promptLimit < 0 {
		return nil, ErrInvalidPromptLimit
	}
	release := c.awaiting.Acquire(KeyOf(conv))
	defer release()

	res := &Result{}
	values := newValues(len(c.args))
	for i, arg := range c.args {
		var (
			out *Outcome
			err error
		)
		if arg.Infinite {
			var batch []string
			if i < len(provided) {
				batch = provided[i:]
			}
			out, err = arg.ObtainInfinite(ctx, conv, batch, promptLimit, c.awaiting)
		} else {
			var value string
			if i < len(provided) {
				value = provided[i]
			}
			out, err = arg.Obtain(ctx, conv, value, promptLimit, c.awaiting)
		}
		if err != nil {
			return nil, err
		}

		res.Prompts = append(res.Prompts, out.Prompts...)
		res.Answers = append(res.Answers, out.Answers...)
		if out.Cancelled != "" {
			res.Cancelled = out.Cancelled
			return res, nil
		}
		values.set(arg.Key, out.Value)
	}
	res.Values = values
	return res, nil
}
