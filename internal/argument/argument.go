package argument

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultWait is the per-prompt timeout when an Argument does not set one.
var DefaultWait = 30 * time.Second

// CancelReason says why collection stopped. Empty means it did not.
type CancelReason string

const (
	CancelUser        CancelReason = "user"
	CancelTime        CancelReason = "time"
	CancelPromptLimit CancelReason = "promptLimit"
)

// Argument declares one value a command accepts.
type Argument struct {
	// Key names the value in the collected Values.
	Key string
	// Label is used in prompts; defaults to Key.
	Label string
	// Prompt is sent when the value is missing.
	Prompt string
	Type   Type
	// Default makes the argument optional. Nil means required.
	Default any
	// Infinite accepts any number of values; only the last argument may be infinite.
	Infinite bool
	// Wait is how long each prompt waits for a reply. Zero uses DefaultWait,
	// negative waits forever.
	Wait time.Duration

	// OneOf restricts values (compared case-insensitively).
	OneOf []string
	// Min and Max bound numbers, or string length for text types.
	Min *float64
	Max *float64

	// Validator, Parser and Empty override the Type behaviour when set.
	Validator func(ctx context.Context, value string, conv Conversation, arg *Argument) (Verdict, error)
	Parser    func(ctx context.Context, value string, conv Conversation, arg *Argument) (any, error)
	Empty     func(value any, conv Conversation, arg *Argument) bool
}

// Bound is a helper for Argument.Min and Argument.Max.
func Bound(v float64) *float64 { return &v }

// Outcome is the result of obtaining one argument.
type Outcome struct {
	Value     any
	Cancelled CancelReason
	Prompts   []string
	Answers   []string
}

var (
	ErrNoKey         = errors.New("argument: key must not be empty")
	ErrNoPrompt      = errors.New("argument: prompt must not be empty")
	ErrNoType        = errors.New("argument: type or validator and parser required")
	ErrInvalidBounds = errors.New("argument: min is greater than max")
)

// Check reports configuration mistakes.
func (a *Argument) Check() error {
	if a.Key == "" {
		return ErrNoKey
	}
	if a.Prompt == "" {
		return fmt.Errorf("%q: %w", a.Key, ErrNoPrompt)
	}
	if a.Type == nil && (a.Validator == nil || a.Parser == nil) {
		return fmt.Errorf("%q: %w", a.Key, ErrNoType)
	}
	if a.Min != nil && a.Max != nil && *a.Min > *a.Max {
		return fmt.Errorf("%q: %w", a.Key, ErrInvalidBounds)
	}
	return nil
}

// DisplayLabel returns Label, or Key when Label is empty.
func (a *Argument) DisplayLabel() string {
	if a.Label != "" {
		return a.Label
	}
	return a.Key
}

func (a *Argument) wait() time.Duration {
	switch {
	case a.Wait < 0:
		return 0
	case a.Wait == 0:
		return DefaultWait
	}
	return a.Wait
}

func (a *Argument) waitNotice() string {
	w := a.wait()
	if w <= 0 {
		return ""
	}
	return fmt.Sprintf(" The command will automatically be cancelled in %d seconds.", int(w.Round(time.Second)/time.Second))
}

// Validate runs the validator override or the type.
func (a *Argument) Validate(ctx context.Context, value string, conv Conversation) (Verdict, error) {
	if a.Validator != nil {
		return a.Validator(ctx, value, conv, a)
	}
	return a.Type.Validate(ctx, value, conv, a)
}

// Parse runs the parser override or the type.
func (a *Argument) Parse(ctx context.Context, value string, conv Conversation) (any, error) {
	if a.Parser != nil {
		return a.Parser(ctx, value, conv, a)
	}
	return a.Type.Parse(ctx, value, conv, a)
}

// IsEmpty runs the emptiness override, the type, or IsEmptyValue.
func (a *Argument) IsEmpty(value any, conv Conversation) bool {
	if a.Empty != nil {
		return a.Empty(value, conv, a)
	}
	if a.Type != nil {
		return a.Type.IsEmpty(value, conv, a)
	}
	return IsEmptyValue(value)
}

func isCommandWord(answer, word string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), word)
}

// Obtain resolves the argument from provided, prompting through conv until a
// valid value arrives, promptLimit prompts were sent, the author cancels or a
// prompt times out. Replies are read from aw.
func (a *Argument) Obtain(ctx context.Context, conv Conversation, provided string, promptLimit int, aw *Awaiting) (*Outcome, error) {
	out := &Outcome{}
	empty := a.IsEmpty(provided, conv)
	if empty && a.Default != nil {
		out.Value = a.Default
		return out, nil
	}

	value := provided
	verdict := Verdict{}
	if !empty {
		var err error
		if verdict, err = a.Validate(ctx, value, conv); err != nil {
			return nil, err
		}
	}

	for !verdict.Valid {
		if len(out.Prompts) >= promptLimit {
			out.Cancelled = CancelPromptLimit
			return out, nil
		}

		var text string
		switch {
		case empty:
			text = a.Prompt
		case verdict.Reason != "":
			text = verdict.Reason
		default:
			text = fmt.Sprintf("You provided an invalid %s. Please try again.", a.DisplayLabel())
		}
		text += "\nRespond with `cancel` to cancel the command." + a.waitNotice()
		aw.Expect(KeyOf(conv))
		if err := conv.Prompt(ctx, text); err != nil {
			return nil, fmt.Errorf("prompt %q: %w", a.Key, err)
		}
		out.Prompts = append(out.Prompts, text)

		answer, ok, err := aw.Wait(ctx, KeyOf(conv), a.wait())
		if err != nil {
			return nil, err
		}
		if !ok {
			out.Cancelled = CancelTime
			return out, nil
		}
		out.Answers = append(out.Answers, answer)
		if isCommandWord(answer, "cancel") {
			out.Cancelled = CancelUser
			return out, nil
		}

		value = answer
		empty = a.IsEmpty(value, conv)
		if empty && a.Default != nil {
			out.Value = a.Default
			return out, nil
		}
		if empty {
			verdict = Verdict{}
			continue
		}
		if verdict, err = a.Validate(ctx, value, conv); err != nil {
			return nil, err
		}
	}

	parsed, err := a.Parse(ctx, value, conv)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", a.Key, err)
	}
	out.Value = parsed
	return out, nil
}

// ObtainInfinite resolves an infinite argument. Each provided value is validated
// and replaced through prompts when invalid; with nothing provided the author is
// prompted until they answer `finish`. The value is a []any.
func (a *Argument) ObtainInfinite(ctx context.Context, conv Conversation, provided []string, promptLimit int, aw *Awaiting) (*Outcome, error) {
	out := &Outcome{}
	if a.IsEmpty(provided, conv) && a.Default != nil {
		out.Value = a.Default
		return out, nil
	}

	var results []any
	for current := 0; ; current++ {
		var value string
		if current < len(provided) {
			value = provided[current]
		}

		verdict := Verdict{}
		if value != "" {
			var err error
			if verdict, err = a.Validate(ctx, value, conv); err != nil {
				return nil, err
			}
		}

		for attempts := 1; !verdict.Valid; attempts++ {
			if attempts > promptLimit {
				out.Cancelled = CancelPromptLimit
				return out, nil
			}

			// Every reply is read after a prompt, so empty answers are prompted again.
			var text string
			if value != "" {
				reason := verdict.Reason
				if reason == "" {
					reason = fmt.Sprintf("You provided an invalid %s, %q. Please try again.", a.DisplayLabel(), value)
				}
				text = reason + "\nRespond with `cancel` to cancel the command, or `finish` to finish entry up to this point." + a.waitNotice()
			} else {
				text = a.Prompt + "\nRespond with `cancel` to cancel the command, or `finish` to finish entry." + a.waitNotice()
			}
			aw.Expect(KeyOf(conv))
			if err := conv.Prompt(ctx, text); err != nil {
				return nil, fmt.Errorf("prompt %q: %w", a.Key, err)
			}
			out.Prompts = append(out.Prompts, text)

			answer, ok, err := aw.Wait(ctx, KeyOf(conv), a.wait())
			if err != nil {
				return nil, err
			}
			if !ok {
				out.Cancelled = CancelTime
				return out, nil
			}
			out.Answers = append(out.Answers, answer)

			switch {
			case isCommandWord(answer, "finish"):
				if len(results) > 0 {
					out.Value = results
				} else if a.Default != nil {
					out.Value = a.Default
				} else {
					out.Cancelled = CancelUser
				}
				return out, nil
			case isCommandWord(answer, "cancel"):
				out.Cancelled = CancelUser
				return out, nil
			}

			value = answer
			if a.IsEmpty(value, conv) {
				verdict = Verdict{}
				continue
			}
			if verdict, err = a.Validate(ctx, value, conv); err != nil {
				return nil, err
			}
		}

		parsed, err := a.Parse(ctx, value, conv)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", a.Key, err)
		}
		results = append(results, parsed)

		if len(provided) > 0 && current+1 >= len(provided) {
			out.Value = results
			return out, nil
		}
	}
}
