package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/keshon/commando/internal/argument"
)

// CommandType resolves a registered command by name, alias or "group:member".
type CommandType struct{ reg *Registry }

// GroupType resolves a registered group by id or name.
type GroupType struct{ reg *Registry }

// CommandOrGroupType resolves a group first and falls back to a command.
type CommandOrGroupType struct{ reg *Registry }

func NewCommandType(reg *Registry) *CommandType               { return &CommandType{reg: reg} }
func NewGroupType(reg *Registry) *GroupType                   { return &GroupType{reg: reg} }
func NewCommandOrGroupType(reg *Registry) *CommandOrGroupType { return &CommandOrGroupType{reg: reg} }

// RegisterArgumentTypes makes the registry-backed types available by id.
func RegisterArgumentTypes(reg *Registry) {
	argument.RegisterType(NewCommandType(reg))
	argument.RegisterType(NewGroupType(reg))
	argument.RegisterType(NewCommandOrGroupType(reg))
}

func commandName(c *Command) string { return c.info.Name }
func groupName(g *Group) string     { return g.Name }

func (t *CommandType) ID() string { return "command" }

func (t *CommandType) resolve(value string) (*Command, argument.Verdict) {
	found := t.reg.FindCommands(value, false)
	if len(found) == 1 {
		return found[0], argument.Valid
	}
	if len(found) == 0 {
		return nil, argument.Verdict{}
	}
	if len(found) >= argument.MaxDisambiguation {
		return nil, argument.Invalid("Multiple commands found. Please be more specific.")
	}
	return nil, argument.Verdict{Reason: argument.Disambiguation(names(found, commandName), "commands")}
}

func (t *CommandType) Validate(_ context.Context, value string, _ argument.Conversation, _ *argument.Argument) (argument.Verdict, error) {
	_, v := t.resolve(value)
	return v, nil
}

func (t *CommandType) Parse(_ context.Context, value string, _ argument.Conversation, _ *argument.Argument) (any, error) {
	c, v := t.resolve(value)
	if !v.Valid {
		return nil, fmt.Errorf("command %q did not resolve", value)
	}
	return c, nil
}

func (t *CommandType) IsEmpty(value any, _ argument.Conversation, _ *argument.Argument) bool {
	return argument.IsEmptyValue(value)
}

func (t *GroupType) ID() string { return "group" }

func (t *GroupType) resolve(value string) (*Group, argument.Verdict) {
	found := t.reg.FindGroups(value, false)
	if len(found) == 1 {
		return found[0], argument.Valid
	}
	if len(found) == 0 {
		return nil, argument.Verdict{}
	}
	if len(found) >= argument.MaxDisambiguation {
		return nil, argument.Invalid("Multiple groups found. Please be more specific.")
	}
	return nil, argument.Verdict{Reason: argument.Disambiguation(names(found, groupName), "groups")}
}

func (t *GroupType) Validate(_ context.Context, value string, _ argument.Conversation, _ *argument.Argument) (argument.Verdict, error) {
	_, v := t.resolve(value)
	return v, nil
}

func (t *GroupType) Parse(_ context.Context, value string, _ argument.Conversation, _ *argument.Argument) (any, error) {
	g, v := t.resolve(value)
	if !v.Valid {
		return nil, fmt.Errorf("group %q did not resolve", value)
	}
	return g, nil
}

func (t *GroupType) IsEmpty(value any, _ argument.Conversation, _ *argument.Argument) bool {
	return argument.IsEmptyValue(value)
}

func (t *CommandOrGroupType) ID() string { return "command-or-group" }

// Validate accepts a unique group, then a unique command; otherwise it lists
// the candidates of both kinds.
func (t *CommandOrGroupType) Validate(_ context.Context, value string, _ argument.Conversation, _ *argument.Argument) (argument.Verdict, error) {
	groups := t.reg.FindGroups(value, false)
	if len(groups) == 1 {
		return argument.Valid, nil
	}
	commands := t.reg.FindCommands(value, false)
	if len(commands) == 1 {
		return argument.Valid, nil
	}
	if len(groups) == 0 && len(commands) == 0 {
		return argument.Verdict{}, nil
	}

	var reasons []string
	switch {
	case len(commands) >= argument.MaxDisambiguation:
		reasons = append(reasons, "Multiple commands found. Please be more specific.")
	case len(commands) > 1:
		reasons = append(reasons, argument.Disambiguation(names(commands, commandName), "commands"))
	}
	switch {
	case len(groups) >= argument.MaxDisambiguation:
		reasons = append(reasons, "Multiple groups found. Please be more specific.")
	case len(groups) > 1:
		reasons = append(reasons, argument.Disambiguation(names(groups, groupName), "groups"))
	}
	return argument.Verdict{Reason: strings.Join(reasons, "\n")}, nil
}

// Parse returns a *Group or a *Command.
func (t *CommandOrGroupType) Parse(_ context.Context, value string, _ argument.Conversation, _ *argument.Argument) (any, error) {
	if groups := t.reg.FindGroups(value, false); len(groups) == 1 {
		return groups[0], nil
	}
	if commands := t.reg.FindCommands(value, false); len(commands) == 1 {
		return commands[0], nil
	}
	return nil, fmt.Errorf("command or group %q did not resolve", value)
}

func (t *CommandOrGroupType) IsEmpty(value any, _ argument.Conversation, _ *argument.Argument) bool {
	return argument.IsEmptyValue(value)
}

func names[T any](items []T, name func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, name(it))
	}
	return out
}
