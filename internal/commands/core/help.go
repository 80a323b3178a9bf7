package core

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/keshon/commando/internal/argument"
	"github.com/keshon/commando/internal/chat"
	"github.com/keshon/commando/internal/command"
)

// Help lists the commands the author can use, or details one command.
func Help(reg *command.Registry) *command.Command {
	h := &help{reg: reg}
	return command.MustNew(command.Info{
		Name:        "help",
		Aliases:     []string{"commands"},
		Group:       GroupUtil,
		Description: "Displays a list of available commands, or detailed information for a specified command.",
		Details: "The command may be part of a command name or a whole command name. " +
			"If it isn't specified, all available commands will be listed.",
		Examples: []string{"help", "help prefix"},
		Guarded:  true,
		Args: []*argument.Argument{{
			Key:     "command",
			Prompt:  "Which command would you like to view the help for?",
			Type:    argument.String,
			Default: "",
		}},
		Run: h.run,
	})
}

type help struct {
	reg *command.Registry
}

func (h *help) run(ctx context.Context, m *command.Message, args command.Args) error {
	search := args.Values.String("command")
	showAll := strings.EqualFold(search, "all")
	if search != "" && !showAll {
		return h.one(ctx, m, search)
	}

	text, err := h.list(ctx, m, showAll)
	if err != nil {
		return err
	}
	return h.direct(ctx, m, text)
}

func (h *help) one(ctx context.Context, m *command.Message, search string) error {
	found := h.reg.FindCommands(search, false)
	switch {
	case len(found) == 1:
		return h.direct(ctx, m, details(m, found[0]))
	case len(found) >= argument.MaxDisambiguation:
		_, err := m.Reply(ctx, "Multiple commands found. Please be more specific.")
		return err
	case len(found) > 1:
		names := make([]string, 0, len(found))
		for _, c := range found {
			names = append(names, c.Name())
		}
		_, err := m.Reply(ctx, argument.Disambiguation(names, "commands"))
		return err
	}
	_, err := m.Reply(ctx, fmt.Sprintf("Unable to identify command. Use %s to view the list of all commands.", m.Usage("")))
	return err
}

// direct sends text to the author and acknowledges it in guild channels.
func (h *help) direct(ctx context.Context, m *command.Message, text string) error {
	if _, err := m.Direct(ctx, text, command.SendOptions{Split: &chat.SplitOptions{}}); err != nil {
		log.WithField("user", m.AuthorID()).Debugf("[Help] direct message failed: %v", err)
		_, err = m.Reply(ctx, "Unable to send you the help DM. You probably have DMs disabled.")
		return err
	}
	if m.Channel.IsDM() {
		return nil
	}
	_, err := m.Reply(ctx, "Sent you a DM with information.")
	return err
}

func details(m *command.Message, c *command.Command) string {
	info := c.Info()
	var b strings.Builder
	fmt.Fprintf(&b, "__Command **%s**:__ %s", info.Name, info.Description)
	if info.GuildOnly {
		b.WriteString(" (Usable only in servers)")
	}
	if info.NSFW {
		b.WriteString(" (NSFW)")
	}

	format := info.Name
	if info.Format != "" {
		format += " " + info.Format
	}
	fmt.Fprintf(&b, "\n**Format:** %s", m.AnyUsage(format))
	if len(info.Aliases) > 0 {
		fmt.Fprintf(&b, "\n**Aliases:** %s", strings.Join(info.Aliases, ", "))
	}
	groupName := info.Group
	if g := c.Group(); g != nil {
		groupName = g.Name
	}
	fmt.Fprintf(&b, "\n**Group:** %s (`%s:%s`)", groupName, info.Group, info.MemberName)
	if info.Details != "" {
		fmt.Fprintf(&b, "\n**Details:** %s", info.Details)
	}
	if len(info.Examples) > 0 {
		fmt.Fprintf(&b, "\n**Examples:**\n%s", strings.Join(info.Examples, "\n"))
	}
	return b.String()
}

func (h *help) list(ctx context.Context, m *command.Message, showAll bool) (string, error) {
	self := m.Chat().Self()
	where, prefix := "any server", ""
	if m.Trigger.InGuild() {
		where = "this server"
		if g, err := m.Chat().Guild(ctx, m.GuildID()); err == nil {
			where = g.Name
		}
		prefix = m.Backend().Prefix(m.GuildID())
	}

	usable := func(*command.Command) bool { return true }
	if !showAll {
		check, err := usableBy(ctx, m)
		if err != nil {
			return "", err
		}
		usable = check
	}

	var b strings.Builder
	fmt.Fprintf(&b, "To run a command in %s, use %s. For example, %s.\n",
		where, command.AnyUsage("command", prefix, &self), command.AnyUsage("prefix", prefix, &self))
	fmt.Fprintf(&b, "To run a command in this DM, simply use %s with no prefix.\n\n", command.AnyUsage("command", "", nil))
	fmt.Fprintf(&b, "Use %s to view detailed information about a specific command.\n", m.Command.Usage("<command>", "", nil))
	fmt.Fprintf(&b, "Use %s to view a list of *all* commands, not just available ones.\n\n", m.Command.Usage("all", "", nil))

	if showAll {
		b.WriteString("__**All commands**__\n\n")
	} else {
		scope := "this DM"
		if m.Trigger.InGuild() {
			scope = where
		}
		fmt.Fprintf(&b, "__**Available commands in %s**__\n\n", scope)
	}

	var sections []string
	for _, g := range h.reg.Groups() {
		var lines []string
		for _, c := range g.Commands() {
			if c.Info().Hidden || !usable(c) {
				continue
			}
			line := fmt.Sprintf("**%s:** %s", c.Name(), c.Description())
			if c.Info().NSFW {
				line += " (NSFW)"
			}
			lines = append(lines, line)
		}
		if len(lines) > 0 {
			sections = append(sections, "__"+g.Name+"__\n"+strings.Join(lines, "\n"))
		}
	}
	b.WriteString(strings.Join(sections, "\n\n"))
	return b.String(), nil
}

// usableBy returns a filter for the commands the author could run where m was sent.
func usableBy(ctx context.Context, m *command.Message) (func(*command.Command) bool, error) {
	owner := m.Backend().IsOwner(m.AuthorID())
	inGuild := m.Trigger.InGuild()
	var perms chat.Permissions
	if inGuild && !owner {
		p, err := m.Chat().Permissions(ctx, m.ChannelID(), m.AuthorID())
		if err != nil {
			return nil, fmt.Errorf("author permissions: %w", err)
		}
		perms = p
	}

	return func(c *command.Command) bool {
		info := c.Info()
		switch {
		case !c.IsEnabledIn(m.GuildID()):
			return false
		case info.GuildOnly && !inGuild:
			return false
		case info.NSFW && !m.Channel.NSFW:
			return false
		case owner:
			return true
		case info.OwnerOnly:
			return false
		case inGuild && len(perms.Missing(info.UserPermissions...)) > 0:
			return false
		}
		return true
	}, nil
}
