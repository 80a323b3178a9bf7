package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/keshon/commando/internal/argument"
	"github.com/keshon/commando/internal/client"
	"github.com/keshon/commando/internal/command"
)

// Prefix shows or changes the command prefix of the current guild, or the
// global prefix when used in a DM.
func Prefix(c *client.Client) *command.Command {
	return command.MustNew(command.Info{
		Name:        "prefix",
		Group:       GroupUtil,
		Description: "Shows or sets the command prefix.",
		Format:      "[prefix/\"default\"/\"none\"]",
		Details: "If no prefix is provided, the current prefix will be shown. " +
			"If the prefix is \"default\", the prefix will be reset to the bot's default prefix. " +
			"If the prefix is \"none\", the prefix will be removed entirely, only allowing mentions to run commands. " +
			"Only administrators may change the prefix.",
		Examples: []string{"prefix", "prefix -", "prefix omg!", "prefix default", "prefix none"},
		Args: []*argument.Argument{{
			Key:     "prefix",
			Prompt:  "What would you like to set the bot's prefix to?",
			Type:    argument.String,
			Max:     argument.Bound(15),
			Default: "",
		}},
		Run: func(ctx context.Context, m *command.Message, args command.Args) error {
			return setPrefix(ctx, c, m, args.Values.String("prefix"))
		},
	})
}

func setPrefix(ctx context.Context, c *client.Client, m *command.Message, arg string) error {
	guildID := m.GuildID()
	if arg == "" {
		text := "There is no command prefix."
		if prefix := c.Prefix(guildID); prefix != "" {
			text = fmt.Sprintf("The command prefix is `%s`.", prefix)
		}
		_, err := m.Reply(ctx, fmt.Sprintf("%s\nTo run commands, use %s.", text, m.AnyUsage("command")))
		return err
	}

	ok, err := canManage(ctx, m)
	if err != nil {
		return err
	}
	if !ok {
		if guildID == "" {
			return command.Friendly("Only the bot owner may change the global command prefix.")
		}
		return command.Friendly("Only administrators may change the command prefix.")
	}

	var response string
	switch strings.ToLower(arg) {
	case "default":
		if guildID == "" {
			c.ResetCommandPrefix()
		} else {
			c.ResetGuildPrefix(guildID)
		}
		current := "no prefix"
		if p := c.DefaultPrefix(); p != "" {
			current = "`" + p + "`"
		}
		response = fmt.Sprintf("Reset the command prefix to the default (currently %s).", current)
	case "none":
		if guildID == "" {
			c.SetMentionOnly()
		} else {
			c.SetGuildMentionOnly(guildID)
		}
		response = "Removed the command prefix entirely."
	default:
		if guildID == "" {
			err = c.SetCommandPrefix(arg)
		} else {
			err = c.SetGuildPrefix(guildID, arg)
		}
		if err != nil {
			return err
		}
		response = fmt.Sprintf("Set the command prefix to `%s`.", arg)
	}

	_, err = m.Reply(ctx, fmt.Sprintf("%s To run commands, use %s.", response, m.AnyUsage("command")))
	return err
}
