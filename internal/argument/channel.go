package argument

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/keshon/commando/internal/chat"
)

// Channel resolves a channel by mention, id or name within the invocation guild.
var Channel Type = channelType{}

var channelPattern = regexp.MustCompile(`^(?:<#)?(\d+)>?$`)

type channelType struct{ baseType }

func (channelType) ID() string { return "channel" }

func channelName(c *chat.Channel) string { return c.Name }

func (t channelType) Validate(ctx context.Context, value string, conv Conversation, arg *Argument) (Verdict, error) {
	_, verdict, err := t.resolve(ctx, value, conv)
	return verdict, err
}

func (t channelType) Parse(ctx context.Context, value string, conv Conversation, arg *Argument) (any, error) {
	ch, verdict, err := t.resolve(ctx, value, conv)
	if err != nil {
		return nil, err
	}
	if !verdict.Valid {
		return nil, fmt.Errorf("channel %q did not resolve", value)
	}
	return ch, nil
}

// resolve only matches channels of the invocation guild.
func (channelType) resolve(ctx context.Context, value string, conv Conversation) (*chat.Channel, Verdict, error) {
	if conv.GuildID() == "" {
		return nil, Verdict{}, nil
	}
	if m := channelPattern.FindStringSubmatch(value); m != nil {
		ch, err := conv.Chat().Channel(ctx, m[1])
		if errors.Is(err, chat.ErrNotFound) {
			return nil, Verdict{}, nil
		}
		if err != nil {
			return nil, Verdict{}, fmt.Errorf("lookup channel %s: %w", m[1], err)
		}
		if ch.GuildID != conv.GuildID() {
			return nil, Verdict{}, nil
		}
		return ch, Valid, nil
	}

	guild, err := conv.Chat().Guild(ctx, conv.GuildID())
	if err != nil {
		return nil, Verdict{}, fmt.Errorf("lookup guild %s: %w", conv.GuildID(), err)
	}
	partial, exact := FuzzyFind(guild.Channels, channelName, value)
	ch, verdict := Pick(partial, exact, channelName, "channels")
	return ch, verdict, nil
}
