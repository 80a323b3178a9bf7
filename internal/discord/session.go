// Package discord connects the command client to Discord through discordgo.
package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/commando/internal/chat"
	"github.com/keshon/commando/pkg/retrylimit"
)

// Session is a chat.Client over a discordgo session. REST calls are paced by an
// adaptive limiter and retried on 5xx responses.
type Session struct {
	dg    *discordgo.Session
	lim   *retrylimit.AdaptiveLimiter
	retry retrylimit.RetryConfig
}

func NewSession(dg *discordgo.Session) *Session {
	retry := retrylimit.DefaultRetryConfig()
	retry.MaxAttempts = 4
	return &Session{
		dg:    dg,
		lim:   retrylimit.NewAdaptiveLimiter(20, 1, 50, 1, 0.5),
		retry: retry,
	}
}

type restError struct {
	err    *discordgo.RESTError
	status int
}

func (e *restError) Error() string   { return e.err.Error() }
func (e *restError) Unwrap() error   { return e.err }
func (e *restError) StatusCode() int { return e.status }

// classify marks client errors other than 429 as fatal so they are not retried.
func classify(err error) error {
	var rest *discordgo.RESTError
	if !errors.As(err, &rest) || rest.Response == nil {
		return err
	}
	status := rest.Response.StatusCode
	wrapped := &restError{err: rest, status: status}
	if status == http.StatusTooManyRequests || status >= 500 {
		return wrapped
	}
	if status == http.StatusNotFound {
		return &retrylimit.FatalError{Err: fmt.Errorf("%w: %w", chat.ErrNotFound, wrapped)}
	}
	return &retrylimit.FatalError{Err: wrapped}
}

func (s *Session) call(ctx context.Context, fn func(opt discordgo.RequestOption) error) error {
	err := retrylimit.WithRetryConfig(ctx, func() error {
		return classify(fn(discordgo.WithContext(ctx)))
	}, s.lim, s.retry)
	var fatal *retrylimit.FatalError
	if errors.As(err, &fatal) {
		return fatal.Err
	}
	return err
}

func (s *Session) Self() chat.User {
	if s.dg.State == nil || s.dg.State.User == nil {
		return chat.User{}
	}
	return toUser(s.dg.State.User)
}

func (s *Session) Channel(ctx context.Context, channelID string) (*chat.Channel, error) {
	if ch, err := s.dg.State.Channel(channelID); err == nil {
		return toChannel(ch), nil
	}
	var ch *discordgo.Channel
	err := s.call(ctx, func(opt discordgo.RequestOption) (err error) {
		ch, err = s.dg.Channel(channelID, opt)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("channel %s: %w", channelID, err)
	}
	return toChannel(ch), nil
}

func (s *Session) Guild(ctx context.Context, guildID string) (*chat.Guild, error) {
	g, err := s.dg.State.Guild(guildID)
	if err != nil {
		err = s.call(ctx, func(opt discordgo.RequestOption) (err error) {
			g, err = s.dg.Guild(guildID, opt)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("guild %s: %w", guildID, err)
		}
	}
	return toGuild(g), nil
}

func (s *Session) User(ctx context.Context, userID string) (*chat.User, error) {
	var u *discordgo.User
	err := s.call(ctx, func(opt discordgo.RequestOption) (err error) {
		u, err = s.dg.User(userID, opt)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", userID, err)
	}
	out := toUser(u)
	return &out, nil
}

func (s *Session) Permissions(ctx context.Context, channelID, userID string) (chat.Permissions, error) {
	if perms, err := s.dg.State.UserChannelPermissions(userID, channelID); err == nil {
		return chat.Permissions(perms), nil
	}
	var perms int64
	err := s.call(ctx, func(opt discordgo.RequestOption) (err error) {
		perms, err = s.dg.UserChannelPermissions(userID, channelID, opt)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("permissions of %s in %s: %w", userID, channelID, err)
	}
	return chat.Permissions(perms), nil
}

func (s *Session) Send(ctx context.Context, channelID, content string) (*chat.Message, error) {
	var m *discordgo.Message
	err := s.call(ctx, func(opt discordgo.RequestOption) (err error) {
		m, err = s.dg.ChannelMessageSend(channelID, content, opt)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("send to %s: %w", channelID, err)
	}
	return toMessage(m), nil
}

func (s *Session) Edit(ctx context.Context, channelID, messageID, content string) (*chat.Message, error) {
	var m *discordgo.Message
	err := s.call(ctx, func(opt discordgo.RequestOption) (err error) {
		m, err = s.dg.ChannelMessageEdit(channelID, messageID, content, opt)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("edit %s: %w", messageID, err)
	}
	return toMessage(m), nil
}

func (s *Session) Delete(ctx context.Context, channelID, messageID string) error {
	err := s.call(ctx, func(opt discordgo.RequestOption) error {
		return s.dg.ChannelMessageDelete(channelID, messageID, opt)
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", messageID, err)
	}
	return nil
}

func (s *Session) DirectChannel(ctx context.Context, userID string) (*chat.Channel, error) {
	var ch *discordgo.Channel
	err := s.call(ctx, func(opt discordgo.RequestOption) (err error) {
		ch, err = s.dg.UserChannelCreate(userID, opt)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("direct channel with %s: %w", userID, err)
	}
	return toChannel(ch), nil
}

// HeartbeatLatency is the latest gateway heartbeat round trip.
func (s *Session) HeartbeatLatency() time.Duration { return s.dg.HeartbeatLatency() }
