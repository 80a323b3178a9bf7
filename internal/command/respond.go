package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"github.com/keshon/commando/internal/chat"
)

// DirectTarget is the tracker key for responses sent as direct messages.
const DirectTarget = "dm"

type ResponseKind int

const (
	ResponsePlain ResponseKind = iota
	ResponseReply
	ResponseDirect
)

// Response is one logical response. Long content is sent as several Parts.
type Response struct {
	Kind      ResponseKind
	Target    string
	ChannelID string
	Parts     []*chat.Message
}

// SendOptions tune a single response.
type SendOptions struct {
	// Split breaks long content into several messages instead of failing.
	Split *chat.SplitOptions
}

// Say sends content to the invocation channel.
func (m *Message) Say(ctx context.Context, content string, opts ...SendOptions) (*Response, error) {
	return m.respond(ctx, ResponsePlain, content, firstOpts(opts))
}

// Reply sends content mentioning the author.
func (m *Message) Reply(ctx context.Context, content string, opts ...SendOptions) (*Response, error) {
	return m.respond(ctx, ResponseReply, content, firstOpts(opts))
}

// Direct sends content to the author in a direct message.
func (m *Message) Direct(ctx context.Context, content string, opts ...SendOptions) (*Response, error) {
	return m.respond(ctx, ResponseDirect, content, firstOpts(opts))
}

func firstOpts(opts []SendOptions) SendOptions {
	if len(opts) > 0 {
		return opts[0]
	}
	return SendOptions{}
}

// Produced returns the responses sent or edited during the current run.
func (m *Message) Produced() []*Response {
	return append([]*Response(nil), m.produced...)
}

// Inherit takes over the response tracker of the invocation this one replaces,
// so responses are edited in place instead of sent again.
func (m *Message) Inherit(old *Message) {
	m.responses = old.responses
	m.positions = old.positions
}

func (m *Message) respond(ctx context.Context, kind ResponseKind, content string, opts SendOptions) (*Response, error) {
	if kind == ResponseReply && m.Channel.IsDM() {
		kind = ResponsePlain
	}
	if kind != ResponseDirect && !m.Channel.IsDM() {
		perms, err := m.backend.Chat().Permissions(ctx, m.Channel.ID, m.backend.Chat().Self().ID)
		if err != nil {
			return nil, fmt.Errorf("own permissions: %w", err)
		}
		if !perms.Has(discordgo.PermissionSendMessages) {
			kind = ResponseDirect
		}
	}

	target := m.Channel.ID
	if kind == ResponseDirect || m.Channel.IsDM() {
		target = DirectTarget
	}

	var (
		resp *Response
		err  error
	)
	if len(m.responses[target]) > 0 {
		m.positions[target]++
		var old *Response
		if pos := m.positions[target]; pos < len(m.responses[target]) {
			old = m.responses[target][pos]
		}
		resp, err = m.editResponse(ctx, old, kind, target, content, opts)
	} else {
		resp, err = m.send(ctx, kind, target, content, opts)
	}
	if err != nil {
		return nil, err
	}
	m.produced = append(m.produced, resp)
	return resp, nil
}

// EditResponse replaces the content of resp, aligning chunks: existing parts are
// edited, extra chunks are sent and surplus old parts deleted.
func (m *Message) EditResponse(ctx context.Context, resp *Response, content string, opts ...SendOptions) (*Response, error) {
	if resp == nil {
		return nil, errors.New("edit of nil response")
	}
	return m.editResponse(ctx, resp, resp.Kind, resp.Target, content, firstOpts(opts))
}

func (m *Message) editResponse(ctx context.Context, old *Response, kind ResponseKind, target, content string, opts SendOptions) (*Response, error) {
	if old == nil {
		return m.send(ctx, kind, target, content, opts)
	}
	chunks := m.render(kind, content, opts)
	client := m.backend.Chat()
	resp := &Response{Kind: kind, Target: target, ChannelID: old.ChannelID}

	for i, chunk := range chunks {
		var (
			msg *chat.Message
			err error
		)
		if i < len(old.Parts) {
			msg, err = client.Edit(ctx, old.ChannelID, old.Parts[i].ID, chunk)
		} else {
			msg, err = client.Send(ctx, old.ChannelID, chunk)
		}
		if err != nil {
			return nil, fmt.Errorf("edit response: %w", err)
		}
		resp.Parts = append(resp.Parts, msg)
	}
	for _, stale := range old.Parts[min(len(chunks), len(old.Parts)):] {
		if err := client.Delete(ctx, old.ChannelID, stale.ID); err != nil {
			log.Warnf("[Command] delete surplus response part %s: %v", stale.ID, err)
		}
	}
	return resp, nil
}

func (m *Message) send(ctx context.Context, kind ResponseKind, target, content string, opts SendOptions) (*Response, error) {
	client := m.backend.Chat()
	channelID := m.Channel.ID
	if kind == ResponseDirect && !m.Channel.IsDM() {
		dm, err := client.DirectChannel(ctx, m.AuthorID())
		if err != nil {
			return nil, fmt.Errorf("open direct channel: %w", err)
		}
		channelID = dm.ID
	}

	resp := &Response{Kind: kind, Target: target, ChannelID: channelID}
	for _, chunk := range m.render(kind, content, opts) {
		msg, err := client.Send(ctx, channelID, chunk)
		if err != nil {
			return nil, fmt.Errorf("send response: %w", err)
		}
		resp.Parts = append(resp.Parts, msg)
	}
	return resp, nil
}

func (m *Message) render(kind ResponseKind, content string, opts SendOptions) []string {
	if kind == ResponseReply {
		content = m.Trigger.Author.Mention() + ", " + content
	}
	if opts.Split == nil {
		return []string{content}
	}
	return chat.Split(content, *opts.Split)
}

// Finalize deletes tracked responses that were not reused by the current run,
// then tracks responses instead.
func (m *Message) Finalize(ctx context.Context, responses []*Response) {
	if len(m.responses) > 0 {
		m.deleteRemaining(ctx)
	}
	m.responses = map[string][]*Response{}
	m.positions = map[string]int{}
	for _, r := range responses {
		if r == nil {
			continue
		}
		m.responses[r.Target] = append(m.responses[r.Target], r)
		m.positions[r.Target] = -1
	}
}

func (m *Message) deleteRemaining(ctx context.Context) {
	client := m.backend.Chat()
	for target, list := range m.responses {
		for _, r := range list[min(m.positions[target]+1, len(list)):] {
			for _, part := range r.Parts {
				if err := client.Delete(ctx, r.ChannelID, part.ID); err != nil {
					log.Warnf("[Command] delete stale response %s: %v", part.ID, err)
				}
			}
		}
	}
}

// Responses returns the tracked responses for target.
func (m *Message) Responses(target string) []*Response {
	return append([]*Response(nil), m.responses[target]...)
}
