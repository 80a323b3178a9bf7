package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/keshon/commando/internal/argument"
	"github.com/keshon/commando/internal/chat"
	"github.com/keshon/commando/pkg/cmd"
)

// Options are the client settings a Message consults while running.
type Options struct {
	// Invite is shown in error reports when set.
	Invite string
	// CommandBlockedMessagePattern replies to permission blocks on pattern triggers.
	CommandBlockedMessagePattern bool
	// CommandThrottlingMessagePattern replies to throttling blocks on pattern triggers.
	CommandThrottlingMessagePattern bool
}

// Backend is the client a Message runs against.
type Backend interface {
	Chat() chat.Client
	Events() *Bus
	Options() Options
	IsOwner(userID string) bool
	// Owners resolves the configured owner accounts.
	Owners(ctx context.Context) []chat.User
	// Prefix returns the command prefix used in guildID; empty means mentions only.
	Prefix(guildID string) string
	Awaiting() *argument.Awaiting
}

// Message is one invocation of a command triggered by a chat message. It runs
// the command, implements argument.Conversation for prompts, and tracks the
// responses it produced so a later edit of the trigger can update them.
type Message struct {
	ID             string
	Trigger        *chat.Message
	Channel        *chat.Channel
	Command        *Command
	ArgString      string
	PatternMatches []string

	backend   Backend
	responses map[string][]*Response
	positions map[string]int
	produced  []*Response
}

// NewMessage prepares an invocation. c is nil for unknown commands.
func NewMessage(backend Backend, trigger *chat.Message, channel *chat.Channel, c *Command, argString string, patternMatches []string) *Message {
	if channel == nil {
		channel = &chat.Channel{ID: trigger.ChannelID, GuildID: trigger.GuildID}
	}
	return &Message{
		ID:             uuid.NewString(),
		Trigger:        trigger,
		Channel:        channel,
		Command:        c,
		ArgString:      argString,
		PatternMatches: patternMatches,
		backend:        backend,
		responses:      map[string][]*Response{},
		positions:      map[string]int{},
	}
}

func (m *Message) Backend() Backend { return m.backend }

func (m *Message) AuthorID() string  { return m.Trigger.Author.ID }
func (m *Message) ChannelID() string { return m.Trigger.ChannelID }
func (m *Message) GuildID() string   { return m.Trigger.GuildID }
func (m *Message) Chat() chat.Client { return m.backend.Chat() }

// Prompt sends an argument prompt as a reply. Prompts are not tracked as responses.
func (m *Message) Prompt(ctx context.Context, text string) error {
	_, err := m.backend.Chat().Send(ctx, m.Trigger.ChannelID, m.Trigger.Author.Mention()+", "+text)
	return err
}

// FromPattern reports whether a pattern triggered the command.
func (m *Message) FromPattern() bool { return m.PatternMatches != nil }

// Run passes the invocation through the command's middleware chain. Friendly
// errors are replied verbatim; anything else publishes commandError and
// replies with a generic report.
func (m *Message) Run(ctx context.Context) error {
	if m.Command == nil {
		return errors.New("command message has no command")
	}
	m.produced = nil

	err := m.Command.Chain().Run(ctx, &cmd.Invocation{ID: m.ID, Data: m})
	if err == nil {
		return nil
	}
	if text, ok := UserMessage(err); ok {
		_, rerr := m.Reply(ctx, text)
		return rerr
	}

	log.WithField("invocation", m.ID).Errorf("[Command] %s failed: %v", m.Command.Name(), err)
	m.backend.Events().Publish(Event{Type: EventCommandError, Command: m.Command, Message: m, Err: err})
	_, rerr := m.Reply(ctx, m.errorReport(ctx, err))
	return rerr
}

// Block publishes commandBlocked and, unless silent, replies with text.
func (m *Message) Block(ctx context.Context, reason BlockReason, text string, silent bool) error {
	m.backend.Events().Publish(Event{Type: EventCommandBlocked, Command: m.Command, Message: m, Reason: reason})
	if silent || text == "" {
		return nil
	}
	_, err := m.Reply(ctx, text)
	return err
}

// HasPermission runs the command's permission check for the author. Owners
// always pass. A false result may carry a message to show instead of the default.
func (m *Message) HasPermission(ctx context.Context) (bool, string, error) {
	info := m.Command.info
	if info.Permission != nil {
		ok, msg := info.Permission(m)
		return ok, msg, nil
	}
	if m.backend.IsOwner(m.AuthorID()) {
		return true, "", nil
	}
	if info.OwnerOnly {
		return false, fmt.Sprintf("The `%s` command can only be used by the bot owner.", info.Name), nil
	}
	if len(info.UserPermissions) == 0 || m.Channel.IsDM() {
		return true, "", nil
	}
	perms, err := m.backend.Chat().Permissions(ctx, m.Channel.ID, m.AuthorID())
	if err != nil {
		return false, "", fmt.Errorf("author permissions: %w", err)
	}
	missing := perms.Missing(info.UserPermissions...)
	switch len(missing) {
	case 0:
		return true, "", nil
	case 1:
		return false, fmt.Sprintf("The `%s` command requires you to have the %q permission.", info.Name, chat.PermissionName(missing[0])), nil
	}
	return false, fmt.Sprintf("The `%s` command requires you to have the following permissions: %s",
		info.Name, strings.Join(chat.PermissionList(missing), ", ")), nil
}

// ParseCommandArgs splits ArgString for commands without declared arguments:
// ArgsSingle yields the trimmed string, ArgsMultiple the quoted split list.
func (m *Message) ParseCommandArgs() (string, []string) {
	info := m.Command.info
	switch info.ArgsType {
	case ArgsMultiple:
		return "", ParseArgs(m.ArgString, info.ArgsCount, !info.NoSingleQuotes)
	default:
		return stripQuotes(strings.TrimSpace(m.ArgString), !info.NoSingleQuotes), nil
	}
}

// Usage renders argString for this command with the guild prefix and the bot mention.
func (m *Message) Usage(argString string) string {
	self := m.backend.Chat().Self()
	return m.Command.Usage(argString, m.backend.Prefix(m.GuildID()), &self)
}

// AnyUsage renders text with the guild prefix and the bot mention.
func (m *Message) AnyUsage(text string) string {
	self := m.backend.Chat().Self()
	return AnyUsage(text, m.backend.Prefix(m.GuildID()), &self)
}

func (m *Message) formatError() error {
	prefix := m.backend.Prefix(m.GuildID())
	return &FormatError{
		Command: m.Command.Name(),
		Usage:   m.Command.Usage(m.Command.info.Format, prefix, nil),
		Help:    AnyUsage("help "+m.Command.Name(), prefix, nil),
	}
}

func (m *Message) errorReport(ctx context.Context, err error) string {
	root := err
	for next := errors.Unwrap(root); next != nil; next = errors.Unwrap(root) {
		root = next
	}
	kind := fmt.Sprintf("%T", root)
	msg := strings.ReplaceAll(err.Error(), "`", "")

	contact := "the bot owner"
	if owners := m.backend.Owners(ctx); len(owners) > 0 {
		contact = ownerList(owners)
	}
	tail := "."
	if invite := m.backend.Options().Invite; invite != "" {
		tail = " in this server: " + invite
	}
	return fmt.Sprintf("An error occurred while running the command: `%s: %s`\nYou shouldn't ever receive an error like this.\nPlease contact %s%s",
		kind, msg, contact, tail)
}

var markdownEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "_", `\_`, "~", `\~`, "`", "\\`", "|", `\|`)

func ownerList(owners []chat.User) string {
	names := make([]string, 0, len(owners))
	for i, u := range owners {
		name := markdownEscaper.Replace(u.Tag())
		if len(owners) > 1 && i == len(owners)-1 {
			name = "or " + name
		}
		names = append(names, name)
	}
	if len(names) > 2 {
		return strings.Join(names, ", ")
	}
	return strings.Join(names, " ")
}
