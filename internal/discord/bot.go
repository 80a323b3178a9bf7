package discord

import (
	"context"
	"fmt"
	"slices"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"github.com/keshon/commando/internal/chat"
)

// Handler receives chat messages. old is set for edits.
type Handler interface {
	Attach(cl chat.Client)
	HandleMessage(ctx context.Context, msg, old *chat.Message) error
}

// Bot runs a Discord gateway connection and feeds messages to a Handler.
type Bot struct {
	token     string
	handler   Handler
	blacklist []string
	status    string

	dg  *discordgo.Session
	ctx context.Context
}

type Config struct {
	Token          string
	GuildBlacklist []string
	// Status is shown as the bot's activity when set.
	Status string
}

func NewBot(cfg Config, handler Handler) *Bot {
	return &Bot{token: cfg.Token, handler: handler, blacklist: cfg.GuildBlacklist, status: cfg.Status}
}

// Run connects and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	dg, err := discordgo.New("Bot " + b.token)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	b.dg = dg
	b.ctx = ctx

	b.configureIntents()
	dg.State.MaxMessageCount = 200
	dg.AddHandler(b.onReady)
	dg.AddHandler(b.onGuildCreate)
	dg.AddHandler(b.onMessageCreate)
	dg.AddHandler(b.onMessageUpdate)

	b.handler.Attach(NewSession(dg))

	if err := dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer dg.Close()

	<-ctx.Done()
	log.Info("[Discord] shutdown signal received, closing session")
	return nil
}

func (b *Bot) configureIntents() {
	b.dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	for _, g := range r.Guilds {
		b.leaveIfBlacklisted(s, g.ID)
	}
	if b.status != "" {
		if err := s.UpdateGameStatus(0, b.status); err != nil {
			log.Warnf("[Discord] unable to set status: %v", err)
		}
	}
	log.WithField("guilds", len(r.Guilds)).Infof("[Discord] logged in as %s", toUser(r.User).Tag())
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if b.leaveIfBlacklisted(s, g.ID) {
		return
	}
	log.WithField("guild", g.ID).Debugf("[Discord] guild available: %s", g.Name)
}

func (b *Bot) leaveIfBlacklisted(s *discordgo.Session, guildID string) bool {
	if !slices.Contains(b.blacklist, guildID) {
		return false
	}
	log.WithField("guild", guildID).Info("[Discord] leaving blacklisted guild")
	if err := s.GuildLeave(guildID); err != nil {
		log.WithField("guild", guildID).Errorf("[Discord] failed to leave guild: %v", err)
	}
	return true
}

func (b *Bot) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil {
		return
	}
	b.dispatch(toMessage(m.Message), nil)
}

// onMessageUpdate treats an edit without a cached previous version as a change
// from empty content.
func (b *Bot) onMessageUpdate(_ *discordgo.Session, m *discordgo.MessageUpdate) {
	if m.Author == nil {
		return
	}
	msg := toMessage(m.Message)
	old := &chat.Message{ID: msg.ID, ChannelID: msg.ChannelID, GuildID: msg.GuildID, Author: msg.Author}
	if m.BeforeUpdate != nil {
		old = toMessage(m.BeforeUpdate)
	}
	b.dispatch(msg, old)
}

func (b *Bot) dispatch(msg, old *chat.Message) {
	if err := b.handler.HandleMessage(b.ctx, msg, old); err != nil {
		log.WithFields(log.Fields{
			"message": msg.ID,
			"channel": msg.ChannelID,
			"guild":   msg.GuildID,
		}).Errorf("[Discord] handling message: %v", err)
	}
}
