package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/keshon/commando/internal/chat"
)

var channelTypes = map[discordgo.ChannelType]chat.ChannelType{
	discordgo.ChannelTypeGuildText:          chat.ChannelGuildText,
	discordgo.ChannelTypeDM:                 chat.ChannelDM,
	discordgo.ChannelTypeGroupDM:            chat.ChannelGroupDM,
	discordgo.ChannelTypeGuildVoice:         chat.ChannelGuildVoice,
	discordgo.ChannelTypeGuildCategory:      chat.ChannelGuildCategory,
	discordgo.ChannelTypeGuildNews:          chat.ChannelGuildNews,
	discordgo.ChannelTypeGuildNewsThread:    chat.ChannelGuildThread,
	discordgo.ChannelTypeGuildPublicThread:  chat.ChannelGuildThread,
	discordgo.ChannelTypeGuildPrivateThread: chat.ChannelGuildThread,
}

func toUser(u *discordgo.User) chat.User {
	if u == nil {
		return chat.User{}
	}
	return chat.User{ID: u.ID, Username: u.Username, Discriminator: u.Discriminator, Bot: u.Bot}
}

func toChannel(c *discordgo.Channel) *chat.Channel {
	t, ok := channelTypes[c.Type]
	if !ok {
		t = chat.ChannelGuildText
	}
	return &chat.Channel{ID: c.ID, GuildID: c.GuildID, Name: c.Name, Type: t, NSFW: c.NSFW}
}

func toGuild(g *discordgo.Guild) *chat.Guild {
	out := &chat.Guild{ID: g.ID, Name: g.Name, OwnerID: g.OwnerID}
	for _, c := range g.Channels {
		ch := toChannel(c)
		if ch.GuildID == "" {
			ch.GuildID = g.ID
		}
		out.Channels = append(out.Channels, ch)
	}
	return out
}

func toMessage(m *discordgo.Message) *chat.Message {
	return &chat.Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		Author:    toUser(m.Author),
		Content:   m.Content,
		WebhookID: m.WebhookID,
		Timestamp: m.Timestamp,
	}
}
