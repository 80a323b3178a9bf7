package chat

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Permissions is a permission bit set, using Discord's bit layout.
type Permissions int64

var PermissionNames = map[int64]string{
	discordgo.PermissionCreateInstantInvite:    "Create Instant Invite",
	discordgo.PermissionKickMembers:            "Kick Members",
	discordgo.PermissionBanMembers:             "Ban Members",
	discordgo.PermissionAdministrator:          "Administrator",
	discordgo.PermissionManageChannels:         "Manage Channels",
	discordgo.PermissionManageGuild:            "Manage Server",
	discordgo.PermissionAddReactions:           "Add Reactions",
	discordgo.PermissionViewAuditLogs:          "View Audit Logs",
	discordgo.PermissionViewChannel:            "View Channel",
	discordgo.PermissionSendMessages:           "Send Messages",
	discordgo.PermissionSendTTSMessages:        "Send TTS Messages",
	discordgo.PermissionManageMessages:         "Manage Messages",
	discordgo.PermissionEmbedLinks:             "Embed Links",
	discordgo.PermissionAttachFiles:            "Attach Files",
	discordgo.PermissionReadMessageHistory:     "Read Message History",
	discordgo.PermissionMentionEveryone:        "Mention Everyone",
	discordgo.PermissionUseExternalEmojis:      "Use External Emojis",
	discordgo.PermissionUseApplicationCommands: "Use Application Commands",
	discordgo.PermissionManageThreads:          "Manage Threads",
	discordgo.PermissionCreatePublicThreads:    "Create Public Threads",
	discordgo.PermissionCreatePrivateThreads:   "Create Private Threads",
	discordgo.PermissionUseExternalStickers:    "Use External Stickers",
	discordgo.PermissionSendMessagesInThreads:  "Send Messages in Threads",
	discordgo.PermissionVoicePrioritySpeaker:   "Priority Speaker",
	discordgo.PermissionVoiceStreamVideo:       "Stream Video",
	discordgo.PermissionVoiceConnect:           "Connect to Voice Channel",
	discordgo.PermissionVoiceSpeak:             "Speak",
	discordgo.PermissionVoiceMuteMembers:       "Mute Members",
	discordgo.PermissionVoiceDeafenMembers:     "Deafen Members",
	discordgo.PermissionVoiceMoveMembers:       "Move Members",
	discordgo.PermissionVoiceUseVAD:            "Use Voice Activity Detection",
	discordgo.PermissionVoiceRequestToSpeak:    "Request to Speak",
	discordgo.PermissionChangeNickname:         "Change Nickname",
	discordgo.PermissionManageNicknames:        "Manage Nicknames",
	discordgo.PermissionManageRoles:            "Manage Roles",
	discordgo.PermissionManageWebhooks:         "Manage Webhooks",
	discordgo.PermissionManageEvents:           "Manage Events",
	discordgo.PermissionModerateMembers:        "Moderate Members",
}

// Has reports whether every bit of p is set. Administrator implies everything.
func (ps Permissions) Has(p int64) bool {
	if int64(ps)&discordgo.PermissionAdministrator != 0 {
		return true
	}
	return int64(ps)&p == p
}

// Missing returns the entries of required that are not granted, in order.
func (ps Permissions) Missing(required ...int64) []int64 {
	var missing []int64
	for _, p := range required {
		if !ps.Has(p) {
			missing = append(missing, p)
		}
	}
	return missing
}

// PermissionName returns the display name of a single permission bit.
func PermissionName(p int64) string {
	if name, ok := PermissionNames[p]; ok {
		return name
	}
	return fmt.Sprintf("0x%x", p)
}

// PermissionList returns display names for perms.
func PermissionList(perms []int64) []string {
	names := make([]string, 0, len(perms))
	for _, p := range perms {
		names = append(names, PermissionName(p))
	}
	return names
}
