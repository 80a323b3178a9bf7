// Package storage persists per-guild settings such as prefixes and the enabled
// state of commands and groups.
package storage

// Global is the record holding settings that apply outside any guild.
const Global = "global"

const (
	KeyPrefix      = "prefix"
	keyCommandPref = "cmd-"
	keyGroupPref   = "grp-"
)

// Provider stores arbitrary values per guild. Implementations are safe for
// concurrent use.
type Provider interface {
	// Get returns the value of key in guildID, or def when unset.
	Get(guildID, key string, def any) any
	Set(guildID, key string, value any) error
	// Remove deletes key and returns the value it held.
	Remove(guildID, key string) (any, error)
	// Clear deletes every setting of guildID.
	Clear(guildID string) error
	// Guilds lists the guild ids with stored settings, Global included.
	Guilds() []string
	Close() error
}

// GuildKey maps the empty guild id to Global.
func GuildKey(guildID string) string {
	if guildID == "" {
		return Global
	}
	return guildID
}

// guildID is the inverse of GuildKey.
func guildID(key string) string {
	if key == Global {
		return ""
	}
	return key
}

func CommandKey(name string) string { return keyCommandPref + name }
func GroupKey(id string) string     { return keyGroupPref + id }
