package storage

import (
	log "github.com/sirupsen/logrus"

	"github.com/keshon/commando/internal/command"
)

// PrefixLoader receives stored prefixes. guildID is empty for the default
// prefix. Loading must not publish commandPrefixChange.
type PrefixLoader interface {
	LoadPrefix(guildID, prefix string)
}

// Bind applies the settings stored in p to reg and prefixes, then persists
// every later prefix or enabled-state change published on reg's bus.
// Commands registered afterwards get their stored state on registration.
func Bind(p Provider, reg *command.Registry, prefixes PrefixLoader) (unbind func()) {
	for _, key := range p.Guilds() {
		gid := guildID(key)
		if prefix, ok := p.Get(gid, KeyPrefix, nil).(string); ok {
			prefixes.LoadPrefix(gid, prefix)
		}
		for _, g := range reg.Groups() {
			if enabled, ok := p.Get(gid, GroupKey(g.ID), nil).(bool); ok {
				g.LoadEnabled(gid, enabled)
			}
		}
		for _, c := range reg.Commands() {
			loadCommand(p, gid, c)
		}
	}

	return reg.Events().Subscribe(func(ev command.Event) {
		var err error
		switch ev.Type {
		case command.EventCommandPrefixChange:
			if ev.Reset {
				_, err = p.Remove(ev.GuildID, KeyPrefix)
			} else {
				err = p.Set(ev.GuildID, KeyPrefix, ev.Prefix)
			}
		case command.EventCommandStatusChange:
			err = p.Set(ev.GuildID, CommandKey(ev.Command.Name()), ev.Enabled)
		case command.EventGroupStatusChange:
			err = p.Set(ev.GuildID, GroupKey(ev.Group.ID), ev.Enabled)
		case command.EventCommandRegister:
			for _, key := range p.Guilds() {
				loadCommand(p, guildID(key), ev.Command)
			}
		default:
			return
		}
		if err != nil {
			log.WithField("guild", GuildKey(ev.GuildID)).Errorf("[Storage] persist %s: %v", ev.Type, err)
		}
	})
}

func loadCommand(p Provider, guildID string, c *command.Command) {
	if c.Info().Guarded {
		return
	}
	if enabled, ok := p.Get(guildID, CommandKey(c.Name()), nil).(bool); ok {
		c.LoadEnabled(guildID, enabled)
	}
}
