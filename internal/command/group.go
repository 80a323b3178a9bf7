package command

import (
	"fmt"
	"sync"
)

// Group is a named set of commands that can be toggled together.
type Group struct {
	ID      string
	Name    string
	Guarded bool

	mu            sync.RWMutex
	commands      []*Command
	events        *Bus
	globalEnabled bool
	guildEnabled  map[string]bool
}

// NewGroup returns an enabled group. name defaults to id.
func NewGroup(id, name string, guarded bool) *Group {
	if name == "" {
		name = id
	}
	return &Group{ID: id, Name: name, Guarded: guarded, globalEnabled: true, guildEnabled: map[string]bool{}}
}

// Commands returns the member commands in registration order.
func (g *Group) Commands() []*Command {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]*Command(nil), g.commands...)
}

func (g *Group) IsEnabledIn(guildID string) bool {
	if g.Guarded {
		return true
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	if enabled, ok := g.guildEnabled[guildID]; ok && guildID != "" {
		return enabled
	}
	return g.globalEnabled
}

// SetEnabledIn toggles the group in guildID ("" for global) and publishes
// groupStatusChange.
func (g *Group) SetEnabledIn(guildID string, enabled bool) error {
	if g.Guarded {
		return fmt.Errorf("group %s: %w", g.ID, ErrGuarded)
	}
	g.LoadEnabled(guildID, enabled)
	g.mu.RLock()
	events := g.events
	g.mu.RUnlock()
	events.Publish(Event{Type: EventGroupStatusChange, Group: g, GuildID: guildID, Enabled: enabled})
	return nil
}

// LoadEnabled sets the enabled state without publishing an event.
func (g *Group) LoadEnabled(guildID string, enabled bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if guildID == "" {
		g.globalEnabled = enabled
		return
	}
	g.guildEnabled[guildID] = enabled
}

func (g *Group) add(c *Command) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.commands = append(g.commands, c)
}

func (g *Group) remove(c *Command) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, member := range g.commands {
		if member == c {
			g.commands = append(g.commands[:i:i], g.commands[i+1:]...)
			return
		}
	}
}
