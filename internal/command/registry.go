package command

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
)

// Registry stores groups and commands. It does not dispatch; the dispatcher
// looks commands up and runs them.
type Registry struct {
	mu       sync.RWMutex
	groups   map[string]*Group
	commands map[string]*Command
	events   *Bus
}

// NewRegistry returns an empty registry publishing to events.
func NewRegistry(events *Bus) *Registry {
	return &Registry{
		groups:   make(map[string]*Group),
		commands: make(map[string]*Command),
		events:   events,
	}
}

// Events returns the bus commands and groups publish to.
func (r *Registry) Events() *Bus { return r.events }

// RegisterGroups adds groups. A group id may only be registered once.
func (r *Registry) RegisterGroups(groups ...*Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range groups {
		if _, ok := r.groups[g.ID]; ok {
			return fmt.Errorf("group %s: %w", g.ID, ErrNameTaken)
		}
		g.mu.Lock()
		g.events = r.events
		g.mu.Unlock()
		r.groups[g.ID] = g
	}
	return nil
}

// Register adds commands to their groups. Names and aliases must be unique.
func (r *Registry) Register(cmds ...*Command) error {
	for _, c := range cmds {
		if err := r.register(c); err != nil {
			return err
		}
		r.events.Publish(Event{Type: EventCommandRegister, Command: c})
	}
	return nil
}

func (r *Registry) register(c *Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	group, ok := r.groups[c.info.Group]
	if !ok {
		return fmt.Errorf("command %s group %q: %w", c.info.Name, c.info.Group, ErrUnknownGroup)
	}
	names := append([]string{c.info.Name}, c.info.Aliases...)
	for _, existing := range r.commands {
		for _, n := range names {
			if existing.info.Name == n || slices.Contains(existing.info.Aliases, n) {
				return fmt.Errorf("command %s (%q): %w", c.info.Name, n, ErrNameTaken)
			}
		}
		if existing.info.Group == c.info.Group && existing.info.MemberName == c.info.MemberName {
			return fmt.Errorf("command %s member %q: %w", c.info.Name, c.info.MemberName, ErrNameTaken)
		}
	}

	c.mu.Lock()
	c.group = group
	c.events = r.events
	c.mu.Unlock()
	group.add(c)
	r.commands[c.info.Name] = c
	return nil
}

// Unregister removes c.
func (r *Registry) Unregister(c *Command) error {
	r.mu.Lock()
	if r.commands[c.info.Name] != c {
		r.mu.Unlock()
		return fmt.Errorf("command %s: %w", c.info.Name, ErrNotRegistered)
	}
	delete(r.commands, c.info.Name)
	r.mu.Unlock()

	if g := c.Group(); g != nil {
		g.remove(c)
	}
	r.events.Publish(Event{Type: EventCommandUnregister, Command: c})
	return nil
}

// Reregister replaces old with c, keeping enabled state untouched on c.
func (r *Registry) Reregister(c, old *Command) error {
	if c.info.Name != old.info.Name {
		return fmt.Errorf("%w: reregistered command must keep the name %s", ErrInvalidInfo, old.info.Name)
	}
	if err := r.Unregister(old); err != nil {
		return err
	}
	return r.Register(c)
}

// Command returns the command registered under name, or nil.
func (r *Registry) Command(name string) *Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.commands[name]
}

// Group returns the group with id, or nil.
func (r *Registry) Group(id string) *Group {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.groups[id]
}

// Commands returns every command sorted by group and name.
func (r *Registry) Commands() []*Command {
	r.mu.RLock()
	list := make([]*Command, 0, len(r.commands))
	for _, c := range r.commands {
		list = append(list, c)
	}
	r.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool {
		if list[i].info.Group != list[j].info.Group {
			return list[i].info.Group < list[j].info.Group
		}
		return list[i].info.Name < list[j].info.Name
	})
	return list
}

// Groups returns every group sorted by id.
func (r *Registry) Groups() []*Group {
	r.mu.RLock()
	list := make([]*Group, 0, len(r.groups))
	for _, g := range r.groups {
		list = append(list, g)
	}
	r.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

// FindCommands looks commands up by name, alias or "group:member". Inexact
// searches match substrings, but an exact name or alias hit wins outright.
// An empty search returns every command.
func (r *Registry) FindCommands(search string, exact bool) []*Command {
	all := r.Commands()
	if search == "" {
		return all
	}
	lc := strings.ToLower(search)

	var matched []*Command
	for _, c := range all {
		qualified := c.info.Group + ":" + c.info.MemberName
		if exact {
			if c.info.Name == lc || slices.Contains(c.info.Aliases, lc) || qualified == lc {
				matched = append(matched, c)
			}
			continue
		}
		if strings.Contains(c.info.Name, lc) || qualified == lc || containsSubstring(c.info.Aliases, lc) {
			matched = append(matched, c)
		}
	}
	if exact {
		return matched
	}
	for _, c := range matched {
		if c.info.Name == lc || slices.Contains(c.info.Aliases, lc) {
			return []*Command{c}
		}
	}
	return matched
}

// FindGroups looks groups up by id or name, with the same exact-hit rule as FindCommands.
func (r *Registry) FindGroups(search string, exact bool) []*Group {
	all := r.Groups()
	if search == "" {
		return all
	}
	lc := strings.ToLower(search)

	var matched []*Group
	for _, g := range all {
		name := strings.ToLower(g.Name)
		if exact {
			if g.ID == lc || name == lc {
				matched = append(matched, g)
			}
			continue
		}
		if strings.Contains(g.ID, lc) || strings.Contains(name, lc) {
			matched = append(matched, g)
		}
	}
	if exact {
		return matched
	}
	for _, g := range matched {
		if g.ID == lc || strings.ToLower(g.Name) == lc {
			return []*Group{g}
		}
	}
	return matched
}

func containsSubstring(list []string, s string) bool {
	for _, v := range list {
		if strings.Contains(v, s) {
			return true
		}
	}
	return false
}
