package status

import (
	"sync"

	"github.com/keshon/commando/internal/command"
)

// Stats counts events published on a command bus.
type Stats struct {
	mu       sync.Mutex
	events   map[command.EventType]int
	blocked  map[command.BlockReason]int
	commands map[string]int
}

type Snapshot struct {
	Events   map[command.EventType]int   `json:"events"`
	Blocked  map[command.BlockReason]int `json:"blocked"`
	Commands map[string]int              `json:"commands"`
}

// NewStats subscribes to bus. Call the returned func to stop counting.
func NewStats(bus *command.Bus) (*Stats, func()) {
	s := &Stats{
		events:   map[command.EventType]int{},
		blocked:  map[command.BlockReason]int{},
		commands: map[string]int{},
	}
	return s, bus.Subscribe(s.record)
}

func (s *Stats) record(ev command.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[ev.Type]++
	switch ev.Type {
	case command.EventCommandBlocked:
		s.blocked[ev.Reason]++
	case command.EventCommandRun:
		if ev.Command != nil {
			s.commands[ev.Command.Name()]++
		}
	}
}

func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := Snapshot{
		Events:   make(map[command.EventType]int, len(s.events)),
		Blocked:  make(map[command.BlockReason]int, len(s.blocked)),
		Commands: make(map[string]int, len(s.commands)),
	}
	for k, v := range s.events {
		out.Events[k] = v
	}
	for k, v := range s.blocked {
		out.Blocked[k] = v
	}
	for k, v := range s.commands {
		out.Commands[k] = v
	}
	return out
}
