package command

import (
	"sync"
)

type EventType string

const (
	EventCommandBlocked      EventType = "commandBlocked"
	EventCommandRun          EventType = "commandRun"
	EventCommandError        EventType = "commandError"
	EventCommandPrefixChange EventType = "commandPrefixChange"
	EventCommandStatusChange EventType = "commandStatusChange"
	EventGroupStatusChange   EventType = "groupStatusChange"
	EventUnknownCommand      EventType = "unknownCommand"
	EventCommandRegister     EventType = "commandRegister"
	EventCommandUnregister   EventType = "commandUnregister"
)

// BlockReason tags a commandBlocked event.
type BlockReason string

const (
	BlockGuildOnly         BlockReason = "guildOnly"
	BlockNSFW              BlockReason = "nsfw"
	BlockPermission        BlockReason = "permission"
	BlockClientPermissions BlockReason = "clientPermissions"
	BlockThrottling        BlockReason = "throttling"
)

// Event is published on a Bus. Only the fields relevant to Type are set.
type Event struct {
	Type    EventType
	Message *Message
	Command *Command
	Group   *Group
	Reason  BlockReason
	Err     error
	GuildID string
	// Prefix is the new prefix for commandPrefixChange; empty means mentions only.
	Prefix string
	// Reset marks a guild prefix that falls back to the default.
	Reset   bool
	Enabled bool
}

// Bus delivers events to subscribers synchronously, in subscription order.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   []subscription
}

type subscription struct {
	id int
	fn func(Event)
}

func NewBus() *Bus { return &Bus{} }

// Subscribe registers fn and returns a func that removes it.
func (b *Bus) Subscribe(fn func(Event)) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, fn: fn})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish calls every subscriber with ev. A nil Bus drops the event.
func (b *Bus) Publish(ev Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	subs := append([]subscription(nil), b.subs...)
	b.mu.RUnlock()
	for _, s := range subs {
		s.fn(ev)
	}
}
