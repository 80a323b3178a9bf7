package argument

import (
	"context"
	"sync"
	"time"
)

// Key identifies an author being prompted in a channel.
type Key struct {
	AuthorID  string
	ChannelID string
}

// KeyOf returns the awaiting key of a conversation.
func KeyOf(conv Conversation) Key {
	return Key{AuthorID: conv.AuthorID(), ChannelID: conv.ChannelID()}
}

// Awaiting tracks authors that are answering prompts and routes their next
// messages to whoever waits for them. The zero value is not usable; use NewAwaiting.
type Awaiting struct {
	mu      sync.Mutex
	entries map[Key]*awaitEntry
}

type awaitEntry struct {
	count     int
	expecting bool
	waiters   []chan string
	pending   []string
}

// DefaultAwaiting is shared by collectors and the dispatcher unless they are
// given their own.
var DefaultAwaiting = NewAwaiting()

func NewAwaiting() *Awaiting {
	return &Awaiting{entries: make(map[Key]*awaitEntry)}
}

// Acquire marks k as awaiting until the returned release func is called.
// Acquisitions are counted; release is safe to call more than once.
func (a *Awaiting) Acquire(k Key) (release func()) {
	a.mu.Lock()
	e, ok := a.entries[k]
	if !ok {
		e = &awaitEntry{}
		a.entries[k] = e
	}
	e.count++
	a.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			defer a.mu.Unlock()
			if e.count--; e.count <= 0 && a.entries[k] == e {
				delete(a.entries, k)
			}
		})
	}
}

// Has reports whether k is awaiting.
func (a *Awaiting) Has(k Key) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.entries[k]
	return ok
}

// Len returns the number of awaiting keys.
func (a *Awaiting) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

// Expect marks a prompt as sent to k. Only replies delivered after Expect and
// before the next Wait returns are kept; anything queued earlier is dropped.
func (a *Awaiting) Expect(k Key) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if e, ok := a.entries[k]; ok {
		e.expecting = true
		e.pending = nil
	}
}

// Deliver hands content to the oldest waiter for k, or queues it for the next
// Wait while a prompt is outstanding. Other messages from k are swallowed.
// It reports false when k is not awaiting.
func (a *Awaiting) Deliver(k Key, content string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	e, ok := a.entries[k]
	if !ok {
		return false
	}
	if len(e.waiters) > 0 {
		ch := e.waiters[0]
		e.waiters = e.waiters[1:]
		e.expecting = false
		ch <- content
		return true
	}
	if e.expecting && len(e.pending) == 0 {
		e.pending = append(e.pending, content)
	}
	return true
}

// Wait blocks until a reply for k is delivered. It returns ok=false when
// timeout elapses first; a timeout <= 0 waits until ctx is done.
func (a *Awaiting) Wait(ctx context.Context, k Key, timeout time.Duration) (reply string, ok bool, err error) {
	release := a.Acquire(k)
	defer release()

	a.mu.Lock()
	e := a.entries[k]
	if len(e.pending) > 0 {
		reply = e.pending[0]
		e.pending = e.pending[1:]
		e.expecting = false
		a.mu.Unlock()
		return reply, true, nil
	}
	ch := make(chan string, 1)
	e.waiters = append(e.waiters, ch)
	a.mu.Unlock()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case reply = <-ch:
		return reply, true, nil
	case <-expired:
	case <-ctx.Done():
		err = ctx.Err()
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	for i, w := range e.waiters {
		if w == ch {
			e.waiters = append(e.waiters[:i], e.waiters[i+1:]...)
			return "", false, err
		}
	}
	// Delivered while giving up.
	reply = <-ch
	return reply, true, nil
}
