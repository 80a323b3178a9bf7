// Package argument declares typed command arguments and collects their values,
// prompting the author in the channel for anything missing or invalid.
package argument

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/keshon/commando/internal/chat"
)

// Verdict is the outcome of validating one raw value. The zero Verdict is
// "invalid, no specific reason".
type Verdict struct {
	Valid  bool
	Reason string
}

// Valid is the accepting verdict.
var Valid = Verdict{Valid: true}

// Invalid returns a rejecting verdict with a user-facing reason.
func Invalid(format string, a ...any) Verdict {
	return Verdict{Reason: fmt.Sprintf(format, a...)}
}

// Conversation is the invocation an argument is collected for.
type Conversation interface {
	AuthorID() string
	ChannelID() string
	// GuildID is empty outside guilds.
	GuildID() string
	Chat() chat.Client
	// Prompt sends text to the author in the invocation channel.
	Prompt(ctx context.Context, text string) error
}

// Type validates and parses raw string values of one argument kind.
// A non-nil error from Validate or Parse is an infrastructure failure and aborts
// collection; user mistakes are reported through the Verdict.
type Type interface {
	ID() string
	Validate(ctx context.Context, value string, conv Conversation, arg *Argument) (Verdict, error)
	Parse(ctx context.Context, value string, conv Conversation, arg *Argument) (any, error)
	IsEmpty(value any, conv Conversation, arg *Argument) bool
}

// IsEmptyValue is the default emptiness check: nil, blank strings and empty
// slices or maps are empty.
func IsEmptyValue(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

var (
	typesMu sync.RWMutex
	types   = map[string]Type{}
)

// RegisterType makes t available by its ID. Registering the same ID twice replaces it.
func RegisterType(t Type) {
	typesMu.Lock()
	defer typesMu.Unlock()
	types[t.ID()] = t
}

// TypeByID returns a registered type.
func TypeByID(id string) (Type, bool) {
	typesMu.RLock()
	defer typesMu.RUnlock()
	t, ok := types[id]
	return t, ok
}

// TypeIDs lists registered type ids, sorted.
func TypeIDs() []string {
	typesMu.RLock()
	defer typesMu.RUnlock()
	ids := make([]string, 0, len(types))
	for id := range types {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
