package command

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name         string
		in           string
		count        int
		singleQuotes bool
		want         []string
	}{
		{name: "words", in: "hello world", singleQuotes: true, want: []string{"hello", "world"}},
		{name: "double quotes", in: `"hello world" foo`, singleQuotes: true, want: []string{"hello world", "foo"}},
		{name: "single quotes", in: `'a b' c`, singleQuotes: true, want: []string{"a b", "c"}},
		{name: "single quotes disabled", in: `'a b' c`, want: []string{"'a", "b'", "c"}},
		{name: "remainder", in: "a b c d", count: 2, singleQuotes: true, want: []string{"a", "b c d"}},
		{name: "quoted remainder", in: `a "b c"`, count: 2, singleQuotes: true, want: []string{"a", "b c"}},
		{name: "empty dropped", in: `"" x`, singleQuotes: true, want: []string{"x"}},
		{name: "extra spaces", in: "  a    b  ", singleQuotes: true, want: []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseArgs(tt.in, tt.count, tt.singleQuotes))
		})
	}
}

func TestParseArgsEmpty(t *testing.T) {
	assert.Empty(t, ParseArgs("", 0, true))
	assert.Empty(t, ParseArgs("   ", 2, true))
}

func TestThrottlesTake(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	th := NewThrottles(Throttling{Usages: 2, Duration: 10 * time.Second})
	th.now = func() time.Time { return now }

	ok, _ := th.Take("u1")
	assert.True(t, ok)
	ok, _ = th.Take("u1")
	assert.True(t, ok)

	ok, remaining := th.Take("u1")
	assert.False(t, ok)
	assert.Equal(t, 10*time.Second, remaining)

	ok, _ = th.Take("u2")
	assert.True(t, ok, "windows are per user")

	now = now.Add(4 * time.Second)
	ok, remaining = th.Take("u1")
	assert.False(t, ok)
	assert.Equal(t, 6*time.Second, remaining)

	now = now.Add(6 * time.Second)
	ok, _ = th.Take("u1")
	assert.True(t, ok, "window resets once it expired")
}

func TestThrottlesSweep(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	th := NewThrottles(Throttling{Usages: 1, Duration: time.Minute})
	th.now = func() time.Time { return now }

	th.Take("u1")
	now = now.Add(30 * time.Second)
	th.Take("u2")
	assert.Equal(t, 0, th.Sweep())

	now = now.Add(40 * time.Second)
	assert.Equal(t, 1, th.Sweep())

	ok, remaining := th.Take("u2")
	assert.False(t, ok)
	assert.GreaterOrEqual(t, remaining, time.Duration(0))
}
