package argument

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/commando/internal/chat"
	"github.com/keshon/commando/internal/chat/chattest"
)

// scriptedConv answers each prompt with the next scripted reply.
type scriptedConv struct {
	aw      *Awaiting
	client  chat.Client
	guildID string
	answers []string
	prompts []string
}

func (c *scriptedConv) AuthorID() string  { return "author" }
func (c *scriptedConv) ChannelID() string { return "chan" }
func (c *scriptedConv) GuildID() string   { return c.guildID }
func (c *scriptedConv) Chat() chat.Client { return c.client }

func (c *scriptedConv) Prompt(_ context.Context, text string) error {
	c.prompts = append(c.prompts, text)
	if len(c.answers) > 0 {
		answer := c.answers[0]
		c.answers = c.answers[1:]
		c.aw.Deliver(KeyOf(c), answer)
	}
	return nil
}

func newConv(aw *Awaiting, answers ...string) *scriptedConv {
	return &scriptedConv{aw: aw, client: chattest.New(chat.User{ID: "bot"}), answers: answers}
}

func mustCollector(t *testing.T, aw *Awaiting, limit int, args ...*Argument) *Collector {
	t.Helper()
	c, err := NewCollector(args, limit)
	require.NoError(t, err)
	return c.WithAwaiting(aw)
}

func TestNewCollectorRejectsBadLayouts(t *testing.T) {
	tests := []struct {
		name string
		args []*Argument
		want error
	}{
		{
			name: "infinite not last",
			args: []*Argument{
				{Key: "a", Prompt: "a?", Type: String, Infinite: true},
				{Key: "b", Prompt: "b?", Type: String},
			},
			want: ErrInfiniteNotLast,
		},
		{
			name: "required after optional",
			args: []*Argument{
				{Key: "a", Prompt: "a?", Type: String, Default: "x"},
				{Key: "b", Prompt: "b?", Type: String},
			},
			want: ErrRequiredAfterOpt,
		},
		{
			name: "duplicate key",
			args: []*Argument{
				{Key: "a", Prompt: "a?", Type: String},
				{Key: "a", Prompt: "a?", Type: String},
			},
			want: ErrDuplicateKey,
		},
		{
			name: "missing type",
			args: []*Argument{{Key: "a", Prompt: "a?"}},
			want: ErrNoType,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCollector(tt.args, 0)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestObtainProvidedAndDefault(t *testing.T) {
	aw := NewAwaiting()
	c := mustCollector(t, aw, 0,
		&Argument{Key: "a", Prompt: "a?", Type: String},
		&Argument{Key: "b", Prompt: "b?", Type: String, Default: "x"},
	)
	conv := newConv(aw)

	res, err := c.Obtain(context.Background(), conv, []string{"hello"})
	require.NoError(t, err)
	assert.Empty(t, res.Cancelled)
	assert.Empty(t, res.Prompts)
	assert.Empty(t, res.Answers)
	assert.Equal(t, map[string]any{"a": "hello", "b": "x"}, res.Values.Map())
	assert.Equal(t, []string{"a", "b"}, res.Values.Keys())
	assert.Zero(t, aw.Len())
}

func TestObtainPromptLimit(t *testing.T) {
	aw := NewAwaiting()
	c := mustCollector(t, aw, 1, &Argument{Key: "n", Prompt: "number?", Type: Integer})
	conv := newConv(aw, "still not a number")

	res, err := c.Obtain(context.Background(), conv, []string{"abc"})
	require.NoError(t, err)
	assert.Equal(t, CancelPromptLimit, res.Cancelled)
	assert.Nil(t, res.Values)
	assert.Len(t, res.Prompts, 1)
	assert.Equal(t, []string{"still not a number"}, res.Answers)
	assert.True(t, strings.HasPrefix(res.Prompts[0], "You provided an invalid n. Please try again."))
	assert.Zero(t, aw.Len())
}

func TestObtainPromptsForMissingValue(t *testing.T) {
	aw := NewAwaiting()
	c := mustCollector(t, aw, 0, &Argument{Key: "n", Label: "number", Prompt: "How many?", Type: Integer})
	conv := newConv(aw, "42")

	res, err := c.Obtain(context.Background(), conv, nil)
	require.NoError(t, err)
	require.Empty(t, res.Cancelled)
	assert.Equal(t, 42, res.Values.Int("n"))
	require.Len(t, res.Prompts, 1)
	assert.Contains(t, res.Prompts[0], "How many?")
	assert.Contains(t, res.Prompts[0], "Respond with `cancel` to cancel the command.")
	assert.Contains(t, res.Prompts[0], "automatically be cancelled in 30 seconds")
}

func TestObtainCancelByUser(t *testing.T) {
	aw := NewAwaiting()
	c := mustCollector(t, aw, 0,
		&Argument{Key: "a", Prompt: "a?", Type: String},
		&Argument{Key: "b", Prompt: "b?", Type: String},
	)
	conv := newConv(aw, "CANCEL")

	res, err := c.Obtain(context.Background(), conv, nil)
	require.NoError(t, err)
	assert.Equal(t, CancelUser, res.Cancelled)
	assert.Nil(t, res.Values)
	assert.Len(t, res.Prompts, 1, "second argument must not be prompted")
	assert.Zero(t, aw.Len())
}

func TestObtainTimeout(t *testing.T) {
	aw := NewAwaiting()
	c := mustCollector(t, aw, 0, &Argument{Key: "a", Prompt: "a?", Type: String, Wait: 10 * time.Millisecond})
	conv := newConv(aw)

	res, err := c.Obtain(context.Background(), conv, nil)
	require.NoError(t, err)
	assert.Equal(t, CancelTime, res.Cancelled)
	assert.Len(t, res.Prompts, 1)
	assert.Empty(t, res.Answers)
	assert.Zero(t, aw.Len())
}

func TestObtainEmptyReplyUsesDefault(t *testing.T) {
	aw := NewAwaiting()
	arg := &Argument{Key: "a", Prompt: "a?", Type: Integer, Default: 7}
	release := aw.Acquire(Key{AuthorID: "author", ChannelID: "chan"})
	defer release()
	conv := newConv(aw, "   ")

	out, err := arg.Obtain(context.Background(), conv, "oops", NoLimit, aw)
	require.NoError(t, err)
	assert.Empty(t, out.Cancelled)
	assert.Equal(t, 7, out.Value)
	assert.Len(t, out.Prompts, 1)
}

func TestObtainValidatorErrorReleasesAwaiting(t *testing.T) {
	aw := NewAwaiting()
	boom := errors.New("lookup failed")
	c := mustCollector(t, aw, 0, &Argument{
		Key:    "a",
		Prompt: "a?",
		Validator: func(context.Context, string, Conversation, *Argument) (Verdict, error) {
			return Verdict{}, boom
		},
		Parser: func(context.Context, string, Conversation, *Argument) (any, error) { return nil, nil },
	})

	_, err := c.Obtain(context.Background(), newConv(aw), []string{"x"})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, aw.Len())
}

func TestObtainContextCancelled(t *testing.T) {
	aw := NewAwaiting()
	c := mustCollector(t, aw, 0, &Argument{Key: "a", Prompt: "a?", Type: String, Wait: -1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Obtain(ctx, newConv(aw), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, aw.Len())
}

func TestObtainReasonIsPrompted(t *testing.T) {
	aw := NewAwaiting()
	c := mustCollector(t, aw, 0, &Argument{Key: "n", Prompt: "n?", Type: Integer, Max: Bound(10)})
	conv := newConv(aw, "5")

	res, err := c.Obtain(context.Background(), conv, []string{"50"})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Values.Int("n"))
	require.Len(t, res.Prompts, 1)
	assert.True(t, strings.HasPrefix(res.Prompts[0], "Please enter a number below or exactly 10."))
}

func TestObtainInfinite(t *testing.T) {
	t.Run("provided", func(t *testing.T) {
		aw := NewAwaiting()
		c := mustCollector(t, aw, 0,
			&Argument{Key: "first", Prompt: "first?", Type: String},
			&Argument{Key: "rest", Prompt: "numbers?", Type: Integer, Infinite: true},
		)
		res, err := c.Obtain(context.Background(), newConv(aw), []string{"go", "1", "2", "3"})
		require.NoError(t, err)
		assert.Equal(t, "go", res.Values.String("first"))
		assert.Equal(t, []any{1, 2, 3}, res.Values.List("rest"))
		assert.Empty(t, res.Prompts)
	})

	t.Run("invalid item replaced", func(t *testing.T) {
		aw := NewAwaiting()
		c := mustCollector(t, aw, 0, &Argument{Key: "rest", Prompt: "numbers?", Type: Integer, Infinite: true})
		res, err := c.Obtain(context.Background(), newConv(aw, "5"), []string{"1", "x"})
		require.NoError(t, err)
		assert.Equal(t, []any{1, 5}, res.Values.List("rest"))
		require.Len(t, res.Prompts, 1)
		assert.Contains(t, res.Prompts[0], `You provided an invalid rest, "x".`)
	})

	t.Run("finish", func(t *testing.T) {
		aw := NewAwaiting()
		c := mustCollector(t, aw, 0, &Argument{Key: "rest", Prompt: "numbers?", Type: Integer, Infinite: true})
		res, err := c.Obtain(context.Background(), newConv(aw, "4", "8", "finish"), nil)
		require.NoError(t, err)
		assert.Empty(t, res.Cancelled)
		assert.Equal(t, []any{4, 8}, res.Values.List("rest"))
		assert.Len(t, res.Answers, 3)
		assert.GreaterOrEqual(t, len(res.Prompts), 1)
	})

	t.Run("finish with nothing", func(t *testing.T) {
		aw := NewAwaiting()
		c := mustCollector(t, aw, 0, &Argument{Key: "rest", Prompt: "numbers?", Type: Integer, Infinite: true})
		res, err := c.Obtain(context.Background(), newConv(aw, "finish"), nil)
		require.NoError(t, err)
		assert.Equal(t, CancelUser, res.Cancelled)
		assert.Nil(t, res.Values)
	})
}

func TestPromptsNeverFewerThanAnswers(t *testing.T) {
	scripts := [][]string{
		nil,
		{"x"},
		{"x", "y", "3"},
		{"cancel"},
		{"1"},
	}
	for _, answers := range scripts {
		aw := NewAwaiting()
		c := mustCollector(t, aw, 2, &Argument{Key: "n", Prompt: "n?", Type: Integer, Wait: 20 * time.Millisecond})
		res, err := c.Obtain(context.Background(), newConv(aw, answers...), nil)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(res.Prompts), len(res.Answers))
		if res.Cancelled != "" {
			assert.Nil(t, res.Values)
		}
		assert.Zero(t, aw.Len())
	}

	t.Run("infinite with empty answers", func(t *testing.T) {
		aw := NewAwaiting()
		c := mustCollector(t, aw, 3, &Argument{Key: "rest", Prompt: "numbers?", Type: Integer, Infinite: true, Wait: 20 * time.Millisecond})
		res, err := c.Obtain(context.Background(), newConv(aw, "4", "", "", ""), nil)
		require.NoError(t, err)
		assert.Equal(t, CancelPromptLimit, res.Cancelled)
		assert.Nil(t, res.Values)
		assert.Len(t, res.Answers, 4)
		require.Len(t, res.Prompts, 4)
		for _, p := range res.Prompts[1:] {
			assert.True(t, strings.HasPrefix(p, "numbers?"))
		}
		assert.Zero(t, aw.Len())
	})
}

func TestObtainEmptyAnswerWithoutDefault(t *testing.T) {
	aw := NewAwaiting()
	c := mustCollector(t, aw, 1,
		&Argument{Key: "a", Prompt: "a?", Type: String},
		&Argument{Key: "b", Prompt: "b?", Type: String},
	)
	conv := newConv(aw, "")

	res, err := c.Obtain(context.Background(), conv, []string{"hello"})
	require.NoError(t, err)
	assert.Equal(t, CancelPromptLimit, res.Cancelled)
	assert.Nil(t, res.Values)
	require.Len(t, res.Prompts, 1)
	assert.True(t, strings.HasPrefix(res.Prompts[0], "b?"))
	assert.Equal(t, []string{""}, res.Answers)
}
