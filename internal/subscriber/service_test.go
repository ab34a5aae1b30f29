package subscriber

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSender captures outgoing messages instead of hitting Telegram.
type recordingSender struct {
	sent []sentMessage
	err  error
}

type sentMessage struct {
	channelID string
	text      string
}

func (s *recordingSender) Send(_ context.Context, channelID, text string) error {
	s.sent = append(s.sent, sentMessage{channelID, text})
	return s.err
}

func newTestService(t *testing.T) (*Service, *InMemoryStore, *recordingSender) {
	t.Helper()
	store := NewInMemoryStore()
	sender := &recordingSender{}
	service, err := NewService(store, sender)
	require.NoError(t, err)
	return service, store, sender
}

func TestSubscribeIsIdempotent(t *testing.T) {
	service, store, sender := newTestService(t)
	ctx := context.Background()

	require.NoError(t, service.Subscribe(ctx, "1001", Profile{Username: "alice"}))
	require.NoError(t, service.Subscribe(ctx, "1001", Profile{Username: "alice_renamed"}))

	subs, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "alice_renamed", subs[0].Username)
	assert.Len(t, sender.sent, 2)
}

func TestUnsubscribe(t *testing.T) {
	service, store, sender := newTestService(t)
	ctx := context.Background()

	t.Run("removes an existing subscriber", func(t *testing.T) {
		require.NoError(t, service.Subscribe(ctx, "1001", Profile{}))
		require.NoError(t, service.Unsubscribe(ctx, "1001"))

		subs, err := store.ListAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, subs)
		assert.Equal(t, CleanMarkdownV2(farewellText), sender.sent[len(sender.sent)-1].text)
	})

	t.Run("unknown channel is a no-op", func(t *testing.T) {
		require.NoError(t, service.Unsubscribe(ctx, "9999"))
		assert.Equal(t, CleanMarkdownV2(notSubscribedText), sender.sent[len(sender.sent)-1].text)
	})
}

func TestStartStopStartLeavesOneRow(t *testing.T) {
	service, store, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, service.HandleCommand(ctx, "1001", "/start", Profile{Username: "alice"}))
	require.NoError(t, service.HandleCommand(ctx, "1001", "/stop", Profile{}))
	require.NoError(t, service.HandleCommand(ctx, "1001", "/start", Profile{Username: "alice"}))

	subs, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

func TestUnknownCommandGetsHelp(t *testing.T) {
	service, store, sender := newTestService(t)
	ctx := context.Background()

	require.NoError(t, service.HandleCommand(ctx, "1001", "hello there", Profile{}))

	subs, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, subs)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, CleanMarkdownV2(helpText), sender.sent[0].text)
}

func TestLifecycleSurvivesReplyFailure(t *testing.T) {
	store := NewInMemoryStore()
	sender := &recordingSender{err: errors.New("network down")}
	service, err := NewService(store, sender)
	require.NoError(t, err)

	require.NoError(t, service.Subscribe(context.Background(), "1001", Profile{}))

	subs, err := store.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

func TestCleanMarkdownV2(t *testing.T) {
	assert.Equal(t,
		"Profit up 40% read more at examplecom",
		CleanMarkdownV2("Profit up 40% (read more at example.com)!"))
	assert.Equal(t, "*bold* _italic_", CleanMarkdownV2("*bold* _italic_"))
	assert.Equal(t, "", CleanMarkdownV2("[]()~`>#+-=|{}.!"))
}
