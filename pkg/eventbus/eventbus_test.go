package eventbus

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/orgchart/pkg/logging"
)

type refreshed struct {
	generation uint64
}

type otherEvent struct{}

func TestPublish_NoMatchingSubscribersLogs(t *testing.T) {
	var logBuffer bytes.Buffer
	log := logrus.New()
	log.SetOutput(&logBuffer)
	log.SetLevel(logrus.WarnLevel)

	publisher := NewEventPublisher(log)
	publisher.Subscribe(func(e *refreshed) {
		t.Error("should not be called")
	})
	publisher.Publish(&otherEvent{})

	require.Contains(t, logBuffer.String(), "eventbus.Publish: no matching subscribers")
}

func TestPublish_DeliversToMatchingHandlers(t *testing.T) {
	publisher := NewEventPublisher(logging.ConsoleLogger(logrus.WarnLevel))
	var got []uint64
	publisher.Subscribe(func(e *refreshed) { got = append(got, e.generation) })
	publisher.Subscribe(func(ctx context.Context, e *refreshed) { got = append(got, e.generation*10) })

	publisher.Publish(&refreshed{generation: 2})
	publisher.Publish(context.Background(), &refreshed{generation: 3})

	require.Equal(t, []uint64{2, 30}, got)
}

func TestPublish_RecoversFromPanic(t *testing.T) {
	var logBuffer bytes.Buffer
	log := logrus.New()
	log.SetOutput(&logBuffer)

	publisher := NewEventPublisher(log)
	called := false
	publisher.Subscribe(func(e *refreshed) { panic("boom") })
	publisher.Subscribe(func(e *refreshed) { called = true })

	require.NotPanics(t, func() { publisher.Publish(&refreshed{}) })
	require.True(t, called)
	require.Contains(t, logBuffer.String(), "panicked")
}

func TestPublishE(t *testing.T) {
	publisher := NewEventPublisher(logging.Discard())
	require.ErrorIs(t, publisher.PublishE(&refreshed{}), ErrNoSubscribers)

	sentinel := errors.New("store down")
	publisher.Subscribe(func(e *refreshed) error { return sentinel })
	publisher.Subscribe(func(e *refreshed) error { return nil })
	publisher.Subscribe(func(e *refreshed) int { return 1 })

	err := publisher.PublishE(&refreshed{})
	require.ErrorIs(t, err, sentinel)
	require.ErrorIs(t, err, ErrInvalidHandlerReturn)
}

func TestSubscribeUnsubscribeClear(t *testing.T) {
	publisher := NewEventPublisher(logging.Discard())
	handler := func(e *refreshed) {}
	publisher.Subscribe(handler)
	publisher.Subscribe(func(e *otherEvent) {})
	require.Equal(t, 2, publisher.SubscribersCount())

	publisher.Unsubscribe(handler)
	require.Equal(t, 1, publisher.SubscribersCount())

	publisher.Clear()
	require.Zero(t, publisher.SubscribersCount())

	require.Panics(t, func() { publisher.Subscribe("not a func") })
}

func TestMatchSignature(t *testing.T) {
	require.True(t, MatchSignature(func(e *refreshed) {}, []any{&refreshed{}}))
	require.False(t, MatchSignature(func(e *refreshed) {}, []any{&otherEvent{}}))
	require.False(t, MatchSignature(func(e *refreshed) {}, []any{}))
	require.False(t, MatchSignature(func(e *refreshed) {}, []any{&refreshed{}, &refreshed{}}))
	require.True(t, MatchSignature(func(ctx context.Context) {}, []any{context.Background()}))
	require.True(t, MatchSignature(func(e *refreshed) {}, []any{nil}))
	require.False(t, MatchSignature(func(e refreshed) {}, []any{nil}))
	require.False(t, MatchSignature("nope", nil))
}
