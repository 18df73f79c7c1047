package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"doctrack/internal/realtime"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, userID string, ev realtime.ChangeEvent) error {
	args := m.Called(ctx, userID, ev)
	return args.Error(0)
}

type MockSubscriber struct {
	mock.Mock
}

func (m *MockSubscriber) Subscribe(ctx context.Context, userID string) (realtime.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(realtime.Subscription), args.Error(1)
}

// StubSubscription replays a fixed set of events and then closes.
type StubSubscription struct {
	ch chan realtime.ChangeEvent
}

func NewStubSubscription(events ...realtime.ChangeEvent) *StubSubscription {
	ch := make(chan realtime.ChangeEvent, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return &StubSubscription{ch: ch}
}

func (s *StubSubscription) Events() <-chan realtime.ChangeEvent { return s.ch }

func (s *StubSubscription) Close() error { return nil }
