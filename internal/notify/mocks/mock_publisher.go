package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, queue string, msg any) error {
	args := m.Called(ctx, queue, msg)
	return args.Error(0)
}
