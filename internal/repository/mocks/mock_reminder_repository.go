package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"doctrack/internal/model"
)

type MockReminderRepository struct {
	mock.Mock
}

func (m *MockReminderRepository) Replace(ctx context.Context, documentID string, reminders []model.Reminder) error {
	args := m.Called(ctx, documentID, reminders)
	return args.Error(0)
}

func (m *MockReminderRepository) ListByDocument(ctx context.Context, documentID string) ([]model.Reminder, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Reminder), args.Error(1)
}

func (m *MockReminderRepository) ListPending(ctx context.Context, userID string, from model.Date) ([]model.PendingReminder, error) {
	args := m.Called(ctx, userID, from)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PendingReminder), args.Error(1)
}

func (m *MockReminderRepository) ListDue(ctx context.Context, on model.Date) ([]model.DueReminder, error) {
	args := m.Called(ctx, on)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DueReminder), args.Error(1)
}

func (m *MockReminderRepository) MarkSent(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) Append(ctx context.Context, h *model.DocumentHistory) error {
	args := m.Called(ctx, h)
	return args.Error(0)
}

func (m *MockHistoryRepository) ListByDocument(ctx context.Context, documentID string) ([]model.DocumentHistory, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DocumentHistory), args.Error(1)
}
