package metusers_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ser/app/internal/chatapi"
)

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) RequestPairing(ctx context.Context) (chatapi.PairingUpdate, error) {
	args := m.Called(ctx)
	return args.Get(0).(chatapi.PairingUpdate), args.Error(1)
}

func (m *MockBackend) SessionStatus(ctx context.Context) (chatapi.PairingUpdate, error) {
	args := m.Called(ctx)
	return args.Get(0).(chatapi.PairingUpdate), args.Error(1)
}

func (m *MockBackend) EndSession(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockBackend) ListReconnectRequests(ctx context.Context) ([]chatapi.ReconnectRequest, error) {
	args := m.Called(ctx)
	return args.Get(0).([]chatapi.ReconnectRequest), args.Error(1)
}

func (m *MockBackend) SubmitReconnectRequest(ctx context.Context, targetID string) (string, error) {
	args := m.Called(ctx, targetID)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) ResolveReconnectRequest(ctx context.Context, requestID string, accept bool) error {
	args := m.Called(ctx, requestID, accept)
	return args.Error(0)
}

func (m *MockBackend) ListMetUsers(ctx context.Context) ([]chatapi.MetUserRecord, error) {
	args := m.Called(ctx)
	return args.Get(0).([]chatapi.MetUserRecord), args.Error(1)
}

func (m *MockBackend) StartDirectChat(ctx context.Context, targetID string) (chatapi.Partner, error) {
	args := m.Called(ctx, targetID)
	return args.Get(0).(chatapi.Partner), args.Error(1)
}

func (m *MockBackend) ReportParticipant(ctx context.Context, partnerID, reason, description string) error {
	args := m.Called(ctx, partnerID, reason, description)
	return args.Error(0)
}

func (m *MockBackend) Stats(ctx context.Context) (chatapi.ChatStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(chatapi.ChatStats), args.Error(1)
}
