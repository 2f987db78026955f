package handler_test

import (
	"time"

	"github.com/stretchr/testify/mock"

	"ser/app/internal/models"
	"ser/app/internal/storage"
)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) SaveUser(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockStorage) GetUserByID(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) GetOrCreateUser(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) UpdateUser(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockStorage) UpdateUserReputation(userID string, delta int) error {
	args := m.Called(userID, delta)
	return args.Error(0)
}

func (m *MockStorage) IsUserBanned(userID string) (bool, error) {
	args := m.Called(userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) SetBanFlag(userID string, duration time.Duration) error {
	args := m.Called(userID, duration)
	return args.Error(0)
}

func (m *MockStorage) ClearBanFlag(userID string) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockStorage) SaveRoom(room *models.ChatRoom) error {
	args := m.Called(room)
	return args.Error(0)
}

func (m *MockStorage) CloseRoom(roomID string, endedAt time.Time) error {
	args := m.Called(roomID, endedAt)
	return args.Error(0)
}

func (m *MockStorage) GetRoomByID(roomID string) (*models.ChatRoom, error) {
	args := m.Called(roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatRoom), args.Error(1)
}

func (m *MockStorage) GetActiveRoomIDs() ([]string, error) {
	args := m.Called()
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStorage) UpsertMetUser(ownerID string, partner *models.User, lastMet time.Time, durationSeconds int) error {
	args := m.Called(ownerID, partner, lastMet, durationSeconds)
	return args.Error(0)
}

func (m *MockStorage) ListMetUsers(ownerID string) ([]models.MetUser, error) {
	args := m.Called(ownerID)
	return args.Get(0).([]models.MetUser), args.Error(1)
}

func (m *MockStorage) IsMetUser(ownerID, partnerID string) (bool, error) {
	args := m.Called(ownerID, partnerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) CreateReconnectRequest(req *models.ReconnectRequest) error {
	args := m.Called(req)
	return args.Error(0)
}

func (m *MockStorage) GetReconnectRequest(id string) (*models.ReconnectRequest, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReconnectRequest), args.Error(1)
}

func (m *MockStorage) ListPendingReconnectRequests(targetID string) ([]models.ReconnectRequest, error) {
	args := m.Called(targetID)
	return args.Get(0).([]models.ReconnectRequest), args.Error(1)
}

func (m *MockStorage) ResolveReconnectRequest(id, status string, resolvedAt time.Time) (bool, error) {
	args := m.Called(id, status, resolvedAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) SaveReport(report *models.Report) error {
	args := m.Called(report)
	return args.Error(0)
}

func (m *MockStorage) GetReportByID(id string) (*models.Report, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Report), args.Error(1)
}

func (m *MockStorage) GetReportsForUser(userID string, since time.Time) ([]models.Report, error) {
	args := m.Called(userID, since)
	return args.Get(0).([]models.Report), args.Error(1)
}

func (m *MockStorage) UpdateReportStatus(id, status string) error {
	args := m.Called(id, status)
	return args.Error(0)
}

func (m *MockStorage) SetSessionState(userID string, state storage.SessionState) error {
	args := m.Called(userID, state)
	return args.Error(0)
}

func (m *MockStorage) GetSessionState(userID string) (*storage.SessionState, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.SessionState), args.Error(1)
}

func (m *MockStorage) ClearSessionState(userID string) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockStorage) AddUserToSearchQueue(userID string) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockStorage) RemoveUserFromSearchQueue(userID string) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockStorage) GetSearchingUsers() ([]string, error) {
	args := m.Called()
	return args.Get(0).([]string), args.Error(1)
}
