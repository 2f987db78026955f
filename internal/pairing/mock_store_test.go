package pairing_test

import (
	"github.com/stretchr/testify/mock"

	"ser/app/internal/models"
	"ser/app/internal/storage"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetSearchingUsers() ([]string, error) {
	args := m.Called()
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStore) RemoveUserFromSearchQueue(userID string) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockStore) IsUserBanned(userID string) (bool, error) {
	args := m.Called(userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) SaveRoom(room *models.ChatRoom) error {
	args := m.Called(room)
	return args.Error(0)
}

func (m *MockStore) GetRoomByID(roomID string) (*models.ChatRoom, error) {
	args := m.Called(roomID)
	return args.Get(0).(*models.ChatRoom), args.Error(1)
}

func (m *MockStore) GetActiveRoomIDs() ([]string, error) {
	args := m.Called()
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStore) GetSessionState(userID string) (*storage.SessionState, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.SessionState), args.Error(1)
}

func (m *MockStore) SetSessionState(userID string, state storage.SessionState) error {
	args := m.Called(userID, state)
	return args.Error(0)
}
