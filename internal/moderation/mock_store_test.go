package moderation_test

import (
	"time"

	"github.com/stretchr/testify/mock"

	"ser/app/internal/models"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetUserByID(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStore) UpdateUser(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockStore) UpdateUserReputation(userID string, delta int) error {
	args := m.Called(userID, delta)
	return args.Error(0)
}

func (m *MockStore) SetBanFlag(userID string, duration time.Duration) error {
	args := m.Called(userID, duration)
	return args.Error(0)
}

func (m *MockStore) GetReportByID(id string) (*models.Report, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Report), args.Error(1)
}

func (m *MockStore) GetReportsForUser(userID string, since time.Time) ([]models.Report, error) {
	args := m.Called(userID, since)
	return args.Get(0).([]models.Report), args.Error(1)
}

func (m *MockStore) UpdateReportStatus(id, status string) error {
	args := m.Called(id, status)
	return args.Error(0)
}
