package metusers_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"ser/app/internal/chatapi"
	"ser/app/internal/metusers"
)

type fakeConnector struct {
	connected []chatapi.Partner
}

func (f *fakeConnector) ConnectDirect(p chatapi.Partner) error {
	f.connected = append(f.connected, p)
	return nil
}

func partner(id string) chatapi.Partner {
	return chatapi.Partner{ID: id, Username: "u_" + id, DisplayName: "User " + id}
}

func TestRecordEncounterUpserts(t *testing.T) {
	r := metusers.NewRegistry(new(MockBackend), nil)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	r.Clock = func() time.Time { return now }

	r.RecordEncounter(partner("user_2"), 120*time.Second)
	now = base.Add(time.Hour)
	r.RecordEncounter(partner("user_2"), 45*time.Second)

	list := r.List()
	if assert.Len(t, list, 1) {
		assert.Equal(t, base.Add(time.Hour), list[0].LastMet)
		assert.Equal(t, 45, list[0].SessionDuration)
	}
}

func TestListOrdersByRecency(t *testing.T) {
	r := metusers.NewRegistry(new(MockBackend), nil)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	r.Clock = func() time.Time { return now }

	r.RecordEncounter(partner("old"), time.Minute)
	now = base.Add(time.Hour)
	r.RecordEncounter(partner("recent"), time.Minute)

	list := r.List()
	if assert.Len(t, list, 2) {
		assert.Equal(t, "recent", list[0].ID)
		assert.Equal(t, "old", list[1].ID)
	}
}

// last_met never moves backwards, even when the clock does.
func TestRecordEncounterMonotonic(t *testing.T) {
	r := metusers.NewRegistry(new(MockBackend), nil)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base.Add(time.Hour)
	r.Clock = func() time.Time { return now }

	r.RecordEncounter(partner("user_2"), time.Minute)
	now = base
	r.RecordEncounter(partner("user_2"), time.Minute)

	list := r.List()
	if assert.Len(t, list, 1) {
		assert.Equal(t, base.Add(time.Hour), list[0].LastMet)
	}
}

func TestRefreshReplacesFromBackend(t *testing.T) {
	backend := new(MockBackend)
	backend.On("ListMetUsers", mock.Anything).Return([]chatapi.MetUserRecord{
		{ID: "user_3", Username: "u_user_3", LastMet: time.Now()},
	}, nil).Once()

	r := metusers.NewRegistry(backend, nil)
	r.RecordEncounter(partner("user_2"), time.Minute)

	assert.NoError(t, r.Refresh(context.Background()))

	assert.False(t, r.Has("user_2"))
	assert.True(t, r.Has("user_3"))
}

func TestStartDirectChatUnknownPartner(t *testing.T) {
	backend := new(MockBackend)
	r := metusers.NewRegistry(backend, nil)

	err := r.StartDirectChat(context.Background(), "stranger")

	assert.ErrorIs(t, err, metusers.ErrUnknownPartner)
	backend.AssertNotCalled(t, "StartDirectChat", mock.Anything, mock.Anything)
}

func TestStartDirectChatConnects(t *testing.T) {
	backend := new(MockBackend)
	backend.On("StartDirectChat", mock.Anything, "user_2").Return(partner("user_2"), nil).Once()

	connector := &fakeConnector{}
	r := metusers.NewRegistry(backend, connector)
	r.RecordEncounter(partner("user_2"), time.Minute)

	assert.NoError(t, r.StartDirectChat(context.Background(), "user_2"))
	if assert.Len(t, connector.connected, 1) {
		assert.Equal(t, "user_2", connector.connected[0].ID)
	}
}

func TestStartDirectChatBackendError(t *testing.T) {
	backend := new(MockBackend)
	backend.On("StartDirectChat", mock.Anything, "user_2").
		Return(chatapi.Partner{}, chatapi.ErrBackendUnavailable).Once()

	connector := &fakeConnector{}
	r := metusers.NewRegistry(backend, connector)
	r.RecordEncounter(partner("user_2"), time.Minute)

	err := r.StartDirectChat(context.Background(), "user_2")

	assert.ErrorIs(t, err, chatapi.ErrBackendUnavailable)
	assert.Empty(t, connector.connected)
}
