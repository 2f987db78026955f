package chatapi_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ser/app/internal/chatapi"
	"ser/app/internal/prefs"
)

func newSimulator(t *testing.T, gender string) *chatapi.PreviewSimulator {
	t.Helper()
	store := prefs.NewStore(filepath.Join(t.TempDir(), "identity.yaml"))
	if gender != "" {
		assert.NoError(t, store.Save(prefs.Identity{DisplayName: "Tester", Gender: gender}))
	}
	return chatapi.NewPreviewSimulator(store)
}

func TestSimulatedPairingDelay(t *testing.T) {
	sim := newSimulator(t, "")
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	sim.Clock = func() time.Time { return now }
	ctx := context.Background()

	update, err := sim.RequestPairing(ctx)
	assert.NoError(t, err)
	assert.Equal(t, chatapi.StateWaiting, update.State)

	// Two seconds in: still waiting.
	now = base.Add(2 * time.Second)
	update, err = sim.SessionStatus(ctx)
	assert.NoError(t, err)
	assert.Equal(t, chatapi.StateWaiting, update.State)
	assert.Nil(t, update.Partner)

	// At the three second mark the partner appears.
	now = base.Add(chatapi.PartnerDelay)
	update, err = sim.SessionStatus(ctx)
	assert.NoError(t, err)
	assert.Equal(t, chatapi.StateConnected, update.State)
	if assert.NotNil(t, update.Partner) {
		assert.Equal(t, "demo-partner", update.Partner.ID)
	}
}

func TestSimulatedPartnerGenderComplement(t *testing.T) {
	cases := []struct {
		name   string
		local  string
		expect chatapi.Gender
	}{
		{"unset defaults to male, partner female", "", chatapi.GenderFemale},
		{"male gets female", "male", chatapi.GenderFemale},
		{"female gets male", "female", chatapi.GenderMale},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sim := newSimulator(t, tc.local)
			base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
			now := base
			sim.Clock = func() time.Time { return now }
			ctx := context.Background()

			_, err := sim.RequestPairing(ctx)
			assert.NoError(t, err)
			now = base.Add(chatapi.PartnerDelay)
			update, err := sim.SessionStatus(ctx)
			assert.NoError(t, err)
			if assert.NotNil(t, update.Partner) {
				assert.Equal(t, tc.expect, update.Partner.Gender)
			}
		})
	}
}

func TestSimulatorEndSession(t *testing.T) {
	sim := newSimulator(t, "")
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	sim.Clock = func() time.Time { return now }
	ctx := context.Background()

	_, err := sim.RequestPairing(ctx)
	assert.NoError(t, err)
	now = base.Add(chatapi.PartnerDelay)
	_, err = sim.SessionStatus(ctx)
	assert.NoError(t, err)

	assert.NoError(t, sim.EndSession(ctx))
	update, err := sim.SessionStatus(ctx)
	assert.NoError(t, err)
	assert.Equal(t, chatapi.StateNone, update.State)
}

func TestSimulatorSeededRequestResolvesLocally(t *testing.T) {
	sim := newSimulator(t, "")
	ctx := context.Background()

	requests, err := sim.ListReconnectRequests(ctx)
	assert.NoError(t, err)
	if !assert.Len(t, requests, 1) {
		return
	}

	assert.NoError(t, sim.ResolveReconnectRequest(ctx, requests[0].ID, true))

	// Accepting attaches the requester as the current partner.
	update, err := sim.SessionStatus(ctx)
	assert.NoError(t, err)
	assert.Equal(t, chatapi.StateConnected, update.State)
	if assert.NotNil(t, update.Partner) {
		assert.Equal(t, requests[0].Requester.ID, update.Partner.ID)
	}

	// The request is gone and cannot be resolved twice.
	requests, err = sim.ListReconnectRequests(ctx)
	assert.NoError(t, err)
	assert.Empty(t, requests)
	assert.Error(t, sim.ResolveReconnectRequest(ctx, "preview-request-1", true))
}

func TestSimulatorDirectChatFromHistory(t *testing.T) {
	sim := newSimulator(t, "")
	ctx := context.Background()

	partner, err := sim.StartDirectChat(ctx, "met-1")
	assert.NoError(t, err)
	assert.Equal(t, "met-1", partner.ID)

	_, err = sim.StartDirectChat(ctx, "stranger")
	assert.Error(t, err)
}

func TestSimulatorReconnectRequiresHistory(t *testing.T) {
	sim := newSimulator(t, "")
	ctx := context.Background()

	id, err := sim.SubmitReconnectRequest(ctx, "met-1")
	assert.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = sim.SubmitReconnectRequest(ctx, "stranger")
	assert.Error(t, err)
}

func TestSimulatorStats(t *testing.T) {
	sim := newSimulator(t, "")

	stats, err := sim.Stats(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 2, stats.TotalChats)
	assert.Equal(t, 750, stats.TotalTime)
	assert.Equal(t, 375, stats.AverageDuration)
}

func TestGenderComplement(t *testing.T) {
	assert.Equal(t, chatapi.GenderFemale, chatapi.GenderMale.Complement())
	assert.Equal(t, chatapi.GenderMale, chatapi.GenderFemale.Complement())
	assert.Equal(t, chatapi.GenderFemale, chatapi.Gender("").Complement())
}
