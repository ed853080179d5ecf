package playout

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playout-engine/internal/auth"
	"playout-engine/internal/storage"
	"playout-engine/internal/storage/storagetest"
)

func newTestEngine(f *storagetest.Fixture) *Engine {
	return NewEngine(f.Provider,
		WithShuffler(rand.New(rand.NewPCG(1, 2))),
		WithClock(func() time.Time { return f.Now }),
	)
}

func engineFixture(t *testing.T) *storagetest.Fixture {
	f := storagetest.NewFixture(t)
	f.Region("NG", true)
	f.Screen("S", "NG", storage.ScreenClassBillboard)
	f.Player("player-1", "S", "hash", true)
	f.Campaign("camp-a", storage.CampaignStatusActive)
	return f
}

func TestResolveFlightPlaylist(t *testing.T) {
	f := engineFixture(t)
	f.Flight("F1", "camp-a", storage.TargetScreen, "S")
	f.Flight("F2", "camp-a", storage.TargetScreen, "S")
	f.Creative("C3", "camp-a", f.Now)
	f.Creative("C1", "camp-a", f.Now)
	f.Attach("F1", "C3", 2)
	f.Attach("F2", "C3", 3)
	f.Attach("F1", "C1", 1)
	f.Approval("C3", "NG", storage.ApprovalStatusApproved, storagetest.Ptr("NG-3"))
	f.Approval("C1", "NG", storage.ApprovalStatusApproved, nil)

	result, err := newTestEngine(f).Resolve(context.Background(), "player-1", "")
	require.NoError(t, err)

	assert.Equal(t, "S", result.ScreenID)
	assert.Equal(t, "NG", result.Region)
	assert.Equal(t, "Lagos", result.City)
	assert.False(t, result.NotModified)
	assert.False(t, result.Fallback)
	assert.Equal(t, map[string]int{"C3": 5}, countBy(result.Playlist))
	assert.Equal(t, ConfigHash("S", "NG", "Lagos", result.Playlist), result.ConfigHash)

	player := f.GetPlayer("player-1")
	require.NotNil(t, player.ConfigHash)
	assert.Equal(t, result.ConfigHash, *player.ConfigHash)
	require.NotNil(t, player.ConfigHashUpdatedAt)
	assert.True(t, f.Now.Equal(*player.ConfigHashUpdatedAt))
}

func TestResolveFallbackWithSentinelFlight(t *testing.T) {
	f := engineFixture(t)
	f.Creative("C2", "camp-a", f.Now)
	f.Approval("C2", "NG", storage.ApprovalStatusApproved, storagetest.Ptr("NG-2"))

	result, err := newTestEngine(f).Resolve(context.Background(), "player-1", "")
	require.NoError(t, err)

	assert.True(t, result.Fallback)
	require.Len(t, result.Playlist, 1)
	assert.Equal(t, "C2", result.Playlist[0].CreativeID)
	assert.Equal(t, "camp-a", result.Playlist[0].CampaignID)
	assert.Equal(t, FallbackFlightID, result.Playlist[0].FlightID)
}

func TestResolveExcludesUncodedCreativeEverywhere(t *testing.T) {
	f := engineFixture(t)
	f.Flight("F1", "camp-a", storage.TargetScreen, "S")
	f.Creative("C1", "camp-a", f.Now)
	f.Attach("F1", "C1", 4)
	f.Approval("C1", "NG", storage.ApprovalStatusApproved, nil)

	result, err := newTestEngine(f).Resolve(context.Background(), "player-1", "")
	require.NoError(t, err)

	assert.False(t, result.Fallback)
	assert.Empty(t, result.Playlist)
	assert.NotNil(t, result.Playlist)
}

func TestResolveNotModifiedWritesNothing(t *testing.T) {
	f := engineFixture(t)
	f.Flight("F1", "camp-a", storage.TargetScreen, "S")
	f.Creative("C1", "camp-a", f.Now)
	f.Attach("F1", "C1", 2)
	f.Approval("C1", "NG", storage.ApprovalStatusApproved, storagetest.Ptr("NG-1"))

	engine := newTestEngine(f)
	first, err := engine.Resolve(context.Background(), "player-1", "")
	require.NoError(t, err)
	stored := f.GetPlayer("player-1")

	// Move the clock so any write would be visible in config_hash_updated_at.
	f.Now = f.Now.Add(time.Minute)
	second, err := engine.Resolve(context.Background(), "player-1", first.ConfigHash)
	require.NoError(t, err)

	assert.True(t, second.NotModified)
	assert.Nil(t, second.Playlist)
	assert.Equal(t, first.ConfigHash, second.ConfigHash)

	after := f.GetPlayer("player-1")
	assert.Equal(t, stored.ConfigHash, after.ConfigHash)
	assert.True(t, stored.ConfigHashUpdatedAt.Equal(*after.ConfigHashUpdatedAt))
}

func TestResolveUnchangedHashIsNotRewritten(t *testing.T) {
	f := engineFixture(t)
	f.Creative("C2", "camp-a", f.Now)
	f.Approval("C2", "NG", storage.ApprovalStatusApproved, storagetest.Ptr("NG-2"))

	engine := newTestEngine(f)
	_, err := engine.Resolve(context.Background(), "player-1", "")
	require.NoError(t, err)
	stored := f.GetPlayer("player-1")

	f.Now = f.Now.Add(time.Minute)
	result, err := engine.Resolve(context.Background(), "player-1", "stale")
	require.NoError(t, err)
	assert.False(t, result.NotModified)
	assert.Len(t, result.Playlist, 1)

	after := f.GetPlayer("player-1")
	assert.True(t, stored.ConfigHashUpdatedAt.Equal(*after.ConfigHashUpdatedAt))
}

func TestResolveHashChangesWithComposition(t *testing.T) {
	f := engineFixture(t)
	f.Flight("F1", "camp-a", storage.TargetScreen, "S")
	f.Creative("C1", "camp-a", f.Now)
	f.Attach("F1", "C1", 1)
	f.Approval("C1", "NG", storage.ApprovalStatusApproved, storagetest.Ptr("NG-1"))

	engine := newTestEngine(f)
	first, err := engine.Resolve(context.Background(), "player-1", "")
	require.NoError(t, err)

	f.Creative("C2", "camp-a", f.Now)
	f.Attach("F1", "C2", 1)
	f.Approval("C2", "NG", storage.ApprovalStatusApproved, storagetest.Ptr("NG-2"))

	second, err := engine.Resolve(context.Background(), "player-1", first.ConfigHash)
	require.NoError(t, err)
	assert.False(t, second.NotModified)
	assert.NotEqual(t, first.ConfigHash, second.ConfigHash)
	assert.Equal(t, second.ConfigHash, *f.GetPlayer("player-1").ConfigHash)
}

func TestResolveInactivePlayer(t *testing.T) {
	f := engineFixture(t)
	f.Screen("S2", "NG", storage.ScreenClassIndoor)
	f.Player("player-2", "S2", "hash", false)

	_, err := newTestEngine(f).Resolve(context.Background(), "player-2", "")
	require.ErrorIs(t, err, auth.ErrDisconnected)

	_, err = newTestEngine(f).Resolve(context.Background(), "nobody", "")
	require.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestResolveScreen(t *testing.T) {
	f := engineFixture(t)
	f.Creative("C2", "camp-a", f.Now)
	f.Approval("C2", "NG", storage.ApprovalStatusApproved, storagetest.Ptr("NG-2"))

	result, err := newTestEngine(f).ResolveScreen(context.Background(), "S")
	require.NoError(t, err)
	assert.True(t, result.Fallback)
	assert.Nil(t, f.GetPlayer("player-1").ConfigHash)

	_, err = newTestEngine(f).ResolveScreen(context.Background(), "missing")
	require.ErrorIs(t, err, ErrScreenNotFound)
}
