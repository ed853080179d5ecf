package playout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playout-engine/internal/storage"
	"playout-engine/internal/storage/storagetest"
)

func resolveTargeting(t *testing.T, f *storagetest.Fixture, screenID string, now time.Time) ([]storage.FlightRef, error) {
	t.Helper()
	var flights []storage.FlightRef
	err := f.Provider.WithTx(context.Background(), func(tx storage.Tx) error {
		var err error
		_, flights, err = ResolveTargeting(context.Background(), tx, screenID, now)
		return err
	})
	return flights, err
}

func TestResolveTargeting(t *testing.T) {
	f := storagetest.NewFixture(t)
	f.Region("NG", false)
	f.Screen("screen-1", "NG", storage.ScreenClassBillboard)
	f.Screen("screen-2", "NG", storage.ScreenClassBillboard)
	f.Group("group-1", "screen-1")
	f.Campaign("camp-1", storage.CampaignStatusActive)

	f.Flight("direct", "camp-1", storage.TargetScreen, "screen-1")
	f.Flight("grouped", "camp-1", storage.TargetScreenGroup, "group-1")
	f.Flight("other-screen", "camp-1", storage.TargetScreen, "screen-2")
	f.FlightWindow("paused", "camp-1", storage.TargetScreen, "screen-1", f.Now.Add(-time.Hour), f.Now.Add(time.Hour), storage.FlightStatusPaused)
	f.FlightWindow("starts-now", "camp-1", storage.TargetScreen, "screen-1", f.Now, f.Now.Add(time.Hour), storage.FlightStatusActive)
	f.FlightWindow("ends-now", "camp-1", storage.TargetScreen, "screen-1", f.Now.Add(-time.Hour), f.Now, storage.FlightStatusActive)
	f.FlightWindow("future", "camp-1", storage.TargetScreen, "screen-1", f.Now.Add(time.Minute), f.Now.Add(time.Hour), storage.FlightStatusActive)

	flights, err := resolveTargeting(t, f, "screen-1", f.Now)
	require.NoError(t, err)

	var ids []string
	for _, fl := range flights {
		ids = append(ids, fl.FlightID)
		assert.Equal(t, "camp-1", fl.CampaignID)
	}
	assert.ElementsMatch(t, []string{"direct", "grouped", "starts-now"}, ids)
}

func TestResolveTargetingGroupMembershipIsCurrent(t *testing.T) {
	f := storagetest.NewFixture(t)
	f.Region("NG", false)
	f.Screen("screen-1", "NG", storage.ScreenClassIndoor)
	f.Screen("screen-2", "NG", storage.ScreenClassIndoor)
	f.Group("group-1", "screen-2")
	f.Campaign("camp-1", storage.CampaignStatusActive)
	f.Flight("grouped", "camp-1", storage.TargetScreenGroup, "group-1")

	flights, err := resolveTargeting(t, f, "screen-1", f.Now)
	require.NoError(t, err)
	assert.Empty(t, flights)
}

func TestResolveTargetingScreenNotFound(t *testing.T) {
	f := storagetest.NewFixture(t)

	_, err := resolveTargeting(t, f, "missing", f.Now)
	require.ErrorIs(t, err, ErrScreenNotFound)
}
