// Package storagetest provides a migrated in-memory sqlite provider and
// fixture helpers for package tests.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"playout-engine/internal/config"
	"playout-engine/internal/storage"
)

// NewSQLite opens an in-memory sqlite provider with all migrations applied.
func NewSQLite(t testing.TB) storage.Provider {
	t.Helper()
	provider, err := storage.NewProvider(&config.Storage{
		Type:   config.StorageSQLite,
		SQLite: config.SQLiteStorage{Path: ":memory:"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { provider.Close() })
	return provider
}

// Fixture writes rows through a provider, failing the test on any error.
type Fixture struct {
	t        testing.TB
	Provider storage.Provider
	// Now is used for created_at columns unless a helper takes its own time.
	Now time.Time
}

func NewFixture(t testing.TB) *Fixture {
	return &Fixture{
		t:        t,
		Provider: NewSQLite(t),
		Now:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *Fixture) tx(fn func(ctx context.Context, tx storage.Tx) error) {
	f.t.Helper()
	ctx := context.Background()
	require.NoError(f.t, f.Provider.WithTx(ctx, func(tx storage.Tx) error {
		return fn(ctx, tx)
	}))
}

func (f *Fixture) Region(code string, requiresPreApproval bool) {
	f.t.Helper()
	f.tx(func(ctx context.Context, tx storage.Tx) error {
		return tx.UpsertRegion(ctx, storage.Region{Code: code, Name: code, RequiresPreApproval: requiresPreApproval})
	})
}

func (f *Fixture) Screen(id, regionCode string, class storage.ScreenClass) {
	f.t.Helper()
	f.tx(func(ctx context.Context, tx storage.Tx) error {
		return tx.CreateScreen(ctx, storage.Screen{
			ID:             id,
			PublisherOrgID: "publisher",
			Name:           id,
			RegionCode:     regionCode,
			City:           "Lagos",
			Classification: class,
			CreatedAt:      f.Now,
		})
	})
}

func (f *Fixture) Group(id string, screenIDs ...string) {
	f.t.Helper()
	f.tx(func(ctx context.Context, tx storage.Tx) error {
		if err := tx.CreateScreenGroup(ctx, storage.ScreenGroup{ID: id, Name: id, CreatedAt: f.Now}); err != nil {
			return err
		}
		for _, screenID := range screenIDs {
			if err := tx.AddScreenToGroup(ctx, id, screenID); err != nil {
				return err
			}
		}
		return nil
	})
}

func (f *Fixture) Campaign(id string, status storage.CampaignStatus) {
	f.t.Helper()
	f.tx(func(ctx context.Context, tx storage.Tx) error {
		return tx.CreateCampaign(ctx, storage.Campaign{ID: id, AdvertiserOrgID: "advertiser", Name: id, Status: status, CreatedAt: f.Now})
	})
}

func (f *Fixture) Creative(id, campaignID string, createdAt time.Time) {
	f.t.Helper()
	f.tx(func(ctx context.Context, tx storage.Tx) error {
		return tx.CreateCreative(ctx, storage.Creative{
			ID:              id,
			CampaignID:      campaignID,
			Name:            id,
			FileURL:         "creatives/" + id + ".mp4",
			DurationSeconds: 15,
			QAStatus:        storage.QAStatusPendingReview,
			CreatedAt:       createdAt,
		})
	})
}

// Flight creates an active flight running from an hour before Now to an hour after.
func (f *Fixture) Flight(id, campaignID string, target storage.TargetType, targetID string) {
	f.t.Helper()
	f.FlightWindow(id, campaignID, target, targetID, f.Now.Add(-time.Hour), f.Now.Add(time.Hour), storage.FlightStatusActive)
}

func (f *Fixture) FlightWindow(id, campaignID string, target storage.TargetType, targetID string, start, end time.Time, status storage.FlightStatus) {
	f.t.Helper()
	f.tx(func(ctx context.Context, tx storage.Tx) error {
		return tx.CreateFlight(ctx, storage.Flight{
			ID:            id,
			CampaignID:    campaignID,
			Name:          id,
			StartDatetime: start,
			EndDatetime:   end,
			TargetType:    target,
			TargetID:      targetID,
			Status:        status,
			CreatedAt:     f.Now,
		})
	})
}

func (f *Fixture) Attach(flightID, creativeID string, weight int) {
	f.t.Helper()
	f.tx(func(ctx context.Context, tx storage.Tx) error {
		return tx.AddFlightCreative(ctx, storage.FlightCreative{FlightID: flightID, CreativeID: creativeID, Weight: weight})
	})
}

// Approval writes an approval with the given status and code.
func (f *Fixture) Approval(creativeID, regionCode string, status storage.ApprovalStatus, code *string) {
	f.t.Helper()
	f.tx(func(ctx context.Context, tx storage.Tx) error {
		return tx.UpsertApproval(ctx, storage.CreativeApproval{
			ID:           creativeID + "-" + regionCode,
			CreativeID:   creativeID,
			RegionCode:   regionCode,
			Status:       status,
			ApprovalCode: code,
			CreatedAt:    f.Now,
			UpdatedAt:    f.Now,
		})
	})
}

func (f *Fixture) Player(id, screenID, tokenHash string, active bool) {
	f.t.Helper()
	f.tx(func(ctx context.Context, tx storage.Tx) error {
		return tx.CreatePlayer(ctx, storage.Player{ID: id, ScreenID: screenID, TokenHash: tokenHash, IsActive: active, CreatedAt: f.Now})
	})
}

// GetPlayer reads a player back.
func (f *Fixture) GetPlayer(id string) *storage.Player {
	f.t.Helper()
	var player *storage.Player
	f.tx(func(ctx context.Context, tx storage.Tx) error {
		var err error
		player, err = tx.GetPlayer(ctx, id)
		return err
	})
	return player
}

func (f *Fixture) GetScreen(id string) *storage.Screen {
	f.t.Helper()
	var screen *storage.Screen
	f.tx(func(ctx context.Context, tx storage.Tx) error {
		var err error
		screen, err = tx.GetScreen(ctx, id)
		return err
	})
	return screen
}

func (f *Fixture) PlayEvents(screenID string) []storage.PlayEvent {
	f.t.Helper()
	var events []storage.PlayEvent
	f.tx(func(ctx context.Context, tx storage.Tx) error {
		var err error
		events, err = tx.ListPlayEvents(ctx, screenID, 1000)
		return err
	})
	return events
}

func (f *Fixture) Heartbeats(playerID string) []storage.Heartbeat {
	f.t.Helper()
	var heartbeats []storage.Heartbeat
	f.tx(func(ctx context.Context, tx storage.Tx) error {
		var err error
		heartbeats, err = tx.ListHeartbeats(ctx, playerID, 1000)
		return err
	})
	return heartbeats
}

func (f *Fixture) Locations(screenID string) []storage.LocationPoint {
	f.t.Helper()
	var points []storage.LocationPoint
	f.tx(func(ctx context.Context, tx storage.Tx) error {
		var err error
		points, err = tx.ListLocations(ctx, screenID, 1000)
		return err
	})
	return points
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
