package telemetry

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playout-engine/internal/auth"
	"playout-engine/internal/config"
	"playout-engine/internal/storage"
	"playout-engine/internal/storage/storagetest"
)

func ingestFixture(t *testing.T) (*storagetest.Fixture, *Ingestor) {
	f := storagetest.NewFixture(t)
	f.Region("NG", false)
	f.Screen("bus-1", "NG", storage.ScreenClassVehicle)
	f.Screen("board-1", "NG", storage.ScreenClassBillboard)
	f.Player("bus-player", "bus-1", "hash", true)
	f.Player("board-player", "board-1", "hash", true)
	f.Campaign("camp-1", storage.CampaignStatusActive)
	f.Creative("C1", "camp-1", f.Now)

	in := NewIngestor(f.Provider, config.TelemetryConfig{MaxBatchSize: 3})
	in.now = func() time.Time { return f.Now }
	return f, in
}

func playEvent(creativeID string) PlayEventInput {
	return PlayEventInput{
		CreativeID:      creativeID,
		CampaignID:      "camp-1",
		StartedAt:       time.Date(2025, 6, 1, 11, 59, 0, 0, time.UTC),
		DurationSeconds: 15,
		PlayStatus:      "completed",
	}
}

func TestRecordPlayEvents(t *testing.T) {
	f, in := ingestFixture(t)

	withFlight := playEvent("C1")
	withFlight.FlightID = storagetest.Ptr("F1")
	withFlight.Location = &Location{Lat: 6.5, Lng: 3.4}

	n, err := in.RecordPlayEvents(context.Background(), "board-player", []PlayEventInput{playEvent("C1"), withFlight})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	events := f.PlayEvents("board-1")
	require.Len(t, events, 2)
	for _, e := range events {
		assert.Equal(t, "board-player", e.PlayerID)
		assert.Equal(t, "board-1", e.ScreenID)
		assert.Equal(t, "C1", e.CreativeID)
	}

	var located int
	for _, e := range events {
		if e.FlightID != nil {
			assert.Equal(t, "F1", *e.FlightID)
			require.NotNil(t, e.Latitude)
			assert.Equal(t, 6.5, *e.Latitude)
			located++
		}
	}
	assert.Equal(t, 1, located)
}

func TestRecordPlayEventsValidation(t *testing.T) {
	_, in := ingestFixture(t)
	ctx := context.Background()

	_, err := in.RecordPlayEvents(ctx, "board-player", nil)
	assert.ErrorIs(t, err, ErrEmptyBatch)

	_, err = in.RecordPlayEvents(ctx, "board-player", []PlayEventInput{playEvent("C1"), playEvent("C1"), playEvent("C1"), playEvent("C1")})
	assert.ErrorIs(t, err, ErrBatchTooLarge)

	bad := playEvent("C1")
	bad.PlayStatus = "paused"
	_, err = in.RecordPlayEvents(ctx, "board-player", []PlayEventInput{bad})
	assert.ErrorIs(t, err, ErrInvalidEvent)

	bad = playEvent("")
	_, err = in.RecordPlayEvents(ctx, "board-player", []PlayEventInput{bad})
	assert.ErrorIs(t, err, ErrInvalidEvent)

	bad = playEvent("C1")
	bad.Location = &Location{Lat: 91, Lng: 0}
	_, err = in.RecordPlayEvents(ctx, "board-player", []PlayEventInput{bad})
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

func TestRecordPlayEventsRollsBackWholeBatch(t *testing.T) {
	f, in := ingestFixture(t)

	// The second event references a creative that does not exist.
	_, err := in.RecordPlayEvents(context.Background(), "board-player", []PlayEventInput{playEvent("C1"), playEvent("missing")})
	require.Error(t, err)

	assert.Empty(t, f.PlayEvents("board-1"))
}

func TestRecordPlayEventsInactivePlayer(t *testing.T) {
	f, in := ingestFixture(t)
	f.Screen("board-2", "NG", storage.ScreenClassBillboard)
	f.Player("retired", "board-2", "hash", false)

	_, err := in.RecordPlayEvents(context.Background(), "retired", []PlayEventInput{playEvent("C1")})
	assert.ErrorIs(t, err, auth.ErrDisconnected)
	assert.Empty(t, f.PlayEvents("board-2"))
}

func TestRecordPlayEventsRollbackOnInsertFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	provider := storage.NewSQLProvider(db, "sqlmock")
	in := NewIngestor(provider, config.TelemetryConfig{MaxBatchSize: 10})

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM players WHERE id = ?")).
		WithArgs("player-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "screen_id", "token_hash", "is_active", "config_hash", "config_hash_updated_at", "last_seen_at", "created_at"}).
			AddRow("player-1", "screen-1", "hash", true, nil, nil, nil, now))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO play_events")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO play_events")).
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	_, err = in.RecordPlayEvents(context.Background(), "player-1", []PlayEventInput{playEvent("C1"), playEvent("C2")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordHeartbeatStationaryScreen(t *testing.T) {
	f, in := ingestFixture(t)

	hb := HeartbeatInput{
		Timestamp:       f.Now,
		Status:          "ok",
		SoftwareVersion: storagetest.Ptr("1.4.2"),
		Location:        &Location{Lat: 6.6, Lng: 3.3, AccuracyM: storagetest.Ptr(12.5)},
		Metrics: &HeartbeatMetrics{
			StorageFreeMB:  storagetest.Ptr(int64(2048)),
			CPUUsage:       storagetest.Ptr(0.35),
			NetworkType:    storagetest.Ptr("4g"),
			SignalStrength: storagetest.Ptr(-70),
		},
	}
	result, err := in.RecordHeartbeat(context.Background(), "board-player", hb)
	require.NoError(t, err)
	assert.Equal(t, "board-1", result.ScreenID)
	assert.True(t, result.PositionUpdated)
	assert.False(t, result.Sampled)

	heartbeats := f.Heartbeats("board-player")
	require.Len(t, heartbeats, 1)
	assert.Equal(t, "ok", heartbeats[0].Status)
	assert.Equal(t, int64(2048), *heartbeats[0].StorageFreeMB)
	assert.Equal(t, "4g", *heartbeats[0].NetworkType)
	assert.Equal(t, 12.5, *heartbeats[0].AccuracyM)

	screen := f.GetScreen("board-1")
	require.NotNil(t, screen.Latitude)
	assert.Equal(t, 6.6, *screen.Latitude)
	assert.Equal(t, 3.3, *screen.Longitude)
	require.NotNil(t, screen.LastSeenAt)
	assert.True(t, f.Now.Equal(*screen.LastSeenAt))

	assert.Empty(t, f.Locations("board-1"))

	player := f.GetPlayer("board-player")
	require.NotNil(t, player.LastSeenAt)
	assert.True(t, f.Now.Equal(*player.LastSeenAt))
}

func TestRecordHeartbeatWithoutLocation(t *testing.T) {
	f, in := ingestFixture(t)

	result, err := in.RecordHeartbeat(context.Background(), "bus-player", HeartbeatInput{Status: "ok"})
	require.NoError(t, err)
	assert.False(t, result.PositionUpdated)
	assert.False(t, result.Sampled)

	assert.Len(t, f.Heartbeats("bus-player"), 1)
	assert.Nil(t, f.GetScreen("bus-1").Latitude)
	assert.Empty(t, f.Locations("bus-1"))
}

func TestRecordHeartbeatSamplesVehicleTrail(t *testing.T) {
	f, in := ingestFixture(t)
	ctx := context.Background()
	t0 := f.Now
	lat, lng := 6.5244, 3.3792

	send := func(at time.Time, meters float64) *HeartbeatResult {
		t.Helper()
		result, err := in.RecordHeartbeat(ctx, "bus-player", HeartbeatInput{
			Timestamp: at,
			Status:    "ok",
			Location:  &Location{Lat: north(lat, meters), Lng: lng},
		})
		require.NoError(t, err)
		return result
	}

	assert.True(t, send(t0, 0).Sampled, "first observation")
	assert.False(t, send(t0.Add(250*time.Second), 10).Sampled)
	assert.True(t, send(t0.Add(260*time.Second), 250).Sampled)
	assert.False(t, send(t0.Add(300*time.Second), 250).Sampled)
	assert.True(t, send(t0.Add(561*time.Second), 250).Sampled)

	assert.Len(t, f.Locations("bus-1"), 3)
	assert.Len(t, f.Heartbeats("bus-player"), 5)
}

func TestRecordHeartbeatValidation(t *testing.T) {
	f, in := ingestFixture(t)
	ctx := context.Background()

	_, err := in.RecordHeartbeat(ctx, "bus-player", HeartbeatInput{})
	assert.ErrorIs(t, err, ErrInvalidHeartbeat)

	_, err = in.RecordHeartbeat(ctx, "bus-player", HeartbeatInput{Status: "ok", Location: &Location{Lat: 0, Lng: 181}})
	assert.ErrorIs(t, err, ErrInvalidHeartbeat)

	_, err = in.RecordHeartbeat(ctx, "ghost", HeartbeatInput{Status: "ok"})
	assert.ErrorIs(t, err, auth.ErrUnauthorized)

	assert.Empty(t, f.Heartbeats("bus-player"))
}
