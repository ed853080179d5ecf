// Package telemetry stores proof-of-play events, heartbeats and the sampled
// location trail of moving screens.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"playout-engine/internal/auth"
	"playout-engine/internal/config"
	"playout-engine/internal/metrics"
	"playout-engine/internal/storage"
)

var (
	ErrEmptyBatch       = errors.New("play event batch is empty")
	ErrBatchTooLarge    = errors.New("play event batch is too large")
	ErrInvalidEvent     = errors.New("invalid play event")
	ErrInvalidHeartbeat = errors.New("invalid heartbeat")
)

// Play outcomes accepted from players.
var playStatuses = map[string]bool{
	"completed":   true,
	"interrupted": true,
	"failed":      true,
	"skipped":     true,
}

type Location struct {
	Lat       float64
	Lng       float64
	AccuracyM *float64
}

type PlayEventInput struct {
	CreativeID      string
	CampaignID      string
	FlightID        *string
	StartedAt       time.Time
	DurationSeconds float64
	PlayStatus      string
	Location        *Location
}

type HeartbeatMetrics struct {
	StorageFreeMB  *int64
	CPUUsage       *float64
	NetworkType    *string
	SignalStrength *int
}

type HeartbeatInput struct {
	Timestamp       time.Time
	Status          string
	SoftwareVersion *string
	Location        *Location
	Metrics         *HeartbeatMetrics
}

type HeartbeatResult struct {
	ScreenID string
	// PositionUpdated is set when the heartbeat carried a location.
	PositionUpdated bool
	// Sampled is set when a location history point was appended.
	Sampled bool
}

type Ingestor struct {
	provider     storage.Provider
	sampler      *Sampler
	maxBatchSize int
	now          func() time.Time
	logger       *slog.Logger
}

func NewIngestor(provider storage.Provider, cfg config.TelemetryConfig) *Ingestor {
	return &Ingestor{
		provider:     provider,
		sampler:      NewSampler(cfg),
		maxBatchSize: cfg.MaxBatchSize,
		now:          time.Now,
		logger:       slog.With("component", "telemetry"),
	}
}

func validateEvent(i int, e PlayEventInput) error {
	switch {
	case strings.TrimSpace(e.CreativeID) == "":
		return fmt.Errorf("%w: event %d: creative_id is required", ErrInvalidEvent, i)
	case strings.TrimSpace(e.CampaignID) == "":
		return fmt.Errorf("%w: event %d: campaign_id is required", ErrInvalidEvent, i)
	case e.StartedAt.IsZero():
		return fmt.Errorf("%w: event %d: started_at is required", ErrInvalidEvent, i)
	case e.DurationSeconds < 0:
		return fmt.Errorf("%w: event %d: duration_seconds must not be negative", ErrInvalidEvent, i)
	case !playStatuses[e.PlayStatus]:
		return fmt.Errorf("%w: event %d: unknown play_status %q", ErrInvalidEvent, i, e.PlayStatus)
	case e.Location != nil && !validCoordinates(e.Location.Lat, e.Location.Lng):
		return fmt.Errorf("%w: event %d: location out of range", ErrInvalidEvent, i)
	}
	return nil
}

// RecordPlayEvents stores a batch of play events for the player's current
// screen. The batch is stored completely or not at all.
func (in *Ingestor) RecordPlayEvents(ctx context.Context, playerID string, events []PlayEventInput) (int, error) {
	if len(events) == 0 {
		return 0, ErrEmptyBatch
	}
	if in.maxBatchSize > 0 && len(events) > in.maxBatchSize {
		return 0, fmt.Errorf("%w: %d events, limit %d", ErrBatchTooLarge, len(events), in.maxBatchSize)
	}
	for i, e := range events {
		if err := validateEvent(i, e); err != nil {
			return 0, err
		}
	}

	err := in.provider.WithTx(ctx, func(tx storage.Tx) error {
		player, err := auth.ActivePlayer(ctx, tx, playerID)
		if err != nil {
			return err
		}

		now := in.now().UTC()
		for i, e := range events {
			event := storage.PlayEvent{
				PlayerID:        player.ID,
				ScreenID:        player.ScreenID,
				CreativeID:      e.CreativeID,
				CampaignID:      e.CampaignID,
				FlightID:        e.FlightID,
				StartedAt:       e.StartedAt,
				DurationSeconds: e.DurationSeconds,
				PlayStatus:      e.PlayStatus,
				CreatedAt:       now,
			}
			if e.Location != nil {
				event.Latitude = &e.Location.Lat
				event.Longitude = &e.Location.Lng
			}
			if err := tx.InsertPlayEvent(ctx, event); err != nil {
				return fmt.Errorf("event %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	metrics.PlayEventsIngested.Add(float64(len(events)))
	in.logger.Debug("Stored play events", "player_id", playerID, "count", len(events))
	return len(events), nil
}

// RecordHeartbeat stores a heartbeat, refreshes the player's last-seen time
// and, when a location is present, the screen position. Moving screens also
// get a location history point when the sampler allows it.
func (in *Ingestor) RecordHeartbeat(ctx context.Context, playerID string, hb HeartbeatInput) (*HeartbeatResult, error) {
	if strings.TrimSpace(hb.Status) == "" {
		return nil, fmt.Errorf("%w: status is required", ErrInvalidHeartbeat)
	}
	if hb.Location != nil && !validCoordinates(hb.Location.Lat, hb.Location.Lng) {
		return nil, fmt.Errorf("%w: location out of range", ErrInvalidHeartbeat)
	}

	now := in.now().UTC()
	recordedAt := hb.Timestamp
	if recordedAt.IsZero() {
		recordedAt = now
	}

	result := &HeartbeatResult{}
	var sampleChecked bool
	err := in.provider.WithTx(ctx, func(tx storage.Tx) error {
		player, err := auth.ActivePlayer(ctx, tx, playerID)
		if err != nil {
			return err
		}
		result.ScreenID = player.ScreenID

		heartbeat := storage.Heartbeat{
			PlayerID:        player.ID,
			ScreenID:        player.ScreenID,
			RecordedAt:      recordedAt,
			Status:          hb.Status,
			SoftwareVersion: hb.SoftwareVersion,
			CreatedAt:       now,
		}
		if m := hb.Metrics; m != nil {
			heartbeat.StorageFreeMB = m.StorageFreeMB
			heartbeat.CPUUsage = m.CPUUsage
			heartbeat.NetworkType = m.NetworkType
			heartbeat.SignalStrength = m.SignalStrength
		}
		if loc := hb.Location; loc != nil {
			heartbeat.Latitude = &loc.Lat
			heartbeat.Longitude = &loc.Lng
			heartbeat.AccuracyM = loc.AccuracyM
		}
		if err := tx.InsertHeartbeat(ctx, heartbeat); err != nil {
			return err
		}

		if err := tx.TouchPlayer(ctx, player.ID, now); err != nil {
			return err
		}

		if hb.Location == nil {
			return nil
		}

		screen, err := tx.GetScreen(ctx, player.ScreenID)
		if err != nil {
			return err
		}
		if err := tx.UpdateScreenPosition(ctx, screen.ID, hb.Location.Lat, hb.Location.Lng, recordedAt); err != nil {
			return err
		}
		result.PositionUpdated = true

		if screen.Classification != storage.ScreenClassVehicle {
			return nil
		}
		sampleChecked = true
		sampled, err := in.sampler.Sample(ctx, tx, screen.ID, recordedAt, hb.Location.Lat, hb.Location.Lng, now)
		if err != nil {
			return err
		}
		result.Sampled = sampled
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.HeartbeatsIngested.Inc()
	if sampleChecked {
		metrics.RecordLocationSample(result.Sampled)
	}
	return result, nil
}
