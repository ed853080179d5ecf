package telemetry

import (
	"context"
	"errors"
	"time"

	"playout-engine/internal/config"
	"playout-engine/internal/storage"
)

const (
	DefaultSampleInterval = 300 * time.Second
	DefaultSampleDistance = 200.0
)

// Sampler decides which position observations of a moving screen are kept in
// its location history.
type Sampler struct {
	// An observation this long after the last point is always kept.
	Interval time.Duration
	// An observation farther than this many meters from the last point is always kept.
	DistanceMeters float64
}

func NewSampler(cfg config.TelemetryConfig) *Sampler {
	s := &Sampler{Interval: cfg.SampleInterval, DistanceMeters: cfg.SampleDistanceMeters}
	if s.Interval <= 0 {
		s.Interval = DefaultSampleInterval
	}
	if s.DistanceMeters <= 0 {
		s.DistanceMeters = DefaultSampleDistance
	}
	return s
}

// ShouldSample reports whether an observation at (lat, lng) recorded at
// "at" should be kept given the last kept point. A nil last point is always
// sampled. An observation older than the last point never satisfies the
// time rule.
func (s *Sampler) ShouldSample(last *storage.LocationPoint, at time.Time, lat, lng float64) bool {
	if last == nil {
		return true
	}
	elapsed := at.Sub(last.RecordedAt)
	if elapsed >= s.Interval {
		return true
	}
	return HaversineMeters(last.Latitude, last.Longitude, lat, lng) > s.DistanceMeters
}

// Sample reads the latest history point of the screen and appends the
// observation when ShouldSample allows it.
func (s *Sampler) Sample(ctx context.Context, tx storage.Tx, screenID string, at time.Time, lat, lng float64, now time.Time) (bool, error) {
	last, err := tx.LatestLocation(ctx, screenID)
	if errors.Is(err, storage.ErrNotFound) {
		last = nil
	} else if err != nil {
		return false, err
	}

	if !s.ShouldSample(last, at, lat, lng) {
		return false, nil
	}

	err = tx.InsertLocation(ctx, storage.LocationPoint{
		ScreenID:   screenID,
		RecordedAt: at,
		Latitude:   lat,
		Longitude:  lng,
		CreatedAt:  now,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
