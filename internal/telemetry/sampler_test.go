package telemetry

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"playout-engine/internal/config"
	"playout-engine/internal/storage"
)

// north moves a latitude the given number of meters north.
func north(lat, meters float64) float64 {
	return lat + meters/earthRadiusMeters*180/math.Pi
}

func TestHaversineMeters(t *testing.T) {
	assert.InDelta(t, 111195, HaversineMeters(0, 0, 0, 1), 1)
	assert.InDelta(t, 0, HaversineMeters(6.5244, 3.3792, 6.5244, 3.3792), 1e-9)
	assert.InDelta(t, 250, HaversineMeters(6.5244, 3.3792, north(6.5244, 250), 3.3792), 0.01)
}

func TestShouldSample(t *testing.T) {
	sampler := NewSampler(config.TelemetryConfig{})
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	last := &storage.LocationPoint{RecordedAt: t0, Latitude: 6.5244, Longitude: 3.3792}

	tests := []struct {
		name    string
		last    *storage.LocationPoint
		elapsed time.Duration
		meters  float64
		want    bool
	}{
		{"first observation", nil, 0, 0, true},
		{"250s moved 10m", last, 250 * time.Second, 10, false},
		{"250s moved 250m", last, 250 * time.Second, 250, true},
		{"301s moved 0m", last, 301 * time.Second, 0, true},
		{"exactly 300s", last, 300 * time.Second, 0, true},
		{"just under 200m", last, time.Second, 199.9, false},
		{"clock behind, stationary", last, -time.Hour, 0, false},
		{"clock behind, moved far", last, -time.Hour, 500, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sampler.ShouldSample(tt.last, t0.Add(tt.elapsed), north(6.5244, tt.meters), 3.3792)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewSamplerThresholds(t *testing.T) {
	sampler := NewSampler(config.TelemetryConfig{SampleInterval: time.Minute, SampleDistanceMeters: 50})
	assert.Equal(t, time.Minute, sampler.Interval)
	assert.Equal(t, 50.0, sampler.DistanceMeters)

	defaults := NewSampler(config.TelemetryConfig{})
	assert.Equal(t, 300*time.Second, defaults.Interval)
	assert.Equal(t, 200.0, defaults.DistanceMeters)

	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	last := &storage.LocationPoint{RecordedAt: t0}
	assert.True(t, sampler.ShouldSample(last, t0.Add(61*time.Second), 0, 0))
	assert.True(t, sampler.ShouldSample(last, t0.Add(time.Second), north(0, 60), 0))
	assert.False(t, sampler.ShouldSample(last, t0.Add(time.Second), north(0, 40), 0))
}
