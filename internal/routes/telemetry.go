package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"playout-engine/internal/telemetry"
)

type locationRequest struct {
	Lat       *float64 `json:"lat" binding:"required"`
	Lng       *float64 `json:"lng" binding:"required"`
	AccuracyM *float64 `json:"accuracy_m"`
}

func (l *locationRequest) toLocation() *telemetry.Location {
	if l == nil {
		return nil
	}
	return &telemetry.Location{Lat: *l.Lat, Lng: *l.Lng, AccuracyM: l.AccuracyM}
}

type playEventRequest struct {
	CreativeID      string           `json:"creative_id"`
	CampaignID      string           `json:"campaign_id"`
	FlightID        *string          `json:"flight_id"`
	StartedAt       time.Time        `json:"started_at"`
	DurationSeconds float64          `json:"duration_seconds"`
	PlayStatus      string           `json:"play_status"`
	Location        *locationRequest `json:"location"`
}

type playbackBatchRequest struct {
	Events []playEventRequest `json:"events" binding:"dive"`
}

type heartbeatMetricsRequest struct {
	StorageFreeMB  *int64   `json:"storage_free_mb"`
	CPUUsage       *float64 `json:"cpu_usage"`
	NetworkType    *string  `json:"network_type"`
	SignalStrength *int     `json:"signal_strength"`
}

type heartbeatRequest struct {
	Timestamp       time.Time                `json:"timestamp"`
	Status          string                   `json:"status" binding:"required"`
	SoftwareVersion *string                  `json:"software_version"`
	Location        *locationRequest         `json:"location"`
	Metrics         *heartbeatMetricsRequest `json:"metrics"`
}

func TelemetryApi(r *gin.RouterGroup) {
	r.POST("/events/playbacks", func(c *gin.Context) {
		playerID, err := GetPlayerID(c)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		ingestor, err := GetIngestor(c)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		var req playbackBatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			slog.Warn("Invalid playback batch", "player_id", playerID, "error", err)
			AbortWithError(c, ErrInvalidRequest)
			return
		}

		events := make([]telemetry.PlayEventInput, len(req.Events))
		for i, e := range req.Events {
			events[i] = telemetry.PlayEventInput{
				CreativeID:      e.CreativeID,
				CampaignID:      e.CampaignID,
				FlightID:        e.FlightID,
				StartedAt:       e.StartedAt,
				DurationSeconds: e.DurationSeconds,
				PlayStatus:      e.PlayStatus,
				Location:        e.Location.toLocation(),
			}
		}

		accepted, err := ingestor.RecordPlayEvents(c.Request.Context(), playerID, events)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"success":  true,
			"accepted": accepted,
		})
	})

	r.POST("/heartbeat", func(c *gin.Context) {
		playerID, err := GetPlayerID(c)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		ingestor, err := GetIngestor(c)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		var req heartbeatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			slog.Warn("Invalid heartbeat", "player_id", playerID, "error", err)
			AbortWithError(c, ErrInvalidRequest)
			return
		}

		input := telemetry.HeartbeatInput{
			Timestamp:       req.Timestamp,
			Status:          req.Status,
			SoftwareVersion: req.SoftwareVersion,
			Location:        req.Location.toLocation(),
		}
		if m := req.Metrics; m != nil {
			input.Metrics = &telemetry.HeartbeatMetrics{
				StorageFreeMB:  m.StorageFreeMB,
				CPUUsage:       m.CPUUsage,
				NetworkType:    m.NetworkType,
				SignalStrength: m.SignalStrength,
			}
		}

		result, err := ingestor.RecordHeartbeat(c.Request.Context(), playerID, input)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success":          true,
			"screen_id":        result.ScreenID,
			"position_updated": result.PositionUpdated,
			"sampled":          result.Sampled,
		})
	})
}
