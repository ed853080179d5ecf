package storage

import (
	"context"
	"fmt"
	"time"
)

func (t *sqlTx) InsertHeartbeat(ctx context.Context, hb Heartbeat) error {
	_, err := t.exec(ctx, `INSERT INTO heartbeats (player_id, screen_id, recorded_at, status, software_version,
		storage_free_mb, cpu_usage, network_type, signal_strength, latitude, longitude, accuracy_m, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		hb.PlayerID, hb.ScreenID, hb.RecordedAt.UTC(), hb.Status, hb.SoftwareVersion,
		hb.StorageFreeMB, hb.CPUUsage, hb.NetworkType, hb.SignalStrength,
		hb.Latitude, hb.Longitude, hb.AccuracyM, hb.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert heartbeat for player %s: %w", hb.PlayerID, err)
	}
	return nil
}

func (t *sqlTx) InsertPlayEvent(ctx context.Context, e PlayEvent) error {
	_, err := t.exec(ctx, `INSERT INTO play_events (player_id, screen_id, creative_id, campaign_id, flight_id,
		started_at, duration_seconds, play_status, latitude, longitude, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.PlayerID, e.ScreenID, e.CreativeID, e.CampaignID, e.FlightID,
		e.StartedAt.UTC(), e.DurationSeconds, e.PlayStatus, e.Latitude, e.Longitude, e.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert play event for player %s: %w", e.PlayerID, err)
	}
	return nil
}

// LatestLocation returns the most recent location history point of the screen.
func (t *sqlTx) LatestLocation(ctx context.Context, screenID string) (*LocationPoint, error) {
	var point LocationPoint
	err := t.get(ctx, &point, `SELECT id, screen_id, recorded_at, latitude, longitude, created_at
		FROM screen_location_history WHERE screen_id = ?
		ORDER BY recorded_at DESC, id DESC LIMIT 1`, screenID)
	if err != nil {
		return nil, fmt.Errorf("latest location of screen %s: %w", screenID, err)
	}
	return &point, nil
}

func (t *sqlTx) InsertLocation(ctx context.Context, p LocationPoint) error {
	_, err := t.exec(ctx, `INSERT INTO screen_location_history (screen_id, recorded_at, latitude, longitude, created_at)
		VALUES (?, ?, ?, ?, ?)`, p.ScreenID, p.RecordedAt.UTC(), p.Latitude, p.Longitude, p.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert location for screen %s: %w", p.ScreenID, err)
	}
	return nil
}

// PruneTelemetry removes heartbeats and location points recorded before
// olderThan. Play events are kept as proof of play.
func (t *sqlTx) PruneTelemetry(ctx context.Context, olderThan time.Time) (int64, error) {
	olderThan = olderThan.UTC()
	statements := []string{
		`DELETE FROM heartbeats WHERE recorded_at < ?`,
		`DELETE FROM screen_location_history WHERE recorded_at < ?`,
	}

	var total int64
	for _, stmt := range statements {
		res, err := t.exec(ctx, stmt, olderThan)
		if err != nil {
			return total, fmt.Errorf("prune telemetry: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// ListPlayEvents returns the newest play events of a screen, newest first.
func (t *sqlTx) ListPlayEvents(ctx context.Context, screenID string, limit int) ([]PlayEvent, error) {
	var events []PlayEvent
	err := t.selectAll(ctx, &events, `SELECT id, player_id, screen_id, creative_id, campaign_id, flight_id,
		started_at, duration_seconds, play_status, latitude, longitude, created_at
		FROM play_events WHERE screen_id = ? ORDER BY started_at DESC, id DESC LIMIT ?`, screenID, limit)
	if err != nil {
		return nil, fmt.Errorf("list play events of screen %s: %w", screenID, err)
	}
	return events, nil
}

// ListHeartbeats returns the newest heartbeats of a player, newest first.
func (t *sqlTx) ListHeartbeats(ctx context.Context, playerID string, limit int) ([]Heartbeat, error) {
	var heartbeats []Heartbeat
	err := t.selectAll(ctx, &heartbeats, `SELECT id, player_id, screen_id, recorded_at, status, software_version,
		storage_free_mb, cpu_usage, network_type, signal_strength, latitude, longitude, accuracy_m, created_at
		FROM heartbeats WHERE player_id = ? ORDER BY recorded_at DESC, id DESC LIMIT ?`, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list heartbeats of player %s: %w", playerID, err)
	}
	return heartbeats, nil
}

// ListLocations returns the newest location history points of a screen, newest first.
func (t *sqlTx) ListLocations(ctx context.Context, screenID string, limit int) ([]LocationPoint, error) {
	var points []LocationPoint
	err := t.selectAll(ctx, &points, `SELECT id, screen_id, recorded_at, latitude, longitude, created_at
		FROM screen_location_history WHERE screen_id = ? ORDER BY recorded_at DESC, id DESC LIMIT ?`, screenID, limit)
	if err != nil {
		return nil, fmt.Errorf("list locations of screen %s: %w", screenID, err)
	}
	return points, nil
}
