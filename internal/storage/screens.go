package storage

import (
	"context"
	"fmt"
	"time"
)

func (t *sqlTx) GetScreen(ctx context.Context, screenID string) (*Screen, error) {
	var screen Screen
	err := t.get(ctx, &screen, `SELECT id, publisher_org_id, name, region_code, city, classification,
		latitude, longitude, last_seen_at, created_at FROM screens WHERE id = ?`, screenID)
	if err != nil {
		return nil, fmt.Errorf("get screen %s: %w", screenID, err)
	}
	return &screen, nil
}

func (t *sqlTx) CreateScreen(ctx context.Context, s Screen) error {
	_, err := t.exec(ctx, `INSERT INTO screens (id, publisher_org_id, name, region_code, city, classification,
		latitude, longitude, last_seen_at, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.PublisherOrgID, s.Name, s.RegionCode, s.City, s.Classification,
		s.Latitude, s.Longitude, utcPtr(s.LastSeenAt), s.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("create screen %s: %w", s.ID, err)
	}
	return nil
}

func (t *sqlTx) UpdateScreenPosition(ctx context.Context, screenID string, lat, lng float64, seenAt time.Time) error {
	err := t.execOne(ctx, `UPDATE screens SET latitude = ?, longitude = ?, last_seen_at = ? WHERE id = ?`,
		lat, lng, seenAt.UTC(), screenID)
	if err != nil {
		return fmt.Errorf("update screen %s position: %w", screenID, err)
	}
	return nil
}

func (t *sqlTx) CreateScreenGroup(ctx context.Context, g ScreenGroup) error {
	_, err := t.exec(ctx, `INSERT INTO screen_groups (id, name, created_at) VALUES (?, ?, ?)`,
		g.ID, g.Name, g.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("create screen group %s: %w", g.ID, err)
	}
	return nil
}

func (t *sqlTx) AddScreenToGroup(ctx context.Context, groupID, screenID string) error {
	_, err := t.exec(ctx, `INSERT INTO screen_group_members (group_id, screen_id) VALUES (?, ?)
		ON CONFLICT (group_id, screen_id) DO NOTHING`, groupID, screenID)
	if err != nil {
		return fmt.Errorf("add screen %s to group %s: %w", screenID, groupID, err)
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
