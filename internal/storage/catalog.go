package storage

import (
	"context"
	"fmt"
)

func (t *sqlTx) GetRegion(ctx context.Context, code string) (*Region, error) {
	var region Region
	err := t.get(ctx, &region, `SELECT code, name, requires_pre_approval, regulator_name, regulator_contact
		FROM regions WHERE code = ?`, code)
	if err != nil {
		return nil, fmt.Errorf("get region %s: %w", code, err)
	}
	return &region, nil
}

func (t *sqlTx) UpsertRegion(ctx context.Context, r Region) error {
	_, err := t.exec(ctx, `INSERT INTO regions (code, name, requires_pre_approval, regulator_name, regulator_contact)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (code) DO UPDATE SET
			name = excluded.name,
			requires_pre_approval = excluded.requires_pre_approval,
			regulator_name = excluded.regulator_name,
			regulator_contact = excluded.regulator_contact`,
		r.Code, r.Name, r.RequiresPreApproval, r.RegulatorName, r.RegulatorContact)
	if err != nil {
		return fmt.Errorf("upsert region %s: %w", r.Code, err)
	}
	return nil
}

func (t *sqlTx) ListRegions(ctx context.Context) ([]Region, error) {
	var regions []Region
	err := t.selectAll(ctx, &regions, `SELECT code, name, requires_pre_approval, regulator_name, regulator_contact
		FROM regions ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list regions: %w", err)
	}
	return regions, nil
}

func (t *sqlTx) CreateCampaign(ctx context.Context, c Campaign) error {
	_, err := t.exec(ctx, `INSERT INTO campaigns (id, advertiser_org_id, name, status, created_at)
		VALUES (?, ?, ?, ?, ?)`, c.ID, c.AdvertiserOrgID, c.Name, c.Status, c.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("create campaign %s: %w", c.ID, err)
	}
	return nil
}

func (t *sqlTx) CreateCreative(ctx context.Context, c Creative) error {
	_, err := t.exec(ctx, `INSERT INTO creatives (id, campaign_id, name, file_url, duration_seconds, qa_status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.CampaignID, c.Name, c.FileURL, c.DurationSeconds, c.QAStatus, c.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("create creative %s: %w", c.ID, err)
	}
	return nil
}

func (t *sqlTx) GetCreative(ctx context.Context, creativeID string) (*Creative, error) {
	var creative Creative
	err := t.get(ctx, &creative, `SELECT id, campaign_id, name, file_url, duration_seconds, qa_status, created_at
		FROM creatives WHERE id = ?`, creativeID)
	if err != nil {
		return nil, fmt.Errorf("get creative %s: %w", creativeID, err)
	}
	return &creative, nil
}

func (t *sqlTx) UpdateCreativeQAStatus(ctx context.Context, creativeID string, status QAStatus) error {
	if err := t.execOne(ctx, `UPDATE creatives SET qa_status = ? WHERE id = ?`, status, creativeID); err != nil {
		return fmt.Errorf("update creative %s qa status: %w", creativeID, err)
	}
	return nil
}

func (t *sqlTx) CreateFlight(ctx context.Context, f Flight) error {
	_, err := t.exec(ctx, `INSERT INTO flights (id, campaign_id, name, start_datetime, end_datetime,
		target_type, target_id, status, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.CampaignID, f.Name, f.StartDatetime.UTC(), f.EndDatetime.UTC(),
		f.TargetType, f.TargetID, f.Status, f.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("create flight %s: %w", f.ID, err)
	}
	return nil
}

func (t *sqlTx) AddFlightCreative(ctx context.Context, fc FlightCreative) error {
	_, err := t.exec(ctx, `INSERT INTO flight_creatives (flight_id, creative_id, weight) VALUES (?, ?, ?)`,
		fc.FlightID, fc.CreativeID, fc.Weight)
	if err != nil {
		return fmt.Errorf("add creative %s to flight %s: %w", fc.CreativeID, fc.FlightID, err)
	}
	return nil
}
