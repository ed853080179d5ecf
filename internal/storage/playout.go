package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// ActiveFlightsForScreen returns active flights whose window contains now and
// that target the screen directly or through one of its groups.
func (t *sqlTx) ActiveFlightsForScreen(ctx context.Context, screenID string, now time.Time) ([]FlightRef, error) {
	var flights []FlightRef
	now = now.UTC()
	err := t.selectAll(ctx, &flights, `SELECT f.id, f.campaign_id FROM flights f
		WHERE f.status = ?
		  AND f.start_datetime <= ? AND f.end_datetime > ?
		  AND (
			(f.target_type = ? AND f.target_id = ?)
			OR (f.target_type = ? AND EXISTS (
				SELECT 1 FROM screen_group_members m WHERE m.group_id = f.target_id AND m.screen_id = ?))
		  )
		ORDER BY f.id`,
		FlightStatusActive, now, now, TargetScreen, screenID, TargetScreenGroup, screenID)
	if err != nil {
		return nil, fmt.Errorf("active flights for screen %s: %w", screenID, err)
	}
	return flights, nil
}

// ApprovedFlightCreatives joins the creatives of the given flights to their
// approved approval for the region. Approval code checks are left to the caller.
func (t *sqlTx) ApprovedFlightCreatives(ctx context.Context, regionCode string, flightIDs []string) ([]ApprovedCreative, error) {
	if len(flightIDs) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`SELECT fc.flight_id, fc.creative_id, c.campaign_id, c.file_url,
			c.duration_seconds, fc.weight, ca.approval_code
		FROM flight_creatives fc
		JOIN creatives c ON c.id = fc.creative_id
		JOIN creative_approvals ca ON ca.creative_id = fc.creative_id AND ca.region_code = ?
		WHERE ca.status = ? AND fc.flight_id IN (?)
		ORDER BY fc.flight_id, fc.creative_id`, regionCode, ApprovalStatusApproved, flightIDs)
	if err != nil {
		return nil, err
	}

	var rows []ApprovedCreative
	if err := t.selectAll(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("approved flight creatives for region %s: %w", regionCode, err)
	}
	return rows, nil
}

// LatestApprovedCreative returns the most recently created creative of an
// active campaign with an approved approval for the region. When requireCode is
// set the approval must carry a non-empty approval code.
func (t *sqlTx) LatestApprovedCreative(ctx context.Context, regionCode string, requireCode bool) (*ApprovedCreative, error) {
	query := `SELECT '' AS flight_id, c.id AS creative_id, c.campaign_id, c.file_url,
			c.duration_seconds, 1 AS weight, ca.approval_code
		FROM creatives c
		JOIN campaigns cp ON cp.id = c.campaign_id
		JOIN creative_approvals ca ON ca.creative_id = c.id AND ca.region_code = ?
		WHERE cp.status = ? AND ca.status = ?`
	if requireCode {
		query += ` AND ca.approval_code IS NOT NULL AND TRIM(ca.approval_code) <> ''`
	}
	query += ` ORDER BY c.created_at DESC, c.id DESC LIMIT 1`

	var row ApprovedCreative
	if err := t.get(ctx, &row, query, regionCode, CampaignStatusActive, ApprovalStatusApproved); err != nil {
		return nil, fmt.Errorf("latest approved creative for region %s: %w", regionCode, err)
	}
	return &row, nil
}
