package storage

import (
	"context"
	"fmt"
)

const approvalColumns = `id, creative_id, region_code, status, approval_code, reviewed_by, reviewed_at, notes, created_at, updated_at`

func (t *sqlTx) GetApproval(ctx context.Context, creativeID, regionCode string) (*CreativeApproval, error) {
	var approval CreativeApproval
	err := t.get(ctx, &approval, `SELECT `+approvalColumns+` FROM creative_approvals
		WHERE creative_id = ? AND region_code = ?`, creativeID, regionCode)
	if err != nil {
		return nil, fmt.Errorf("get approval for creative %s in %s: %w", creativeID, regionCode, err)
	}
	return &approval, nil
}

// CreatePendingApproval inserts a pending approval unless one already exists
// for the creative and region.
func (t *sqlTx) CreatePendingApproval(ctx context.Context, a CreativeApproval) error {
	_, err := t.exec(ctx, `INSERT INTO creative_approvals (`+approvalColumns+`)
		VALUES (?, ?, ?, ?, NULL, NULL, NULL, NULL, ?, ?)
		ON CONFLICT (creative_id, region_code) DO NOTHING`,
		a.ID, a.CreativeID, a.RegionCode, ApprovalStatusPending, a.CreatedAt.UTC(), a.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("create pending approval for creative %s in %s: %w", a.CreativeID, a.RegionCode, err)
	}
	return nil
}

func (t *sqlTx) UpsertApproval(ctx context.Context, a CreativeApproval) error {
	_, err := t.exec(ctx, `INSERT INTO creative_approvals (`+approvalColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (creative_id, region_code) DO UPDATE SET
			status = excluded.status,
			approval_code = excluded.approval_code,
			reviewed_by = excluded.reviewed_by,
			reviewed_at = excluded.reviewed_at,
			notes = excluded.notes,
			updated_at = excluded.updated_at`,
		a.ID, a.CreativeID, a.RegionCode, a.Status, a.ApprovalCode, a.ReviewedBy, utcPtr(a.ReviewedAt),
		a.Notes, a.CreatedAt.UTC(), a.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("upsert approval for creative %s in %s: %w", a.CreativeID, a.RegionCode, err)
	}
	return nil
}

// ListApprovals lists approvals with the given status, or all of them when
// status is empty.
func (t *sqlTx) ListApprovals(ctx context.Context, status ApprovalStatus) ([]CreativeApproval, error) {
	var approvals []CreativeApproval
	var err error
	if status == "" {
		err = t.selectAll(ctx, &approvals, `SELECT `+approvalColumns+` FROM creative_approvals
			ORDER BY created_at, id`)
	} else {
		err = t.selectAll(ctx, &approvals, `SELECT `+approvalColumns+` FROM creative_approvals
			WHERE status = ? ORDER BY created_at, id`, status)
	}
	if err != nil {
		return nil, fmt.Errorf("list approvals: %w", err)
	}
	return approvals, nil
}
