// Package approval manages the per-region compliance approvals of creatives.
package approval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"playout-engine/internal/storage"
)

var (
	ErrCreativeNotFound     = errors.New("creative not found")
	ErrRegionNotFound       = errors.New("region not found")
	ErrInvalidStatus        = errors.New("invalid approval status")
	ErrApprovalCodeRequired = errors.New("approval code required for region")
)

// Decision is a reviewer's verdict on a creative in one region.
type Decision struct {
	CreativeID   string
	RegionCode   string
	Status       storage.ApprovalStatus
	ApprovalCode string
	ReviewedBy   string
	Notes        string
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// EnsurePending creates a pending approval of the creative for every region
// that does not have one yet.
func EnsurePending(ctx context.Context, tx storage.Tx, creativeID string, regionCodes []string, now time.Time) error {
	if _, err := tx.GetCreative(ctx, creativeID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrCreativeNotFound, creativeID)
		}
		return err
	}

	for _, code := range regionCodes {
		if _, err := tx.GetRegion(ctx, code); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("%w: %s", ErrRegionNotFound, code)
			}
			return err
		}
		err := tx.CreatePendingApproval(ctx, storage.CreativeApproval{
			ID:         uuid.NewString(),
			CreativeID: creativeID,
			RegionCode: code,
			Status:     storage.ApprovalStatusPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Transition records a review decision. Approving in a region that requires
// pre-approval needs a non-empty approval code. An approval also promotes the
// creative's QA status unless QA rejected it.
func Transition(ctx context.Context, tx storage.Tx, d Decision, now time.Time) (*storage.CreativeApproval, error) {
	switch d.Status {
	case storage.ApprovalStatusPending, storage.ApprovalStatusApproved, storage.ApprovalStatusRejected:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, d.Status)
	}

	creative, err := tx.GetCreative(ctx, d.CreativeID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrCreativeNotFound, d.CreativeID)
	}
	if err != nil {
		return nil, err
	}

	region, err := tx.GetRegion(ctx, d.RegionCode)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRegionNotFound, d.RegionCode)
	}
	if err != nil {
		return nil, err
	}

	code := optional(d.ApprovalCode)
	if d.Status == storage.ApprovalStatusApproved && region.RequiresPreApproval && code == nil {
		return nil, fmt.Errorf("%w: %s", ErrApprovalCodeRequired, region.Code)
	}

	approval := storage.CreativeApproval{
		ID:           uuid.NewString(),
		CreativeID:   creative.ID,
		RegionCode:   region.Code,
		Status:       d.Status,
		ApprovalCode: code,
		ReviewedBy:   optional(d.ReviewedBy),
		ReviewedAt:   &now,
		Notes:        optional(d.Notes),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if existing, err := tx.GetApproval(ctx, creative.ID, region.Code); err == nil {
		approval.ID = existing.ID
		approval.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	if err := tx.UpsertApproval(ctx, approval); err != nil {
		return nil, err
	}

	if d.Status == storage.ApprovalStatusApproved && creative.QAStatus == storage.QAStatusPendingReview {
		if err := tx.UpdateCreativeQAStatus(ctx, creative.ID, storage.QAStatusApproved); err != nil {
			return nil, err
		}
	}
	return &approval, nil
}

// Service runs approval operations in their own transactions.
type Service struct {
	provider storage.Provider
	now      func() time.Time
	logger   *slog.Logger
}

func NewService(provider storage.Provider) *Service {
	return &Service{
		provider: provider,
		now:      time.Now,
		logger:   slog.With("component", "approval"),
	}
}

func (s *Service) EnsurePending(ctx context.Context, creativeID string, regionCodes []string) error {
	return s.provider.WithTx(ctx, func(tx storage.Tx) error {
		return EnsurePending(ctx, tx, creativeID, regionCodes, s.now().UTC())
	})
}

func (s *Service) Transition(ctx context.Context, d Decision) (*storage.CreativeApproval, error) {
	var approval *storage.CreativeApproval
	err := s.provider.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		approval, err = Transition(ctx, tx, d, s.now().UTC())
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Approval updated",
		"creative_id", approval.CreativeID,
		"region", approval.RegionCode,
		"status", approval.Status,
		"reviewed_by", d.ReviewedBy,
	)
	return approval, nil
}

// List returns approvals with the given status, or all approvals for an empty status.
func (s *Service) List(ctx context.Context, status storage.ApprovalStatus) ([]storage.CreativeApproval, error) {
	var approvals []storage.CreativeApproval
	err := s.provider.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		approvals, err = tx.ListApprovals(ctx, status)
		return err
	})
	return approvals, err
}
