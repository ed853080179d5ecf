package playout

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"playout-engine/internal/storage"
)

// FlightShare is the weight one flight contributes to a creative.
type FlightShare struct {
	FlightID string
	Weight   int
}

// Eligible is a creative cleared for playout in a region. Weight is the sum of
// all flight shares.
type Eligible struct {
	CreativeID      string
	CampaignID      string
	FileURL         string
	DurationSeconds int
	Weight          int
	Shares          []FlightShare
}

type ComplianceResult struct {
	RequiresPreApproval bool
	Eligible            []Eligible
}

// RequiresPreApproval reports whether the region needs an approval code.
// Unknown regions are treated as requiring one.
func RequiresPreApproval(ctx context.Context, tx storage.Tx, regionCode string) (bool, error) {
	region, err := tx.GetRegion(ctx, regionCode)
	if errors.Is(err, storage.ErrNotFound) {
		slog.Warn("Unknown region, requiring pre-approval", "region", regionCode)
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return region.RequiresPreApproval, nil
}

// compliant checks an approved approval against the region rule.
func compliant(code *string, requiresPreApproval bool) bool {
	if !requiresPreApproval {
		return true
	}
	return code != nil && strings.TrimSpace(*code) != ""
}

// ResolveCompliance returns the creatives of the given flights that hold an
// approved, compliant approval for the region. Compliance is checked per
// creative and region, so a creative referenced by several flights is either
// eligible through all of them or through none. Weights are summed across flights.
func ResolveCompliance(ctx context.Context, tx storage.Tx, regionCode string, flightIDs []string) (*ComplianceResult, error) {
	requires, err := RequiresPreApproval(ctx, tx, regionCode)
	if err != nil {
		return nil, err
	}
	result := &ComplianceResult{RequiresPreApproval: requires}
	if len(flightIDs) == 0 {
		return result, nil
	}

	rows, err := tx.ApprovedFlightCreatives(ctx, regionCode, flightIDs)
	if err != nil {
		return nil, err
	}

	byCreative := make(map[string]*Eligible)
	for _, row := range rows {
		if !compliant(row.ApprovalCode, requires) || row.Weight <= 0 {
			continue
		}
		e, ok := byCreative[row.CreativeID]
		if !ok {
			e = &Eligible{
				CreativeID:      row.CreativeID,
				CampaignID:      row.CampaignID,
				FileURL:         row.FileURL,
				DurationSeconds: row.DurationSeconds,
			}
			byCreative[row.CreativeID] = e
		}
		e.Weight += row.Weight
		e.Shares = append(e.Shares, FlightShare{FlightID: row.FlightID, Weight: row.Weight})
	}

	result.Eligible = make([]Eligible, 0, len(byCreative))
	for _, e := range byCreative {
		sort.Slice(e.Shares, func(i, j int) bool { return e.Shares[i].FlightID < e.Shares[j].FlightID })
		result.Eligible = append(result.Eligible, *e)
	}
	sort.Slice(result.Eligible, func(i, j int) bool {
		return result.Eligible[i].CreativeID < result.Eligible[j].CreativeID
	})
	return result, nil
}

// Fallback returns the most recently created compliant creative of an active
// campaign in the region, or nil when there is none.
func Fallback(ctx context.Context, tx storage.Tx, regionCode string, requiresPreApproval bool) (*storage.ApprovedCreative, error) {
	creative, err := tx.LatestApprovedCreative(ctx, regionCode, requiresPreApproval)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !compliant(creative.ApprovalCode, requiresPreApproval) {
		return nil, nil
	}
	return creative, nil
}
