// Package seed loads development fixtures from YAML into storage.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"playout-engine/internal/approval"
	"playout-engine/internal/storage"
)

var ErrInvalidFixture = errors.New("invalid fixture")

type Region struct {
	Code                string  `yaml:"code"`
	Name                string  `yaml:"name"`
	RequiresPreApproval bool    `yaml:"requires_pre_approval"`
	RegulatorName       *string `yaml:"regulator_name"`
	RegulatorContact    *string `yaml:"regulator_contact"`
}

type Screen struct {
	ID             string   `yaml:"id"`
	PublisherOrgID string   `yaml:"publisher_org_id"`
	Name           string   `yaml:"name"`
	Region         string   `yaml:"region"`
	City           string   `yaml:"city"`
	Classification string   `yaml:"classification"`
	Latitude       *float64 `yaml:"latitude"`
	Longitude      *float64 `yaml:"longitude"`
}

type Group struct {
	ID      string   `yaml:"id"`
	Name    string   `yaml:"name"`
	Screens []string `yaml:"screens"`
}

type Creative struct {
	ID              string     `yaml:"id"`
	Name            string     `yaml:"name"`
	FileURL         string     `yaml:"file_url"`
	DurationSeconds int        `yaml:"duration_seconds"`
	QAStatus        string     `yaml:"qa_status"`
	CreatedAt       *time.Time `yaml:"created_at"`
	// Regions get a pending approval when the creative is created.
	Regions []string `yaml:"regions"`
}

type Campaign struct {
	ID              string     `yaml:"id"`
	AdvertiserOrgID string     `yaml:"advertiser_org_id"`
	Name            string     `yaml:"name"`
	Status          string     `yaml:"status"`
	Creatives       []Creative `yaml:"creatives"`
}

type FlightCreative struct {
	ID     string `yaml:"id"`
	Weight int    `yaml:"weight"`
}

type Flight struct {
	ID         string           `yaml:"id"`
	Campaign   string           `yaml:"campaign"`
	Name       string           `yaml:"name"`
	Start      time.Time        `yaml:"start"`
	End        time.Time        `yaml:"end"`
	TargetType string           `yaml:"target_type"`
	TargetID   string           `yaml:"target_id"`
	Status     string           `yaml:"status"`
	Creatives  []FlightCreative `yaml:"creatives"`
}

type Approval struct {
	Creative     string `yaml:"creative"`
	Region       string `yaml:"region"`
	Status       string `yaml:"status"`
	ApprovalCode string `yaml:"approval_code"`
	ReviewedBy   string `yaml:"reviewed_by"`
	Notes        string `yaml:"notes"`
}

// Fixture is the document root of a seed file.
type Fixture struct {
	Regions   []Region   `yaml:"regions"`
	Screens   []Screen   `yaml:"screens"`
	Groups    []Group    `yaml:"groups"`
	Campaigns []Campaign `yaml:"campaigns"`
	Flights   []Flight   `yaml:"flights"`
	Approvals []Approval `yaml:"approvals"`
}

// Summary counts the rows written by Apply.
type Summary struct {
	Regions   int
	Screens   int
	Groups    int
	Campaigns int
	Creatives int
	Flights   int
	Approvals int
}

func Parse(r io.Reader) (*Fixture, error) {
	var fixture Fixture
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&fixture); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	return &fixture, nil
}

func LoadFile(path string) (*Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixture: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// Apply writes the fixture in one transaction. Creatives get pending
// approvals for their regions, and listed approvals go through the approval
// workflow so region rules apply to seeded data too.
func Apply(ctx context.Context, provider storage.Provider, fixture *Fixture, now time.Time) (*Summary, error) {
	summary := &Summary{}
	now = now.UTC()

	err := provider.WithTx(ctx, func(tx storage.Tx) error {
		for _, r := range fixture.Regions {
			if r.Code == "" {
				return fmt.Errorf("%w: region without code", ErrInvalidFixture)
			}
			err := tx.UpsertRegion(ctx, storage.Region{
				Code:                r.Code,
				Name:                orDefault(r.Name, r.Code),
				RequiresPreApproval: r.RequiresPreApproval,
				RegulatorName:       r.RegulatorName,
				RegulatorContact:    r.RegulatorContact,
			})
			if err != nil {
				return fmt.Errorf("region %s: %w", r.Code, err)
			}
			summary.Regions++
		}

		for _, s := range fixture.Screens {
			if s.ID == "" || s.Region == "" {
				return fmt.Errorf("%w: screen needs id and region", ErrInvalidFixture)
			}
			err := tx.CreateScreen(ctx, storage.Screen{
				ID:             s.ID,
				PublisherOrgID: orDefault(s.PublisherOrgID, "publisher"),
				Name:           orDefault(s.Name, s.ID),
				RegionCode:     s.Region,
				City:           s.City,
				Classification: storage.ScreenClass(orDefault(s.Classification, string(storage.ScreenClassBillboard))),
				Latitude:       s.Latitude,
				Longitude:      s.Longitude,
				CreatedAt:      now,
			})
			if err != nil {
				return fmt.Errorf("screen %s: %w", s.ID, err)
			}
			summary.Screens++
		}

		for _, g := range fixture.Groups {
			if err := tx.CreateScreenGroup(ctx, storage.ScreenGroup{ID: g.ID, Name: orDefault(g.Name, g.ID), CreatedAt: now}); err != nil {
				return fmt.Errorf("group %s: %w", g.ID, err)
			}
			for _, screenID := range g.Screens {
				if err := tx.AddScreenToGroup(ctx, g.ID, screenID); err != nil {
					return fmt.Errorf("group %s screen %s: %w", g.ID, screenID, err)
				}
			}
			summary.Groups++
		}

		for _, c := range fixture.Campaigns {
			err := tx.CreateCampaign(ctx, storage.Campaign{
				ID:              c.ID,
				AdvertiserOrgID: orDefault(c.AdvertiserOrgID, "advertiser"),
				Name:            orDefault(c.Name, c.ID),
				Status:          storage.CampaignStatus(orDefault(c.Status, string(storage.CampaignStatusActive))),
				CreatedAt:       now,
			})
			if err != nil {
				return fmt.Errorf("campaign %s: %w", c.ID, err)
			}
			summary.Campaigns++

			for _, cr := range c.Creatives {
				createdAt := now
				if cr.CreatedAt != nil {
					createdAt = cr.CreatedAt.UTC()
				}
				err := tx.CreateCreative(ctx, storage.Creative{
					ID:              cr.ID,
					CampaignID:      c.ID,
					Name:            orDefault(cr.Name, cr.ID),
					FileURL:         cr.FileURL,
					DurationSeconds: cr.DurationSeconds,
					QAStatus:        storage.QAStatus(orDefault(cr.QAStatus, string(storage.QAStatusPendingReview))),
					CreatedAt:       createdAt,
				})
				if err != nil {
					return fmt.Errorf("creative %s: %w", cr.ID, err)
				}
				if err := approval.EnsurePending(ctx, tx, cr.ID, cr.Regions, now); err != nil {
					return fmt.Errorf("creative %s: %w", cr.ID, err)
				}
				summary.Creatives++
			}
		}

		for _, f := range fixture.Flights {
			err := tx.CreateFlight(ctx, storage.Flight{
				ID:            f.ID,
				CampaignID:    f.Campaign,
				Name:          orDefault(f.Name, f.ID),
				StartDatetime: f.Start.UTC(),
				EndDatetime:   f.End.UTC(),
				TargetType:    storage.TargetType(f.TargetType),
				TargetID:      f.TargetID,
				Status:        storage.FlightStatus(orDefault(f.Status, string(storage.FlightStatusActive))),
				CreatedAt:     now,
			})
			if err != nil {
				return fmt.Errorf("flight %s: %w", f.ID, err)
			}
			for _, fc := range f.Creatives {
				weight := fc.Weight
				if weight == 0 {
					weight = 1
				}
				if err := tx.AddFlightCreative(ctx, storage.FlightCreative{FlightID: f.ID, CreativeID: fc.ID, Weight: weight}); err != nil {
					return fmt.Errorf("flight %s creative %s: %w", f.ID, fc.ID, err)
				}
			}
			summary.Flights++
		}

		for _, a := range fixture.Approvals {
			_, err := approval.Transition(ctx, tx, approval.Decision{
				CreativeID:   a.Creative,
				RegionCode:   a.Region,
				Status:       storage.ApprovalStatus(a.Status),
				ApprovalCode: a.ApprovalCode,
				ReviewedBy:   orDefault(a.ReviewedBy, "seed"),
				Notes:        a.Notes,
			}, now)
			if err != nil {
				return fmt.Errorf("approval %s/%s: %w", a.Creative, a.Region, err)
			}
			summary.Approvals++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Fixture applied",
		"regions", summary.Regions,
		"screens", summary.Screens,
		"creatives", summary.Creatives,
		"flights", summary.Flights,
		"approvals", summary.Approvals,
	)
	return summary, nil
}
