package storage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"playout-engine/internal/config"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record conflict")
)

type Provider interface {
	Close() error
	Driver() string
	GetSchemaVersion(ctx context.Context) (int, error)
	Migrate(ctx context.Context, target int) error

	// WithTx runs fn inside a single transaction. The transaction commits when
	// fn returns nil and rolls back on any error or panic.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Nonce-related methods
	CreateNonce(ctx context.Context, nonce string, expiresAt time.Time) error
	ExistsNonce(ctx context.Context, nonce string) (bool, error)
	ConsumeNonce(ctx context.Context, nonce string) (bool, error)
	ExpireNonces(ctx context.Context, now time.Time) error
}

// Tx is the transaction-scoped unit of work. All reads and writes made
// through one Tx are committed or rolled back together.
type Tx interface {
	// Screens
	GetScreen(ctx context.Context, screenID string) (*Screen, error)
	CreateScreen(ctx context.Context, screen Screen) error
	UpdateScreenPosition(ctx context.Context, screenID string, lat, lng float64, seenAt time.Time) error
	CreateScreenGroup(ctx context.Context, group ScreenGroup) error
	AddScreenToGroup(ctx context.Context, groupID, screenID string) error

	// Regions
	GetRegion(ctx context.Context, code string) (*Region, error)
	UpsertRegion(ctx context.Context, region Region) error
	ListRegions(ctx context.Context) ([]Region, error)

	// Campaigns, creatives and flights
	CreateCampaign(ctx context.Context, campaign Campaign) error
	CreateCreative(ctx context.Context, creative Creative) error
	GetCreative(ctx context.Context, creativeID string) (*Creative, error)
	UpdateCreativeQAStatus(ctx context.Context, creativeID string, status QAStatus) error
	CreateFlight(ctx context.Context, flight Flight) error
	AddFlightCreative(ctx context.Context, fc FlightCreative) error

	// Playout reads
	ActiveFlightsForScreen(ctx context.Context, screenID string, now time.Time) ([]FlightRef, error)
	ApprovedFlightCreatives(ctx context.Context, regionCode string, flightIDs []string) ([]ApprovedCreative, error)
	LatestApprovedCreative(ctx context.Context, regionCode string, requireCode bool) (*ApprovedCreative, error)

	// Approvals
	GetApproval(ctx context.Context, creativeID, regionCode string) (*CreativeApproval, error)
	CreatePendingApproval(ctx context.Context, approval CreativeApproval) error
	UpsertApproval(ctx context.Context, approval CreativeApproval) error
	ListApprovals(ctx context.Context, status ApprovalStatus) ([]CreativeApproval, error)

	// Players
	GetPlayer(ctx context.Context, playerID string) (*Player, error)
	CreatePlayer(ctx context.Context, player Player) error
	ListPlayers(ctx context.Context) ([]Player, error)
	DeactivatePlayer(ctx context.Context, playerID string) error
	DeactivateScreenPlayers(ctx context.Context, screenID string) (int64, error)
	UpdatePlayerConfigHash(ctx context.Context, playerID, hash string, at time.Time) error
	TouchPlayer(ctx context.Context, playerID string, seenAt time.Time) error

	// Telemetry
	InsertHeartbeat(ctx context.Context, hb Heartbeat) error
	InsertPlayEvent(ctx context.Context, event PlayEvent) error
	LatestLocation(ctx context.Context, screenID string) (*LocationPoint, error)
	InsertLocation(ctx context.Context, point LocationPoint) error
	ListPlayEvents(ctx context.Context, screenID string, limit int) ([]PlayEvent, error)
	ListHeartbeats(ctx context.Context, playerID string, limit int) ([]Heartbeat, error)
	ListLocations(ctx context.Context, screenID string, limit int) ([]LocationPoint, error)
	PruneTelemetry(ctx context.Context, olderThan time.Time) (int64, error)
}

// OpenProvider connects to the configured database without touching the schema.
func OpenProvider(cfg *config.Storage) (Provider, error) {
	var provider *SQLProvider
	var err error

	switch cfg.Type {
	case config.StorageSQLite:
		provider, err = NewSQLiteProvider(cfg)
	case config.StoragePostgres:
		provider, err = NewPostgresProvider(cfg)
	default:
		slog.Error("Unsupported storage configuration", "type", cfg.Type)
		return nil, errors.New("unsupported storage type: " + cfg.Type)
	}
	if err != nil {
		return nil, err
	}
	return provider, nil
}

// NewProvider connects to the configured database and migrates it to the
// latest schema version.
func NewProvider(cfg *config.Storage) (Provider, error) {
	provider, err := OpenProvider(cfg)
	if err != nil {
		return nil, err
	}

	if err := provider.Migrate(context.Background(), -1); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		provider.Close()
		return nil, err
	}
	return provider, nil
}
