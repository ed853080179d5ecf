package storage

import "time"

type ScreenClass string

const (
	ScreenClassVehicle   ScreenClass = "vehicle"
	ScreenClassBillboard ScreenClass = "billboard"
	ScreenClassIndoor    ScreenClass = "indoor"
)

type Screen struct {
	ID             string      `db:"id"`
	PublisherOrgID string      `db:"publisher_org_id"`
	Name           string      `db:"name"`
	RegionCode     string      `db:"region_code"`
	City           string      `db:"city"`
	Classification ScreenClass `db:"classification"`
	Latitude       *float64    `db:"latitude"`
	Longitude      *float64    `db:"longitude"`
	LastSeenAt     *time.Time  `db:"last_seen_at"`
	CreatedAt      time.Time   `db:"created_at"`
}

type ScreenGroup struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

type Region struct {
	Code                string  `db:"code"`
	Name                string  `db:"name"`
	RequiresPreApproval bool    `db:"requires_pre_approval"`
	RegulatorName       *string `db:"regulator_name"`
	RegulatorContact    *string `db:"regulator_contact"`
}

type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusPaused    CampaignStatus = "paused"
	CampaignStatusCompleted CampaignStatus = "completed"
)

type Campaign struct {
	ID              string         `db:"id"`
	AdvertiserOrgID string         `db:"advertiser_org_id"`
	Name            string         `db:"name"`
	Status          CampaignStatus `db:"status"`
	CreatedAt       time.Time      `db:"created_at"`
}

type FlightStatus string

const (
	FlightStatusScheduled FlightStatus = "scheduled"
	FlightStatusActive    FlightStatus = "active"
	FlightStatusPaused    FlightStatus = "paused"
	FlightStatusCompleted FlightStatus = "completed"
)

type TargetType string

const (
	TargetScreen      TargetType = "screen"
	TargetScreenGroup TargetType = "screen_group"
)

type Flight struct {
	ID            string       `db:"id"`
	CampaignID    string       `db:"campaign_id"`
	Name          string       `db:"name"`
	StartDatetime time.Time    `db:"start_datetime"`
	EndDatetime   time.Time    `db:"end_datetime"`
	TargetType    TargetType   `db:"target_type"`
	TargetID      string       `db:"target_id"`
	Status        FlightStatus `db:"status"`
	CreatedAt     time.Time    `db:"created_at"`
}

// FlightRef identifies a flight selected for a screen.
type FlightRef struct {
	FlightID   string `db:"id"`
	CampaignID string `db:"campaign_id"`
}

type FlightCreative struct {
	FlightID   string `db:"flight_id"`
	CreativeID string `db:"creative_id"`
	Weight     int    `db:"weight"`
}

type QAStatus string

const (
	QAStatusPendingReview QAStatus = "pending_review"
	QAStatusApproved      QAStatus = "approved"
	QAStatusRejected      QAStatus = "rejected"
)

type Creative struct {
	ID              string    `db:"id"`
	CampaignID      string    `db:"campaign_id"`
	Name            string    `db:"name"`
	FileURL         string    `db:"file_url"`
	DurationSeconds int       `db:"duration_seconds"`
	QAStatus        QAStatus  `db:"qa_status"`
	CreatedAt       time.Time `db:"created_at"`
}

type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

type CreativeApproval struct {
	ID           string         `db:"id"`
	CreativeID   string         `db:"creative_id"`
	RegionCode   string         `db:"region_code"`
	Status       ApprovalStatus `db:"status"`
	ApprovalCode *string        `db:"approval_code"`
	ReviewedBy   *string        `db:"reviewed_by"`
	ReviewedAt   *time.Time     `db:"reviewed_at"`
	Notes        *string        `db:"notes"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

// ApprovedCreative is a flight creative joined to its approval for one region.
type ApprovedCreative struct {
	FlightID        string  `db:"flight_id"`
	CreativeID      string  `db:"creative_id"`
	CampaignID      string  `db:"campaign_id"`
	FileURL         string  `db:"file_url"`
	DurationSeconds int     `db:"duration_seconds"`
	Weight          int     `db:"weight"`
	ApprovalCode    *string `db:"approval_code"`
}

type Player struct {
	ID                  string     `db:"id"`
	ScreenID            string     `db:"screen_id"`
	TokenHash           string     `db:"token_hash"`
	IsActive            bool       `db:"is_active"`
	ConfigHash          *string    `db:"config_hash"`
	ConfigHashUpdatedAt *time.Time `db:"config_hash_updated_at"`
	LastSeenAt          *time.Time `db:"last_seen_at"`
	CreatedAt           time.Time  `db:"created_at"`
}

type Heartbeat struct {
	ID              int64     `db:"id"`
	PlayerID        string    `db:"player_id"`
	ScreenID        string    `db:"screen_id"`
	RecordedAt      time.Time `db:"recorded_at"`
	Status          string    `db:"status"`
	SoftwareVersion *string   `db:"software_version"`
	StorageFreeMB   *int64    `db:"storage_free_mb"`
	CPUUsage        *float64  `db:"cpu_usage"`
	NetworkType     *string   `db:"network_type"`
	SignalStrength  *int      `db:"signal_strength"`
	Latitude        *float64  `db:"latitude"`
	Longitude       *float64  `db:"longitude"`
	AccuracyM       *float64  `db:"accuracy_m"`
	CreatedAt       time.Time `db:"created_at"`
}

type PlayEvent struct {
	ID              int64     `db:"id"`
	PlayerID        string    `db:"player_id"`
	ScreenID        string    `db:"screen_id"`
	CreativeID      string    `db:"creative_id"`
	CampaignID      string    `db:"campaign_id"`
	FlightID        *string   `db:"flight_id"`
	StartedAt       time.Time `db:"started_at"`
	DurationSeconds float64   `db:"duration_seconds"`
	PlayStatus      string    `db:"play_status"`
	Latitude        *float64  `db:"latitude"`
	Longitude       *float64  `db:"longitude"`
	CreatedAt       time.Time `db:"created_at"`
}

type LocationPoint struct {
	ID         int64     `db:"id"`
	ScreenID   string    `db:"screen_id"`
	RecordedAt time.Time `db:"recorded_at"`
	Latitude   float64   `db:"latitude"`
	Longitude  float64   `db:"longitude"`
	CreatedAt  time.Time `db:"created_at"`
}
