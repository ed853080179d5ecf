// Package provisioning pairs player devices with screens and manages their
// credentials.
package provisioning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"playout-engine/internal/jwt"
	"playout-engine/internal/metrics"
	"playout-engine/internal/storage"
	"playout-engine/internal/utils"
)

var (
	ErrScreenNotFound = errors.New("screen not found")
	ErrPlayerNotFound = errors.New("player not found")
)

// Credentials are returned once at registration. Only the token hash is kept.
type Credentials struct {
	PlayerID string `json:"player_id"`
	ScreenID string `json:"screen_id"`
	Token    string `json:"token"`
}

// PairingToken authorizes a single registration for ScreenID until ExpiresAt.
type PairingToken struct {
	ScreenID  string
	Token     string
	ExpiresAt time.Time
}

type Service struct {
	provider storage.Provider
	hasher   *utils.TokenHasher
	now      func() time.Time
	logger   *slog.Logger
}

func NewService(provider storage.Provider, hasher *utils.TokenHasher) *Service {
	return &Service{
		provider: provider,
		hasher:   hasher,
		now:      time.Now,
		logger:   slog.With("component", "provisioning"),
	}
}

// CreatePlayer registers a new player for the screen. Any previously active
// player of the screen is deactivated in the same transaction.
func (s *Service) CreatePlayer(ctx context.Context, screenID string) (*Credentials, error) {
	token, err := utils.GeneratePlayerToken()
	if err != nil {
		return nil, fmt.Errorf("generate player token: %w", err)
	}

	creds := &Credentials{
		PlayerID: uuid.NewString(),
		ScreenID: screenID,
		Token:    token,
	}

	err = s.provider.WithTx(ctx, func(tx storage.Tx) error {
		if _, err := tx.GetScreen(ctx, screenID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("%w: %s", ErrScreenNotFound, screenID)
			}
			return err
		}

		replaced, err := tx.DeactivateScreenPlayers(ctx, screenID)
		if err != nil {
			return err
		}
		if replaced > 0 {
			s.logger.Info("Deactivated previous players", "screen_id", screenID, "count", replaced)
		}

		return tx.CreatePlayer(ctx, storage.Player{
			ID:        creds.PlayerID,
			ScreenID:  screenID,
			TokenHash: s.hasher.Hash(token),
			IsActive:  true,
			CreatedAt: s.now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.PlayersRegistered.Inc()
	s.logger.Info("Player created", "player_id", creds.PlayerID, "screen_id", screenID)
	return creds, nil
}

// IssuePairingToken signs a single-use pairing token for an existing screen.
func (s *Service) IssuePairingToken(ctx context.Context, screenID string) (*PairingToken, error) {
	err := s.provider.WithTx(ctx, func(tx storage.Tx) error {
		_, err := tx.GetScreen(ctx, screenID)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrScreenNotFound, screenID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	claim, err := jwt.NewPairingClaim(ctx, screenID)
	if err != nil {
		return nil, err
	}
	token, err := jwt.GenerateJWT(claim)
	if err != nil {
		return nil, err
	}
	return &PairingToken{
		ScreenID:  screenID,
		Token:     token,
		ExpiresAt: claim.ExpiresAt.Time,
	}, nil
}

// Register exchanges a pairing token for player credentials.
func (s *Service) Register(ctx context.Context, pairingToken string) (*Credentials, error) {
	claims, err := jwt.DecodePairingJWT(ctx, pairingToken)
	if err != nil {
		return nil, err
	}
	return s.CreatePlayer(ctx, claims.ScreenID)
}

func (s *Service) Deactivate(ctx context.Context, playerID string) error {
	err := s.provider.WithTx(ctx, func(tx storage.Tx) error {
		return tx.DeactivatePlayer(ctx, playerID)
	})
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
	}
	if err != nil {
		return err
	}
	s.logger.Info("Player deactivated", "player_id", playerID)
	return nil
}

func (s *Service) List(ctx context.Context) ([]storage.Player, error) {
	var players []storage.Player
	err := s.provider.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		players, err = tx.ListPlayers(ctx)
		return err
	})
	return players, err
}
