// Package auth authenticates player devices by player id and bearer token.
package auth

import (
	"context"
	"errors"
	"fmt"

	"playout-engine/internal/storage"
	"playout-engine/internal/utils"
)

var (
	ErrUnauthorized = errors.New("invalid player credentials")
	// ErrDisconnected is returned for valid credentials of a deactivated player.
	ErrDisconnected = errors.New("player disconnected")
)

// Authenticate checks the player's token and active flag inside tx. Unknown
// players and token mismatches are ErrUnauthorized; a deactivated player with
// a valid token is ErrDisconnected.
func Authenticate(ctx context.Context, tx storage.Tx, hasher *utils.TokenHasher, playerID, token string) (*storage.Player, error) {
	if playerID == "" || token == "" {
		return nil, ErrUnauthorized
	}

	player, err := tx.GetPlayer(ctx, playerID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown player %s", ErrUnauthorized, playerID)
	}
	if err != nil {
		return nil, err
	}

	if !hasher.Verify(token, player.TokenHash) {
		return nil, fmt.Errorf("%w: token mismatch for player %s", ErrUnauthorized, playerID)
	}
	if !player.IsActive {
		return nil, fmt.Errorf("%w: %s", ErrDisconnected, playerID)
	}
	return player, nil
}

// ActivePlayer re-reads an already authenticated player inside tx.
func ActivePlayer(ctx context.Context, tx storage.Tx, playerID string) (*storage.Player, error) {
	player, err := tx.GetPlayer(ctx, playerID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown player %s", ErrUnauthorized, playerID)
	}
	if err != nil {
		return nil, err
	}
	if !player.IsActive {
		return nil, fmt.Errorf("%w: %s", ErrDisconnected, playerID)
	}
	return player, nil
}
