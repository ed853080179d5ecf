package storage

import (
	"context"
	"fmt"
	"time"
)

const playerColumns = `id, screen_id, token_hash, is_active, config_hash, config_hash_updated_at, last_seen_at, created_at`

func (t *sqlTx) GetPlayer(ctx context.Context, playerID string) (*Player, error) {
	var player Player
	if err := t.get(ctx, &player, `SELECT `+playerColumns+` FROM players WHERE id = ?`, playerID); err != nil {
		return nil, fmt.Errorf("get player %s: %w", playerID, err)
	}
	return &player, nil
}

func (t *sqlTx) CreatePlayer(ctx context.Context, p Player) error {
	_, err := t.exec(ctx, `INSERT INTO players (`+playerColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.ScreenID, p.TokenHash, p.IsActive, p.ConfigHash, utcPtr(p.ConfigHashUpdatedAt),
		utcPtr(p.LastSeenAt), p.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("create player %s: %w", p.ID, err)
	}
	return nil
}

func (t *sqlTx) ListPlayers(ctx context.Context) ([]Player, error) {
	var players []Player
	if err := t.selectAll(ctx, &players, `SELECT `+playerColumns+` FROM players ORDER BY screen_id, created_at`); err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	return players, nil
}

func (t *sqlTx) DeactivatePlayer(ctx context.Context, playerID string) error {
	if err := t.execOne(ctx, `UPDATE players SET is_active = ? WHERE id = ?`, false, playerID); err != nil {
		return fmt.Errorf("deactivate player %s: %w", playerID, err)
	}
	return nil
}

// DeactivateScreenPlayers deactivates every active player bound to the screen
// and returns how many were affected.
func (t *sqlTx) DeactivateScreenPlayers(ctx context.Context, screenID string) (int64, error) {
	res, err := t.exec(ctx, `UPDATE players SET is_active = ? WHERE screen_id = ? AND is_active = ?`,
		false, screenID, true)
	if err != nil {
		return 0, fmt.Errorf("deactivate players of screen %s: %w", screenID, err)
	}
	return res.RowsAffected()
}

func (t *sqlTx) UpdatePlayerConfigHash(ctx context.Context, playerID, hash string, at time.Time) error {
	err := t.execOne(ctx, `UPDATE players SET config_hash = ?, config_hash_updated_at = ? WHERE id = ?`,
		hash, at.UTC(), playerID)
	if err != nil {
		return fmt.Errorf("update config hash of player %s: %w", playerID, err)
	}
	return nil
}

func (t *sqlTx) TouchPlayer(ctx context.Context, playerID string, seenAt time.Time) error {
	if err := t.execOne(ctx, `UPDATE players SET last_seen_at = ? WHERE id = ?`, seenAt.UTC(), playerID); err != nil {
		return fmt.Errorf("touch player %s: %w", playerID, err)
	}
	return nil
}
