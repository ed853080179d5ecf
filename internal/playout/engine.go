package playout

import (
	"context"
	"log/slog"
	"time"

	"playout-engine/internal/auth"
	"playout-engine/internal/metrics"
	"playout-engine/internal/storage"
)

// Result is the outcome of one playlist resolution. Playlist is nil when
// NotModified is set.
type Result struct {
	ScreenID    string
	Region      string
	City        string
	ConfigHash  string
	Playlist    []Item
	NotModified bool
	Fallback    bool
}

type Engine struct {
	provider storage.Provider
	shuffler Shuffler
	now      func() time.Time
	logger   *slog.Logger
}

type Option func(*Engine)

// WithShuffler replaces the random source used to order playlists.
func WithShuffler(s Shuffler) Option {
	return func(e *Engine) { e.shuffler = s }
}

// WithClock replaces the clock used for flight windows and hash timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(provider storage.Provider, opts ...Option) *Engine {
	e := &Engine{
		provider: provider,
		shuffler: defaultShuffler{},
		now:      time.Now,
		logger:   slog.With("component", "playout"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Resolve builds the playlist for the player's screen in a single
// transaction. When fingerprint equals the fresh config hash the result is
// NotModified and nothing is written. Otherwise the hash is stored on the
// player if it changed.
func (e *Engine) Resolve(ctx context.Context, playerID, fingerprint string) (*Result, error) {
	var result *Result
	err := e.provider.WithTx(ctx, func(tx storage.Tx) error {
		player, err := auth.ActivePlayer(ctx, tx, playerID)
		if err != nil {
			return err
		}

		now := e.now().UTC()
		res, err := e.resolve(ctx, tx, player.ScreenID, now)
		if err != nil {
			return err
		}

		if fingerprint != "" && fingerprint == res.ConfigHash {
			res.NotModified = true
			res.Playlist = nil
			result = res
			return nil
		}

		if player.ConfigHash == nil || *player.ConfigHash != res.ConfigHash {
			if err := tx.UpdatePlayerConfigHash(ctx, player.ID, res.ConfigHash, now); err != nil {
				return err
			}
			e.logger.Debug("Config hash changed", "player_id", player.ID, "screen_id", res.ScreenID, "config_hash", res.ConfigHash)
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	switch {
	case result.NotModified:
		metrics.RecordPlaylist(metrics.OutcomeNotModified, 0)
	case result.Fallback:
		metrics.RecordPlaylist(metrics.OutcomeFallback, len(result.Playlist))
	case len(result.Playlist) == 0:
		metrics.RecordPlaylist(metrics.OutcomeEmpty, 0)
	default:
		metrics.RecordPlaylist(metrics.OutcomeModified, len(result.Playlist))
	}
	return result, nil
}

// ResolveScreen builds the playlist of a screen without touching any player
// state. It runs in its own transaction.
func (e *Engine) ResolveScreen(ctx context.Context, screenID string) (*Result, error) {
	var result *Result
	err := e.provider.WithTx(ctx, func(tx storage.Tx) error {
		res, err := e.resolve(ctx, tx, screenID, e.now().UTC())
		result = res
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Engine) resolve(ctx context.Context, tx storage.Tx, screenID string, now time.Time) (*Result, error) {
	screen, flights, err := ResolveTargeting(ctx, tx, screenID, now)
	if err != nil {
		return nil, err
	}

	compliance, err := ResolveCompliance(ctx, tx, screen.RegionCode, flightIDs(flights))
	if err != nil {
		return nil, err
	}

	var fallback *storage.ApprovedCreative
	if len(compliance.Eligible) == 0 {
		fallback, err = Fallback(ctx, tx, screen.RegionCode, compliance.RequiresPreApproval)
		if err != nil {
			return nil, err
		}
	}

	items := BuildPlaylist(compliance.Eligible, fallback, e.shuffler)
	return &Result{
		ScreenID:   screen.ID,
		Region:     screen.RegionCode,
		City:       screen.City,
		ConfigHash: ConfigHash(screen.ID, screen.RegionCode, screen.City, items),
		Playlist:   items,
		Fallback:   fallback != nil,
	}, nil
}
