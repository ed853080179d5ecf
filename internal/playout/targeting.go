package playout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"playout-engine/internal/storage"
)

// ResolveTargeting loads the screen and the flights that currently target it.
// The screen is looked up first so a missing screen fails before any flight
// work is done.
func ResolveTargeting(ctx context.Context, tx storage.Tx, screenID string, now time.Time) (*storage.Screen, []storage.FlightRef, error) {
	screen, err := tx.GetScreen(ctx, screenID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: %s", ErrScreenNotFound, screenID)
	}
	if err != nil {
		return nil, nil, err
	}

	flights, err := tx.ActiveFlightsForScreen(ctx, screen.ID, now)
	if err != nil {
		return nil, nil, err
	}
	return screen, flights, nil
}

func flightIDs(flights []storage.FlightRef) []string {
	ids := make([]string, 0, len(flights))
	for _, f := range flights {
		ids = append(ids, f.FlightID)
	}
	return ids
}
