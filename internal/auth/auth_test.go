package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playout-engine/internal/storage"
	"playout-engine/internal/storage/storagetest"
	"playout-engine/internal/utils"
)

func TestAuthenticate(t *testing.T) {
	hasher := utils.NewTokenHasher("test-secret")
	f := storagetest.NewFixture(t)
	f.Region("NG", false)
	f.Screen("S1", "NG", storage.ScreenClassIndoor)
	f.Screen("S2", "NG", storage.ScreenClassIndoor)
	f.Player("active", "S1", hasher.Hash("good-token"), true)
	f.Player("inactive", "S2", hasher.Hash("old-token"), false)

	authenticate := func(playerID, token string) (*storage.Player, error) {
		var player *storage.Player
		err := f.Provider.WithTx(context.Background(), func(tx storage.Tx) error {
			var err error
			player, err = Authenticate(context.Background(), tx, hasher, playerID, token)
			return err
		})
		return player, err
	}

	player, err := authenticate("active", "good-token")
	require.NoError(t, err)
	assert.Equal(t, "S1", player.ScreenID)

	tests := []struct {
		name     string
		playerID string
		token    string
		want     error
	}{
		{"missing id", "", "good-token", ErrUnauthorized},
		{"missing token", "active", "", ErrUnauthorized},
		{"unknown player", "ghost", "good-token", ErrUnauthorized},
		{"wrong token", "active", "bad-token", ErrUnauthorized},
		{"inactive with wrong token", "inactive", "bad-token", ErrUnauthorized},
		{"inactive player", "inactive", "old-token", ErrDisconnected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := authenticate(tt.playerID, tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
