package jwt

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playout-engine/internal/config"
	"playout-engine/internal/nonce"
)

func setup(t *testing.T) {
	t.Helper()
	prevCfg, prevStore := config.Cfg, nonce.Default
	t.Cleanup(func() {
		config.Cfg = prevCfg
		nonce.Default = prevStore
	})

	config.Cfg = &config.Config{Secret: "test-secret", PairingTTL: 300}
	store := nonce.NewMemoryStore()
	t.Cleanup(func() { store.Close() })
	nonce.Default = store
}

func TestPairingTokenRoundTrip(t *testing.T) {
	setup(t)
	ctx := context.Background()

	claims, err := NewPairingClaim(ctx, "scr-1")
	require.NoError(t, err)
	assert.Equal(t, "scr-1", claims.Subject)
	assert.WithinDuration(t, time.Now().Add(300*time.Second), claims.ExpiresAt.Time, 5*time.Second)

	token, err := GenerateJWT(claims)
	require.NoError(t, err)

	decoded, err := DecodePairingJWT(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "scr-1", decoded.ScreenID)

	// Single use.
	_, err = DecodePairingJWT(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidNonce)
}

func TestDecodePairingJWTRejectsForeignTokens(t *testing.T) {
	setup(t)
	ctx := context.Background()

	claims, err := NewPairingClaim(ctx, "scr-1")
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signed, err := token.SignedString([]byte("other-secret"))
		require.NoError(t, err)
		_, err = DecodePairingJWT(ctx, signed)
		assert.ErrorIs(t, err, ErrNonValidToken)
	})

	t.Run("wrong audience", func(t *testing.T) {
		other := claims
		other.Audience = jwt.ClaimStrings{"something_else"}
		signed, err := GenerateJWT(other)
		require.NoError(t, err)
		_, err = DecodePairingJWT(ctx, signed)
		assert.ErrorIs(t, err, ErrNonValidToken)
	})

	t.Run("expired", func(t *testing.T) {
		other := claims
		other.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
		signed, err := GenerateJWT(other)
		require.NoError(t, err)
		_, err = DecodePairingJWT(ctx, signed)
		assert.ErrorIs(t, err, ErrNonValidToken)
	})

	t.Run("missing screen", func(t *testing.T) {
		other := claims
		other.ScreenID = ""
		signed, err := GenerateJWT(other)
		require.NoError(t, err)
		_, err = DecodePairingJWT(ctx, signed)
		assert.ErrorIs(t, err, ErrNonValidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := DecodePairingJWT(ctx, "not-a-token")
		assert.ErrorIs(t, err, ErrNonValidToken)
	})
}

func TestNewPairingClaimRequiresTTL(t *testing.T) {
	setup(t)
	config.Cfg.PairingTTL = 0
	_, err := NewPairingClaim(context.Background(), "scr-1")
	assert.Error(t, err)
}
