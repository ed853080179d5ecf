// Package jwt issues and verifies the signed, single-use pairing tokens that
// bind a new player device to a screen.
package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"playout-engine/internal/config"
	"playout-engine/internal/nonce"
)

var (
	ErrInvalidNonce     = errors.New("invalid nonce")
	ErrNonValidToken    = errors.New("token did not pass validation")
	ErrInvalidClaimType = errors.New("invalid claim type")
)

const pairingAudience = "player_pairing"

// Extra nonce lifetime over the token lifetime to allow for clock skew.
const nonceSkew = 10

var tokenSignatureAlg = jwt.SigningMethodHS256

// PairingClaim authorizes registering one player for a screen.
type PairingClaim struct {
	ScreenID string `json:"screen_id"`
	jwt.RegisteredClaims
}

// NewPairingClaim creates a pairing claim for the screen and stores its nonce.
func NewPairingClaim(ctx context.Context, screenID string) (PairingClaim, error) {
	registered, err := createRegisteredClaim(ctx, config.Cfg.PairingTTL)
	if err != nil {
		return PairingClaim{}, err
	}
	registered.Audience = jwt.ClaimStrings{pairingAudience}
	registered.Subject = screenID
	return PairingClaim{
		ScreenID:         screenID,
		RegisteredClaims: registered,
	}, nil
}

// DecodePairingJWT verifies a pairing token and consumes its nonce, so a
// token can be decoded successfully only once.
func DecodePairingJWT(ctx context.Context, tokenString string) (*PairingClaim, error) {
	claims, err := decodeJWT(tokenString, &PairingClaim{}, jwt.WithAudience(pairingAudience))
	if err != nil {
		return nil, err
	}
	if claims.ScreenID == "" {
		return nil, ErrNonValidToken
	}
	if err := nonce.Default.Consume(ctx, claims.ID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidNonce, err)
	}
	return claims, nil
}

func createRegisteredClaim(ctx context.Context, ttl uint) (jwt.RegisteredClaims, error) {
	if ttl == 0 {
		return jwt.RegisteredClaims{}, errors.New("invalid token TTL")
	}
	id, err := nonce.New(ctx, time.Duration(ttl+nonceSkew)*time.Second)
	if err != nil {
		return jwt.RegisteredClaims{}, fmt.Errorf("failed to generate nonce: %w", err)
	}

	now := time.Now().UTC()
	return jwt.RegisteredClaims{
		ID:        id,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(ttl) * time.Second)),
	}, nil
}

// Generic JWT token generation function
func GenerateJWT(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(tokenSignatureAlg, claims)
	JWTSecret := []byte(config.Cfg.Secret)
	return token.SignedString(JWTSecret)
}

func decodeJWT[T jwt.Claims](tokenString string, claimsType T, opts ...jwt.ParserOption) (T, error) {
	var zero T

	opts = append(opts, jwt.WithValidMethods([]string{tokenSignatureAlg.Alg()}))
	parsedToken, err := jwt.ParseWithClaims(tokenString, claimsType, func(token *jwt.Token) (interface{}, error) {
		JWTSecret := []byte(config.Cfg.Secret)
		return JWTSecret, nil
	}, opts...)

	if err != nil {
		return zero, fmt.Errorf("%w: %v", ErrNonValidToken, err)
	} else if parsedToken == nil || !parsedToken.Valid {
		return zero, ErrNonValidToken
	} else if claims, ok := parsedToken.Claims.(T); ok {
		return claims, nil
	}

	return zero, ErrInvalidClaimType
}
