// Player authentication middleware.
// Every player request carries its player id in X-Player-ID and its secret
// as a bearer token. On success the player id is stored in the context.
package routes

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	"playout-engine/internal/auth"
	"playout-engine/internal/storage"
)

const HeaderPlayerID = "X-Player-ID"

var ErrPlayerNotInContext = errors.New("player id not found in context")

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// GetPlayerID returns the authenticated player id.
func GetPlayerID(c *gin.Context) (string, error) {
	id := c.GetString(ctxPlayerID)
	if id == "" {
		return "", ErrPlayerNotInContext
	}
	return id, nil
}

// PlayerAuth rejects requests without valid player credentials.
func PlayerAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID := strings.TrimSpace(c.GetHeader(HeaderPlayerID))
		token := bearerToken(c.GetHeader("Authorization"))
		if playerID == "" || token == "" {
			AbortWithError(c, ErrMissingCredentials)
			return
		}

		provider, err := GetStorageProvider(c)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		hasher, err := GetTokenHasher(c)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		ctx := c.Request.Context()
		err = provider.WithTx(ctx, func(tx storage.Tx) error {
			_, err := auth.Authenticate(ctx, tx, hasher, playerID, token)
			return err
		})
		if err != nil {
			slog.Debug("Player authentication failed", "player_id", playerID, "error", err)
			AbortWithError(c, err)
			return
		}

		c.Set(ctxPlayerID, playerID)
		c.Next()
	}
}
