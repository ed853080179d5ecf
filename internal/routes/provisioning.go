package routes

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type registrationRequest struct {
	PairingToken string `form:"pairing_token" json:"pairing_token"`
}

// ProvisioningApi exchanges single-use pairing tokens for player credentials.
func ProvisioningApi(r *gin.RouterGroup) {
	r.POST("/register", func(c *gin.Context) {
		svc, err := GetProvisioning(c)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		var req registrationRequest
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				slog.Warn("Invalid registration request", "error", err)
				AbortWithError(c, ErrInvalidRequest)
				return
			}
		}
		// Pairing URLs carry the token as a query parameter.
		if req.PairingToken == "" {
			req.PairingToken = c.Query("pairing_token")
		}
		token := strings.TrimSpace(req.PairingToken)
		if token == "" {
			AbortWithError(c, ErrMissingParameter)
			return
		}

		creds, err := svc.Register(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		slog.Info("Player registered", "player_id", creds.PlayerID, "screen_id", creds.ScreenID, "client_ip", c.ClientIP())
		c.JSON(http.StatusCreated, creds)
	})
}
