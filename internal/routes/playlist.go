package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"playout-engine/internal/playout"
	"playout-engine/internal/utils"
)

// HeaderConfigHash carries the client's config hash when it does not use
// If-None-Match.
const HeaderConfigHash = "X-Config-Hash"

type playlistResponse struct {
	ScreenID   string         `json:"screen_id"`
	Region     string         `json:"region"`
	City       string         `json:"city"`
	ConfigHash string         `json:"config_hash"`
	Playlist   []playout.Item `json:"playlist"`
}

func PlaylistApi(r *gin.RouterGroup) {
	r.GET("/playlist", func(c *gin.Context) {
		playerID, err := GetPlayerID(c)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		engine, err := GetEngine(c)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		fingerprint := playout.ClientFingerprint(c.GetHeader("If-None-Match"), c.GetHeader(HeaderConfigHash))
		result, err := engine.Resolve(c.Request.Context(), playerID, fingerprint)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Header("ETag", playout.ETag(result.ConfigHash))
		c.Header(HeaderConfigHash, result.ConfigHash)
		c.Header("Cache-Control", "no-cache")
		if result.NotModified {
			c.Status(http.StatusNotModified)
			return
		}

		baseURL := c.GetString(ctxMediaBaseURL)
		items := make([]playout.Item, len(result.Playlist))
		for i, item := range result.Playlist {
			item.FileURL = utils.ResolveMediaURL(baseURL, item.FileURL)
			items[i] = item
		}

		c.JSON(http.StatusOK, playlistResponse{
			ScreenID:   result.ScreenID,
			Region:     result.Region,
			City:       result.City,
			ConfigHash: result.ConfigHash,
			Playlist:   items,
		})
	})
}
