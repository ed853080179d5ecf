package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"playout-engine/internal/utils"
)

// Health reports the build and, when storage is wired, the schema version.
// A database that cannot answer turns the response into 503 "degraded".
func Health(r *gin.RouterGroup) {
	r.GET("/health", func(c *gin.Context) {
		build := utils.ReadBuildInfo()
		body := gin.H{
			"status":  "ok",
			"version": build.Version,
		}
		if build.Revision != "" {
			body["revision"] = build.Revision
		}

		provider, err := GetStorageProvider(c)
		if err != nil {
			c.JSON(http.StatusOK, body)
			return
		}

		version, err := provider.GetSchemaVersion(c.Request.Context())
		if err != nil {
			body["status"] = "degraded"
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		body["schema_version"] = version
		c.JSON(http.StatusOK, body)
	})
}
