package routes

import (
	"errors"

	"github.com/gin-gonic/gin"

	"playout-engine/internal/playout"
	"playout-engine/internal/provisioning"
	"playout-engine/internal/storage"
	"playout-engine/internal/telemetry"
	"playout-engine/internal/utils"
)

var (
	ErrServiceMissing = errors.New("service not available")
	ErrServiceType    = errors.New("service has unexpected type")
)

// Context keys of the injected services.
const (
	ctxStorage      = "Storage"
	ctxEngine       = "Engine"
	ctxIngestor     = "Ingestor"
	ctxProvisioning = "Provisioning"
	ctxTokenHasher  = "TokenHasher"
	ctxMediaBaseURL = "MediaBaseURL"
	ctxPlayerID     = "playerID"
)

// Services are the dependencies handlers read from the request context.
type Services struct {
	Storage      storage.Provider
	Engine       *playout.Engine
	Ingestor     *telemetry.Ingestor
	Provisioning *provisioning.Service
	TokenHasher  *utils.TokenHasher
	MediaBaseURL string
}

// InjectServices makes the services available to every handler. Nil
// services are left out so their getters report them as missing.
func InjectServices(s *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.Storage != nil {
			c.Set(ctxStorage, s.Storage)
		}
		if s.Engine != nil {
			c.Set(ctxEngine, s.Engine)
		}
		if s.Ingestor != nil {
			c.Set(ctxIngestor, s.Ingestor)
		}
		if s.Provisioning != nil {
			c.Set(ctxProvisioning, s.Provisioning)
		}
		if s.TokenHasher != nil {
			c.Set(ctxTokenHasher, s.TokenHasher)
		}
		c.Set(ctxMediaBaseURL, s.MediaBaseURL)
		c.Next()
	}
}

func getService[T any](c *gin.Context, key string) (T, error) {
	var zero T
	v, exists := c.Get(key)
	if !exists || v == nil {
		return zero, ErrServiceMissing
	}
	s, ok := v.(T)
	if !ok {
		return zero, ErrServiceType
	}
	return s, nil
}

func GetStorageProvider(c *gin.Context) (storage.Provider, error) {
	return getService[storage.Provider](c, ctxStorage)
}

func GetEngine(c *gin.Context) (*playout.Engine, error) {
	return getService[*playout.Engine](c, ctxEngine)
}

func GetIngestor(c *gin.Context) (*telemetry.Ingestor, error) {
	return getService[*telemetry.Ingestor](c, ctxIngestor)
}

func GetProvisioning(c *gin.Context) (*provisioning.Service, error) {
	return getService[*provisioning.Service](c, ctxProvisioning)
}

func GetTokenHasher(c *gin.Context) (*utils.TokenHasher, error) {
	return getService[*utils.TokenHasher](c, ctxTokenHasher)
}

// RegisterRoutes mounts the health check and the player API.
func RegisterRoutes(r *gin.Engine) {
	Health(r.Group(""))

	player := r.Group("/api/v1/player")
	ProvisioningApi(player)

	authed := player.Group("", PlayerAuth())
	PlaylistApi(authed)
	TelemetryApi(authed)
}
