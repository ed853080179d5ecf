package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"playout-engine/internal/metrics"
	"playout-engine/internal/routes"
)

// Players revalidate with the config hash, so responses may be stored but
// never reused without asking.
func responseHeaders(c *gin.Context) {
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("X-Frame-Options", "DENY")
	c.Header("Cache-Control", "no-cache")
	c.Next()
}

// ParseAllowList parses a comma separated list of CIDR prefixes. Empty
// entries are skipped; a malformed entry is an error.
func ParseAllowList(list string) ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for entry := range strings.SplitSeq(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		prefix, err := netip.ParsePrefix(entry)
		if err != nil {
			return nil, fmt.Errorf("allowed_networks: %w", err)
		}
		prefixes = append(prefixes, prefix.Masked())
	}
	return prefixes, nil
}

// AllowList rejects clients outside the given prefixes. Outside release mode
// loopback clients are always let through.
func AllowList(prefixes []netip.Prefix) gin.HandlerFunc {
	allowLoopback := gin.Mode() != gin.ReleaseMode

	return func(c *gin.Context) {
		addr, err := netip.ParseAddr(c.ClientIP())
		if err == nil {
			addr = addr.Unmap()
			if allowLoopback && addr.IsLoopback() {
				c.Next()
				return
			}
			for _, prefix := range prefixes {
				if prefix.Contains(addr) {
					c.Next()
					return
				}
			}
		}

		slog.Warn("Client address not allowed", "ip", c.ClientIP())
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success": false,
			"status":  "error",
			"message": "Forbidden",
			"code":    []string{"IP_FORBIDDEN"},
		})
	}
}

// HTTPServer assembles the gin engine with middleware, metrics and the
// player API. allowedNetworks is a comma separated CIDR list; empty allows
// every client.
func HTTPServer(services *routes.Services, allowedNetworks string) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(metrics.GinMiddleware())

	if allowedNetworks != "" {
		prefixes, err := ParseAllowList(allowedNetworks)
		if err != nil {
			return nil, err
		}
		slog.Debug("Enabling IP access control", "allowed_networks", allowedNetworks)
		r.Use(AllowList(prefixes))
	}
	r.Use(responseHeaders)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(routes.InjectServices(services), routes.ErrorHandler())
	routes.RegisterRoutes(r)

	return r, nil
}
