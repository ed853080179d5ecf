package app

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playout-engine/internal/routes"
	"playout-engine/internal/storage/storagetest"
)

func TestParseAllowList(t *testing.T) {
	prefixes, err := ParseAllowList(" 10.1.2.3/8, ,192.168.1.0/24,")
	require.NoError(t, err)
	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("192.168.1.0/24"),
	}, prefixes)

	prefixes, err = ParseAllowList("")
	require.NoError(t, err)
	assert.Empty(t, prefixes)

	_, err = ParseAllowList("10.0.0.0/8,not-a-cidr")
	assert.Error(t, err)
}

func TestAllowList(t *testing.T) {
	previous := gin.Mode()
	gin.SetMode(gin.ReleaseMode)
	t.Cleanup(func() { gin.SetMode(previous) })

	r := gin.New()
	r.Use(AllowList([]netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	tests := []struct {
		remote string
		status int
	}{
		{"10.1.2.3:5555", http.StatusNoContent},
		{"[::ffff:10.1.2.3]:5555", http.StatusNoContent},
		{"192.168.1.10:5555", http.StatusForbidden},
		{"127.0.0.1:5555", http.StatusForbidden},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tt.remote
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, tt.status, w.Code, tt.remote)
	}
}

func TestAllowListLetsLoopbackThroughOutsideRelease(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(AllowList(nil))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "127.0.0.1:5555"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestHTTPServerRejectsBadNetworks(t *testing.T) {
	_, err := HTTPServer(&routes.Services{}, "10.0.0.0/33")
	assert.Error(t, err)
}

func TestHTTPServerServesHealthAndMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	server, err := HTTPServer(&routes.Services{Storage: storagetest.NewSQLite(t)}, "")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))

	w = httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "playout_api_requests_total")

	// Player routes without credentials are rejected before any service is used.
	w = httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/player/playlist", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
