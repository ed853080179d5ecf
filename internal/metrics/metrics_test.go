package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordPlaylist(t *testing.T) {
	before := testutil.ToFloat64(PlaylistResolutions.WithLabelValues(OutcomeFallback))
	RecordPlaylist(OutcomeFallback, 1)
	assert.Equal(t, before+1, testutil.ToFloat64(PlaylistResolutions.WithLabelValues(OutcomeFallback)))
}

func TestRecordLocationSample(t *testing.T) {
	recorded := testutil.ToFloat64(LocationSamples.WithLabelValues("recorded"))
	discarded := testutil.ToFloat64(LocationSamples.WithLabelValues("discarded"))

	RecordLocationSample(true)
	RecordLocationSample(false)
	RecordLocationSample(false)

	assert.Equal(t, recorded+1, testutil.ToFloat64(LocationSamples.WithLabelValues("recorded")))
	assert.Equal(t, discarded+2, testutil.ToFloat64(LocationSamples.WithLabelValues("discarded")))
}

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/things/:id", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	counter := APIRequestsTotal.WithLabelValues(http.MethodGet, "/things/:id", "418")
	before := testutil.ToFloat64(counter)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/things/42", nil))

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
	assert.Equal(t, 0.0, testutil.ToFloat64(APIActiveRequests))
}
