package httpmw

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kandev/dbchat/internal/common/logger"
)

func TestRequestLogger_LogsFailures(t *testing.T) {
	gin.SetMode(gin.TestMode)
	path := filepath.Join(t.TempDir(), "http.log")
	log, err := logger.NewLogger(logger.LoggingConfig{Level: "info", Format: "json", OutputPath: path})
	require.NoError(t, err)

	router := gin.New()
	router.Use(OtelTracing("test", "/ws"), RequestLogger(log, "test"))
	router.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	router.GET("/boom", func(c *gin.Context) { c.AbortWithStatus(http.StatusInternalServerError) })

	for _, p := range []string{"/health", "/boom"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))
	}
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `"path":"/boom"`)
	assert.Contains(t, out, `"status":500`)
	assert.Contains(t, out, `"component":"http"`)
	// Successful requests are debug-level.
	assert.NotContains(t, out, `"path":"/health"`)
}

func TestOtelTracing_SkippedPathStillServed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(OtelTracing("test", "/ws"))
	router.GET("/ws", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
