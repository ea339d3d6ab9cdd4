package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "3000", cfg.App.Port)
	assert.Equal(t, "field_feed", cfg.App.FeedChannel)
	assert.Equal(t, 15*time.Minute, cfg.Capture.SessionTTL)
	assert.Equal(t, time.Second/30, cfg.Capture.FrameInterval)
	assert.Equal(t, "gps.positions", cfg.Location.GPSSubject)
	assert.Equal(t, "all", cfg.Export.DefaultScope)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("APP_PORT", "8080")
	t.Setenv("CAPTURE_SESSION_TTL", "90s")
	t.Setenv("CAPTURE_VISUALIZATION_FPS", "10")
	t.Setenv("FIELD_GPS_SUBJECT", "rover.gps")
	t.Setenv("OTEL_ENABLED", "true")

	cfg := Load()

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, 90*time.Second, cfg.Capture.SessionTTL)
	assert.Equal(t, 100*time.Millisecond, cfg.Capture.FrameInterval)
	assert.Equal(t, "rover.gps", cfg.Location.GPSSubject)
	assert.True(t, cfg.Tracing.Enabled)
}

func TestMalformedValuesFallBack(t *testing.T) {
	t.Setenv("CAPTURE_SESSION_TTL", "soon")
	t.Setenv("CAPTURE_VISUALIZATION_FPS", "-3")

	cfg := Load()

	assert.Equal(t, 15*time.Minute, cfg.Capture.SessionTTL)
	assert.Equal(t, time.Second/30, cfg.Capture.FrameInterval)
}

func TestZeroFPSFallsBack(t *testing.T) {
	t.Setenv("CAPTURE_VISUALIZATION_FPS", "0")

	cfg := Load()

	assert.Equal(t, time.Second/30, cfg.Capture.FrameInterval)
}
