package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_ReservationDefaults(t *testing.T) {
	t.Setenv("RESERVATION_TIMEZONE", "Asia/Seoul")
	t.Setenv("RESERVATION_QUOTA_CACHE_TTL_SECONDS", "30")
	t.Setenv("RESERVATION_CANCELLATION_LIMIT", "not-a-number")

	cfg := Load()
	assert.Equal(t, 30*time.Second, cfg.Reservation.QuotaCacheTTL)
	assert.Equal(t, 3, cfg.Reservation.DefaultCancellationLimit)
	assert.Equal(t, "RESERVATION_NOTIFICATIONS", cfg.Reservation.OutboxTopic)
}

func TestReservationConfig_LocationFallback(t *testing.T) {
	loc := ReservationConfig{TimeZone: "Nowhere/Invalid"}.Location()
	_, offset := time.Date(2025, 3, 10, 0, 0, 0, 0, loc).Zone()
	assert.Equal(t, 9*60*60, offset)
}

func TestLoad_Tracing(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_SAMPLING_RATE", "0.2")

	cfg := Load()
	assert.True(t, cfg.Tracing.Enabled)
	assert.InDelta(t, 0.2, cfg.Tracing.SamplingRate, 1e-9)
	assert.Equal(t, "localhost:4318", cfg.Tracing.Endpoint)
}
