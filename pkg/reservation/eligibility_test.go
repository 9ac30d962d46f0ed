package reservation

import (
	"errors"
	"testing"
	"time"

	"cleaning-reservation-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCutoff(t *testing.T) {
	got := Cutoff(time.Date(2025, 3, 10, 0, 0, 0, 0, kst))
	assert.Equal(t, at(2025, 3, 9, 17, 0), got)

	// month boundary
	got = Cutoff(time.Date(2025, 3, 1, 0, 0, 0, 0, kst))
	assert.Equal(t, at(2025, 2, 28, 17, 0), got)
}

func TestCanModifyBoundary(t *testing.T) {
	serviceDate := time.Date(2025, 3, 10, 0, 0, 0, 0, kst)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"two days before", at(2025, 3, 8, 12, 0), true},
		{"one minute before cutoff", at(2025, 3, 9, 16, 59), true},
		{"exactly at cutoff", at(2025, 3, 9, 17, 0), false},
		{"one minute after cutoff", at(2025, 3, 9, 17, 1), false},
		{"service day morning", at(2025, 3, 10, 6, 0), false},
		{"after service day", at(2025, 3, 11, 9, 0), false},
		{"same instant in UTC before cutoff", time.Date(2025, 3, 9, 7, 59, 0, 0, time.UTC), true},
		{"same instant in UTC after cutoff", time.Date(2025, 3, 9, 8, 1, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanModify(serviceDate, tt.now))
		})
	}
}

func TestCheckWindow_ScenarioCutoff(t *testing.T) {
	f := newFixture()
	r := f.reservation(entity.ReservationStatusPending)
	r.ServiceDates = []string{"2025-03-10"}

	assert.NoError(t, f.rules.Calculator().CheckWindow(r, at(2025, 3, 9, 16, 59)))

	err := f.rules.Calculator().CheckWindow(r, at(2025, 3, 9, 17, 1))
	require.ErrorIs(t, err, ErrWindowClosed)
	var werr *WindowError
	require.True(t, errors.As(err, &werr))
	assert.False(t, werr.SameDay)
	assert.Equal(t, at(2025, 3, 9, 17, 0), werr.Cutoff)
}

func TestCheckWindow_SameDayAdvisory(t *testing.T) {
	f := newFixture()
	r := f.reservation(entity.ReservationStatusPending)
	r.ServiceDates = []string{"2025-03-10", "2025-03-17"}

	err := f.rules.Calculator().CheckWindow(r, at(2025, 3, 10, 8, 0))
	var werr *WindowError
	require.True(t, errors.As(err, &werr))
	assert.True(t, werr.SameDay)
}

func TestEvaluate(t *testing.T) {
	calc := NewCalculator(kst)

	e, err := calc.Evaluate("2025-03-10", at(2025, 3, 9, 15, 0))
	require.NoError(t, err)
	assert.True(t, e.CanModify)
	assert.False(t, e.SameDay)
	assert.Equal(t, 2*time.Hour, e.TimeRemaining)

	e, err = calc.Evaluate("2025-03-10", at(2025, 3, 10, 9, 0))
	require.NoError(t, err)
	assert.False(t, e.CanModify)
	assert.True(t, e.SameDay)
	assert.Zero(t, e.TimeRemaining)

	_, err = calc.Evaluate("10/03/2025", at(2025, 3, 9, 15, 0))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestScheduledStart(t *testing.T) {
	f := newFixture()
	r := f.reservation(entity.ReservationStatusPending)
	r.ServiceDates = []string{"2025-03-10", "2025-03-17"}
	r.ServiceTime = "09:30"

	start, err := f.rules.Calculator().ScheduledStart(r, at(2025, 3, 17, 10, 0))
	require.NoError(t, err)
	assert.Equal(t, at(2025, 3, 17, 9, 30), start)

	start, err = f.rules.Calculator().ScheduledStart(r, at(2025, 3, 12, 10, 0))
	require.NoError(t, err)
	assert.Equal(t, at(2025, 3, 10, 9, 30), start)
}
