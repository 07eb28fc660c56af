package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/TourBookingService/internal/domain"
)

func TestEventEncoding(t *testing.T) {
	until := time.Date(2025, 8, 20, 15, 0, 0, 0, time.UTC)
	session := &domain.ConductorSession{
		ConductorID:   "c1",
		IsActive:      true,
		OccupiedUntil: &until,
		UpdatedAt:     until.Add(-time.Hour),
	}

	payload, err := encodeEvent(session)
	require.NoError(t, err)

	decoded, err := decodeEvent(payload)
	require.NoError(t, err)
	assert.Equal(t, "c1", decoded.ConductorID)
	assert.True(t, decoded.IsActive)
	assert.False(t, decoded.IsAvailable)
	require.NotNil(t, decoded.OccupiedUntil)
	assert.True(t, until.Equal(*decoded.OccupiedUntil))
}

func TestDecodeEvent_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", "busy"},
		{"no conductor", `{"id":"0b6a2f4e-3a7d-4c1e-9a51-2d1c5f0e8b11"}`},
		{"bad id", `{"id":"42","conductorId":"c1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeEvent([]byte(tt.payload))
			assert.ErrorIs(t, err, ErrDecode)
		})
	}
}
