package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantKind    LineKind
		wantPayload string
	}{
		{"frame", "Frame 12 at 0.2 seconds\n", LineFrame, "Frame 12 at 0.2 seconds"},
		{"indented core", "  [DReyeVR]TimestampCarla:123\n", LineCore, "TimestampCarla:123"},
		{"custom actor", "  [DReyeVR_CA]Name:PeriphTarget\r\n", LineSideChannel, "Name:PeriphTarget"},
		{"tab indented", "\t[DReyeVR]UserInputs:{Throttle:0.5}", LineCore, "UserInputs:{Throttle:0.5}"},
		{"carla header", " Create 123: vehicle.tesla.model3 (1) at (1, 2, 3)", LineIgnored, ""},
		{"blank", "\n", LineIgnored, ""},
		{"prefix elsewhere", "x [DReyeVR]A:1", LineIgnored, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, payload := Classify(tt.raw)
			assert.Equal(t, tt.wantKind, kind)
			assert.Equal(t, tt.wantPayload, payload)
		})
	}
}

func TestParseFrame(t *testing.T) {
	frame, seconds, err := ParseFrame("Frame 7 at 0.116667 seconds")
	require.NoError(t, err)
	assert.Equal(t, int64(7), frame)
	assert.InDelta(t, 0.116667, seconds, 1e-12)

	_, _, err = ParseFrame("Frame 7 at soon seconds")
	assert.Error(t, err)
	_, _, err = ParseFrame("Frame")
	assert.Error(t, err)
}
