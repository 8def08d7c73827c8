package core

import (
	"math"
	"testing"
)

func TestDriftPPM(t *testing.T) {
	tests := []struct {
		name     string
		rtc, ref float64
		want     float64
	}{
		{"exact", 86400, 86400, 0},
		{"ten seconds fast per day", 86410, 86400, 115.74},
		{"slow", 86395, 86400, -57.87},
		{"no reference", 10, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DriftPPM(tt.rtc, tt.ref)
			if math.Abs(got-tt.want) > 0.01 {
				t.Errorf("DriftPPM(%v, %v) = %.3f, want %.2f", tt.rtc, tt.ref, got, tt.want)
			}
		})
	}
}

func TestSecondsPerDay(t *testing.T) {
	if got := SecondsPerDay(115.74); math.Abs(got-10) > 0.01 {
		t.Errorf("SecondsPerDay(115.74) = %.3f, want 10", got)
	}
}

func TestCalibrationFromDrift(t *testing.T) {
	tests := []struct {
		ppm  float64
		want uint8
	}{
		{0, 0},
		{-20, 0},
		{0.4, 0},
		{0.954, 1},
		{10, 10},
		{115.74, 121},
		{121.1, 127},
		{500, 127},
	}
	for _, tt := range tests {
		if got := CalibrationFromDrift(tt.ppm); got != tt.want {
			t.Errorf("CalibrationFromDrift(%v) = %d, want %d", tt.ppm, got, tt.want)
		}
	}
}

func TestClamp(t *testing.T) {
	if got := clamp(-3, 0, 127); got != 0 {
		t.Errorf("clamp(-3) = %d", got)
	}
	if got := clamp(uint16(300), 0, 255); got != 255 {
		t.Errorf("clamp(300) = %d", got)
	}
	if got := clamp(int8(7), -1, 9); got != 7 {
		t.Errorf("clamp(7) = %d", got)
	}
}
