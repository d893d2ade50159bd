// SPDX-License-Identifier: EPL-2.0

package utils

import (
	"math"
	"testing"
)

func TestCubicInterpolate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		y0, y1, y2, y3 float32
		x              float32
		want           float32
	}{
		{"start returns y1", 0, 1, 2, 3, 0, 1},
		{"end returns y2", 0, 1, 2, 3, 1, 2},
		{"linear ramp midpoint", 0, 1, 2, 3, 0.5, 1.5},
		{"constant", 0.25, 0.25, 0.25, 0.25, 0.7, 0.25},
		{"symmetric peak", 0, 1, 1, 0, 0.5, 1.125},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := CubicInterpolate(tt.y0, tt.y1, tt.y2, tt.y3, tt.x)
			if math.Abs(float64(got-tt.want)) > 1e-6 {
				t.Fatalf("CubicInterpolate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFloat32ToInt16(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float32
		want int16
	}{
		{0, 0},
		{1, 32767},
		{-1, -32767},
		{2, 32767},
		{-3, -32767},
		{0.5, 16383},
	}
	for _, tt := range tests {
		if got := Float32ToInt16(tt.in); got != tt.want {
			t.Fatalf("Float32ToInt16(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestInt16ToFloat32(t *testing.T) {
	t.Parallel()

	if got := Int16ToFloat32(-32768); got != -1 {
		t.Fatalf("Int16ToFloat32(-32768) = %v, want -1", got)
	}
	if got := Int16ToFloat32(16384); got != 0.5 {
		t.Fatalf("Int16ToFloat32(16384) = %v, want 0.5", got)
	}
}

func TestConversions_ZeroAllocs(t *testing.T) {
	allocs := testing.AllocsPerRun(100, func() {
		_ = Float32ToInt16(CubicInterpolate(0.1, 0.2, 0.3, 0.4, 0.5))
		_ = Int16ToFloat32(1234)
	})
	if allocs != 0 {
		t.Fatalf("allocations = %v, want 0", allocs)
	}
}

func BenchmarkCubicInterpolate(b *testing.B) {
	var sink float32
	for i := 0; b.Loop(); i++ {
		sink += CubicInterpolate(0.1, 0.5, -0.3, 0.2, float32(i%100)/100)
	}
	_ = sink
}
