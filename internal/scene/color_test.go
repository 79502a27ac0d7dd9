package scene

import (
	"math"
	"testing"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in         string
		wantOK     bool
		r, g, b, a float64
	}{
		{"#ff0000", true, 1, 0, 0, 1},
		{"#0f0", true, 0, 1, 0, 1},
		{"#0000ff80", true, 0, 0, 1, 128.0 / 255},
		{"rgb(255, 255, 0)", true, 1, 1, 0, 1},
		{"rgba(0, 0, 255, 0.5)", true, 0, 0, 1, 0.5},
		{"RGBA(100%, 0%, 0%, 1)", true, 1, 0, 0, 1},
		{"white", true, 1, 1, 1, 1},
		{"rgba(0, 0, 0, 0)", false, 0, 0, 0, 0},
		{"transparent", false, 0, 0, 0, 0},
		{"", false, 0, 0, 0, 0},
		{"#12", false, 0, 0, 0, 0},
		{"#zzzzzz", false, 0, 0, 0, 0},
		{"rgb(1, 2)", false, 0, 0, 0, 0},
		{"notacolor", false, 0, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseColor(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("parseColor(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			for _, ch := range []struct{ got, want float64 }{
				{got.R, tt.r}, {got.G, tt.g}, {got.B, tt.b}, {got.A, tt.a},
			} {
				if math.Abs(ch.got-ch.want) > 0.01 {
					t.Errorf("parseColor(%q) = %+v, want %v,%v,%v,%v", tt.in, got, tt.r, tt.g, tt.b, tt.a)
					break
				}
			}
		})
	}
}
