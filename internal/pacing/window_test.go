package pacing

import (
	"testing"

	"github.com/friendsincode/orderpacing/internal/models"
)

func TestWindow(t *testing.T) {
	const T, F = int64(10_000), int64(900)

	tests := []struct {
		mode TimeframeMode
		want models.TimeWindow
	}{
		{mode: ModeBeforeOnly, want: models.TimeWindow{Start: T - F, End: T}},
		{mode: ModeAfterOnly, want: models.TimeWindow{Start: T, End: T + F}},
		{mode: ModeCentered, want: models.TimeWindow{Start: T - 450, End: T + 450}},
		{mode: ModeBeforeAndAfter, want: models.TimeWindow{Start: T - F, End: T + F}},
		{mode: "", want: models.TimeWindow{Start: T - F, End: T}},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			if got := Window(T, F, tt.mode); got != tt.want {
				t.Errorf("Window() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestWindowCenteredFloorsOddFrames(t *testing.T) {
	got := Window(100, 61, ModeCentered)
	if got.Start != 70 || got.End != 130 {
		t.Errorf("Window(100, 61, centered) = %+v, want [70, 130]", got)
	}
}

func TestWindowCenteredSymmetry(t *testing.T) {
	const F = int64(5 * 60)
	const T = int64(50_000)
	w := Window(T, 2*F, ModeCentered)

	for _, ts := range []int64{T - F, T + F} {
		if !w.Contains(ts) {
			t.Errorf("order at %d should be inside %+v", ts, w)
		}
	}
	for _, ts := range []int64{T - F - 60, T + F + 60} {
		if w.Contains(ts) {
			t.Errorf("order at %d should be outside %+v", ts, w)
		}
	}
}

func TestParseTimeframeMode(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeframeMode
		wantErr bool
	}{
		{in: "", want: ModeBeforeOnly},
		{in: "before_only", want: ModeBeforeOnly},
		{in: "AFTER_ONLY", want: ModeAfterOnly},
		{in: " centered ", want: ModeCentered},
		{in: "before_and_after", want: ModeBeforeAndAfter},
		{in: "sideways", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeframeMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("mode = %q, want %q", got, tt.want)
			}
		})
	}
}
