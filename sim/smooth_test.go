package sim

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestSmoothConvergesGeometrically(t *testing.T) {
	target := mgl64.Vec2{500, -250}
	display := mgl64.Vec2{0, 0}
	d := target.Sub(display).Len()

	for n := 1; n <= 40; n++ {
		display = Smooth(display, target, SmoothingFactor)
		want := d * math.Pow(1-SmoothingFactor, float64(n))
		got := target.Sub(display).Len()
		if math.Abs(got-want) > 1e-9*d {
			t.Fatalf("step %d: error=%g want %g", n, got, want)
		}
	}
}

func TestSmoothFallsBelowOneUnit(t *testing.T) {
	for _, d := range []float64{1, 10, 100, 1000, 2000} {
		expected := int(math.Ceil(math.Log(d) / math.Log(1/(1-SmoothingFactor))))
		display := mgl64.Vec2{0, 0}
		target := mgl64.Vec2{d, 0}
		steps := 0
		for target.Sub(display).Len() >= 1 {
			display = Smooth(display, target, SmoothingFactor)
			steps++
			if steps > expected+1 {
				t.Fatalf("d=%g: not within 1 unit after %d steps", d, steps)
			}
		}
	}
}

func TestSmoothSingleStepMovesTwentyPercent(t *testing.T) {
	got := Smooth(mgl64.Vec2{1000, 400}, mgl64.Vec2{990, 400}, SmoothingFactor)
	if math.Abs(got.X()-998) > 1e-12 || got.Y() != 400 {
		t.Fatalf("got %v", got)
	}
}
