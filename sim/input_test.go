package sim

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestApplyTieBreaks(t *testing.T) {
	start := mgl64.Vec2{100, 100}
	cases := []struct {
		name string
		in   Input
		want mgl64.Vec2
	}{
		{"left and right", Input{Left: true, Right: true}, mgl64.Vec2{100 - Velocity, 100}},
		{"up and down", Input{Up: true, Down: true}, mgl64.Vec2{100, 100 - Velocity}},
		{"all four", Input{Left: true, Right: true, Up: true, Down: true}, mgl64.Vec2{100 - Velocity, 100 - Velocity}},
		{"right only", Input{Right: true}, mgl64.Vec2{100 + Velocity, 100}},
		{"down only", Input{Down: true}, mgl64.Vec2{100, 100 + Velocity}},
		{"idle", Input{}, start},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Apply(start, tc.in)
			if got != tc.want {
				t.Fatalf("Apply(%v, %v) = %v, want %v", start, tc.in, got, tc.want)
			}
		})
	}
}

func TestInputWithTickDoesNotMutate(t *testing.T) {
	in := Input{Left: true, Tick: 3}
	out := in.WithTick(9)
	if in.Tick != 3 || out.Tick != 9 || !out.Left {
		t.Fatalf("in=%v out=%v", in, out)
	}
	if !(Input{}).Idle() || in.Idle() {
		t.Fatal("Idle mismatch")
	}
}
