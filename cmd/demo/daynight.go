package main

import (
	"fmt"
	stdmath "math"

	"render-core/core"
	"render-core/math"
)

// dayPalette holds the sky and light values for one key time of day.
type dayPalette struct {
	t          float32 // normalised time 0..1
	horizon    core.Color
	fogColor   core.Color
	fogDensity float32
	sunColor   core.Color
	ambient    core.Color
}

// palettes is ordered by t and wraps (0 == 1).
var palettes = []dayPalette{
	{ // noon
		t:          0.00,
		horizon:    core.Color{R: 0.58, G: 0.75, B: 0.95, A: 1},
		fogColor:   core.Color{R: 0.62, G: 0.78, B: 0.95, A: 1},
		fogDensity: 0.011,
		sunColor:   core.Color{R: 1.20, G: 1.18, B: 1.10, A: 1},
		ambient:    core.Color{R: 0.16, G: 0.18, B: 0.26, A: 1},
	},
	{ // golden hour
		t:          0.22,
		horizon:    core.Color{R: 0.90, G: 0.52, B: 0.18, A: 1},
		fogColor:   core.Color{R: 0.85, G: 0.55, B: 0.25, A: 1},
		fogDensity: 0.018,
		sunColor:   core.Color{R: 0.90, G: 0.58, B: 0.22, A: 1},
		ambient:    core.Color{R: 0.10, G: 0.12, B: 0.20, A: 1},
	},
	{ // dusk
		t:          0.30,
		horizon:    core.Color{R: 0.50, G: 0.22, B: 0.28, A: 1},
		fogColor:   core.Color{R: 0.35, G: 0.18, B: 0.22, A: 1},
		fogDensity: 0.020,
		sunColor:   core.Color{R: 0.18, G: 0.10, B: 0.14, A: 1},
		ambient:    core.Color{R: 0.06, G: 0.07, B: 0.14, A: 1},
	},
	{ // midnight
		t:          0.50,
		horizon:    core.Color{R: 0.04, G: 0.04, B: 0.08, A: 1},
		fogColor:   core.Color{R: 0.03, G: 0.03, B: 0.06, A: 1},
		fogDensity: 0.010,
		sunColor:   core.Color{R: 0.05, G: 0.05, B: 0.08, A: 1},
		ambient:    core.Color{R: 0.03, G: 0.04, B: 0.09, A: 1},
	},
	{ // dawn
		t:          0.78,
		horizon:    core.Color{R: 0.88, G: 0.45, B: 0.22, A: 1},
		fogColor:   core.Color{R: 0.75, G: 0.40, B: 0.20, A: 1},
		fogDensity: 0.015,
		sunColor:   core.Color{R: 0.70, G: 0.42, B: 0.20, A: 1},
		ambient:    core.Color{R: 0.09, G: 0.10, B: 0.17, A: 1},
	},
}

// DayNight drives the animated day/night cycle.
type DayNight struct {
	Time   float32 // 0..1: 0=noon, 0.25=sunset, 0.5=midnight, 0.75=sunrise
	Length float32 // full-cycle duration in seconds
	Active bool
}

// NewDayNight starts at noon. A zero length freezes the cycle.
func NewDayNight(length float32) *DayNight {
	return &DayNight{Length: length, Active: length > 0}
}

func (dn *DayNight) Update(dt float32) {
	if !dn.Active {
		return
	}
	dn.Time += dt / dn.Length
	for dn.Time >= 1 {
		dn.Time--
	}
}

func lerpColor(a, b core.Color, t float32) core.Color {
	return core.Color{
		R: math.Lerp(a.R, b.R, t),
		G: math.Lerp(a.G, b.G, t),
		B: math.Lerp(a.B, b.B, t),
		A: 1,
	}
}

// samplePalette interpolates the keyframes around t.
func samplePalette(t float32) dayPalette {
	n := len(palettes)
	a, b := palettes[n-1], palettes[0]
	span := 1 - a.t + b.t
	local := t - a.t
	if t < b.t {
		local = t + 1 - a.t
	}
	for i := 0; i+1 < n; i++ {
		if t >= palettes[i].t && t < palettes[i+1].t {
			a, b = palettes[i], palettes[i+1]
			span = b.t - a.t
			local = t - a.t
			break
		}
	}
	f := local / span

	return dayPalette{
		t:          t,
		horizon:    lerpColor(a.horizon, b.horizon, f),
		fogColor:   lerpColor(a.fogColor, b.fogColor, f),
		fogDensity: math.Lerp(a.fogDensity, b.fogDensity, f),
		sunColor:   lerpColor(a.sunColor, b.sunColor, f),
		ambient:    lerpColor(a.ambient, b.ambient, f),
	}
}

// SunDirection is the direction light travels: a full rotation in the XY
// plane, tilted along Z.
func (dn *DayNight) SunDirection() math.Vec3 {
	angle := float64(dn.Time * 2 * stdmath.Pi)
	return math.Vec3{
		X: float32(stdmath.Sin(angle)),
		Y: -float32(stdmath.Cos(angle)),
		Z: 0.35,
	}.Normalize()
}

func (dn *DayNight) Palette() dayPalette { return samplePalette(dn.Time) }

// TimeOfDayStr returns a human-readable time label.
func (dn *DayNight) TimeOfDayStr() string {
	hours := math.Clamp(dn.Time, 0, 1) * 24
	h := (int(hours) + 12) % 24
	m := int((hours - float32(int(hours))) * 60)
	period := "AM"
	displayH := h
	switch {
	case h == 0:
		displayH = 12
	case h == 12:
		period = "PM"
	case h > 12:
		displayH = h - 12
		period = "PM"
	}
	return fmt.Sprintf("%02d:%02d %s", displayH, m, period)
}
