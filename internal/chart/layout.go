// Package chart renders the emotion tally as a bar chart PNG.
package chart

import (
	"github.com/vzahanych/emotion-stream/internal/emotion"
	"github.com/vzahanych/emotion-stream/internal/history"
)

const (
	marginLeft   = 80.0
	marginRight  = 30.0
	marginTop    = 60.0
	marginBottom = 120.0

	// smallest canvas that leaves a plot area inside the margins
	MinWidth  = 200
	MinHeight = 240

	barFill  = 0.8
	maxTicks = 10
	headroom = 1.1
)

// Rect is an axis-aligned box in canvas pixels, origin top left
type Rect struct {
	X, Y, W, H float64
}

// Bar is one drawn bar
type Bar struct {
	Label emotion.Label
	Count int
	Rect  Rect
}

// Geometry is the computed layout of a chart
type Geometry struct {
	Width, Height int
	Plot          Rect
	YMax          float64
	Ticks         []int
	Bars          []Bar
}

// Layout places one bar per tally entry, in tally order. Bar height is
// proportional to its count; each bar takes barFill of its slot. Canvases
// smaller than MinWidth x MinHeight are laid out at the minimum size.
func Layout(width, height int, tally history.Tally) Geometry {
	width, height = clampSize(width, height)

	plot := Rect{
		X: marginLeft,
		Y: marginTop,
		W: float64(width) - marginLeft - marginRight,
		H: float64(height) - marginTop - marginBottom,
	}

	top := tally.Max()
	step := tickStep(top)
	yMax := float64(top) * headroom
	if yMax < float64(step) {
		yMax = float64(step)
	}

	g := Geometry{
		Width:  width,
		Height: height,
		Plot:   plot,
		YMax:   yMax,
	}
	for v := 0; float64(v) <= yMax; v += step {
		g.Ticks = append(g.Ticks, v)
	}

	if len(tally) == 0 {
		return g
	}

	slot := plot.W / float64(len(tally))
	barW := slot * barFill
	for i, c := range tally {
		h := float64(c.Count) / yMax * plot.H
		g.Bars = append(g.Bars, Bar{
			Label: c.Label,
			Count: c.Count,
			Rect: Rect{
				X: plot.X + float64(i)*slot + (slot-barW)/2,
				Y: plot.Y + plot.H - h,
				W: barW,
				H: h,
			},
		})
	}
	return g
}

func clampSize(width, height int) (int, int) {
	if width < MinWidth {
		width = MinWidth
	}
	if height < MinHeight {
		height = MinHeight
	}
	return width, height
}

// YFor maps a count to a canvas y coordinate
func (g Geometry) YFor(v float64) float64 {
	return g.Plot.Y + g.Plot.H - v/g.YMax*g.Plot.H
}

// tickStep picks an integer spacing that keeps the y axis under maxTicks ticks
func tickStep(top int) int {
	step := 1
	for (top+step-1)/step > maxTicks {
		switch {
		case isPow10(step):
			step *= 2
		case isPow10(step / 2):
			step = step / 2 * 5
		default:
			step = step / 5 * 10
		}
	}
	return step
}

func isPow10(n int) bool {
	for n >= 10 && n%10 == 0 {
		n /= 10
	}
	return n == 1
}
