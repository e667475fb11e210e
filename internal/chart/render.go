package chart

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"strconv"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/vzahanych/emotion-stream/internal/history"
)

var (
	barColor  = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	axisColor = color.Black
	gridColor = color.RGBA{R: 0xdd, G: 0xdd, B: 0xdd, A: 0xff}
)

// Config sets the canvas size and title
type Config struct {
	Width  int
	Height int
	Title  string
}

// Renderer draws tallies. It is safe for concurrent use.
type Renderer struct {
	cfg Config

	mu        sync.Mutex
	titleFace font.Face
	labelFace font.Face
	tickFace  font.Face
}

// NewRenderer creates a renderer
func NewRenderer(cfg Config) *Renderer {
	if cfg.Width <= 0 {
		cfg.Width = 800
	}
	if cfg.Height <= 0 {
		cfg.Height = 600
	}
	if cfg.Title == "" {
		cfg.Title = "Emotion distribution"
	}
	cfg.Width, cfg.Height = clampSize(cfg.Width, cfg.Height)
	return &Renderer{
		cfg:       cfg,
		titleFace: loadFace(20),
		labelFace: loadFace(16),
		tickFace:  loadFace(13),
	}
}

func loadFace(size float64) font.Face {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return basicfont.Face7x13
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return basicfont.Face7x13
	}
	return face
}

// Layout returns the geometry Render would draw for tally
func (r *Renderer) Layout(tally history.Tally) Geometry {
	return Layout(r.cfg.Width, r.cfg.Height, tally)
}

// Render draws tally and returns the PNG bytes. An empty tally gives a chart
// with axes and no bars.
func (r *Renderer) Render(tally history.Tally) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.RenderTo(&buf, tally); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderTo draws tally as PNG into w
func (r *Renderer) RenderTo(w io.Writer, tally history.Tally) error {
	g := r.Layout(tally)

	r.mu.Lock()
	defer r.mu.Unlock()

	dc := gg.NewContext(g.Width, g.Height)
	dc.SetColor(color.White)
	dc.Clear()

	r.drawGrid(dc, g)
	r.drawBars(dc, g)
	r.drawAxes(dc, g)

	dc.SetFontFace(r.titleFace)
	dc.SetColor(axisColor)
	dc.DrawStringAnchored(r.cfg.Title, float64(g.Width)/2, marginTop/2, 0.5, 0.5)

	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode chart: %w", err)
	}
	return nil
}

func (r *Renderer) drawGrid(dc *gg.Context, g Geometry) {
	dc.SetColor(gridColor)
	dc.SetLineWidth(1)
	for _, v := range g.Ticks[1:] {
		y := g.YFor(float64(v))
		dc.DrawLine(g.Plot.X, y, g.Plot.X+g.Plot.W, y)
		dc.Stroke()
	}
}

func (r *Renderer) drawBars(dc *gg.Context, g Geometry) {
	dc.SetFontFace(r.tickFace)
	for _, b := range g.Bars {
		dc.SetColor(barColor)
		dc.DrawRectangle(b.Rect.X, b.Rect.Y, b.Rect.W, b.Rect.H)
		dc.Fill()

		cx := b.Rect.X + b.Rect.W/2
		dc.SetColor(axisColor)
		dc.DrawStringAnchored(strconv.Itoa(b.Count), cx, b.Rect.Y-4, 0.5, 0)

		// tick labels run up and to the left, ending under the bar
		ly := g.Plot.Y + g.Plot.H + 10
		dc.Push()
		dc.RotateAbout(gg.Radians(-45), cx, ly)
		dc.DrawStringAnchored(b.Label.String(), cx, ly, 1, 0.5)
		dc.Pop()
	}
}

func (r *Renderer) drawAxes(dc *gg.Context, g Geometry) {
	x0, y0 := g.Plot.X, g.Plot.Y+g.Plot.H

	dc.SetColor(axisColor)
	dc.SetLineWidth(1.5)
	dc.DrawLine(x0, g.Plot.Y, x0, y0)
	dc.DrawLine(x0, y0, g.Plot.X+g.Plot.W, y0)
	dc.Stroke()

	dc.SetFontFace(r.tickFace)
	for _, v := range g.Ticks {
		y := g.YFor(float64(v))
		dc.DrawLine(x0-5, y, x0, y)
		dc.Stroke()
		dc.DrawStringAnchored(strconv.Itoa(v), x0-8, y, 1, 0.5)
	}

	dc.SetFontFace(r.labelFace)
	dc.DrawStringAnchored("Emotion", g.Plot.X+g.Plot.W/2, float64(g.Height)-15, 0.5, 0)

	dc.Push()
	ly := g.Plot.Y + g.Plot.H/2
	dc.RotateAbout(gg.Radians(-90), 25, ly)
	dc.DrawStringAnchored("Count", 25, ly, 0.5, 0.5)
	dc.Pop()
}
