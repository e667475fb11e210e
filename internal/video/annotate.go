package video

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/vzahanych/emotion-stream/internal/emotion"
)

// LabelColor is the overlay text color
var LabelColor = color.RGBA{R: 255, A: 255}

// AnnotatorConfig places the overlay text
type AnnotatorConfig struct {
	FontSize float64
	X, Y     float64
}

// Annotator burns the emotion label into frames
type Annotator struct {
	cfg AnnotatorConfig

	// font faces cache glyphs and are not safe for concurrent use
	mu   sync.Mutex
	face font.Face
}

// NewAnnotator loads the overlay font. If the bundled TrueType font cannot be
// parsed the fixed 7x13 bitmap face is used instead.
func NewAnnotator(cfg AnnotatorConfig) *Annotator {
	if cfg.FontSize <= 0 {
		cfg.FontSize = 24
	}
	return &Annotator{cfg: cfg, face: loadFace(cfg.FontSize)}
}

func loadFace(size float64) font.Face {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return basicfont.Face7x13
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return basicfont.Face7x13
	}
	return face
}

// Text returns the overlay string for label
func Text(label emotion.Label) string {
	return "Emotion: " + label.String()
}

// Annotate draws the label onto a copy of img. The baseline of the text sits
// at the configured position.
func (a *Annotator) Annotate(img image.Image, label emotion.Label) image.Image {
	dc := gg.NewContextForImage(img)

	a.mu.Lock()
	defer a.mu.Unlock()

	dc.SetFontFace(a.face)
	dc.SetColor(LabelColor)
	dc.DrawString(Text(label), a.cfg.X, a.cfg.Y)
	return dc.Image()
}

// EncodeJPEG encodes img as baseline JPEG
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality <= 0 || quality > 100 {
		quality = 95
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
