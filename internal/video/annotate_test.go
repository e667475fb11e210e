package video

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vzahanych/emotion-stream/internal/emotion"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestText(t *testing.T) {
	assert.Equal(t, "Emotion: happy", Text(emotion.Happy))
}

func TestAnnotator_DrawsRedTextNearPosition(t *testing.T) {
	a := NewAnnotator(AnnotatorConfig{FontSize: 24, X: 10, Y: 50})
	src := solid(320, 120, color.Black)

	out := a.Annotate(src, emotion.Surprise)
	require.Equal(t, src.Bounds(), out.Bounds())

	redInText, redElsewhere := 0, 0
	b := out.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := out.At(x, y).RGBA()
			if r>>8 > 128 && g>>8 < 64 && bl>>8 < 64 {
				if x >= 10 && y >= 20 && y <= 60 {
					redInText++
				} else {
					redElsewhere++
				}
			}
		}
	}
	assert.Greater(t, redInText, 50, "label glyphs are drawn above the baseline at (10, 50)")
	assert.Zero(t, redElsewhere)

	r, g, bl, _ := src.At(20, 40).RGBA()
	assert.Zero(t, r+g+bl, "source frame is left untouched")
}

func TestEncodeJPEG(t *testing.T) {
	img := solid(64, 48, color.White)

	data, err := EncodeJPEG(img, 95)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xD8}, data[:2])

	decoded, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())

	low, err := EncodeJPEG(img, 0)
	require.NoError(t, err, "out of range quality falls back to the default")
	assert.NotEmpty(t, low)
}
