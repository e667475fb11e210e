package emotion

import (
	"context"
	"image"
	"strings"
)

// Label is one of the fixed set of emotions the classifier can report
type Label string

const (
	Happy    Label = "happy"
	Sad      Label = "sad"
	Angry    Label = "angry"
	Surprise Label = "surprise"
	Fear     Label = "fear"
	Neutral  Label = "neutral"
	Disgust  Label = "disgust"
)

var labels = []Label{Happy, Sad, Angry, Surprise, Fear, Neutral, Disgust}

// Labels returns the closed label set in canonical order
func Labels() []Label {
	out := make([]Label, len(labels))
	copy(out, labels)
	return out
}

// Parse maps a raw classifier label onto the closed set
func Parse(s string) (Label, bool) {
	l := Label(strings.ToLower(strings.TrimSpace(s)))
	return l, l.Valid()
}

// Valid reports whether l belongs to the closed set
func (l Label) Valid() bool {
	for _, known := range labels {
		if l == known {
			return true
		}
	}
	return false
}

func (l Label) String() string {
	return string(l)
}

// Result is the outcome of classifying one frame. Either a face was found and
// Label is its dominant emotion, or no face was found and Label is the
// configured fallback.
type Result struct {
	Label    Label
	Detected bool
	Scores   map[Label]float64 // per-label confidence in percent, may be nil
}

// Detected builds a result for a frame with a recognised face
func Detected(label Label, scores map[Label]float64) Result {
	return Result{Label: label, Detected: true, Scores: scores}
}

// Undetected builds a fallback result for a frame without a usable face
func Undetected(fallback Label) Result {
	return Result{Label: fallback}
}

// Classifier returns the dominant emotion for one frame. Implementations
// never fail: anything inconclusive is reported as Undetected.
type Classifier interface {
	Classify(ctx context.Context, img image.Image) Result
}

// ClassifierFunc adapts a function to the Classifier interface
type ClassifierFunc func(ctx context.Context, img image.Image) Result

// Classify calls f(ctx, img)
func (f ClassifierFunc) Classify(ctx context.Context, img image.Image) Result {
	return f(ctx, img)
}
