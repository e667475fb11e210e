package emotion

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"time"

	"github.com/disintegration/gift"
	"github.com/vzahanych/emotion-stream/internal/logger"
)

// AnalyzeRequest is the body of a DeepFace style /analyze call
type AnalyzeRequest struct {
	Image            string   `json:"img"` // data URI with a base64 JPEG
	Actions          []string `json:"actions"`
	EnforceDetection bool     `json:"enforce_detection"`
	DetectorBackend  string   `json:"detector_backend,omitempty"`
}

// FaceAnalysis is one analysed face region
type FaceAnalysis struct {
	DominantEmotion string             `json:"dominant_emotion"`
	Emotion         map[string]float64 `json:"emotion"`
	FaceConfidence  float64            `json:"face_confidence"`
	Region          map[string]int     `json:"region,omitempty"`
}

// AnalyzeResponse is the reply of the /analyze endpoint
type AnalyzeResponse struct {
	Results []FaceAnalysis `json:"results"`
}

// ClientConfig contains configuration for the classifier client
type ClientConfig struct {
	ServiceURL      string
	Timeout         time.Duration // 0 = no timeout
	Fallback        Label
	MaxWidth        int // downscale frames wider than this before upload, 0 = off
	DetectorBackend string
	JPEGQuality     int
}

// Client classifies frames with a remote emotion recognition service
type Client struct {
	serviceURL string
	httpClient *http.Client
	logger     *logger.Logger
	fallback   Label
	detector   string
	quality    int
	resize     *gift.GIFT
}

// NewClient creates a new classifier client
func NewClient(config ClientConfig, log *logger.Logger) *Client {
	if !config.Fallback.Valid() {
		config.Fallback = Neutral
	}
	if config.JPEGQuality == 0 {
		config.JPEGQuality = 90
	}

	c := &Client{
		serviceURL: config.ServiceURL,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     log,
		fallback:   config.Fallback,
		detector:   config.DetectorBackend,
		quality:    config.JPEGQuality,
	}
	if config.MaxWidth > 0 {
		c.resize = gift.New(gift.ResizeToFit(config.MaxWidth, config.MaxWidth*4, gift.LinearResampling))
	}
	return c
}

// Fallback returns the label reported when no face is found
func (c *Client) Fallback() Label {
	return c.fallback
}

// Classify sends one frame to the service and returns its dominant emotion.
// Transport and service failures are logged and reported as Undetected.
func (c *Client) Classify(ctx context.Context, img image.Image) Result {
	resp, err := c.Analyze(ctx, img)
	if err != nil {
		c.logger.Warn("Emotion analysis failed, using fallback", "error", err, "fallback", c.fallback)
		return Undetected(c.fallback)
	}
	return c.interpret(resp)
}

// Analyze performs the raw /analyze request
func (c *Client) Analyze(ctx context.Context, img image.Image) (*AnalyzeResponse, error) {
	payload, err := c.encode(img)
	if err != nil {
		return nil, err
	}

	req := AnalyzeRequest{
		Image:            "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(payload),
		Actions:          []string{"emotion"},
		EnforceDetection: false,
		DetectorBackend:  c.detector,
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/analyze", c.serviceURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	startTime := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("emotion service returned status %d: %s", resp.StatusCode, string(body))
	}

	var out AnalyzeResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	c.logger.Debug("Emotion analysis completed",
		"faces", len(out.Results),
		"request_duration_ms", time.Since(startTime).Milliseconds(),
	)

	return &out, nil
}

// interpret picks the most confident face and maps it onto the label set
func (c *Client) interpret(resp *AnalyzeResponse) Result {
	var best *FaceAnalysis
	for i := range resp.Results {
		r := &resp.Results[i]
		if best == nil || r.FaceConfidence > best.FaceConfidence {
			best = r
		}
	}
	if best == nil || best.FaceConfidence <= 0 {
		return Undetected(c.fallback)
	}

	label, ok := Parse(best.DominantEmotion)
	if !ok {
		c.logger.Warn("Emotion service returned unknown label", "label", best.DominantEmotion)
		return Undetected(c.fallback)
	}

	scores := make(map[Label]float64, len(best.Emotion))
	for name, score := range best.Emotion {
		if l, ok := Parse(name); ok {
			scores[l] = score
		}
	}

	return Detected(label, scores)
}

func (c *Client) encode(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("no image to analyze")
	}
	if c.resize != nil && img.Bounds().Dx() > c.resize.Bounds(img.Bounds()).Dx() {
		dst := image.NewRGBA(c.resize.Bounds(img.Bounds()))
		c.resize.Draw(dst, img)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: c.quality}); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	return buf.Bytes(), nil
}

// HealthCheck checks if the emotion service answers
func (c *Client) HealthCheck(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serviceURL+"/", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("emotion service health check failed: status %d", resp.StatusCode)
	}

	return nil
}
