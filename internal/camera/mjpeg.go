package camera

import (
	"context"
	"fmt"
	"image"
	"mime"
	"net/http"
	"strings"
	"sync"

	"github.com/mattn/go-mjpeg"
)

// MJPEGSource reads frames from a remote multipart/x-mixed-replace stream,
// such as an IP camera or another emotion-stream instance.
type MJPEGSource struct {
	resp    *http.Response
	decoder *mjpeg.Decoder
	once    sync.Once
}

// OpenMJPEG connects to url and prepares the part decoder
func OpenMJPEG(ctx context.Context, client *http.Client, url string) (*MJPEGSource, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("connect to %s: unexpected status %s", url, resp.Status)
	}

	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		resp.Body.Close()
		return nil, fmt.Errorf("not an mjpeg stream: content type %q", resp.Header.Get("Content-Type"))
	}

	dec, err := mjpeg.NewDecoderFromResponse(resp)
	if err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("not an mjpeg stream: %w", err)
	}
	return &MJPEGSource{resp: resp, decoder: dec}, nil
}

// MJPEGOpener returns an Opener for url
func MJPEGOpener(client *http.Client, url string) Opener {
	return func(ctx context.Context) (Source, error) {
		return OpenMJPEG(ctx, client, url)
	}
}

// NextFrame decodes the next part. The end of the remote body, or any
// undecodable part, ends the stream.
func (s *MJPEGSource) NextFrame() (image.Image, error) {
	img, err := s.decoder.Decode()
	if err != nil {
		return nil, endOfStream(err)
	}
	return img, nil
}

// Close drops the connection
func (s *MJPEGSource) Close() error {
	var err error
	s.once.Do(func() {
		err = s.resp.Body.Close()
	})
	return err
}
