package video

import (
	"fmt"
	"io"
	"net/http"
)

// Boundary separates the parts of the live stream
const Boundary = "frame"

// ContentType is the response type of the live stream
const ContentType = "multipart/x-mixed-replace; boundary=" + Boundary

// MultipartWriter writes JPEG parts of a multipart/x-mixed-replace body:
//
//	--frame\r\n
//	Content-Type: image/jpeg\r\n
//	\r\n
//	<jpeg>\r\n
type MultipartWriter struct {
	w       io.Writer
	flusher http.Flusher
	parts   int
	closed  bool
}

// NewMultipartWriter wraps w. When w is an http.Flusher every part is
// flushed as soon as it is written.
func NewMultipartWriter(w io.Writer) *MultipartWriter {
	mw := &MultipartWriter{w: w}
	if f, ok := w.(http.Flusher); ok {
		mw.flusher = f
	}
	return mw
}

// WritePart writes one JPEG part
func (m *MultipartWriter) WritePart(jpegData []byte) error {
	if m.closed {
		return fmt.Errorf("write part: stream closed")
	}
	if _, err := fmt.Fprintf(m.w, "--%s\r\nContent-Type: image/jpeg\r\n\r\n", Boundary); err != nil {
		return fmt.Errorf("write part header: %w", err)
	}
	if _, err := m.w.Write(jpegData); err != nil {
		return fmt.Errorf("write part body: %w", err)
	}
	if _, err := io.WriteString(m.w, "\r\n"); err != nil {
		return fmt.Errorf("write part trailer: %w", err)
	}
	if m.flusher != nil {
		m.flusher.Flush()
	}
	m.parts++
	return nil
}

// Parts returns the number of parts written
func (m *MultipartWriter) Parts() int {
	return m.parts
}

// Close writes the closing delimiter. Further calls are no-ops.
func (m *MultipartWriter) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	if _, err := fmt.Fprintf(m.w, "--%s--\r\n", Boundary); err != nil {
		return fmt.Errorf("write closing delimiter: %w", err)
	}
	if m.flusher != nil {
		m.flusher.Flush()
	}
	return nil
}
